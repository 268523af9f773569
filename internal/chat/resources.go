package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwyoon/noticebot/internal/domain"
	"github.com/jwyoon/noticebot/internal/store"
)

// ResourceStore manages the website and session records that messages hang
// off of.
type ResourceStore struct {
	docs store.DocumentStore
}

func NewResourceStore(docs store.DocumentStore) *ResourceStore {
	return &ResourceStore{docs: docs}
}

func (s *ResourceStore) AddWebsite(ctx context.Context, name string) (domain.Website, error) {
	if name == "" {
		return domain.Website{}, fmt.Errorf("%w: website name is empty", domain.ErrInvalidArgument)
	}
	website := domain.Website{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(website)
	if err != nil {
		return domain.Website{}, err
	}
	if err := s.docs.Set(ctx, store.Websites(), website.ID, data); err != nil {
		return domain.Website{}, fmt.Errorf("%w: writing website: %v", domain.ErrUpstreamFailure, err)
	}
	return website, nil
}

func (s *ResourceStore) GetWebsite(ctx context.Context, websiteID string) (domain.Website, error) {
	raw, err := s.docs.Get(ctx, store.Websites(), websiteID)
	if err != nil {
		return domain.Website{}, err
	}
	var website domain.Website
	if err := json.Unmarshal(raw, &website); err != nil {
		return domain.Website{}, fmt.Errorf("%w: website %s is not valid JSON: %v", domain.ErrInvalidArgument, websiteID, err)
	}
	return website, nil
}

func (s *ResourceStore) ListWebsites(ctx context.Context) ([]domain.Website, error) {
	raw, err := s.docs.List(ctx, store.Websites())
	if err != nil {
		return nil, fmt.Errorf("%w: listing websites: %v", domain.ErrUpstreamFailure, err)
	}
	websites := make([]domain.Website, 0, len(raw))
	for id, data := range raw {
		var website domain.Website
		if err := json.Unmarshal(data, &website); err != nil {
			return nil, fmt.Errorf("%w: website %s is not valid JSON: %v", domain.ErrInvalidArgument, id, err)
		}
		websites = append(websites, website)
	}
	sort.Slice(websites, func(i, j int) bool { return websites[i].CreatedAt.Before(websites[j].CreatedAt) })
	return websites, nil
}

func (s *ResourceStore) DeleteWebsite(ctx context.Context, websiteID string) error {
	if _, err := s.GetWebsite(ctx, websiteID); err != nil {
		return err
	}
	return s.docs.Delete(ctx, store.Websites(), websiteID)
}

func (s *ResourceStore) AddSession(ctx context.Context, websiteID string) (domain.Session, error) {
	if _, err := s.GetWebsite(ctx, websiteID); err != nil {
		return domain.Session{}, err
	}
	session := domain.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(session)
	if err != nil {
		return domain.Session{}, err
	}
	if err := s.docs.Set(ctx, store.WebsiteSessions(websiteID), session.ID, data); err != nil {
		return domain.Session{}, fmt.Errorf("%w: writing session: %v", domain.ErrUpstreamFailure, err)
	}
	return session, nil
}

func (s *ResourceStore) GetSession(ctx context.Context, websiteID, sessionID string) (domain.Session, error) {
	raw, err := s.docs.Get(ctx, store.WebsiteSessions(websiteID), sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return domain.Session{}, fmt.Errorf("%w: session %s is not valid JSON: %v", domain.ErrInvalidArgument, sessionID, err)
	}
	return session, nil
}

func (s *ResourceStore) DeleteSession(ctx context.Context, websiteID, sessionID string) error {
	if _, err := s.GetSession(ctx, websiteID, sessionID); err != nil {
		return err
	}
	return s.docs.Delete(ctx, store.WebsiteSessions(websiteID), sessionID)
}
