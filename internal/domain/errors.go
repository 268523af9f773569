package domain

import "errors"

// Domain errors represent business logic failures, distinct from
// infrastructure errors. Handlers map them onto HTTP status codes.
var (
	// ErrNotFound indicates a requested store entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument indicates a malformed request, message or payload.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUpstreamFailure indicates an external call (embedding, completion,
	// vector index, OCR, document store) failed after its retry budget.
	ErrUpstreamFailure = errors.New("upstream failure")

	// ErrDuplicateFound indicates the abort duplicate strategy hit an
	// already-crawled document id.
	ErrDuplicateFound = errors.New("duplicate document")

	// Reply-path precondition failures.

	// ErrNoHistory indicates a conversation has no non-empty history.
	ErrNoHistory = errors.New("no non-empty history")

	// ErrNoUserMessage indicates the history window contains no user message.
	ErrNoUserMessage = errors.New("no user message")

	// ErrNoQueryContent indicates the last user message has no children
	// with content to retrieve on.
	ErrNoQueryContent = errors.New("no query content")
)
