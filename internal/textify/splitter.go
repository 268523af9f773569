// Package textify turns crawled documents into fixed-length text fragments
// across the title, body and OCR extraction sources.
package textify

import (
	"github.com/jwyoon/noticebot/internal/domain"
)

// Split slices the extracted text of one document into fragments of at most
// length runes, once per configured length. Offsets are rune offsets and the
// last fragment's end is clamped to the text length; zero-length fragments
// are dropped. Ids derive only from the coordinates, so re-splitting the
// same text produces the same ids.
func Split(documentID, text string, source domain.FragmentSource, lengths []int) []domain.TextFragment {
	runes := []rune(text)
	fragments := make([]domain.TextFragment, 0)
	for _, length := range lengths {
		if length <= 0 {
			continue
		}
		for start := 0; start < len(runes); start += length {
			end := min(start+length, len(runes))
			content := string(runes[start:end])
			if content == "" {
				continue
			}
			fragments = append(fragments, domain.TextFragment{
				ID:         domain.FragmentID(documentID, source, start, end),
				DocumentID: documentID,
				Source:     source,
				Content:    content,
				StartIndex: start,
				EndIndex:   end,
			})
		}
	}
	return fragments
}
