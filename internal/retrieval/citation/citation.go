// Package citation turns ranked search hits into user-facing results with
// source attribution and a bounded-length excerpt of the document text.
package citation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/narongchai190/soiler/internal/retrieval/index"
	"github.com/narongchai190/soiler/internal/retrieval/search"
	apperrors "github.com/narongchai190/soiler/pkg/errors"
)

// SearchResult is the final per-hit value handed to callers: document id,
// the score carried through unchanged from ranking, a snippet, and the
// document's citation label. It lives for one request only.
type SearchResult struct {
	DocumentID string  `json:"document_id"`
	Score      float64 `json:"score"`
	Snippet    string  `json:"snippet"`
	Source     string  `json:"source"`
}

// Format resolves each ranked id against the document map and attaches a
// snippet and source. A missing id means the index and the corpus have
// diverged; that is a fatal integrity violation returned as
// ErrUnknownDocument, never silently skipped.
func Format(ranked []search.ScoredDoc, docs map[string]index.Document, snippetLen int) ([]SearchResult, error) {
	results := make([]SearchResult, 0, len(ranked))
	for _, sd := range ranked {
		doc, ok := docs[sd.DocID]
		if !ok {
			return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownDocument, sd.DocID)
		}
		results = append(results, SearchResult{
			DocumentID: doc.ID,
			Score:      sd.Score,
			Snippet:    Snippet(doc.Text, snippetLen),
			Source:     doc.Source,
		})
	}
	return results, nil
}

// Snippet returns the first maxRunes characters of text, cut back to the
// nearest preceding whitespace so words are never split. Text shorter than
// the limit is returned whole.
func Snippet(text string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	cut := runes[:maxRunes]
	boundary := -1
	for i := len(cut) - 1; i > 0; i-- {
		if unicode.IsSpace(cut[i]) {
			boundary = i
			break
		}
	}
	if boundary > 0 {
		cut = cut[:boundary]
	}
	return strings.TrimRightFunc(string(cut), unicode.IsSpace)
}

// Context joins result snippets into a single block of at most maxChars
// bytes, each prefixed with its document id, for inclusion in a report.
func Context(results []SearchResult, maxChars int) string {
	var parts []string
	total := 0
	for _, r := range results {
		if total+len(r.Snippet) > maxChars {
			break
		}
		parts = append(parts, fmt.Sprintf("[%s]: %s", r.DocumentID, r.Snippet))
		total += len(r.Snippet)
	}
	return strings.Join(parts, "\n\n")
}
