// Package index builds and serves the immutable TF-IDF index over the
// knowledge corpus. An Index is constructed once from the full document set
// and is read-only afterwards; any corpus change requires building a new
// Index and swapping it in via a Handle.
package index

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/narongchai190/soiler/internal/retrieval/token"
	apperrors "github.com/narongchai190/soiler/pkg/errors"
)

// Section is one (heading, body) pair of a structured document.
type Section struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// Document is a single reference document as supplied by the corpus loader.
// Once handed to Build it must not be mutated.
type Document struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`
	Text     string    `json:"text"`
	Sections []Section `json:"sections,omitempty"`
}

// Posting records one document containing a term, with the term's raw
// occurrence count in that document. Frequency is always >= 1; zero-count
// postings are never stored.
type Posting struct {
	DocID     string
	Frequency int
}

// Index is the frozen term-document representation. All maps are private and
// no method mutates them after Build returns, so an Index may be shared by
// any number of concurrent readers without locking.
type Index struct {
	postings map[string][]Posting
	idf      map[string]float64
	docs     map[string]Document
	docCount int
}

// Build constructs an Index from the given documents in a single pass per
// document. Duplicate document ids fail with ErrDuplicateDocument naming the
// offending id; no partially built Index is returned. An empty corpus yields
// a valid Index with no terms.
func Build(docs []Document) (*Index, error) {
	idx := &Index{
		postings: make(map[string][]Posting),
		idf:      make(map[string]float64),
		docs:     make(map[string]Document, len(docs)),
		docCount: len(docs),
	}

	for _, doc := range docs {
		if _, exists := idx.docs[doc.ID]; exists {
			return nil, fmt.Errorf("%w: %q", apperrors.ErrDuplicateDocument, doc.ID)
		}
		idx.docs[doc.ID] = doc

		freqs := make(map[string]int)
		for _, term := range token.Normalize(tokenStream(doc)) {
			freqs[term]++
		}
		for term, freq := range freqs {
			idx.postings[term] = append(idx.postings[term], Posting{
				DocID:     doc.ID,
				Frequency: freq,
			})
		}
	}

	for term, postings := range idx.postings {
		sort.Slice(postings, func(i, j int) bool {
			return postings[i].DocID < postings[j].DocID
		})
		// df >= 1 by construction: a term only exists here because at
		// least one posting referenced it.
		idx.idf[term] = math.Log(float64(idx.docCount) / float64(len(postings)))
	}
	return idx, nil
}

// tokenStream yields the single stream that gets tokenized for a document.
// Text is the full raw content and already contains the section bodies, so
// it is the stream; a document with no text falls back to its section bodies
// concatenated. Headings carry no extra weight either way.
func tokenStream(doc Document) string {
	if doc.Text != "" || len(doc.Sections) == 0 {
		return doc.Text
	}
	bodies := make([]string, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		bodies = append(bodies, s.Body)
	}
	return strings.Join(bodies, " ")
}

// Postings returns the posting list for a term, sorted by DocID. It returns
// nil for terms absent from the index. Callers must not modify the returned
// slice.
func (x *Index) Postings(term string) []Posting {
	return x.postings[term]
}

// IDF returns ln(N/df) for an indexed term and 0 for unknown terms.
func (x *Index) IDF(term string) float64 {
	return x.idf[term]
}

// HasTerm reports whether the term occurs in at least one document.
func (x *Index) HasTerm(term string) bool {
	_, ok := x.postings[term]
	return ok
}

// DocCount returns the total number of indexed documents N.
func (x *Index) DocCount() int {
	return x.docCount
}

// TermCount returns the number of distinct indexed terms.
func (x *Index) TermCount() int {
	return len(x.postings)
}

// Terms returns all indexed terms in lexicographic order.
func (x *Index) Terms() []string {
	terms := make([]string, 0, len(x.postings))
	for term := range x.postings {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// Document returns the indexed document with the given id.
func (x *Index) Document(id string) (Document, bool) {
	doc, ok := x.docs[id]
	return doc, ok
}

// Documents returns the id -> Document mapping backing this Index. The map
// is shared, not copied; callers must treat it as read-only.
func (x *Index) Documents() map[string]Document {
	return x.docs
}

// DocumentList returns all indexed documents sorted by id.
func (x *Index) DocumentList() []Document {
	out := make([]Document, 0, len(x.docs))
	for _, doc := range x.docs {
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}
