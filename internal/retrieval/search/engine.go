// Package search scores queries against the immutable index and ranks the
// results. Scoring is a raw TF-IDF dot product with no length normalization;
// changing that would change observable ranking order on the small corpora
// this engine serves.
package search

import (
	"sort"

	"github.com/narongchai190/soiler/internal/retrieval/index"
	"github.com/narongchai190/soiler/internal/retrieval/token"
)

// ScoredDoc pairs a document id with its relevance score for one query.
type ScoredDoc struct {
	DocID string  `json:"doc_id"`
	Score float64 `json:"score"`
}

// Score computes TF-IDF scores for every document matched by at least one
// query term. The result is unordered; hand it to Rank. Documents matched by
// no query term are excluded rather than scored zero, so the corpus is never
// scanned in full.
//
// Terms are accumulated in lexicographic order so that floating-point
// addition happens in a fixed order and scores are reproducible across runs.
func Score(idx *index.Index, query string) []ScoredDoc {
	queryTF := make(map[string]int)
	for _, term := range token.Normalize(query) {
		queryTF[term]++
	}
	if len(queryTF) == 0 {
		return nil
	}

	terms := make([]string, 0, len(queryTF))
	for term := range queryTF {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	scores := make(map[string]float64)
	for _, term := range terms {
		postings := idx.Postings(term)
		if len(postings) == 0 {
			// Query terms absent from the index contribute nothing.
			continue
		}
		weight := float64(queryTF[term]) * idx.IDF(term)
		for _, p := range postings {
			scores[p.DocID] += weight * float64(p.Frequency)
		}
	}

	result := make([]ScoredDoc, 0, len(scores))
	for docID, score := range scores {
		result = append(result, ScoredDoc{DocID: docID, Score: score})
	}
	return result
}

// Search scores and ranks a query in one call, returning at most topK
// results. Empty or all-stop-word queries and topK <= 0 yield an empty
// slice, never an error.
func Search(idx *index.Index, query string, topK int) []ScoredDoc {
	if topK <= 0 {
		return []ScoredDoc{}
	}
	return Rank(Score(idx, query), topK)
}
