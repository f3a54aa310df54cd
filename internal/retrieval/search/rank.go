package search

import "sort"

// Rank orders scored documents by descending score, breaking ties by
// ascending DocID so equal scores always produce the same order, and
// truncates to topK. Fewer candidates than topK is not an error; all are
// returned.
func Rank(scored []ScoredDoc, topK int) []ScoredDoc {
	if topK <= 0 {
		return []ScoredDoc{}
	}
	ranked := make([]ScoredDoc, len(scored))
	copy(ranked, scored)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].DocID < ranked[j].DocID
	})
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}
