// Package retrieval is the facade over the knowledge-retrieval engine:
// it owns the index Handle and runs the normalize → score → rank → cite
// pipeline for each query against a single immutable index snapshot.
package retrieval

import (
	"log/slog"

	"github.com/narongchai190/soiler/internal/retrieval/citation"
	"github.com/narongchai190/soiler/internal/retrieval/index"
	"github.com/narongchai190/soiler/internal/retrieval/search"
	"github.com/narongchai190/soiler/pkg/config"
)

// Retriever serves concurrent searches against the current index snapshot.
// It is safe for concurrent use: the index is immutable and swaps are atomic.
type Retriever struct {
	handle        *index.Handle
	defaultTopK   int
	maxTopK       int
	snippetLength int
	logger        *slog.Logger
}

// New creates a Retriever serving the given Index with limits taken from
// the retrieval config.
func New(idx *index.Index, cfg config.RetrievalConfig) *Retriever {
	return &Retriever{
		handle:        index.NewHandle(idx),
		defaultTopK:   cfg.DefaultTopK,
		maxTopK:       cfg.MaxTopK,
		snippetLength: cfg.SnippetLength,
		logger:        slog.Default().With("component", "retriever"),
	}
}

// Search runs one query and returns at most topK cited results. topK <= 0
// selects the configured default; values above the configured maximum are
// clamped. Empty and unmatched queries return an empty slice, not an error;
// the only possible error is an index/corpus integrity violation.
func (r *Retriever) Search(query string, topK int) ([]citation.SearchResult, error) {
	if topK <= 0 {
		topK = r.defaultTopK
	}
	if r.maxTopK > 0 && topK > r.maxTopK {
		topK = r.maxTopK
	}

	idx := r.handle.Load()
	ranked := search.Search(idx, query, topK)
	results, err := citation.Format(ranked, idx.Documents(), r.snippetLength)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("search executed",
		"query", query,
		"top_k", topK,
		"results", len(results),
	)
	return results, nil
}

// Swap atomically replaces the served index with a freshly built one.
func (r *Retriever) Swap(idx *index.Index) {
	r.handle.Swap(idx)
	r.logger.Info("index swapped",
		"documents", idx.DocCount(),
		"terms", idx.TermCount(),
	)
}

// Index returns the current index snapshot.
func (r *Retriever) Index() *index.Index {
	return r.handle.Load()
}
