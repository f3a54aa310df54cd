package benchmark

import (
	"fmt"
	"testing"

	"github.com/narongchai190/soiler/internal/retrieval"
	"github.com/narongchai190/soiler/internal/retrieval/index"
	"github.com/narongchai190/soiler/internal/retrieval/search"
	"github.com/narongchai190/soiler/pkg/config"
)

var benchQueries = []struct {
	name  string
	query string
}{
	{"single_term", "nitrogen"},
	{"two_terms", "lime acidic"},
	{"long", "nitrogen phosphorus potassium fertilizer application rates for rice"},
	{"zero_result", "zirconium smelting"},
}

// BenchmarkScore measures raw TF-IDF scoring for different corpus sizes.
func BenchmarkScore(b *testing.B) {
	sizes := []int{100, 1000, 10000}
	for _, size := range sizes {
		idx, err := index.Build(syntheticCorpus(size))
		if err != nil {
			b.Fatal(err)
		}
		b.Run(fmt.Sprintf("docs_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				scored := search.Score(idx, "nitrogen lime fertilizer")
				_ = scored
			}
		})
	}
}

// BenchmarkSearch measures score-and-rank latency per query shape.
func BenchmarkSearch(b *testing.B) {
	idx, err := index.Build(syntheticCorpus(10000))
	if err != nil {
		b.Fatal(err)
	}
	for _, q := range benchQueries {
		b.Run(q.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				results := search.Search(idx, q.query, 10)
				_ = results
			}
		})
	}
}

// BenchmarkRank measures sorting and truncation at varying candidate counts.
func BenchmarkRank(b *testing.B) {
	sizes := []int{10, 100, 1000, 10000}
	for _, size := range sizes {
		scored := make([]search.ScoredDoc, size)
		for i := range scored {
			scored[i] = search.ScoredDoc{
				DocID: fmt.Sprintf("DOC-%05d", i),
				Score: float64((i * 7919) % size),
			}
		}
		b.Run(fmt.Sprintf("candidates_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				ranked := search.Rank(scored, 10)
				_ = ranked
			}
		})
	}
}

// BenchmarkRetrieverSearch measures the full normalize, score, rank, and cite
// pipeline including snippet extraction.
func BenchmarkRetrieverSearch(b *testing.B) {
	idx, err := index.Build(syntheticCorpus(10000))
	if err != nil {
		b.Fatal(err)
	}
	retriever := retrieval.New(idx, config.RetrievalConfig{
		DefaultTopK:   3,
		MaxTopK:       25,
		SnippetLength: 300,
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		results, err := retriever.Search("nitrogen lime fertilizer", 5)
		if err != nil {
			b.Fatal(err)
		}
		_ = results
	}
}

// BenchmarkRetrieverSearchParallel measures concurrent read throughput
// against a single immutable snapshot.
func BenchmarkRetrieverSearchParallel(b *testing.B) {
	idx, err := index.Build(syntheticCorpus(10000))
	if err != nil {
		b.Fatal(err)
	}
	retriever := retrieval.New(idx, config.RetrievalConfig{
		DefaultTopK:   3,
		MaxTopK:       25,
		SnippetLength: 300,
	})

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			results, _ := retriever.Search("nitrogen lime fertilizer", 5)
			_ = results
		}
	})
}
