package retrieval

import (
	"sync"
	"testing"

	"github.com/narongchai190/soiler/internal/retrieval/index"
	"github.com/narongchai190/soiler/pkg/config"
)

func testRetriever(t *testing.T) *Retriever {
	t.Helper()
	idx, err := index.Build([]index.Document{
		{ID: "D1", Source: "Handbook", Text: "soil pH correction for acidic soil"},
		{ID: "D2", Source: "Handbook", Text: "fertilizer schedule for rice"},
		{ID: "D3", Source: "Handbook", Text: "soil pH correction using dolomite"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return New(idx, config.RetrievalConfig{DefaultTopK: 3, MaxTopK: 5, SnippetLength: 100})
}

func TestRetrieverSearch(t *testing.T) {
	r := testRetriever(t)
	results, err := r.Search("soil pH correction", 2)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].DocumentID != "D1" {
		t.Errorf("top result = %s, want D1", results[0].DocumentID)
	}
	if results[0].Snippet == "" || results[0].Source == "" {
		t.Error("results must carry snippet and source")
	}
}

func TestRetrieverTopKDefaults(t *testing.T) {
	r := testRetriever(t)

	// topK <= 0 selects the configured default of 3; only 2 match.
	results, err := r.Search("soil", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("default topK: got %d results, want 2", len(results))
	}

	// Above-max requests clamp rather than error.
	if _, err := r.Search("soil", 500); err != nil {
		t.Errorf("clamped search returned error: %v", err)
	}
}

func TestRetrieverEmptyQuery(t *testing.T) {
	r := testRetriever(t)
	results, err := r.Search("", 3)
	if err != nil {
		t.Fatalf("empty query must not error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("empty query returned %v", results)
	}
}

func TestRetrieverSwap(t *testing.T) {
	r := testRetriever(t)
	replacement, err := index.Build([]index.Document{
		{ID: "N1", Source: "New", Text: "cassava starch content"},
	})
	if err != nil {
		t.Fatal(err)
	}
	r.Swap(replacement)

	results, err := r.Search("cassava", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].DocumentID != "N1" {
		t.Errorf("post-swap search = %v, want N1", results)
	}
	if res, _ := r.Search("dolomite", 3); len(res) != 0 {
		t.Error("old corpus still served after swap")
	}
}

func TestRetrieverConcurrentSearchAndSwap(t *testing.T) {
	r := testRetriever(t)
	replacement, err := index.Build([]index.Document{
		{ID: "N1", Text: "soil compaction"},
	})
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if _, err := r.Search("soil", 3); err != nil {
					t.Errorf("concurrent search failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 50; j++ {
			r.Swap(replacement)
		}
	}()
	wg.Wait()
}
