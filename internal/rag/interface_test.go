package rag

import (
	"context"
	"errors"
	"testing"
)

func Test_RecordID_Deterministic(t *testing.T) {
	t.Parallel()

	a := RecordID("https://example.com/article")
	b := RecordID("https://example.com/article")
	if a != b {
		t.Errorf("same URL must yield same id: %s != %s", a, b)
	}
	if a == RecordID("https://example.com/other") {
		t.Error("different URLs must yield different ids")
	}
	// A Qdrant point id must be a canonical UUID string.
	if len(a) != 36 {
		t.Errorf("want canonical UUID form, got %q", a)
	}
}

// fakeEmbedder returns a fixed vector for every input text.
type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

// fakeStore records the last search call and returns canned hits.
type fakeStore struct {
	hits      []SearchResult
	lastTopK  int
	searchErr error
}

func (f *fakeStore) Upsert(context.Context, []Record) error          { return nil }
func (f *fakeStore) Delete(context.Context, []string) error         { return nil }
func (f *fakeStore) DeleteBySource(context.Context, string) error   { return nil }
func (f *fakeStore) Stats(context.Context) (Stats, error)           { return Stats{}, nil }
func (f *fakeStore) Dimension() int                                 { return 3 }
func (f *fakeStore) Close() error                                   { return nil }
func (f *fakeStore) Search(_ context.Context, _ []float32, topK int) ([]SearchResult, error) {
	f.lastTopK = topK
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.hits, nil
}

func Test_Retriever_EmbedsAndSearches(t *testing.T) {
	t.Parallel()

	store := &fakeStore{hits: []SearchResult{{ID: "1", Score: 0.9}}}
	r, err := NewRetriever(&fakeEmbedder{vector: []float32{1, 2, 3}}, store, 10)
	if err != nil {
		t.Fatalf("new retriever: %v", err)
	}

	hits, err := r.Retrieve(context.Background(), "climate tech", 7)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "1" {
		t.Errorf("unexpected hits: %+v", hits)
	}
	if store.lastTopK != 7 {
		t.Errorf("want topK 7 passed through, got %d", store.lastTopK)
	}
}

func Test_Retriever_DefaultTopK(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	r, err := NewRetriever(&fakeEmbedder{vector: []float32{1}}, store, 4)
	if err != nil {
		t.Fatalf("new retriever: %v", err)
	}

	if _, err := r.Retrieve(context.Background(), "q", 0); err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if store.lastTopK != 4 {
		t.Errorf("want default topK 4, got %d", store.lastTopK)
	}
}

func Test_Retriever_EmbedderErrorPropagates(t *testing.T) {
	t.Parallel()

	r, err := NewRetriever(&fakeEmbedder{err: errors.New("down")}, &fakeStore{}, 5)
	if err != nil {
		t.Fatalf("new retriever: %v", err)
	}

	if _, err := r.Retrieve(context.Background(), "q", 5); err == nil {
		t.Fatal("want error when embedder fails")
	}
}
