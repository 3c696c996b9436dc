package vectordb

import (
	"context"
	"math"
	"testing"
)

// mockEmbedder returns deterministic embeddings based on text content.
// It produces a simple hash-based vector for reproducible tests.
type mockEmbedder struct {
	dims int
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dims: dims}
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		results[i] = m.deterministicVector(text)
	}
	return results, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }
func (m *mockEmbedder) Name() string    { return "mock" }

// deterministicVector produces a normalized vector from text. Similar texts
// produce similar vectors because shared characters contribute to the same
// positions.
func (m *mockEmbedder) deterministicVector(text string) []float32 {
	vec := make([]float32, m.dims)
	for i, ch := range text {
		idx := (int(ch) + i) % m.dims
		vec[idx] += 1.0
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}

func testStore(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore(newMockEmbedder(64), "", "test_collection")
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}
	return store
}

func testDocs() []Document {
	return []Document{
		{
			ID:      "faq:1:0",
			Content: "pertanyaan: apa syarat membuat ktp\njawaban: membawa kartu keluarga dan surat pengantar",
			Metadata: Metadata{
				Source: SourceFAQ,
				FAQID:  "1",
				Title:  "apa syarat membuat ktp",
			},
		},
		{
			ID:      "faq:2:0",
			Content: "pertanyaan: berapa lama proses akta kelahiran\njawaban: tiga hari kerja",
			Metadata: Metadata{
				Source: SourceFAQ,
				FAQID:  "2",
				Title:  "berapa lama proses akta kelahiran",
			},
		},
		{
			ID:      "doc:d1:0",
			Content: "Pasal 1 Setiap penduduk wajib melaporkan peristiwa kependudukan",
			Metadata: Metadata{
				Source: SourceDocument,
				DocID:  "d1",
				Title:  "Perpres No. 96 Tahun 2018",
			},
		},
		{
			ID:      "doc:d1:1",
			Content: "Pasal 2 Pelaporan dilakukan kepada instansi pelaksana",
			Metadata: Metadata{
				Source: SourceDocument,
				DocID:  "d1",
				Title:  "Perpres No. 96 Tahun 2018",
			},
		},
	}
}

func TestChromemStore_AddAndSearch(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)

	if err := store.AddDocuments(ctx, testDocs()); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}
	if count := store.Count(); count != 4 {
		t.Errorf("Count: got %d, want 4", count)
	}

	results, err := store.Search(ctx, "syarat membuat ktp", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("Search returned no results")
	}
	if len(results) > 2 {
		t.Errorf("Search returned %d results, expected at most 2", len(results))
	}
	for _, r := range results {
		if r.Similarity == 0 {
			t.Error("result has zero similarity")
		}
	}
}

func TestChromemStore_SearchClampsK(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)

	if err := store.AddDocuments(ctx, testDocs()[:1]); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	// Asking for more results than the collection holds must not error.
	results, err := store.Search(ctx, "ktp", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results, want 1", len(results))
	}
}

func TestChromemStore_SearchEmpty(t *testing.T) {
	store := testStore(t)
	results, err := store.Search(context.Background(), "anything", 3)
	if err != nil {
		t.Fatalf("Search on empty store: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results from empty store, want 0", len(results))
	}
}

func TestChromemStore_DeleteWhere(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)

	if err := store.AddDocuments(ctx, testDocs()); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	n, err := store.DeleteWhere(ctx, "doc_id", "d1")
	if err != nil {
		t.Fatalf("DeleteWhere: %v", err)
	}
	if n != 2 {
		t.Errorf("DeleteWhere removed %d chunks, want 2", n)
	}
	if count := store.Count(); count != 2 {
		t.Errorf("Count after delete: got %d, want 2", count)
	}

	// Deleting an unknown key removes nothing and does not error.
	n, err = store.DeleteWhere(ctx, "doc_id", "missing")
	if err != nil {
		t.Fatalf("DeleteWhere missing key: %v", err)
	}
	if n != 0 {
		t.Errorf("DeleteWhere removed %d chunks for unknown key, want 0", n)
	}
}

func TestChromemStore_DeleteAll(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)

	if err := store.AddDocuments(ctx, testDocs()); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}
	if err := store.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if count := store.Count(); count != 0 {
		t.Errorf("Count after DeleteAll: got %d, want 0", count)
	}

	// The collection must remain usable after being cleared.
	if err := store.AddDocuments(ctx, testDocs()[:1]); err != nil {
		t.Fatalf("AddDocuments after DeleteAll: %v", err)
	}
	if count := store.Count(); count != 1 {
		t.Errorf("Count after re-add: got %d, want 1", count)
	}
}

func TestSnapshotPinsGenerationAcrossDeleteAll(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)

	if err := store.AddDocuments(ctx, testDocs()); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}
	view := store.Snapshot()

	if err := store.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}

	// The pinned view still serves the old generation while the live
	// collection is empty.
	results, err := view.Search(ctx, "syarat membuat ktp", 2)
	if err != nil {
		t.Fatalf("snapshot Search: %v", err)
	}
	if len(results) == 0 {
		t.Error("snapshot lost its contents after DeleteAll")
	}
	if live, err := store.Search(ctx, "syarat membuat ktp", 2); err != nil || len(live) != 0 {
		t.Errorf("live Search after DeleteAll: %d results, err %v; want none", len(live), err)
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	meta := Metadata{
		Source:       SourceDocument,
		DocID:        "d9",
		Title:        "Permendagri No. 108",
		SectionIndex: 2,
	}
	got := mapToMetadata(metadataToMap(meta))
	if got != meta {
		t.Errorf("metadata round trip: got %+v, want %+v", got, meta)
	}
}
