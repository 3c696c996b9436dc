package vectordb

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/pemkab-anambas/dukcapil-chatbot/internal/embeddings"
)

// ChromemStore implements Store using chromem-go. The collection pointer
// is re-established by DeleteAll and Load, so access goes through an
// RWMutex; chromem itself is safe for concurrent use.
type ChromemStore struct {
	db        *chromem.DB
	name      string
	embedFunc chromem.EmbeddingFunc

	mu         sync.RWMutex
	collection *chromem.Collection
}

func (s *ChromemStore) col() *chromem.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collection
}

func (s *ChromemStore) setCol(c *chromem.Collection) {
	s.mu.Lock()
	s.collection = c
	s.mu.Unlock()
}

// NewChromemStore creates a ChromemStore. When persistDir is non-empty the
// collection is backed by an on-disk database and survives restarts;
// otherwise it lives in memory.
func NewChromemStore(embedder embeddings.Embedder, persistDir, collectionName string) (*ChromemStore, error) {
	var db *chromem.DB
	var err error
	if persistDir != "" {
		db, err = chromem.NewPersistentDB(persistDir, false)
		if err != nil {
			return nil, fmt.Errorf("open persistent store %s: %w", persistDir, err)
		}
	} else {
		db = chromem.NewDB()
	}

	ef := embeddings.ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &ChromemStore{
		db:         db,
		collection: col,
		name:       collectionName,
		embedFunc:  ef,
	}, nil
}

func (s *ChromemStore) AddDocuments(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	chromDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		chromDocs[i] = chromem.Document{
			ID:       doc.ID,
			Content:  doc.Content,
			Metadata: metadataToMap(doc.Metadata),
		}
	}

	return s.col().AddDocuments(ctx, chromDocs, 1)
}

func (s *ChromemStore) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	return queryCollection(ctx, s.col(), query, k)
}

// Snapshot pins the current collection object. DeleteAll replaces the
// collection rather than emptying it, so a pinned generation keeps
// answering queries with its full contents throughout a rebuild.
func (s *ChromemStore) Snapshot() Searcher {
	return collectionView{col: s.col()}
}

// collectionView serves reads against one pinned collection generation.
type collectionView struct {
	col *chromem.Collection
}

func (v collectionView) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	return queryCollection(ctx, v.col, query, k)
}

func queryCollection(ctx context.Context, col *chromem.Collection, query string, k int) ([]SearchResult, error) {
	if k <= 0 {
		k = 3
	}

	// chromem-go requires nResults <= collection size.
	if count := col.Count(); k > count && count > 0 {
		k = count
	} else if count == 0 {
		return nil, nil
	}

	results, err := col.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	searchResults := make([]SearchResult, len(results))
	for i, r := range results {
		searchResults[i] = SearchResult{
			Document: Document{
				ID:       r.ID,
				Content:  r.Content,
				Metadata: mapToMetadata(r.Metadata),
			},
			Similarity: r.Similarity,
		}
	}

	return searchResults, nil
}

func (s *ChromemStore) DeleteWhere(ctx context.Context, field, value string) (int, error) {
	before := s.col().Count()
	if before == 0 {
		return 0, nil
	}

	where := map[string]string{field: value}
	if err := s.col().Delete(ctx, where, nil); err != nil {
		return 0, fmt.Errorf("chromem delete %s=%s: %w", field, value, err)
	}

	return before - s.col().Count(), nil
}

// DeleteAll drops and recreates the collection. chromem-go has no
// unconditional delete, so the clear-everything capability is realized by
// replacing the collection under the same name and embedding function.
// Views pinned via Snapshot keep serving the replaced generation.
func (s *ChromemStore) DeleteAll(ctx context.Context) error {
	if err := s.db.DeleteCollection(s.name); err != nil {
		return fmt.Errorf("chromem delete collection: %w", err)
	}

	col, err := s.db.GetOrCreateCollection(s.name, nil, s.embedFunc)
	if err != nil {
		return fmt.Errorf("recreate collection: %w", err)
	}
	s.setCol(col)
	return nil
}

func (s *ChromemStore) Persist(ctx context.Context, dir string) error {
	return s.db.ExportToFile(dir+"/chromem.gob.gz", true, "")
}

func (s *ChromemStore) Load(ctx context.Context, dir string) error {
	err := s.db.ImportFromFile(dir+"/chromem.gob.gz", "")
	if err != nil {
		return fmt.Errorf("import from file: %w", err)
	}

	// Re-acquire collection reference after import.
	col := s.db.GetCollection(s.name, s.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", s.name)
	}
	s.setCol(col)
	return nil
}

func (s *ChromemStore) Count() int {
	return s.col().Count()
}

// metadataToMap converts Metadata to a flat map[string]string for chromem.
// Empty fields are omitted so metadata filters match only populated keys.
func metadataToMap(m Metadata) map[string]string {
	md := map[string]string{
		"source": string(m.Source),
	}
	if m.FAQID != "" {
		md["faq_id"] = m.FAQID
	}
	if m.DocID != "" {
		md["doc_id"] = m.DocID
	}
	if m.Title != "" {
		md["title"] = m.Title
	}
	if m.SectionIndex > 0 {
		md["section_index"] = strconv.Itoa(m.SectionIndex)
	}
	return md
}

// mapToMetadata converts a flat map[string]string back to Metadata.
func mapToMetadata(m map[string]string) Metadata {
	sectionIndex, _ := strconv.Atoi(m["section_index"])
	return Metadata{
		Source:       Source(m["source"]),
		FAQID:        m["faq_id"],
		DocID:        m["doc_id"],
		Title:        m["title"],
		SectionIndex: sectionIndex,
	}
}
