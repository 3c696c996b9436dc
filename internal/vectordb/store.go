package vectordb

import "context"

// Searcher is the read-only similarity-search capability of a Store.
type Searcher interface {
	// Search returns the k most similar documents for the query text.
	Search(ctx context.Context, query string, k int) ([]SearchResult, error)
}

// Store defines the capability the index manager requires from a vector
// engine: bulk upsert, similarity search, metadata-scoped delete and an
// exact count. Engine-specific fallbacks live behind this interface, not
// in the callers.
type Store interface {
	Searcher

	// AddDocuments adds or updates documents in the store.
	AddDocuments(ctx context.Context, docs []Document) error

	// Snapshot pins the current collection generation for reads. Queries
	// through the snapshot are unaffected by a later DeleteAll rebuild;
	// single-key mutations on the same generation stay visible.
	Snapshot() Searcher

	// DeleteWhere removes all documents whose metadata field equals value.
	// It returns the number of documents removed (0 when none matched).
	DeleteWhere(ctx context.Context, field, value string) (int, error)

	// DeleteAll removes every document while keeping the collection usable.
	DeleteAll(ctx context.Context) error

	// Count returns the total number of documents in the store.
	Count() int

	// Persist saves the store's data to the given directory.
	Persist(ctx context.Context, dir string) error

	// Load restores the store's data from the given directory.
	Load(ctx context.Context, dir string) error
}
