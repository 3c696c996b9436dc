package index

import (
	"context"

	"github.com/pemkab-anambas/dukcapil-chatbot/internal/vectordb"
)

// Retriever answers similarity queries against the published collection.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]vectordb.SearchResult, error)
}

// storeRetriever serves queries from a pinned store snapshot, so an
// in-flight rebuild of the live collection never shows through it.
type storeRetriever struct {
	view vectordb.Searcher
	k    int
}

func (r *storeRetriever) Retrieve(ctx context.Context, query string, k int) ([]vectordb.SearchResult, error) {
	if k <= 0 {
		k = r.k
	}
	return r.view.Search(ctx, query, k)
}
