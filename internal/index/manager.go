// Package index owns the lifecycle of the vector collection: initial
// population, full refresh from the content API, and key-scoped admin
// mutations. It publishes a retriever handle that the conversation
// pipeline reads through.
package index

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/pemkab-anambas/dukcapil-chatbot/internal/content"
	"github.com/pemkab-anambas/dukcapil-chatbot/internal/vectordb"
)

// ErrNotInitialized is returned by any operation invoked before
// Initialize has completed.
var ErrNotInitialized = errors.New("vector index not initialized")

// ContentSource is the slice of the content API the manager needs.
type ContentSource interface {
	FetchFAQs(ctx context.Context) ([]content.FAQ, error)
	FetchDocuments(ctx context.Context) ([]content.DocumentRecord, error)
	DownloadFile(ctx context.Context, url string) ([]byte, error)
}

// StoreFactory opens the vector collection. It runs inside the manager's
// initialization critical section and must be cheap: open handles, no bulk I/O.
type StoreFactory func() (vectordb.Store, error)

// ProgressFunc reports progress of a long-running bulk operation.
type ProgressFunc func(done, total int, label string)

// Options configures a Manager.
type Options struct {
	Store          StoreFactory
	Content        ContentSource
	ChunkSize      int
	ChunkOverlap   int
	RetrievalK     int
	MaxConcurrency int
	OnProgress     ProgressFunc
}

// Manager is the process-wide index service. It is constructed once at the
// composition root and handed to every consumer; the mutex guards only the
// initialization/rebuild decision, never read queries.
type Manager struct {
	openStore      StoreFactory
	contentAPI     ContentSource
	chunkSize      int
	chunkOverlap   int
	retrievalK     int
	maxConcurrency int
	onProgress     ProgressFunc

	mu          sync.Mutex
	store       vectordb.Store
	initialized atomic.Bool
	retriever   atomic.Pointer[storeRetriever]
	refreshing  atomic.Bool
}

// NewManager creates an index manager. Initialize must be called before
// any other operation.
func NewManager(opts Options) *Manager {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 1500
	}
	if opts.ChunkOverlap < 0 {
		opts.ChunkOverlap = 0
	}
	if opts.RetrievalK <= 0 {
		opts.RetrievalK = 3
	}
	if opts.MaxConcurrency < 1 {
		opts.MaxConcurrency = 1
	}
	return &Manager{
		openStore:      opts.Store,
		contentAPI:     opts.Content,
		chunkSize:      opts.ChunkSize,
		chunkOverlap:   opts.ChunkOverlap,
		retrievalK:     opts.RetrievalK,
		maxConcurrency: opts.MaxConcurrency,
		onProgress:     opts.OnProgress,
	}
}

// Initialize opens the embedding and collection handles and, when the
// collection is empty or forceRefresh is set, rebuilds it from the content
// API. The rebuild runs outside the lock so a long repopulation never
// blocks unrelated short operations. Idempotent when already initialized
// and forceRefresh is false.
func (m *Manager) Initialize(ctx context.Context, forceRefresh bool) error {
	needRefresh := false

	m.mu.Lock()
	if m.initialized.Load() && !forceRefresh {
		m.mu.Unlock()
		log.Printf("index: already initialized, skipping")
		return nil
	}

	if m.store == nil {
		store, err := m.openStore()
		if err != nil {
			m.mu.Unlock()
			return fmt.Errorf("opening vector store: %w", err)
		}
		m.store = store
	}

	// Cheap emptiness probe only; the repopulation itself happens after
	// the lock is released.
	if forceRefresh || m.store.Count() == 0 {
		needRefresh = true
	}
	m.mu.Unlock()

	if needRefresh {
		if _, err := m.refresh(ctx); err != nil {
			return err
		}
	}

	m.publishRetriever()
	m.initialized.Store(true)
	log.Printf("index: initialized, %d chunks in collection", m.store.Count())
	return nil
}

// Retriever returns the currently published retriever handle. During a
// refresh, callers keep getting the previous handle until the refresh
// publishes the new one.
func (m *Manager) Retriever() Retriever {
	r := m.retriever.Load()
	if r == nil {
		return nil
	}
	return r
}

// Retrieve delegates to the currently published retriever, so a handle on
// the Manager itself always queries the latest completed build.
func (m *Manager) Retrieve(ctx context.Context, query string, k int) ([]vectordb.SearchResult, error) {
	r := m.retriever.Load()
	if r == nil {
		return nil, ErrNotInitialized
	}
	return r.Retrieve(ctx, query, k)
}

// Count returns the number of chunks currently in the collection.
func (m *Manager) Count() (int, error) {
	if !m.initialized.Load() {
		return 0, ErrNotInitialized
	}
	return m.store.Count(), nil
}

func (m *Manager) publishRetriever() {
	m.retriever.Store(&storeRetriever{view: m.store.Snapshot(), k: m.retrievalK})
}

func (m *Manager) progress(done, total int, label string) {
	if m.onProgress != nil {
		m.onProgress(done, total, label)
	}
}
