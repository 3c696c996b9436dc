package index

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/pemkab-anambas/dukcapil-chatbot/internal/chunker"
	"github.com/pemkab-anambas/dukcapil-chatbot/internal/content"
	"github.com/pemkab-anambas/dukcapil-chatbot/internal/vectordb"
)

const (
	upsertBatchSize  = 64
	upsertRetries    = 3
	upsertRetryDelay = 500 * time.Millisecond
)

// RefreshStatus describes the outcome of a refresh cycle.
type RefreshStatus string

const (
	RefreshOK     RefreshStatus = "ok"
	RefreshNoData RefreshStatus = "no_data"
)

// RefreshResult is what a completed refresh reports.
type RefreshResult struct {
	Status       RefreshStatus `json:"status"`
	ItemsIndexed int           `json:"items_indexed"`
}

// Refresh rebuilds the whole collection from the content API. Only one
// refresh runs at a time; a second concurrent call fails fast instead of
// queueing behind the first.
func (m *Manager) Refresh(ctx context.Context) (RefreshResult, error) {
	if !m.initialized.Load() {
		return RefreshResult{}, ErrNotInitialized
	}
	return m.refresh(ctx)
}

func (m *Manager) refresh(ctx context.Context) (RefreshResult, error) {
	if !m.refreshing.CompareAndSwap(false, true) {
		return RefreshResult{}, fmt.Errorf("a refresh is already in progress")
	}
	defer m.refreshing.Store(false)

	start := time.Now()

	var (
		wg   sync.WaitGroup
		faqs []content.FAQ
		recs []content.DocumentRecord
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		faqs, err = m.contentAPI.FetchFAQs(ctx)
		if err != nil {
			log.Printf("index: fetching FAQs failed, continuing without them: %v", err)
			faqs = nil
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		recs, err = m.contentAPI.FetchDocuments(ctx)
		if err != nil {
			log.Printf("index: fetching documents failed, continuing without them: %v", err)
			recs = nil
		}
	}()
	wg.Wait()

	docs := m.chunkFAQs(faqs)
	docs = append(docs, m.chunkDocuments(ctx, recs)...)

	if len(docs) == 0 {
		log.Printf("index: content API returned no indexable data")
		return RefreshResult{Status: RefreshNoData}, nil
	}

	if err := m.store.DeleteAll(ctx); err != nil {
		return RefreshResult{}, fmt.Errorf("clearing collection: %w", err)
	}

	for i := 0; i < len(docs); i += upsertBatchSize {
		end := i + upsertBatchSize
		if end > len(docs) {
			end = len(docs)
		}
		if err := upsertWithRetry(ctx, m.store, docs[i:end]); err != nil {
			return RefreshResult{}, fmt.Errorf("indexing batch %d-%d: %w", i, end, err)
		}
		m.progress(end, len(docs), "indexing")
	}

	// Publish a snapshot of the rebuilt collection last; until then
	// readers keep the pinned pre-refresh generation.
	m.publishRetriever()

	log.Printf("index: refresh indexed %d chunks (%d FAQs, %d documents) in %s",
		len(docs), len(faqs), len(recs), time.Since(start).Round(time.Millisecond))
	return RefreshResult{Status: RefreshOK, ItemsIndexed: len(docs)}, nil
}

// chunkFAQs turns each FAQ into one searchable document combining the
// question and answer, so queries match on either side.
func (m *Manager) chunkFAQs(faqs []content.FAQ) []vectordb.Document {
	docs := make([]vectordb.Document, 0, len(faqs))
	for _, f := range faqs {
		q := strings.TrimSpace(f.Question)
		a := strings.TrimSpace(f.Answer)
		if q == "" && a == "" {
			continue
		}
		docs = append(docs, vectordb.Document{
			ID:      fmt.Sprintf("faq:%s:0", f.ID),
			Content: fmt.Sprintf("pertanyaan: %s\njawaban: %s", q, a),
			Metadata: vectordb.Metadata{
				Source: vectordb.SourceFAQ,
				FAQID:  f.ID,
				Title:  q,
			},
		})
	}
	return docs
}

// chunkDocuments downloads, extracts and chunks each document record.
// Downloads fan out under a semaphore; one broken document is logged and
// skipped, never aborting the whole refresh.
func (m *Manager) chunkDocuments(ctx context.Context, recs []content.DocumentRecord) []vectordb.Document {
	type result struct {
		idx    int
		chunks []vectordb.Document
	}

	sem := make(chan struct{}, m.maxConcurrency)
	results := make(chan result, len(recs))
	var wg sync.WaitGroup

	for i, rec := range recs {
		wg.Add(1)
		go func(i int, rec content.DocumentRecord) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			chunks, err := m.chunkDocument(ctx, rec)
			if err != nil {
				log.Printf("index: skipping document %q (%s): %v", rec.Title, rec.ID, err)
				return
			}
			results <- result{idx: i, chunks: chunks}
		}(i, rec)
	}
	wg.Wait()
	close(results)

	// Reassemble in record order so repeated refreshes produce the same
	// chunk sequence.
	ordered := make([][]vectordb.Document, len(recs))
	for r := range results {
		ordered[r.idx] = r.chunks
	}
	var docs []vectordb.Document
	for _, chunks := range ordered {
		docs = append(docs, chunks...)
	}
	return docs
}

func (m *Manager) chunkDocument(ctx context.Context, rec content.DocumentRecord) ([]vectordb.Document, error) {
	text := rec.Content
	if strings.TrimSpace(text) == "" && rec.SourcePath != "" {
		data, err := m.contentAPI.DownloadFile(ctx, rec.SourcePath)
		if err != nil {
			return nil, fmt.Errorf("downloading: %w", err)
		}
		text, err = content.ExtractPDFText(data)
		if err != nil {
			return nil, fmt.Errorf("extracting text: %w", err)
		}
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("document has no text content")
	}

	return chunker.Chunk([]chunker.SourceDocument{{
		Content: text,
		Metadata: vectordb.Metadata{
			Source: vectordb.SourceDocument,
			DocID:  rec.ID,
			Title:  rec.Title,
		},
	}}, m.chunkSize, m.chunkOverlap), nil
}

// upsertWithRetry adds one batch, retrying transient embedding or store
// failures with a doubling backoff.
func upsertWithRetry(ctx context.Context, store vectordb.Store, batch []vectordb.Document) error {
	delay := upsertRetryDelay
	var lastErr error
	for attempt := 1; attempt <= upsertRetries; attempt++ {
		lastErr = store.AddDocuments(ctx, batch)
		if lastErr == nil {
			return nil
		}
		if attempt < upsertRetries {
			log.Printf("index: batch upsert attempt %d/%d failed, retrying in %s: %v",
				attempt, upsertRetries, delay, lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}
	}
	return lastErr
}
