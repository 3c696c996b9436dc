package index

import (
	"context"
	"fmt"
	"log"

	"github.com/pemkab-anambas/dukcapil-chatbot/internal/content"
)

// AddFAQ indexes a single FAQ entry.
func (m *Manager) AddFAQ(ctx context.Context, faq content.FAQ) (int, error) {
	if !m.initialized.Load() {
		return 0, ErrNotInitialized
	}
	docs := m.chunkFAQs([]content.FAQ{faq})
	if len(docs) == 0 {
		return 0, fmt.Errorf("FAQ %q has no content", faq.ID)
	}
	if err := upsertWithRetry(ctx, m.store, docs); err != nil {
		return 0, fmt.Errorf("indexing FAQ %q: %w", faq.ID, err)
	}
	return len(docs), nil
}

// UpdateFAQ replaces every chunk belonging to the FAQ with the freshly
// indexed version. Safe to call for an FAQ that was never indexed.
func (m *Manager) UpdateFAQ(ctx context.Context, faq content.FAQ) (int, error) {
	if !m.initialized.Load() {
		return 0, ErrNotInitialized
	}
	if _, err := m.deleteWhere(ctx, "faq_id", faq.ID); err != nil {
		return 0, err
	}
	return m.AddFAQ(ctx, faq)
}

// DeleteFAQ removes every chunk belonging to the FAQ. Deleting an unknown
// ID is not an error; it logs and reports zero removed chunks.
func (m *Manager) DeleteFAQ(ctx context.Context, faqID string) (int, error) {
	if !m.initialized.Load() {
		return 0, ErrNotInitialized
	}
	return m.deleteWhere(ctx, "faq_id", faqID)
}

// AddDocument downloads (when needed), chunks and indexes one document.
func (m *Manager) AddDocument(ctx context.Context, rec content.DocumentRecord) (int, error) {
	if !m.initialized.Load() {
		return 0, ErrNotInitialized
	}
	docs, err := m.chunkDocument(ctx, rec)
	if err != nil {
		return 0, fmt.Errorf("preparing document %q: %w", rec.ID, err)
	}
	if err := upsertWithRetry(ctx, m.store, docs); err != nil {
		return 0, fmt.Errorf("indexing document %q: %w", rec.ID, err)
	}
	return len(docs), nil
}

// UpdateDocument replaces every chunk belonging to the document.
func (m *Manager) UpdateDocument(ctx context.Context, rec content.DocumentRecord) (int, error) {
	if !m.initialized.Load() {
		return 0, ErrNotInitialized
	}
	if _, err := m.deleteWhere(ctx, "doc_id", rec.ID); err != nil {
		return 0, err
	}
	return m.AddDocument(ctx, rec)
}

// DeleteDocument removes every chunk belonging to the document.
func (m *Manager) DeleteDocument(ctx context.Context, docID string) (int, error) {
	if !m.initialized.Load() {
		return 0, ErrNotInitialized
	}
	return m.deleteWhere(ctx, "doc_id", docID)
}

func (m *Manager) deleteWhere(ctx context.Context, field, value string) (int, error) {
	n, err := m.store.DeleteWhere(ctx, field, value)
	if err != nil {
		return 0, fmt.Errorf("deleting chunks where %s=%s: %w", field, value, err)
	}
	if n == 0 {
		log.Printf("index: no chunks found for %s=%s", field, value)
	}
	return n, nil
}
