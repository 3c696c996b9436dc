package history

import (
	"context"
	"fmt"
	"testing"

	"github.com/pemkab-anambas/dukcapil-chatbot/internal/pipeline"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

func TestEnsureConversation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.EnsureConversation(ctx, "", "user-1")
	if err != nil {
		t.Fatalf("EnsureConversation: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated conversation id")
	}

	// A known id is reused, not recreated.
	again, err := store.EnsureConversation(ctx, id, "user-1")
	if err != nil {
		t.Fatalf("EnsureConversation reuse: %v", err)
	}
	if again != id {
		t.Errorf("got %q, want the same id %q", again, id)
	}

	// An unknown explicit id gets created under that id.
	custom, err := store.EnsureConversation(ctx, "sess-abc", "user-2")
	if err != nil {
		t.Fatalf("EnsureConversation custom: %v", err)
	}
	if custom != "sess-abc" {
		t.Errorf("got %q, want sess-abc", custom)
	}
}

func TestAppendAndRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.EnsureConversation(ctx, "", "user-1")
	if err != nil {
		t.Fatalf("EnsureConversation: %v", err)
	}

	for i := 0; i < 5; i++ {
		err := store.Append(ctx, id, pipeline.State{
			Question: fmt.Sprintf("pertanyaan %d", i),
			Answer:   fmt.Sprintf("jawaban %d", i),
			Intent:   pipeline.IntentGeneral,
			Category: "Umum",
		})
		if err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	turns, err := store.Recent(ctx, id, 6)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(turns) != 6 {
		t.Fatalf("got %d turns, want 6 (the limit)", len(turns))
	}
	// Chronological order: the final turn is the newest answer.
	last := turns[len(turns)-1]
	if last.Role != "assistant" || last.Content != "jawaban 4" {
		t.Errorf("last turn = %+v, want the newest assistant message", last)
	}
	first := turns[0]
	if first.Role != "user" {
		t.Errorf("first turn role = %q, want user", first.Role)
	}
}

func TestRecentEmptyConversation(t *testing.T) {
	store := newTestStore(t)
	turns, err := store.Recent(context.Background(), "nonexistent", 6)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("got %d turns for unknown conversation, want 0", len(turns))
	}
}

func TestTrackingNumberPersistence(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.EnsureConversation(ctx, "", "user-1")
	if err != nil {
		t.Fatalf("EnsureConversation: %v", err)
	}

	number, err := store.TrackingNumber(ctx, id)
	if err != nil {
		t.Fatalf("TrackingNumber: %v", err)
	}
	if number != "" {
		t.Errorf("fresh conversation has number %q, want empty", number)
	}

	err = store.Append(ctx, id, pipeline.State{
		Question:       "cek 12345678",
		Answer:         "Status: Selesai.",
		Intent:         pipeline.IntentTracking,
		TrackingNumber: "12345678",
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	number, err = store.TrackingNumber(ctx, id)
	if err != nil {
		t.Fatalf("TrackingNumber after append: %v", err)
	}
	if number != "12345678" {
		t.Errorf("number = %q, want 12345678", number)
	}

	if number, _ := store.TrackingNumber(ctx, "unknown"); number != "" {
		t.Errorf("unknown conversation returned number %q", number)
	}
}
