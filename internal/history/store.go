package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pemkab-anambas/dukcapil-chatbot/internal/pipeline"
)

// Message is one stored conversation turn.
type Message struct {
	ID             string
	ConversationID string
	Role           string
	Content        string
	Intent         string
	Category       string
	CreatedAt      time.Time
}

// Store provides the conversation-log operations the chat server needs.
type Store struct {
	db *DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *DB) *Store {
	return &Store{db: database}
}

// EnsureConversation returns id if that conversation exists, otherwise it
// creates a fresh conversation (with a generated id when id is empty) and
// returns the id to use.
func (s *Store) EnsureConversation(ctx context.Context, id, userID string) (string, error) {
	if userID == "" {
		userID = "anonymous"
	}
	if id != "" {
		var exists int
		err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM conversations WHERE id = ?", id).Scan(&exists)
		if err != nil {
			return "", fmt.Errorf("checking conversation: %w", err)
		}
		if exists > 0 {
			return id, nil
		}
	} else {
		id = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO conversations (id, user_id) VALUES (?, ?)", id, userID)
	if err != nil {
		return "", fmt.Errorf("creating conversation: %w", err)
	}
	return id, nil
}

// Append stores one user/assistant exchange and the remembered tracking
// number for the conversation.
func (s *Store) Append(ctx context.Context, conversationID string, state pipeline.State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	insert := `INSERT INTO messages (id, conversation_id, role, content, intent, category)
		VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insert,
		uuid.New().String(), conversationID, "user", state.Question, string(state.Intent), ""); err != nil {
		return fmt.Errorf("inserting user message: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insert,
		uuid.New().String(), conversationID, "assistant", state.Answer, string(state.Intent), state.Category); err != nil {
		return fmt.Errorf("inserting assistant message: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE conversations SET tracking_number = ?, updated_at = datetime('now') WHERE id = ?",
		state.TrackingNumber, conversationID); err != nil {
		return fmt.Errorf("updating conversation: %w", err)
	}

	return tx.Commit()
}

// Recent returns the last limit turns of the conversation, oldest first,
// in the shape the pipeline expects.
func (s *Store) Recent(ctx context.Context, conversationID string, limit int) ([]pipeline.Turn, error) {
	if limit <= 0 {
		limit = 6
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var turns []pipeline.Turn
	for rows.Next() {
		var t pipeline.Turn
		if err := rows.Scan(&t.Role, &t.Content); err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Rows came newest-first; the pipeline wants chronological order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// TrackingNumber returns the number remembered for the conversation, or
// "" when none was stored.
func (s *Store) TrackingNumber(ctx context.Context, conversationID string) (string, error) {
	var number string
	err := s.db.QueryRowContext(ctx,
		"SELECT tracking_number FROM conversations WHERE id = ?", conversationID).Scan(&number)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying tracking number: %w", err)
	}
	return number, nil
}
