// Package pipeline runs one user turn through the conversation state
// machine: intent classification, question contextualization, retrieval,
// and grounded answer generation, with a separate terminal branch for
// document status tracking.
package pipeline

import (
	"regexp"
	"strings"

	"github.com/pemkab-anambas/dukcapil-chatbot/internal/vectordb"
)

// Intent classifies a user turn.
type Intent string

const (
	IntentUnknown               Intent = ""
	IntentGeneral               Intent = "general"
	IntentTracking              Intent = "tracking"
	IntentTrackingPendingNumber Intent = "tracking_pending_number"
	IntentTrackingError         Intent = "tracking_error"
)

// Turn is one prior exchange in the conversation history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// State carries a turn through the graph. Invoke fills Intent, Answer and
// Category; TrackingNumber and TrackingData survive into the next turn so
// a follow-up like "sudah jadi belum?" can reuse a remembered number.
type State struct {
	Question       string
	History        []Turn
	Intent         Intent
	Context        []vectordb.SearchResult
	Answer         string
	Category       string
	TrackingNumber string
	TrackingData   map[string]any
}

var nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}_\s+\-*/=]`)

// PreprocessQuestion lowercases the question, replaces punctuation with
// spaces (arithmetic symbols survive, queries like "KTP+KK" keep meaning)
// and collapses runs of whitespace.
func PreprocessQuestion(text string) string {
	text = strings.ToLower(text)
	text = nonWordRe.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}
