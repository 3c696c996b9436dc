package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/pemkab-anambas/dukcapil-chatbot/internal/index"
	"github.com/pemkab-anambas/dukcapil-chatbot/internal/llm"
	"github.com/pemkab-anambas/dukcapil-chatbot/internal/tracking"
)

const fallbackCategory = "Umum"

// Graph wires the conversation nodes together. Construct one per process
// and invoke it once per user turn; it is safe for concurrent use.
type Graph struct {
	provider  llm.Provider
	retriever index.Retriever
	agent     *tracking.Agent
	k         int
	now       func() time.Time
}

// NewGraph builds the conversation graph on top of a retriever handle and
// the tracking agent.
func NewGraph(provider llm.Provider, retriever index.Retriever, agent *tracking.Agent, retrievalK int) *Graph {
	if retrievalK <= 0 {
		retrievalK = 3
	}
	return &Graph{
		provider:  provider,
		retriever: retriever,
		agent:     agent,
		k:         retrievalK,
		now:       time.Now,
	}
}

// Invoke runs one turn through the graph. It always returns a state with a
// non-empty Answer and a settled Intent; node failures degrade to fallback
// answers instead of propagating.
func (g *Graph) Invoke(ctx context.Context, state State) State {
	state.Intent = g.classifyIntent(ctx, state)

	switch state.Intent {
	case IntentTracking, IntentTrackingPendingNumber:
		return g.handleTracking(ctx, state)
	default:
		state.Intent = IntentGeneral
		question := g.contextualizeQuestion(ctx, state)
		state = g.retrieveContext(ctx, state, question)
		return g.generateAnswer(ctx, state, question)
	}
}

// classifyIntent asks the model for a one-word label. Anything the model
// says that is not a known label, and any call failure, falls back to
// general so the conversation is never blocked.
func (g *Graph) classifyIntent(ctx context.Context, state State) Intent {
	resp, err := g.provider.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: intentPrompt},
			{Role: llm.RoleUser, Content: state.Question},
		},
	})
	if err != nil {
		log.Printf("pipeline: intent classification failed, defaulting to general: %v", err)
		return IntentGeneral
	}
	switch Intent(strings.ToLower(strings.Trim(resp.Content, " \t\n'\"."))) {
	case IntentTracking:
		return IntentTracking
	case IntentGeneral:
		return IntentGeneral
	default:
		return IntentGeneral
	}
}

// contextualizeQuestion rewrites a follow-up question into a standalone
// one using recent history. Without history it is a passthrough; on
// failure the original question is used unchanged.
func (g *Graph) contextualizeQuestion(ctx context.Context, state State) string {
	if len(state.History) == 0 {
		return state.Question
	}
	resp, err := g.provider.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: fmt.Sprintf(contextualizePromptFormat, formatHistory(state.History))},
			{Role: llm.RoleUser, Content: state.Question},
		},
	})
	if err != nil {
		log.Printf("pipeline: contextualization failed, using raw question: %v", err)
		return state.Question
	}
	rewritten := strings.TrimSpace(resp.Content)
	if rewritten == "" {
		return state.Question
	}
	return rewritten
}

func (g *Graph) retrieveContext(ctx context.Context, state State, question string) State {
	cleaned := PreprocessQuestion(question)
	results, err := g.retriever.Retrieve(ctx, cleaned, g.k)
	if err != nil {
		log.Printf("pipeline: retrieval for %q failed, answering without context: %v", cleaned, err)
		state.Context = nil
		return state
	}
	state.Context = results
	return state
}

type answerPayload struct {
	Answer   string `json:"answer"`
	Category string `json:"category"`
}

// generateAnswer grounds the model in the retrieved chunks and parses the
// JSON it was instructed to return. A model that ignores the instruction
// still produces an answer: the raw output is used verbatim.
func (g *Graph) generateAnswer(ctx context.Context, state State, question string) State {
	var contextBlock strings.Builder
	for i, res := range state.Context {
		if i > 0 {
			contextBlock.WriteString("\n\n")
		}
		contextBlock.WriteString(res.Document.Content)
	}

	system := fmt.Sprintf(answerPromptFormat,
		indonesianDate(g.now()), formatHistory(state.History), contextBlock.String())

	resp, err := g.provider.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: question},
		},
		JSONMode: true,
	})
	if err != nil {
		log.Printf("pipeline: answer generation failed: %v", err)
		state.Answer = "Maaf, saya belum bisa menjawab pertanyaan Anda saat ini. Silakan coba lagi nanti."
		state.Category = fallbackCategory
		return state
	}

	var payload answerPayload
	if raw := firstJSONObject(resp.Content); raw == "" || json.Unmarshal([]byte(raw), &payload) != nil || payload.Answer == "" {
		state.Answer = strings.TrimSpace(resp.Content)
		state.Category = fallbackCategory
		return state
	}
	state.Answer = payload.Answer
	state.Category = payload.Category
	if state.Category == "" {
		state.Category = fallbackCategory
	}
	return state
}

// handleTracking is the terminal tracking branch. It never lets a failure
// escape: every error path settles on a user-facing message and the
// tracking_error intent, while a freshly extracted number is kept in state
// for the next turn.
func (g *Graph) handleTracking(ctx context.Context, state State) State {
	fresh := tracking.ExtractNumber(state.Question)
	if fresh != "" {
		state.TrackingNumber = fresh
	}

	result := g.agent.Resolve(ctx, state.Question, state.TrackingNumber)
	state.TrackingData = result.Data

	switch {
	case result.RequiresNumber:
		state.Intent = IntentTrackingPendingNumber
		state.Answer = result.Message
	case result.Data == nil:
		// Lookup failed; the agent already phrased the apology.
		state.Intent = IntentTrackingError
		state.Answer = result.Message
	default:
		state.Intent = IntentTracking
		state.Answer = g.formatTrackingStatus(ctx, state, result)
	}
	state.Category = "Tracking"
	return state
}

// formatTrackingStatus hands the raw status payload to the model for
// phrasing only. If that call fails, the agent's own message stands.
func (g *Graph) formatTrackingStatus(ctx context.Context, state State, result tracking.Result) string {
	data, err := json.MarshalIndent(result.Data, "", "  ")
	if err != nil {
		return result.Message
	}
	resp, err := g.provider.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: fmt.Sprintf(trackingPromptFormat, indonesianDate(g.now()), string(data))},
			{Role: llm.RoleUser, Content: state.Question},
		},
	})
	if err != nil {
		log.Printf("pipeline: tracking status formatting failed, using agent message: %v", err)
		return result.Message
	}
	if answer := strings.TrimSpace(resp.Content); answer != "" {
		return answer
	}
	return result.Message
}

// firstJSONObject returns the first balanced {...} region of s, tolerating
// prose before and after it. String literals inside the object are scanned
// so braces in answer text do not break the balance.
func firstJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
