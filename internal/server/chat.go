package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/pemkab-anambas/dukcapil-chatbot/internal/pipeline"
)

// chatRequest is the body of POST /chat.
type chatRequest struct {
	Message        string `json:"message"`
	UserID         string `json:"user_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// chatResponse is what both the REST and WebSocket chat endpoints return.
type chatResponse struct {
	Response       string         `json:"response"`
	Intent         string         `json:"intent"`
	Category       string         `json:"category"`
	ConversationID string         `json:"conversation_id"`
	TrackingData   map[string]any `json:"tracking_data,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	resp, err := s.runTurn(r.Context(), req)
	if err != nil {
		log.Printf("server: chat turn failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal processing error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// runTurn prepares state from the conversation log, invokes the graph and
// persists the exchange. Log failures degrade to a stateless turn rather
// than refusing to answer.
func (s *Server) runTurn(ctx context.Context, req chatRequest) (chatResponse, error) {
	userID := req.UserID
	if userID == "" {
		userID = uuid.New().String()
	}

	conversationID, err := s.log.EnsureConversation(ctx, req.ConversationID, userID)
	if err != nil {
		return chatResponse{}, err
	}

	turns, err := s.log.Recent(ctx, conversationID, 6)
	if err != nil {
		log.Printf("server: loading history for %s failed, continuing without it: %v", conversationID, err)
		turns = nil
	}
	knownNumber, err := s.log.TrackingNumber(ctx, conversationID)
	if err != nil {
		log.Printf("server: loading tracking number for %s failed: %v", conversationID, err)
		knownNumber = ""
	}

	state := s.graph.Invoke(ctx, pipeline.State{
		Question:       req.Message,
		History:        turns,
		TrackingNumber: knownNumber,
	})

	if err := s.log.Append(ctx, conversationID, state); err != nil {
		log.Printf("server: persisting turn for %s failed: %v", conversationID, err)
	}

	return chatResponse{
		Response:       state.Answer,
		Intent:         string(state.Intent),
		Category:       state.Category,
		ConversationID: conversationID,
		TrackingData:   state.TrackingData,
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
