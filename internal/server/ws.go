package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format. The conversation id
// is empty on the first message; every response carries the id to reuse.
type wsRequest struct {
	Message        string `json:"message"`
	UserID         string `json:"user_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type wsResponse struct {
	Type string `json:"type"` // "response" or "error"
	chatResponse
}

func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("server: websocket read: %v", err)
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendWSError(conn, "invalid message format")
			continue
		}
		if req.Message == "" {
			s.sendWSError(conn, "message is required")
			continue
		}

		resp, err := s.runTurn(r.Context(), chatRequest(req))
		if err != nil {
			log.Printf("server: websocket turn failed: %v", err)
			s.sendWSError(conn, "internal processing error")
			continue
		}

		if err := conn.WriteJSON(wsResponse{Type: "response", chatResponse: resp}); err != nil {
			log.Printf("server: websocket write: %v", err)
			return
		}
	}
}

func (s *Server) sendWSError(conn *websocket.Conn, detail string) {
	resp := wsResponse{Type: "error", chatResponse: chatResponse{Response: detail}}
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("server: websocket write error: %v", err)
	}
}
