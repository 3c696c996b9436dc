package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pemkab-anambas/dukcapil-chatbot/internal/content"
	"github.com/pemkab-anambas/dukcapil-chatbot/internal/index"
)

type faqPayload struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type documentPayload struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Content    string `json:"content,omitempty"`
	SourcePath string `json:"source_path,omitempty"`
}

type mutationResponse struct {
	Message string `json:"message"`
	Chunks  int    `json:"chunks"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	result, err := s.manager.Refresh(r.Context())
	if err != nil {
		s.writeIndexError(w, "refresh", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCreateFAQ(w http.ResponseWriter, r *http.Request) {
	faq, ok := decodeFAQ(w, r)
	if !ok {
		return
	}
	if faq.ID == "" {
		faq.ID = uuid.New().String()
	}
	n, err := s.manager.AddFAQ(r.Context(), faq)
	if err != nil {
		s.writeIndexError(w, "adding FAQ", err)
		return
	}
	writeJSON(w, http.StatusCreated, mutationResponse{Message: "FAQ indexed", Chunks: n})
}

func (s *Server) handleUpdateFAQ(w http.ResponseWriter, r *http.Request) {
	faq, ok := decodeFAQ(w, r)
	if !ok {
		return
	}
	faq.ID = chi.URLParam(r, "id")
	n, err := s.manager.UpdateFAQ(r.Context(), faq)
	if err != nil {
		s.writeIndexError(w, "updating FAQ", err)
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse{Message: "FAQ updated", Chunks: n})
}

func (s *Server) handleDeleteFAQ(w http.ResponseWriter, r *http.Request) {
	n, err := s.manager.DeleteFAQ(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeIndexError(w, "deleting FAQ", err)
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse{Message: "FAQ deleted", Chunks: n})
}

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	rec, ok := decodeDocument(w, r)
	if !ok {
		return
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	n, err := s.manager.AddDocument(r.Context(), rec)
	if err != nil {
		s.writeIndexError(w, "adding document", err)
		return
	}
	writeJSON(w, http.StatusCreated, mutationResponse{Message: "document indexed", Chunks: n})
}

func (s *Server) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	rec, ok := decodeDocument(w, r)
	if !ok {
		return
	}
	rec.ID = chi.URLParam(r, "id")
	n, err := s.manager.UpdateDocument(r.Context(), rec)
	if err != nil {
		s.writeIndexError(w, "updating document", err)
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse{Message: "document updated", Chunks: n})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	n, err := s.manager.DeleteDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeIndexError(w, "deleting document", err)
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse{Message: "document deleted", Chunks: n})
}

func decodeFAQ(w http.ResponseWriter, r *http.Request) (content.FAQ, bool) {
	var p faqPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return content.FAQ{}, false
	}
	if p.Question == "" && p.Answer == "" {
		writeError(w, http.StatusBadRequest, "question or answer is required")
		return content.FAQ{}, false
	}
	return content.FAQ{ID: p.ID, Question: p.Question, Answer: p.Answer}, true
}

func decodeDocument(w http.ResponseWriter, r *http.Request) (content.DocumentRecord, bool) {
	var p documentPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return content.DocumentRecord{}, false
	}
	if p.Content == "" && p.SourcePath == "" {
		writeError(w, http.StatusBadRequest, "content or source_path is required")
		return content.DocumentRecord{}, false
	}
	return content.DocumentRecord{ID: p.ID, Title: p.Title, Content: p.Content, SourcePath: p.SourcePath}, true
}

func (s *Server) writeIndexError(w http.ResponseWriter, op string, err error) {
	log.Printf("server: %s failed: %v", op, err)
	status := http.StatusInternalServerError
	if errors.Is(err, index.ErrNotInitialized) {
		status = http.StatusServiceUnavailable
	}
	writeError(w, status, err.Error())
}
