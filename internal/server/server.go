// Package server exposes the chatbot and the vector-store admin API over
// HTTP.
package server

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pemkab-anambas/dukcapil-chatbot/internal/history"
	"github.com/pemkab-anambas/dukcapil-chatbot/internal/index"
	"github.com/pemkab-anambas/dukcapil-chatbot/internal/pipeline"
)

// Config holds server configuration.
type Config struct {
	Port     int
	APIKey   string // admin and chat endpoints require this key when set
	AllowAll bool   // allow all CORS origins (dev mode)
}

// Server wires the conversation graph, the index manager and the
// conversation log behind HTTP handlers.
type Server struct {
	cfg        Config
	graph      *pipeline.Graph
	manager    *index.Manager
	log        *history.Store
	router     chi.Router
	httpServer *http.Server
}

// New creates a server with all dependencies.
func New(cfg Config, graph *pipeline.Graph, manager *index.Manager, conversationLog *history.Store) *Server {
	s := &Server{
		cfg:     cfg,
		graph:   graph,
		manager: manager,
		log:     conversationLog,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAPIKey)

		r.Post("/chat", s.handleChat)
		r.Get("/chat/ws", s.handleChatWS)

		r.Route("/vector-store", func(r chi.Router) {
			r.Post("/refresh", s.handleRefresh)
			r.Post("/faqs", s.handleCreateFAQ)
			r.Put("/faqs/{id}", s.handleUpdateFAQ)
			r.Delete("/faqs/{id}", s.handleDeleteFAQ)
			r.Post("/documents", s.handleCreateDocument)
			r.Put("/documents/{id}", s.handleUpdateDocument)
			r.Delete("/documents/{id}", s.handleDeleteDocument)
		})
	})

	return r
}

// requireAPIKey accepts the configured key via the X-API-Key header or an
// Authorization bearer token. With no key configured all requests pass
// (dev mode).
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.APIKey == "" {
			next.ServeHTTP(w, r)
			return
		}
		key := r.Header.Get("X-API-Key")
		if key == "" {
			key = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(s.cfg.APIKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := s.manager.Count()
	ready := err == nil
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"ready":  ready,
		"chunks": count,
	})
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("capilbot server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
