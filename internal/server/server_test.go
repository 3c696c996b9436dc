package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/pemkab-anambas/dukcapil-chatbot/internal/content"
	"github.com/pemkab-anambas/dukcapil-chatbot/internal/history"
	"github.com/pemkab-anambas/dukcapil-chatbot/internal/index"
	"github.com/pemkab-anambas/dukcapil-chatbot/internal/llm"
	"github.com/pemkab-anambas/dukcapil-chatbot/internal/pipeline"
	"github.com/pemkab-anambas/dukcapil-chatbot/internal/tracking"
	"github.com/pemkab-anambas/dukcapil-chatbot/internal/vectordb"
)

// echoProvider answers every completion with a fixed script: "general" for
// the first call of a turn, then a canned JSON answer.
type echoProvider struct {
	mu    sync.Mutex
	calls int
}

func (p *echoProvider) Name() string { return "echo" }

func (p *echoProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if req.JSONMode {
		return &llm.CompletionResponse{Content: `{"answer": "Proses KTP memakan waktu 3 hari kerja.", "category": "KTP"}`}, nil
	}
	return &llm.CompletionResponse{Content: "general"}, nil
}

type memStore struct {
	mu   sync.Mutex
	docs map[string]vectordb.Document
}

func (s *memStore) AddDocuments(_ context.Context, docs []vectordb.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range docs {
		s.docs[d.ID] = d
	}
	return nil
}

func (s *memStore) Search(_ context.Context, query string, k int) ([]vectordb.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var results []vectordb.SearchResult
	for _, d := range s.docs {
		results = append(results, vectordb.SearchResult{Document: d, Similarity: 0.5})
		if len(results) == k {
			break
		}
	}
	return results, nil
}

// memView pins the docs map current at snapshot time; DeleteAll replaces
// the map, so the view keeps its generation like the chromem adapter.
type memView struct {
	s    *memStore
	docs map[string]vectordb.Document
}

func (v memView) Search(_ context.Context, query string, k int) ([]vectordb.SearchResult, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var results []vectordb.SearchResult
	for _, d := range v.docs {
		results = append(results, vectordb.SearchResult{Document: d, Similarity: 0.5})
		if len(results) == k {
			break
		}
	}
	return results, nil
}

func (s *memStore) Snapshot() vectordb.Searcher {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memView{s: s, docs: s.docs}
}

func (s *memStore) DeleteWhere(_ context.Context, field, value string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, d := range s.docs {
		f, v := d.Metadata.KeyField()
		if f == field && v == value {
			delete(s.docs, id)
			n++
		}
	}
	return n, nil
}

func (s *memStore) DeleteAll(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string]vectordb.Document)
	return nil
}

func (s *memStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

func (s *memStore) Persist(context.Context, string) error { return nil }
func (s *memStore) Load(context.Context, string) error    { return nil }

type fakeContent struct{ faqs []content.FAQ }

func (f *fakeContent) FetchFAQs(context.Context) ([]content.FAQ, error) { return f.faqs, nil }
func (f *fakeContent) FetchDocuments(context.Context) ([]content.DocumentRecord, error) {
	return nil, nil
}
func (f *fakeContent) FetchTracking(context.Context, string) (map[string]any, error) {
	return nil, content.ErrTrackingNotFound
}
func (f *fakeContent) DownloadFile(context.Context, string) ([]byte, error) { return nil, nil }

func newTestServer(t *testing.T, apiKey string) *Server {
	t.Helper()

	src := &fakeContent{faqs: []content.FAQ{
		{ID: "1", Question: "Berapa lama proses KTP?", Answer: "3 hari kerja."},
	}}
	manager := index.NewManager(index.Options{
		Store:   func() (vectordb.Store, error) { return &memStore{docs: make(map[string]vectordb.Document)}, nil },
		Content: src,
	})
	if err := manager.Initialize(context.Background(), false); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	db, err := history.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	graph := pipeline.NewGraph(&echoProvider{}, manager, tracking.NewAgent(src), 3)
	return New(Config{Port: 0, APIKey: apiKey}, graph, manager, history.NewStore(db))
}

func doJSON(t *testing.T, s *Server, method, path, apiKey string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, "")
	rec := doJSON(t, s, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestAPIKeyRequired(t *testing.T) {
	s := newTestServer(t, "sekret")

	rec := doJSON(t, s, http.MethodPost, "/chat", "", chatRequest{Message: "halo"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("without key: status = %d, want 401", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/chat", "salah", chatRequest{Message: "halo"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: status = %d, want 401", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/chat", "sekret", chatRequest{Message: "halo"})
	if rec.Code != http.StatusOK {
		t.Errorf("correct key: status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	// Bearer form is accepted too.
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"halo"}`))
	req.Header.Set("Authorization", "Bearer sekret")
	rec2 := httptest.NewRecorder()
	s.Router().ServeHTTP(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Errorf("bearer key: status = %d, want 200", rec2.Code)
	}
}

func TestChatTurn(t *testing.T) {
	s := newTestServer(t, "")

	rec := doJSON(t, s, http.MethodPost, "/chat", "", chatRequest{Message: "Berapa lama proses KTP?"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !strings.Contains(resp.Response, "3 hari") {
		t.Errorf("response %q does not mention the duration", resp.Response)
	}
	if resp.Category != "KTP" {
		t.Errorf("category = %q, want KTP", resp.Category)
	}
	if resp.ConversationID == "" {
		t.Error("expected a conversation id")
	}

	// A follow-up on the same conversation keeps the id.
	rec = doJSON(t, s, http.MethodPost, "/chat", "", chatRequest{
		Message:        "Terima kasih!",
		ConversationID: resp.ConversationID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("follow-up status = %d", rec.Code)
	}
	var second chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &second); err != nil {
		t.Fatalf("decoding follow-up: %v", err)
	}
	if second.ConversationID != resp.ConversationID {
		t.Errorf("conversation id changed: %q -> %q", resp.ConversationID, second.ConversationID)
	}
}

func TestChatValidation(t *testing.T) {
	s := newTestServer(t, "")

	rec := doJSON(t, s, http.MethodPost, "/chat", "", chatRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty message: status = %d, want 400", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("not json"))
	rec2 := httptest.NewRecorder()
	s.Router().ServeHTTP(rec2, req)
	if rec2.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d, want 400", rec2.Code)
	}
}

func TestVectorStoreAdmin(t *testing.T) {
	s := newTestServer(t, "")

	rec := doJSON(t, s, http.MethodPost, "/vector-store/faqs", "", faqPayload{
		ID: "F9", Question: "Apa itu KIA?", Answer: "Kartu Identitas Anak.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create FAQ: status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodPut, "/vector-store/faqs/F9", "", faqPayload{
		Question: "Apa itu KIA?", Answer: "Kartu identitas untuk anak di bawah 17 tahun.",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update FAQ: status = %d: %s", rec.Code, rec.Body.String())
	}
	var mut mutationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &mut); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if mut.Chunks != 1 {
		t.Errorf("update indexed %d chunks, want 1", mut.Chunks)
	}

	rec = doJSON(t, s, http.MethodDelete, "/vector-store/faqs/F9", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete FAQ: status = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/vector-store/refresh", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: status = %d: %s", rec.Code, rec.Body.String())
	}
	var result index.RefreshResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding refresh result: %v", err)
	}
	if result.Status != index.RefreshOK || result.ItemsIndexed != 1 {
		t.Errorf("refresh result = %+v, want success with 1 item", result)
	}

	rec = doJSON(t, s, http.MethodPost, "/vector-store/documents", "", documentPayload{
		Title: "Panduan", Content: "Jam layanan 08.00 sampai 15.00.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create document: status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodPost, "/vector-store/documents", "", documentPayload{Title: "Kosong"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty document: status = %d, want 400", rec.Code)
	}
}
