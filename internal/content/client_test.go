package content

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, Token: "secret"})
}

func TestFetchFAQs(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/faqs" {
			t.Errorf("path = %q, want /faqs", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		w.Write([]byte(`{"data": [
			{"id": 1, "question": "Apa syarat KTP?", "answer": "Membawa KK."},
			{"id": "F2", "question": "Berapa lama?", "answer": "Tiga hari."}
		]}`))
	})

	faqs, err := client.FetchFAQs(context.Background())
	if err != nil {
		t.Fatalf("FetchFAQs: %v", err)
	}
	if len(faqs) != 2 {
		t.Fatalf("got %d FAQs, want 2", len(faqs))
	}
	// IDs arrive as numbers or strings; both normalize to strings.
	if faqs[0].ID != "1" || faqs[1].ID != "F2" {
		t.Errorf("IDs = %q, %q; want 1, F2", faqs[0].ID, faqs[1].ID)
	}
	if faqs[0].Question != "Apa syarat KTP?" {
		t.Errorf("question = %q", faqs[0].Question)
	}
}

func TestFetchDocuments(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/documents" {
			t.Errorf("path = %q, want /documents", r.URL.Path)
		}
		w.Write([]byte(`{"data": [
			{"id": 7, "title": "Perpres 96/2018", "source_path": "http://files/perpres.pdf"},
			{"id": 8, "title": "Panduan", "content": "Jam layanan 08.00-15.00."}
		]}`))
	})

	docs, err := client.FetchDocuments(context.Background())
	if err != nil {
		t.Fatalf("FetchDocuments: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	if docs[0].SourcePath != "http://files/perpres.pdf" {
		t.Errorf("source path = %q", docs[0].SourcePath)
	}
	if docs[1].Content == "" {
		t.Error("inline content lost")
	}
}

func TestFetchTracking(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tracking/12345678" {
			t.Errorf("path = %q, want /tracking/12345678", r.URL.Path)
		}
		w.Write([]byte(`{"data": {"status": "Selesai", "jenis": "KTP"}}`))
	})

	data, err := client.FetchTracking(context.Background(), "12345678")
	if err != nil {
		t.Fatalf("FetchTracking: %v", err)
	}
	if data["status"] != "Selesai" {
		t.Errorf("status = %v, want Selesai", data["status"])
	}
}

func TestFetchTrackingNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	_, err := client.FetchTracking(context.Background(), "00000000")
	if !errors.Is(err, ErrTrackingNotFound) {
		t.Errorf("got %v, want ErrTrackingNotFound", err)
	}
}

func TestFetchFAQsNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	_, err := client.FetchFAQs(context.Background())
	if err == nil {
		t.Fatal("expected an error for a 404 response")
	}
	// The tracking sentinel is reserved for tracking lookups.
	if errors.Is(err, ErrTrackingNotFound) {
		t.Errorf("got ErrTrackingNotFound for a /faqs 404: %v", err)
	}
}

func TestFetchServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	if _, err := client.FetchFAQs(context.Background()); err == nil {
		t.Error("expected an error for a 500 response")
	}
}

func TestDownloadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.4 payload"))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: "http://unused", Token: "secret"})
	data, err := client.DownloadFile(context.Background(), srv.URL+"/files/doc.pdf")
	if err != nil {
		t.Fatalf("DownloadFile: %v", err)
	}
	if string(data) != "%PDF-1.4 payload" {
		t.Errorf("data = %q", data)
	}
}
