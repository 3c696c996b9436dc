package tracking

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pemkab-anambas/dukcapil-chatbot/internal/content"
)

func TestExtractNumber(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Nomor saya 12345678", "12345678"},
		{"ABC12345", ""},
		{"cek status 12345678901234567890 dong", "12345678901234567890"},
		{"1234567", ""}, // too short
		{"123456789012345678901", ""}, // too long
		{"dua nomor 12345678 dan 87654321", "12345678"},
		{"tidak ada nomor di sini", ""},
	}
	for _, c := range cases {
		if got := ExtractNumber(c.text); got != c.want {
			t.Errorf("ExtractNumber(%q) = %q, want %q", c.text, got, c.want)
		}
	}
}

type stubStatusAPI struct {
	data      map[string]any
	err       error
	gotNumber string
	callCount int
}

func (s *stubStatusAPI) FetchTracking(_ context.Context, number string) (map[string]any, error) {
	s.callCount++
	s.gotNumber = number
	return s.data, s.err
}

func TestResolveAsksForNumber(t *testing.T) {
	api := &stubStatusAPI{}
	agent := NewAgent(api)

	res := agent.Resolve(context.Background(), "mau cek status KTP saya", "")
	if !res.RequiresNumber {
		t.Error("expected RequiresNumber")
	}
	if res.Message == "" {
		t.Error("expected a prompt message")
	}
	if api.callCount != 0 {
		t.Errorf("API called %d times without a number, want 0", api.callCount)
	}
}

func TestResolveFreshNumberWins(t *testing.T) {
	api := &stubStatusAPI{data: map[string]any{"status": "Selesai"}}
	agent := NewAgent(api)

	res := agent.Resolve(context.Background(), "cek 99998888777", "11112222333")
	if res.RequiresNumber {
		t.Error("unexpected RequiresNumber")
	}
	if api.gotNumber != "99998888777" {
		t.Errorf("API called with %q, want the freshly extracted number", api.gotNumber)
	}
	if !strings.Contains(res.Message, "Selesai") {
		t.Errorf("message %q does not mention the status", res.Message)
	}
	if res.Data == nil {
		t.Error("expected raw status payload in result")
	}
}

func TestResolveKnownNumberFallback(t *testing.T) {
	api := &stubStatusAPI{data: map[string]any{"status": "Dalam Proses"}}
	agent := NewAgent(api)

	agent.Resolve(context.Background(), "sudah jadi belum?", "11112222333")
	if api.gotNumber != "11112222333" {
		t.Errorf("API called with %q, want the remembered number", api.gotNumber)
	}
}

func TestResolveNotFound(t *testing.T) {
	api := &stubStatusAPI{err: content.ErrTrackingNotFound}
	agent := NewAgent(api)

	res := agent.Resolve(context.Background(), "cek 12345678", "")
	if res.RequiresNumber {
		t.Error("unexpected RequiresNumber for a not-found number")
	}
	if !strings.Contains(res.Message, "12345678") {
		t.Errorf("message %q does not mention the number", res.Message)
	}
	if res.Data != nil {
		t.Error("expected no data for a not-found number")
	}
}

func TestResolveTransportError(t *testing.T) {
	api := &stubStatusAPI{err: errors.New("connection refused")}
	agent := NewAgent(api)

	res := agent.Resolve(context.Background(), "cek 12345678", "")
	if res.Message == "" {
		t.Error("expected an apologetic message")
	}
	if res.Data != nil {
		t.Error("expected no data on transport error")
	}
}

func TestResolveMissingStatusField(t *testing.T) {
	api := &stubStatusAPI{data: map[string]any{"nomor": "12345678"}}
	agent := NewAgent(api)

	res := agent.Resolve(context.Background(), "cek 12345678", "")
	if !strings.Contains(res.Message, "Informasi tidak ditemukan") {
		t.Errorf("message %q missing the no-status placeholder", res.Message)
	}
}
