// Package tracking resolves document-registration status requests: it
// extracts a registration number from free text and looks its status up
// via the content API.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"

	"github.com/pemkab-anambas/dukcapil-chatbot/internal/content"
)

// numberRe matches a word-bounded run of 8-20 digits. Letters adjacent to
// the digits invalidate the match.
var numberRe = regexp.MustCompile(`\b(\d{8,20})\b`)

// ExtractNumber pulls the first registration number out of free text.
// Returns "" when none is present.
func ExtractNumber(text string) string {
	m := numberRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// StatusAPI is the slice of the content API the agent needs.
type StatusAPI interface {
	FetchTracking(ctx context.Context, number string) (map[string]any, error)
}

// Result is the agent's structured outcome. The agent never returns an
// error to its caller; failures become a message plus nil Data.
type Result struct {
	RequiresNumber bool
	Message        string
	Data           map[string]any
}

// Agent resolves tracking requests against the status API.
type Agent struct {
	api StatusAPI
}

// NewAgent creates a tracking agent backed by the given status API.
func NewAgent(api StatusAPI) *Agent {
	return &Agent{api: api}
}

// Resolve extracts a registration number from the question (a freshly
// extracted number wins over knownNumber) and resolves its status. Without
// any number it asks for one and makes no external call.
func (a *Agent) Resolve(ctx context.Context, question, knownNumber string) Result {
	number := ExtractNumber(question)
	if number == "" {
		number = knownNumber
	}

	if number == "" {
		return Result{
			RequiresNumber: true,
			Message:        "Untuk mengecek status dokumen, mohon berikan nomor registrasi pengurusan dokumen Anda.",
		}
	}

	data, err := a.api.FetchTracking(ctx, number)
	if err != nil {
		if errors.Is(err, content.ErrTrackingNotFound) {
			return Result{
				Message: fmt.Sprintf("Nomor registrasi '%s' tidak ditemukan atau statusnya tidak tersedia.", number),
			}
		}
		log.Printf("tracking: status lookup for %s failed: %v", number, err)
		return Result{
			Message: "Terjadi kesalahan saat menghubungi sistem pelacakan. Silakan coba lagi nanti.",
		}
	}

	status := "Informasi tidak ditemukan"
	if s, ok := data["status"].(string); ok && s != "" {
		status = s
	}

	return Result{
		Message: fmt.Sprintf("Status dokumen dengan nomor %s: %s.", number, status),
		Data:    data,
	}
}
