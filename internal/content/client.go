// Package content talks to the upstream content API that owns the
// authoritative FAQ, document and tracking records.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrTrackingNotFound is returned when the tracking API has no record for
// the requested registration number.
var ErrTrackingNotFound = errors.New("tracking number not found")

// maxDownloadBytes caps a single source-file download.
const maxDownloadBytes = 32 << 20

// FAQ is one question/answer record from the content API.
type FAQ struct {
	ID       string `json:"-"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// DocumentRecord is one document record. Either Content is populated with
// already-extracted text, or SourcePath points at a PDF to download.
type DocumentRecord struct {
	ID         string `json:"-"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	SourcePath string `json:"source_path"`
}

// Config holds the content API connection settings.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client provides access to the content API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a content API client with the configured timeout.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// dataEnvelope is the API's standard {"data": ...} wrapper.
type dataEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// statusError carries the HTTP status of a failed content API call so
// callers can react to specific codes.
type statusError struct {
	code int
	path string
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("content API error (%d) on %s: %s", e.code, e.path, e.body)
}

// flexID tolerates the API returning IDs as either numbers or strings.
type flexID struct {
	Raw string
}

func (f *flexID) UnmarshalJSON(b []byte) error {
	f.Raw = strings.Trim(string(b), `"`)
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &statusError{code: resp.StatusCode, path: path, body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// FetchFAQs retrieves all FAQ records.
func (c *Client) FetchFAQs(ctx context.Context) ([]FAQ, error) {
	var envelope dataEnvelope
	if err := c.get(ctx, "/faqs", &envelope); err != nil {
		return nil, err
	}

	var raw []struct {
		ID       flexID `json:"id"`
		Question string `json:"question"`
		Answer   string `json:"answer"`
	}
	if err := json.Unmarshal(envelope.Data, &raw); err != nil {
		return nil, fmt.Errorf("decoding faqs: %w", err)
	}

	faqs := make([]FAQ, 0, len(raw))
	for _, r := range raw {
		faqs = append(faqs, FAQ{ID: r.ID.Raw, Question: r.Question, Answer: r.Answer})
	}
	return faqs, nil
}

// FetchDocuments retrieves all document records.
func (c *Client) FetchDocuments(ctx context.Context) ([]DocumentRecord, error) {
	var envelope dataEnvelope
	if err := c.get(ctx, "/documents", &envelope); err != nil {
		return nil, err
	}

	var raw []struct {
		ID         flexID `json:"id"`
		Title      string `json:"title"`
		Content    string `json:"content"`
		SourcePath string `json:"source_path"`
	}
	if err := json.Unmarshal(envelope.Data, &raw); err != nil {
		return nil, fmt.Errorf("decoding documents: %w", err)
	}

	docs := make([]DocumentRecord, 0, len(raw))
	for _, r := range raw {
		docs = append(docs, DocumentRecord{
			ID:         r.ID.Raw,
			Title:      r.Title,
			Content:    r.Content,
			SourcePath: r.SourcePath,
		})
	}
	return docs, nil
}

// FetchTracking resolves the registration status for a tracking number.
// It returns ErrTrackingNotFound when the API reports 404.
func (c *Client) FetchTracking(ctx context.Context, number string) (map[string]any, error) {
	var envelope dataEnvelope
	if err := c.get(ctx, "/tracking/"+url.PathEscape(number), &envelope); err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			return nil, ErrTrackingNotFound
		}
		return nil, err
	}

	status := map[string]any{}
	if err := json.Unmarshal(envelope.Data, &status); err != nil {
		return nil, fmt.Errorf("decoding tracking response: %w", err)
	}
	return status, nil
}

// DownloadFile fetches an arbitrary source file (typically a PDF) from the
// given URL using the client's auth and timeout.
func (c *Client) DownloadFile(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating download request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", fileURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s returned status %d", fileURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", fileURL, err)
	}
	return data, nil
}
