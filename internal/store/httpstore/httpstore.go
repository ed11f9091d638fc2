// Package httpstore implements store.DocumentStore against the relay's REST
// document endpoints, letting out-of-process clients reuse the persistence
// bridge unchanged.
package httpstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/codesync/codesync-server/internal/store"
)

// HTTPStore talks to GET/PUT /api/rooms/{room}/document.
type HTTPStore struct {
	baseURL string
	client  *http.Client
}

type documentBody struct {
	Room      string    `json:"room"`
	Content   string    `json:"content"`
	Language  string    `json:"language"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New builds a store rooted at baseURL, e.g. "http://localhost:8080".
func New(baseURL string) *HTTPStore {
	return &HTTPStore{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// GetDocument fetches the room document. A 404 maps to store.ErrNotFound.
func (s *HTTPStore) GetDocument(ctx context.Context, room string) (*store.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.documentURL(room), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, store.ErrNotFound
	default:
		return nil, fmt.Errorf("get document: unexpected status %d", resp.StatusCode)
	}

	var body documentBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &store.Document{
		Room:      body.Room,
		Content:   body.Content,
		Language:  body.Language,
		UpdatedAt: body.UpdatedAt,
	}, nil
}

// SaveDocument upserts the full document state.
func (s *HTTPStore) SaveDocument(ctx context.Context, doc *store.Document) error {
	payload, err := json.Marshal(documentBody{
		Room:     doc.Room,
		Content:  doc.Content,
		Language: doc.Language,
	})
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.documentURL(doc.Room), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("save document: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Close is a no-op; the underlying transport needs no teardown.
func (s *HTTPStore) Close() error {
	return nil
}

func (s *HTTPStore) documentURL(room string) string {
	return fmt.Sprintf("%s/api/rooms/%s/document", s.baseURL, room)
}
