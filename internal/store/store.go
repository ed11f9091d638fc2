package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no document exists for a room key.
var ErrNotFound = errors.New("document not found")

// DefaultContent seeds a freshly created room buffer.
const DefaultContent = "// Welcome to your new collaborative room!\n// Your code will be saved automatically.\n"

// DefaultLanguage is the language mode for rooms that never picked one.
const DefaultLanguage = "javascript"

// Document is the durable snapshot of a room's buffer. It is not the live
// source of truth during a session; the broadcast path is. The document
// serves join-time bootstrap and crash recovery.
type Document struct {
	Room      string
	Content   string
	Language  string
	UpdatedAt time.Time
}

// DocumentStore provides get and set-with-merge on room documents keyed by
// room id. Writes always carry the full current state, never a partial patch.
type DocumentStore interface {
	// GetDocument returns the stored document, or ErrNotFound.
	GetDocument(ctx context.Context, room string) (*Document, error)

	// SaveDocument upserts the full document for its room key.
	SaveDocument(ctx context.Context, doc *Document) error

	// Close releases underlying resources.
	Close() error
}
