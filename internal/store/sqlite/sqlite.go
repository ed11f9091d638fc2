package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/codesync/codesync-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	room       TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	language   TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteStore implements store.DocumentStore for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (and if necessary creates) the document database at dbPath.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetDocument returns the stored document for a room, or store.ErrNotFound.
func (s *SQLiteStore) GetDocument(ctx context.Context, room string) (*store.Document, error) {
	query := `
		SELECT room, content, language, updated_at
		FROM documents
		WHERE room = ?
	`
	doc := &store.Document{}
	err := s.db.QueryRowContext(ctx, query, room).Scan(&doc.Room, &doc.Content, &doc.Language, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// SaveDocument upserts the full document state for its room key.
func (s *SQLiteStore) SaveDocument(ctx context.Context, doc *store.Document) error {
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO documents (room, content, language, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(room) DO UPDATE SET
			content    = excluded.content,
			language   = excluded.language,
			updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, doc.Room, doc.Content, doc.Language, doc.UpdatedAt); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}
