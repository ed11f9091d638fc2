// Package persist is the bridge between the live session and the durable
// document store: a best-effort debounced writer plus the join-time
// bootstrap read.
package persist

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/codesync/codesync-server/internal/store"
)

// DefaultQuietPeriod is the trailing-debounce window collapsing edit bursts
// into one write.
const DefaultQuietPeriod = 2 * time.Second

// Status reports the durable copy's state to the user as a transient
// indicator. Persistence faults never interrupt the live session.
type Status int

const (
	StatusSaving Status = iota
	StatusSaved
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusSaving:
		return "saving"
	case StatusSaved:
		return "saved"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Saver debounces document writes for one room. Every local change restarts
// the quiet-period timer; only after a full quiet period does one write of
// the complete current state go out.
type Saver struct {
	store    store.DocumentStore
	room     string
	quiet    time.Duration
	log      *zerolog.Logger
	onStatus func(Status)

	mu       sync.Mutex
	timer    *time.Timer
	content  string
	language string
	dirty    bool
	closed   bool
}

// NewSaver builds a saver for one room. onStatus may be nil.
func NewSaver(st store.DocumentStore, room string, quiet time.Duration, logger *zerolog.Logger, onStatus func(Status)) *Saver {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Saver{
		store:    st,
		room:     room,
		quiet:    quiet,
		log:      logger,
		onStatus: onStatus,
	}
}

// Bootstrap performs the one blocking read at room entry. A missing document
// yields a default in-memory document without writing anything.
func (s *Saver) Bootstrap(ctx context.Context) (*store.Document, error) {
	doc, err := s.store.GetDocument(ctx, s.room)
	if errors.Is(err, store.ErrNotFound) {
		doc = &store.Document{
			Room:     s.room,
			Content:  store.DefaultContent,
			Language: store.DefaultLanguage,
		}
	} else if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.content = doc.Content
	s.language = doc.Language
	s.mu.Unlock()

	return doc, nil
}

// Note records a local buffer or language change and (re)starts the debounce
// timer. A change arriving before the quiet period elapses supersedes the
// pending write.
func (s *Saver) Note(content, language string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.content = content
	s.language = language
	s.dirty = true

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.quiet, s.flush)
	s.notify(StatusSaving)
}

// Close cancels the pending timer and flushes any unsaved state best-effort.
func (s *Saver) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	dirty := s.dirty
	s.mu.Unlock()

	if dirty {
		s.flush()
	}
}

func (s *Saver) flush() {
	s.mu.Lock()
	doc := &store.Document{
		Room:     s.room,
		Content:  s.content,
		Language: s.language,
	}
	s.dirty = false
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.store.SaveDocument(ctx, doc); err != nil {
		if s.log != nil {
			s.log.Warn().Err(err).Str("room", s.room).Msg("document save failed")
		}
		s.mu.Lock()
		// The next successful debounced write self-heals the durable copy.
		s.dirty = true
		s.notify(StatusError)
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.notify(StatusSaved)
	s.mu.Unlock()
}

// notify is called with mu held.
func (s *Saver) notify(status Status) {
	if s.onStatus != nil {
		s.onStatus(status)
	}
}
