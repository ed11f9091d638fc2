// Package editor holds the per-participant reconciliation engine: it turns
// relay events into local view state (buffer, language, remote cursor and
// selection decorations) and smooths remote cursor motion between discrete
// position updates.
package editor

import (
	"sync"
	"time"

	"github.com/codesync/codesync-server/internal/core"
)

const frameInterval = 16 * time.Millisecond

// Engine reconciles incoming relay events with the local view. One engine
// runs per participant; all methods are safe for concurrent use.
type Engine struct {
	renderer Renderer

	mu        sync.Mutex
	buffer    string
	language  string
	names     map[string]string
	cursors   map[string]*remoteCursor
	selected  map[string]bool
	animating bool

	frame time.Duration
	now   func() time.Time
}

// NewEngine builds an engine rendering through the given adapter.
func NewEngine(renderer Renderer) *Engine {
	return &Engine{
		renderer: renderer,
		names:    make(map[string]string),
		cursors:  make(map[string]*remoteCursor),
		selected: make(map[string]bool),
		frame:    frameInterval,
		now:      time.Now,
	}
}

// SetInitial seeds the local buffer and language from the bootstrap document
// without treating them as remote updates.
func (e *Engine) SetInitial(text, language string) {
	e.mu.Lock()
	e.buffer = text
	e.language = language
	e.mu.Unlock()
	e.renderer.SetBuffer(text)
	e.renderer.SetLanguage(language)
}

// Buffer returns the currently displayed text.
func (e *Engine) Buffer() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buffer
}

// Language returns the currently displayed language mode.
func (e *Engine) Language() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.language
}

// ApplyCode replaces the local buffer with a remote edit. The replacement is
// skipped when the text already matches, so a local edit that round-trips
// never causes a cursor jump.
func (e *Engine) ApplyCode(text string) {
	e.mu.Lock()
	if e.buffer == text {
		e.mu.Unlock()
		return
	}
	e.buffer = text
	e.mu.Unlock()
	e.renderer.SetBuffer(text)
}

// ApplyLanguage switches the local language mode.
func (e *Engine) ApplyLanguage(language string) {
	e.mu.Lock()
	if e.language == language {
		e.mu.Unlock()
		return
	}
	e.language = language
	e.mu.Unlock()
	e.renderer.SetLanguage(language)
}

// ApplyCursor records a remote caret position. The first update from a
// participant renders immediately; later updates retarget the tween and wake
// the animation driver.
func (e *Engine) ApplyCursor(id, name string, pos core.Position) {
	e.mu.Lock()
	e.names[id] = name

	c, ok := e.cursors[id]
	if !ok {
		c = newRemoteCursor(pos)
		e.cursors[id] = c
		hasSelection := e.selected[id]
		e.mu.Unlock()
		if !hasSelection {
			e.renderer.SetCursor(id, name, pos)
		}
		return
	}

	c.retarget(pos, e.now())
	e.wakeLocked()
	e.mu.Unlock()
}

// ApplySelection records a remote selection span. An empty span falls back
// to a plain cursor decoration; a real span subsumes the cursor visual.
func (e *Engine) ApplySelection(id, name string, rng core.Range) {
	e.mu.Lock()
	e.names[id] = name

	if rng.Empty() {
		e.selected[id] = false
		e.mu.Unlock()
		e.renderer.ClearSelection(id)
		e.renderer.SetCursor(id, name, rng.Start)
		return
	}

	e.selected[id] = true
	e.mu.Unlock()
	e.renderer.ClearCursor(id)
	e.renderer.SetSelection(id, name, rng)
}

// ApplyCursorRemove tears down all decoration and animation state for a
// departed participant.
func (e *Engine) ApplyCursorRemove(id string) {
	e.mu.Lock()
	delete(e.cursors, id)
	delete(e.selected, id)
	delete(e.names, id)
	e.mu.Unlock()
	e.renderer.ClearCursor(id)
	e.renderer.ClearSelection(id)
}

// ApplyMembership replaces the known participant set with the authoritative
// list, tearing down state for anyone no longer present.
func (e *Engine) ApplyMembership(participants []core.Participant) {
	present := make(map[string]string, len(participants))
	for _, p := range participants {
		present[p.ID] = p.Name
	}

	e.mu.Lock()
	var dropped []string
	for id := range e.cursors {
		if _, ok := present[id]; !ok {
			dropped = append(dropped, id)
			delete(e.cursors, id)
			delete(e.selected, id)
		}
	}
	for id := range e.names {
		if _, ok := present[id]; !ok {
			delete(e.names, id)
		}
	}
	for id, name := range present {
		if _, known := e.names[id]; known {
			e.names[id] = name
		}
	}
	e.mu.Unlock()

	for _, id := range dropped {
		e.renderer.ClearCursor(id)
		e.renderer.ClearSelection(id)
	}
}

// wakeLocked lazily starts the animation driver. Called with mu held.
func (e *Engine) wakeLocked() {
	if e.animating {
		return
	}
	e.animating = true
	go e.animate()
}

// animate advances all active tweens once per frame and exits as soon as no
// cursor needs another frame. The next incoming update restarts it.
func (e *Engine) animate() {
	ticker := time.NewTicker(e.frame)
	defer ticker.Stop()

	for range ticker.C {
		if e.step(e.now()) {
			continue
		}
		e.mu.Lock()
		if e.pendingLocked(e.now()) {
			// A retarget slipped in between the step and here.
			e.mu.Unlock()
			continue
		}
		e.animating = false
		e.mu.Unlock()
		return
	}
}

// step renders one animation frame for every remote cursor and reports
// whether any tween still needs further frames.
func (e *Engine) step(now time.Time) bool {
	e.mu.Lock()

	type frame struct {
		id, name string
		pos      core.Position
	}
	var frames []frame
	active := false

	for id, c := range e.cursors {
		pos, done := c.renderedAt(now)
		if done {
			c.settle()
		} else {
			active = true
		}
		if !e.selected[id] {
			frames = append(frames, frame{id: id, name: e.names[id], pos: pos})
		}
	}
	e.mu.Unlock()

	for _, f := range frames {
		e.renderer.SetCursor(f.id, f.name, f.pos)
	}
	return active
}

// pendingLocked reports whether any tween is unfinished. Called with mu held.
func (e *Engine) pendingLocked(now time.Time) bool {
	for _, c := range e.cursors {
		if _, done := c.renderedAt(now); !done {
			return true
		}
	}
	return false
}
