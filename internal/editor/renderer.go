package editor

import "github.com/codesync/codesync-server/internal/core"

// Renderer is the thin adapter onto the actual editor surface. The engine
// computes which decorations to add and remove; implementations only issue
// the corresponding markup calls.
type Renderer interface {
	// SetBuffer replaces the displayed text.
	SetBuffer(text string)
	// SetLanguage switches the displayed language mode.
	SetLanguage(language string)
	// SetCursor places or moves a participant's cursor decoration.
	SetCursor(id, name string, pos core.Position)
	// ClearCursor removes a participant's cursor decoration.
	ClearCursor(id string)
	// SetSelection places or moves a participant's selection highlight.
	SetSelection(id, name string, rng core.Range)
	// ClearSelection removes a participant's selection highlight.
	ClearSelection(id string)
}
