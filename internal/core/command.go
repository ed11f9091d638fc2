package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinRoom registers presence and subscribes the client to a room.
	CommandJoinRoom CommandKind = iota
	// CommandCodeChange relays the full buffer text to other room members.
	CommandCodeChange
	// CommandLanguageChange relays a language mode switch.
	CommandLanguageChange
	// CommandCursorMove relays a caret position update.
	CommandCursorMove
	// CommandSelectionChange relays a selection span update.
	CommandSelectionChange
)

// Command represents an action requested by a client.
type Command struct {
	Kind     CommandKind
	Room     string
	Name     string // display name, join only
	Text     string // full buffer, code change only
	Language string
	Position Position
	Range    Range
}
