package core

// EventKind is a notification the relay emits to clients.
type EventKind int

const (
	// EventCodeUpdate carries the full buffer text after a remote edit.
	EventCodeUpdate EventKind = iota
	// EventLanguageUpdate carries a remote language mode switch.
	EventLanguageUpdate
	// EventMembershipUpdate carries the authoritative member list of a room.
	// It replaces any previously delivered list.
	EventMembershipUpdate
	// EventParticipantJoined announces a new member by display name.
	EventParticipantJoined
	// EventParticipantLeft announces a departed member by display name.
	EventParticipantLeft
	// EventCursorUpdate carries an attributed remote caret position.
	EventCursorUpdate
	// EventSelectionUpdate carries an attributed remote selection span.
	EventSelectionUpdate
	// EventCursorRemove instructs receivers to tear down a participant's
	// cursor and selection decorations.
	EventCursorRemove
	// EventError notifies the client about a domain error.
	EventError
)

// Participant is one entry of a membership list.
type Participant struct {
	ID   string
	Name string
}

// Event is sent to clients to describe what happened in the room.
type Event struct {
	Kind EventKind
	Room string

	// SenderID and SenderName attribute relayed state to its originator.
	SenderID   string
	SenderName string

	Text         string // EventCodeUpdate
	Language     string // EventLanguageUpdate
	Position     Position
	Range        Range
	Participants []Participant // EventMembershipUpdate
	Error        *CoreError    // EventError
}
