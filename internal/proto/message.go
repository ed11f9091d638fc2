package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeJoin      = "join"
	InboundTypeCode      = "code_change"
	InboundTypeLanguage  = "language_change"
	InboundTypeCursor    = "cursor_move"
	InboundTypeSelection = "selection_change"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventCodeUpdate        = "code_update"
	EventLanguageUpdate    = "language_update"
	EventMembershipUpdate  = "membership_update"
	EventParticipantJoined = "participant_joined"
	EventParticipantLeft   = "participant_left"
	EventCursorUpdate      = "cursor_update"
	EventSelectionUpdate   = "selection_update"
	EventCursorRemove      = "cursor_remove"
)

// Position is a caret location, 1-based.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Range is a selection span. Start == End means an empty span.
type Range struct {
	StartLine   int `json:"start_line"`
	StartColumn int `json:"start_column"`
	EndLine     int `json:"end_line"`
	EndColumn   int `json:"end_column"`
}

// JoinData requests to join a room. Token optionally carries an identity
// token whose display-name claim overrides Name.
type JoinData struct {
	Room  string `json:"room"`
	Name  string `json:"name,omitempty"`
	Token string `json:"token,omitempty"`
}

// CodeData carries the full buffer after a local edit.
type CodeData struct {
	Room string `json:"room"`
	Text string `json:"text"`
}

// LanguageData carries a language mode switch.
type LanguageData struct {
	Room     string `json:"room"`
	Language string `json:"language"`
}

// CursorData carries a throttled caret position.
type CursorData struct {
	Room     string   `json:"room"`
	Position Position `json:"position"`
}

// SelectionData carries a throttled selection span.
type SelectionData struct {
	Room  string `json:"room"`
	Range Range  `json:"range"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventCode delivers the full buffer text from a remote edit.
type EventCode struct {
	Room string `json:"room"`
	Text string `json:"text"`
}

// EventLanguage delivers a remote language switch.
type EventLanguage struct {
	Room     string `json:"room"`
	Language string `json:"language"`
}

// ParticipantData is one entry of a membership list.
type ParticipantData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EventMembership delivers the authoritative member list. Receivers replace
// any previously known list.
type EventMembership struct {
	Room         string            `json:"room"`
	Participants []ParticipantData `json:"participants"`
}

// EventParticipant announces a join or leave by display name.
type EventParticipant struct {
	Room string `json:"room"`
	Name string `json:"name"`
}

// EventCursor delivers an attributed remote caret position.
type EventCursor struct {
	Room     string   `json:"room"`
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Position Position `json:"position"`
}

// EventSelection delivers an attributed remote selection span.
type EventSelection struct {
	Room  string `json:"room"`
	ID    string `json:"id"`
	Name  string `json:"name"`
	Range Range  `json:"range"`
}

// EventCursorGone instructs receivers to drop a participant's decorations.
type EventCursorGone struct {
	Room string `json:"room"`
	ID   string `json:"id"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
