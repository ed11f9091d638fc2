package core

// Client is a live connection as seen by the relay core. The transport layer
// owns the connection; the core holds only the command/event channel pair and
// the room association.
type Client struct {
	ID       string
	Commands chan *Command
	Events   chan *Event

	// room is the key of the joined room, empty while unjoined. Mutated only
	// by the hub's dispatch goroutine.
	room string
}

// NewClient constructs a client with initialized channels.
func NewClient(id string) *Client {
	return &Client{
		ID:       id,
		Commands: make(chan *Command, 16),
		Events:   make(chan *Event, 16),
	}
}

// Room returns the key of the joined room, or "" while unjoined.
func (c *Client) Room() string {
	return c.room
}

func (c *Client) send(event *Event) {
	select {
	case c.Events <- event:
	default:
		// Drop if slow consumer; the membership rebroadcast on the next
		// join/leave self-heals a missed list update.
	}
}
