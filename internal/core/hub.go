package core

import "context"

// Hub is the relay's dispatch loop. A single goroutine owns the presence
// registry and all room membership, processing each inbound command to
// completion before the next, so membership mutations and fan-outs are atomic
// with respect to each other without locking.
type Hub struct {
	registry *Registry
	rooms    map[string]*Room

	register   chan *Client
	unregister chan unregisterRequest
	inbound    chan inboundCommand
	done       chan struct{}
}

type inboundCommand struct {
	client *Client
	cmd    *Command
}

type unregisterRequest struct {
	client *Client
	done   chan struct{}
}

// NewHub constructs a hub around an injected presence registry.
func NewHub(registry *Registry) *Hub {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Hub{
		registry:   registry,
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan unregisterRequest),
		inbound:    make(chan inboundCommand),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and commands until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			go h.pump(client)
		case req := <-h.unregister:
			h.handleDisconnect(req.client)
			close(req.done)
		case in := <-h.inbound:
			h.dispatch(in.client, in.cmd)
		case <-ctx.Done():
			return
		}
	}
}

// RegisterClient hands a freshly accepted connection to the hub. The client
// starts in the unjoined state.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// UnregisterClient runs the disconnect teardown and returns once the
// departure events have been fanned out. The caller still owns the client's
// channels and closes Commands afterwards.
func (h *Hub) UnregisterClient(c *Client) {
	req := unregisterRequest{client: c, done: make(chan struct{})}
	select {
	case h.unregister <- req:
		<-req.done
	case <-h.done:
	}
}

// pump forwards one client's commands into the dispatch loop. It exits when
// the transport closes the Commands channel or the hub shuts down.
func (h *Hub) pump(c *Client) {
	for cmd := range c.Commands {
		select {
		case h.inbound <- inboundCommand{client: c, cmd: cmd}:
		case <-h.done:
			return
		}
	}
}

func (h *Hub) dispatch(c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandJoinRoom:
		h.handleJoin(c, cmd)
	case CommandCodeChange:
		h.relay(c, cmd, &Event{Kind: EventCodeUpdate, Text: cmd.Text})
	case CommandLanguageChange:
		h.relay(c, cmd, &Event{Kind: EventLanguageUpdate, Language: cmd.Language})
	case CommandCursorMove:
		h.relay(c, cmd, &Event{Kind: EventCursorUpdate, Position: cmd.Position})
	case CommandSelectionChange:
		// Empty spans are relayed verbatim; the receiver decides whether to
		// fall back to a cursor decoration.
		h.relay(c, cmd, &Event{Kind: EventSelectionUpdate, Range: cmd.Range})
	default:
		c.send(&Event{Kind: EventError, Error: coreError(ErrCodeBadRequest, "unknown command")})
	}
}

func (h *Hub) handleJoin(c *Client, cmd *Command) {
	if cmd.Room == "" {
		c.send(&Event{Kind: EventError, Error: coreError(ErrCodeBadRequest, "room key required")})
		return
	}
	if c.room != "" && c.room != cmd.Room {
		// Room switching is not part of the event model.
		c.send(&Event{Kind: EventError, Error: coreError(ErrCodeAlreadyJoined, "already joined "+c.room)})
		return
	}

	h.registry.Associate(c.ID, cmd.Name)

	room, ok := h.rooms[cmd.Room]
	if !ok {
		room = NewRoom(cmd.Room)
		h.rooms[cmd.Room] = room
	}

	if room.AddClient(c) {
		c.room = room.Key
		room.BroadcastExcept(c, &Event{
			Kind:       EventParticipantJoined,
			Room:       room.Key,
			SenderID:   c.ID,
			SenderName: h.registry.Resolve(c.ID),
		})
	}

	// The full list goes to everyone, joiner included. Receivers replace
	// rather than patch, so lists can never drift.
	room.Broadcast(&Event{
		Kind:         EventMembershipUpdate,
		Room:         room.Key,
		Participants: h.membersOf(room, nil),
	})
}

// relay forwards a mutation to every other member of the sender's room,
// attributed with the sender's id and current display name.
func (h *Hub) relay(c *Client, cmd *Command, event *Event) {
	room, ok := h.rooms[cmd.Room]
	if !ok || c.room != cmd.Room {
		c.send(&Event{Kind: EventError, Error: coreError(ErrCodeNotInRoom, "not a member of "+cmd.Room)})
		return
	}
	event.Room = room.Key
	event.SenderID = c.ID
	event.SenderName = h.registry.Resolve(c.ID)
	room.BroadcastExcept(c, event)
}

// handleDisconnect emits departure events from the pre-removal membership
// snapshot, then finalizes removal. Remaining members must be computed before
// the client leaves the room, otherwise the departing connection would be
// missing from its own departure broadcast's exclusion set.
func (h *Hub) handleDisconnect(c *Client) {
	// Normally a client is in exactly one room; iterate all defensively.
	for key, room := range h.rooms {
		if !room.Contains(c) {
			continue
		}

		room.BroadcastExcept(c, &Event{
			Kind:     EventCursorRemove,
			Room:     key,
			SenderID: c.ID,
		})
		room.BroadcastExcept(c, &Event{
			Kind:         EventMembershipUpdate,
			Room:         key,
			Participants: h.membersOf(room, c),
		})
		if name, known := h.registry.Lookup(c.ID); known && name != "" {
			room.BroadcastExcept(c, &Event{
				Kind:       EventParticipantLeft,
				Room:       key,
				SenderID:   c.ID,
				SenderName: name,
			})
		}

		room.RemoveClient(c)
		if room.Empty() {
			delete(h.rooms, key)
		}
	}

	c.room = ""
	// Presence is deleted whether or not a room was ever joined.
	h.registry.Remove(c.ID)
}

// membersOf resolves the room's member list through the registry, optionally
// excluding one connection. Absent names resolve to the anonymous label.
func (h *Hub) membersOf(room *Room, exclude *Client) []Participant {
	ids := room.MemberIDs()
	members := make([]Participant, 0, len(ids))
	for _, id := range ids {
		if exclude != nil && id == exclude.ID {
			continue
		}
		members = append(members, Participant{ID: id, Name: h.registry.Resolve(id)})
	}
	return members
}
