package core

// Room groups the clients collaborating on one shared buffer. Rooms exist
// implicitly: the hub creates one when the first client joins and drops it
// once the last member leaves.
type Room struct {
	Key     string
	clients map[*Client]struct{}
}

// NewRoom constructs a room with no members.
func NewRoom(key string) *Room {
	return &Room{
		Key:     key,
		clients: make(map[*Client]struct{}),
	}
}

// AddClient inserts a client into the room. Returns true if newly added.
func (r *Room) AddClient(c *Client) bool {
	if _, exists := r.clients[c]; exists {
		return false
	}
	r.clients[c] = struct{}{}
	return true
}

// RemoveClient deletes a client from the room. Returns true if removed.
func (r *Room) RemoveClient(c *Client) bool {
	if _, exists := r.clients[c]; !exists {
		return false
	}
	delete(r.clients, c)
	return true
}

// Contains reports whether the client is a member.
func (r *Room) Contains(c *Client) bool {
	_, ok := r.clients[c]
	return ok
}

// Broadcast sends an event to every member of the room.
func (r *Room) Broadcast(event *Event) {
	for client := range r.clients {
		client.send(event)
	}
}

// BroadcastExcept sends an event to every member other than the sender.
// Relayed mutations always use this path: the originator never receives its
// own event back.
func (r *Room) BroadcastExcept(sender *Client, event *Event) {
	for client := range r.clients {
		if client == sender {
			continue
		}
		client.send(event)
	}
}

// MemberIDs returns the connection ids of current members in no particular
// order.
func (r *Room) MemberIDs() []string {
	ids := make([]string, 0, len(r.clients))
	for client := range r.clients {
		ids = append(ids, client.ID)
	}
	return ids
}

// Empty returns true if no clients are in the room.
func (r *Room) Empty() bool {
	return len(r.clients) == 0
}
