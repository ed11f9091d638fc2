package core

// AnonymousName is the display name resolved for connections that never
// introduced themselves.
const AnonymousName = "Anonymous"

// Registry maps connection ids to display names. It is a process-scoped
// service created at relay startup; entries are ephemeral and rebuilt from
// scratch after a restart. Only the hub's dispatch goroutine mutates it.
type Registry struct {
	names map[string]string
}

// NewRegistry constructs an empty presence registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]string)}
}

// Associate upserts the display name for a connection. Later joins from the
// same connection overwrite the earlier name.
func (r *Registry) Associate(connID, name string) {
	r.names[connID] = name
}

// Lookup returns the display name for a connection, if one is known.
func (r *Registry) Lookup(connID string) (string, bool) {
	name, ok := r.names[connID]
	return name, ok
}

// Resolve returns the display name for a connection, falling back to the
// anonymous label. A registry miss is never an error.
func (r *Registry) Resolve(connID string) string {
	if name, ok := r.names[connID]; ok && name != "" {
		return name
	}
	return AnonymousName
}

// Remove deletes the association. Removing an unknown connection is a no-op.
func (r *Registry) Remove(connID string) {
	delete(r.names, connID)
}

// Len returns the number of tracked connections.
func (r *Registry) Len() int {
	return len(r.names)
}
