package registry

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"proctorhub/pkg/interfaces"
	"proctorhub/pkg/types"
)

// Registry holds the live connection table and is the only shared mutable
// state in the hub core. All mutations and all snapshot reads serialize on
// one lock; network sends never happen while it is held.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*entry // connID -> entry
	order []string          // connIDs in insertion order, for stable iteration
}

type entry struct {
	conn   types.Connection
	sender interfaces.Sender
}

// Target is a snapshot row handed to the relay/broadcast engines: enough
// identity to build notification payloads, plus the sender to deliver on.
type Target struct {
	ConnID string
	UserID string
	Name   string
	Sender interfaces.Sender
}

// Group selects one role's members for a shared-snapshot fan-out,
// optionally excluding a single connection (the sender).
type Group struct {
	Role    types.Role
	Exclude string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*entry),
	}
}

// Register adds a connection under connID. Registering an id that is
// already present overwrites the stale record in place (reconnect with the
// same transport id) and keeps its position in the iteration order.
func (r *Registry) Register(connID string, role types.Role, userID, name string, sender interfaces.Sender) {
	if connID == "" || !role.Valid() {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[connID]; !exists {
		r.order = append(r.order, connID)
	}
	r.conns[connID] = &entry{
		conn: types.Connection{
			ConnID:      connID,
			Role:        role,
			UserID:      userID,
			DisplayName: name,
			JoinedAt:    time.Now(),
		},
		sender: sender,
	}

	log.Debug().Str("module", "registry").Str("conn", connID).
		Str("role", string(role)).Str("user", userID).Msg("connection registered")
}

// Touch records heartbeat activity. Unknown ids are a no-op. Returns a copy
// of the updated record so the caller can notify observers.
func (r *Registry) Touch(connID string, at time.Time) (types.Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.conns[connID]
	if !exists {
		return types.Connection{}, false
	}
	t := at
	e.conn.LastActiveAt = &t
	return e.conn, true
}

// UpdateStatus applies the non-nil fields of upd. Unknown ids are a no-op.
// Returns a copy of the updated record.
func (r *Registry) UpdateStatus(connID string, upd types.StatusUpdate) (types.Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.conns[connID]
	if !exists {
		return types.Connection{}, false
	}
	if upd.LastActiveAt != nil {
		e.conn.LastActiveAt = upd.LastActiveAt
	}
	if upd.VideoOn != nil {
		e.conn.VideoOn = upd.VideoOn
	}
	if upd.AudioOn != nil {
		e.conn.AudioOn = upd.AudioOn
	}
	if upd.TabVisible != nil {
		e.conn.TabVisible = upd.TabVisible
	}
	return e.conn, true
}

// Remove deletes the connection and returns the removed record exactly
// once. A second Remove for the same id reports false, so departure
// notifications cannot be emitted twice.
func (r *Registry) Remove(connID string) (types.Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.conns[connID]
	if !exists {
		return types.Connection{}, false
	}
	delete(r.conns, connID)
	for i, id := range r.order {
		if id == connID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	log.Debug().Str("module", "registry").Str("conn", connID).
		Str("role", string(e.conn.Role)).Msg("connection removed")
	return e.conn, true
}

// Get returns a copy of the record for connID.
func (r *Registry) Get(connID string) (types.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.conns[connID]
	if !exists {
		return types.Connection{}, false
	}
	return e.conn, true
}

// ListByRole returns copies of all connections holding role, in insertion
// order.
func (r *Registry) ListByRole(role types.Role) []types.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []types.Connection
	for _, id := range r.order {
		if e := r.conns[id]; e != nil && e.conn.Role == role {
			out = append(out, e.conn)
		}
	}
	return out
}

// MembersOf returns the connection ids currently holding role, in insertion
// order, minus any excluded ids.
func (r *Registry) MembersOf(role types.Role, excluding ...string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for _, id := range r.order {
		e := r.conns[id]
		if e == nil || e.conn.Role != role {
			continue
		}
		if contains(excluding, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// Target returns the delivery target for one connection id, for relay.
func (r *Registry) Target(connID string) (Target, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.conns[connID]
	if !exists {
		return Target{}, false
	}
	return toTarget(e), true
}

// Targets computes the union of all groups under a single lock
// acquisition, so a multi-role fan-out observes one consistent membership
// snapshot. A connection id can hold only one role, so the union is
// duplicate-free by construction.
func (r *Registry) Targets(groups ...Group) []Target {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Target
	for _, g := range groups {
		for _, id := range r.order {
			e := r.conns[id]
			if e == nil || e.conn.Role != g.Role {
				continue
			}
			if g.Exclude != "" && g.Exclude == id {
				continue
			}
			out = append(out, toTarget(e))
		}
	}
	return out
}

// Stats reports connection counts for the health endpoint.
func (r *Registry) Stats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	students, faculty := 0, 0
	for _, e := range r.conns {
		switch e.conn.Role {
		case types.RoleStudent:
			students++
		case types.RoleFaculty:
			faculty++
		}
	}
	return map[string]int{
		"total_connections": len(r.conns),
		"students":          students,
		"faculty":           faculty,
	}
}

func toTarget(e *entry) Target {
	return Target{
		ConnID: e.conn.ConnID,
		UserID: e.conn.UserID,
		Name:   e.conn.DisplayName,
		Sender: e.sender,
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
