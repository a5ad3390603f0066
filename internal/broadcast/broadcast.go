package broadcast

import (
	"github.com/rs/zerolog/log"

	"proctorhub/internal/registry"
	"proctorhub/pkg/types"
)

// Engine fans typed events out to role groups. Every call computes its
// recipient set as one registry snapshot and then delivers outside the
// lock; a connection that joins mid-fan-out misses that event but can
// never receive it twice.
type Engine struct {
	registry *registry.Registry
}

// NewEngine creates a broadcast engine over the registry.
func NewEngine(reg *registry.Registry) *Engine {
	return &Engine{registry: reg}
}

// ToRole delivers event to every connection currently holding role.
func (e *Engine) ToRole(role types.Role, event string, payload any) {
	e.Fan(event, payload, registry.Group{Role: role})
}

// ToRoleExcept delivers event to every connection holding role except one,
// typically the sender.
func (e *Engine) ToRoleExcept(role types.Role, event string, payload any, exclude string) {
	e.Fan(event, payload, registry.Group{Role: role, Exclude: exclude})
}

// Fan delivers event to the union of the given groups. All groups share a
// single snapshot instant, which is what keeps a both-roles chat fan-out
// consistent under concurrent joins and leaves.
func (e *Engine) Fan(event string, payload any, groups ...registry.Group) {
	targets := e.registry.Targets(groups...)
	for _, t := range targets {
		if err := t.Sender.Send(event, payload); err != nil {
			// Keep going: one tearing-down recipient must not cost the rest
			// of the group its event.
			log.Debug().Err(err).Str("module", "broadcast").
				Str("event", event).Str("conn", t.ConnID).Msg("send failed")
		}
	}
}
