package relay

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"proctorhub/internal/registry"
	"proctorhub/pkg/types"
)

// Result of a relay attempt. Recipient absence is an expected outcome, not
// an error: signaling is only meaningful to a live peer, so messages for a
// departed connection are dropped rather than queued.
type Result int

const (
	ResultDelivered Result = iota
	ResultRecipientAbsent
)

// Engine forwards opaque signaling payloads between two named connections.
// It never decodes the payload body.
type Engine struct {
	registry *registry.Registry
}

// NewEngine creates a relay engine over the registry.
func NewEngine(reg *registry.Registry) *Engine {
	return &Engine{registry: reg}
}

// Relay delivers signal{from, data} to the connection to, exactly once, if
// it is currently registered. The recipient lookup is a registry snapshot;
// the send itself happens outside the registry lock on the recipient's
// order-preserving sender.
func (e *Engine) Relay(from, to string, data json.RawMessage) Result {
	target, ok := e.registry.Target(to)
	if !ok {
		log.Debug().Str("module", "relay").Str("from", from).Str("to", to).
			Msg("recipient absent, signal dropped")
		return ResultRecipientAbsent
	}

	fwd := types.SignalForward{From: from, Data: data}
	if err := target.Sender.Send(types.EventSignal, fwd); err != nil {
		// The recipient existed at snapshot time; a failed enqueue means its
		// connection is tearing down. Same outcome as absent: drop silently.
		log.Debug().Err(err).Str("module", "relay").Str("to", to).
			Msg("signal send failed")
	}
	return ResultDelivered
}
