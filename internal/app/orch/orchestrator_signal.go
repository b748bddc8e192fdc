package orch

import (
	"encoding/json"

	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/rs/zerolog/log"
)

// Relay forwards a negotiation payload from one endpoint to another.
// Rooms are not consulted and an endpoint may address itself; an unknown
// recipient drops the payload.
func (o *Orchestrator) Relay(from, to domain.EndpointID, payload json.RawMessage) bool {
	if len(payload) == 0 || !o.Registry.Known(from) {
		return false
	}
	ok := o.Send(to, core.SignalEvent{
		Type:    core.TypeSignal,
		From:    from,
		Payload: payload,
	})
	if !ok {
		log.Debug().Str("module", "orch").Str("from", string(from)).Str("to", string(to)).Msg("signal dropped")
	}
	return ok
}
