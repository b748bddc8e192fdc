package orch

import (
	"encoding/json"
	"errors"

	"github.com/dkeye/Meet/internal/app"
	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// Orchestrator runs every room-level operation. Room state is only touched
// inside RoomManager.Update, so events for one room never interleave, and
// outbound events are queued while the room lock is held to keep their order.
type Orchestrator struct {
	Registry   *app.Registry
	Rooms      *app.RoomManager
	Policy     app.Policy
	ICEServers []webrtc.ICEServer
}

func New(reg *app.Registry, rooms *app.RoomManager, policy app.Policy, ice []webrtc.ICEServer) *Orchestrator {
	return &Orchestrator{
		Registry:   reg,
		Rooms:      rooms,
		Policy:     policy,
		ICEServers: ice,
	}
}

// Send delivers one event to one endpoint. Unknown endpoints are skipped.
func (o *Orchestrator) Send(to domain.EndpointID, v any) bool {
	frame, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("to", string(to)).Msg("marshal event")
		return false
	}
	return o.deliver(to, frame)
}

// broadcast sends the same event to every id except skip.
func (o *Orchestrator) broadcast(ids []domain.EndpointID, skip domain.EndpointID, v any) {
	frame, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("marshal event")
		return
	}
	for _, id := range ids {
		if id == skip {
			continue
		}
		o.deliver(id, frame)
	}
}

func (o *Orchestrator) deliver(to domain.EndpointID, frame core.Frame) bool {
	sig, ok := o.Registry.Signal(to)
	if !ok {
		return false
	}
	err := sig.TrySend(frame)
	switch {
	case err == nil:
		return true
	case errors.Is(err, core.ErrBackpressure):
		o.onBackPressure(to)
	case errors.Is(err, core.ErrConnectionClosed):
		log.Debug().Str("module", "orch").Str("to", string(to)).Msg("send on closed connection")
	default:
		log.Error().Err(err).Str("module", "orch").Str("to", string(to)).Msg("send failed")
	}
	return false
}

func (o *Orchestrator) onBackPressure(sid domain.EndpointID) {
	if o.Policy == nil {
		return
	}
	switch o.Policy.OnBackPressure(sid) {
	case app.Disconnect:
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Msg("send queue full, disconnecting")
		// Cancel only stops the connection context; the adapter runs Disconnect
		// once its pumps exit, outside of any room lock.
		o.Registry.Cancel(sid)
	case app.DropEvent:
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Msg("send queue full, event dropped")
	case app.NoAction:
	}
}

// rosterName is the name shown in rosters.
func (o *Orchestrator) rosterName(id domain.EndpointID) string {
	return o.Registry.NameOr(id, domain.DefaultDisplayName)
}

// roomOf returns the room an endpoint has joined. Waiting endpoints do not count.
func (o *Orchestrator) roomOf(sid domain.EndpointID) (domain.RoomPath, bool) {
	path, presence, ok := o.Registry.RoomOf(sid)
	if !ok || presence != app.PresenceJoined {
		return "", false
	}
	return path, true
}
