package app

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/rs/zerolog/log"
)

// Presence is where an endpoint stands relative to its current room.
type Presence int

const (
	PresenceNone Presence = iota
	PresenceWaiting
	PresenceJoined
)

func (p Presence) String() string {
	switch p {
	case PresenceWaiting:
		return "waiting"
	case PresenceJoined:
		return "joined"
	default:
		return "none"
	}
}

type sessionEntry struct {
	Endpoint *domain.Endpoint
	Client   string
	RoomPath domain.RoomPath
	Presence Presence
	Signal   core.SignalConnection
	Cancel   context.CancelFunc
}

// EndpointState is a copy of a registry entry, safe to read without locks.
type EndpointState struct {
	domain.Endpoint
	Client   string          `json:"client,omitempty"`
	Room     domain.RoomPath `json:"room,omitempty"`
	Presence Presence        `json:"-"`
}

// Registry owns every live endpoint and the endpoint -> room index.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.EndpointID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[domain.EndpointID]*sessionEntry),
	}
}

// Register binds a fresh endpoint to its transport. Re-registering an id is refused.
func (r *Registry) Register(
	sid domain.EndpointID,
	client string,
	sig core.SignalConnection,
	cancel context.CancelFunc,
) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[sid]; ok {
		return false
	}
	r.sessions[sid] = &sessionEntry{
		Endpoint: domain.NewEndpoint(sid),
		Client:   client,
		Signal:   sig,
		Cancel:   cancel,
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("client", client).Msg("registered endpoint")
	return true
}

// Unregister removes the endpoint and returns what it looked like.
// Calling it again for the same id is a no-op.
func (r *Registry) Unregister(sid domain.EndpointID) (EndpointState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return EndpointState{}, false
	}
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(e.RoomPath)).Msg("unregistered endpoint")
	return e.state(), true
}

func (e *sessionEntry) state() EndpointState {
	return EndpointState{
		Endpoint: *e.Endpoint,
		Client:   e.Client,
		Room:     e.RoomPath,
		Presence: e.Presence,
	}
}

func (r *Registry) Known(sid domain.EndpointID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[sid]
	return ok
}

func (r *Registry) Get(sid domain.EndpointID) (EndpointState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok {
		return EndpointState{}, false
	}
	return e.state(), true
}

// DisplayName returns "" for unknown endpoints or endpoints that never named themselves.
func (r *Registry) DisplayName(sid domain.EndpointID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Endpoint.DisplayName
	}
	return ""
}

// NameOr is DisplayName with a fallback for unnamed or unknown endpoints.
func (r *Registry) NameOr(sid domain.EndpointID, fallback string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok {
		return fallback
	}
	return e.Endpoint.NameOr(fallback)
}

func (r *Registry) SetDisplayName(sid domain.EndpointID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return
	}
	if err := e.Endpoint.SetDisplayName(name); err != nil {
		log.Debug().Err(err).Str("module", "app.registry").Str("sid", string(sid)).Msg("display name not updated")
		return
	}
	log.Debug().Str("module", "app.registry").Str("sid", string(sid)).Str("name", e.Endpoint.DisplayName).Msg("updated display name")
}

func (r *Registry) SetMuted(sid domain.EndpointID, muted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sid]; ok {
		e.Endpoint.Muted = muted
	}
}

// RoomOf answers from the index, without scanning rooms.
func (r *Registry) RoomOf(sid domain.EndpointID) (domain.RoomPath, Presence, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok || e.Presence == PresenceNone {
		return "", PresenceNone, false
	}
	return e.RoomPath, e.Presence, true
}

func (r *Registry) MarkWaiting(sid domain.EndpointID, path domain.RoomPath) {
	r.updateRoom(sid, path, PresenceWaiting)
}

func (r *Registry) MarkJoined(sid domain.EndpointID, path domain.RoomPath) {
	r.updateRoom(sid, path, PresenceJoined)
}

// ClearRoom drops the room association only if it still points at path.
func (r *Registry) ClearRoom(sid domain.EndpointID, path domain.RoomPath) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok || e.RoomPath != path {
		return
	}
	e.RoomPath = ""
	e.Presence = PresenceNone
	log.Debug().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(path)).Msg("removed room association")
}

func (r *Registry) updateRoom(sid domain.EndpointID, path domain.RoomPath, p Presence) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return
	}
	e.RoomPath = path
	e.Presence = p
	if p == PresenceJoined {
		e.Endpoint.JoinedAt = time.Now()
	}
	log.Debug().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(path)).Stringer("presence", p).Msg("updated room")
}

func (r *Registry) Signal(sid domain.EndpointID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok || e.Signal == nil {
		return nil, false
	}
	return e.Signal, true
}

// Cancel stops the endpoint's connection context; the adapter then disconnects it.
func (r *Registry) Cancel(sid domain.EndpointID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
