package orch

import (
	"fmt"

	"github.com/dkeye/Meet/internal/app"
	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/rs/zerolog/log"
)

// Join handles a join request for path. A banned name is answered with kicked,
// an unhosted room is entered directly and a hosted one parks the caller in
// the waiting queue.
func (o *Orchestrator) Join(sid domain.EndpointID, path domain.RoomPath, name string) {
	if path == "" || !o.Registry.Known(sid) {
		return
	}
	if name = domain.NormalizeDisplayName(name); name == "" {
		name = o.Registry.DisplayName(sid)
	}
	// A refused join must not touch the room the caller is in now.
	if o.refuseBanned(sid, path, name) {
		return
	}
	if cur, _, ok := o.Registry.RoomOf(sid); ok {
		if cur == path {
			log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("room", string(path)).Msg("already in room")
			return
		}
		o.Leave(sid)
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("from_room", string(cur)).Msg("left room before join")
	}
	if name != "" {
		o.Registry.SetDisplayName(sid, name)
	}

	o.Rooms.Update(path, true, func(room *core.Room) {
		if !o.Registry.Known(sid) {
			return
		}
		if o.bannedLocked(room, sid, name) {
			return
		}
		host, hosted := room.Host()
		if !hosted {
			o.completeJoinLocked(room, sid)
			return
		}

		entry := domain.WaitingEntry{EndpointID: sid, DisplayName: o.rosterName(sid)}
		if !room.Enqueue(entry) {
			return
		}
		o.Registry.MarkWaiting(sid, path)
		o.Send(host, core.WaitingListEvent{
			Type:    core.TypeWaitingListUpdated,
			Waiting: room.Waiting(),
			Added:   &entry,
		})
		o.Send(sid, core.RoomEvent{Type: core.TypeWaiting, Room: path})
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(path)).Msg("waiting for admission")
	})
}

// refuseBanned answers kicked when name is banned in an existing room at path.
func (o *Orchestrator) refuseBanned(sid domain.EndpointID, path domain.RoomPath, name string) bool {
	refused := false
	o.Rooms.View(path, func(room *core.Room) {
		refused = o.bannedLocked(room, sid, name)
	})
	return refused
}

func (o *Orchestrator) bannedLocked(room *core.Room, sid domain.EndpointID, name string) bool {
	if !room.IsBanned(name) {
		return false
	}
	o.Send(sid, core.RoomEvent{Type: core.TypeKicked, Room: room.Path()})
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(room.Path())).Str("name", name).Msg("banned name refused")
	return true
}

// completeJoinLocked makes sid a participant. Must run inside Rooms.Update.
func (o *Orchestrator) completeJoinLocked(room *core.Room, sid domain.EndpointID) {
	added, becameHost := room.AddParticipant(sid)
	if !added {
		return
	}
	path := room.Path()
	o.Registry.MarkJoined(sid, path)

	o.Send(sid, core.JoinedEvent{
		Type:       core.TypeJoined,
		Room:       path,
		ID:         sid,
		Host:       becameHost,
		ICEServers: o.ICEServers,
	})
	if becameHost {
		o.Send(sid, core.RoomEvent{Type: core.TypeHostGranted, Room: path})
	}

	participants := room.Participants()
	o.broadcast(participants, "", core.RosterEvent{
		Type:         core.TypeRosterUpdate,
		Joiner:       sid,
		Participants: participants,
		Roster:       room.Roster(o.rosterName),
	})

	for _, msg := range room.History() {
		o.Send(sid, core.NewChatEvent(msg, true))
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(path)).Bool("host", becameHost).Int("participants", len(participants)).Msg("joined room")
}

// Admit lets a waiting endpoint in. Calls from anyone but the host of the
// target's room, and targets that are no longer waiting, are ignored.
func (o *Orchestrator) Admit(hostID, target domain.EndpointID) {
	path, ok := o.roomOf(hostID)
	if !ok {
		return
	}
	o.Rooms.Update(path, false, func(room *core.Room) {
		if !room.IsHost(hostID) {
			log.Debug().Str("module", "orch").Str("sid", string(hostID)).Str("target", string(target)).Msg("admit from non-host ignored")
			return
		}
		if _, ok := room.Dequeue(target); !ok {
			return
		}
		if o.Registry.Known(target) {
			o.completeJoinLocked(room, target)
		}
		o.Send(hostID, core.WaitingListEvent{
			Type:    core.TypeWaitingListUpdated,
			Waiting: room.Waiting(),
		})
	})
}

// Leave removes sid from its room, participant or waiting, without closing the connection.
func (o *Orchestrator) Leave(sid domain.EndpointID) {
	path, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		return
	}
	o.Rooms.Update(path, false, func(room *core.Room) {
		o.leaveLocked(room, sid, o.Registry.DisplayName(sid))
	})
	o.Registry.ClearRoom(sid, path)
}

// Disconnect purges an endpoint: registry first, then its room, in one step.
// Safe to call more than once.
func (o *Orchestrator) Disconnect(sid domain.EndpointID) {
	state, ok := o.Registry.Unregister(sid)
	if !ok || state.Room == "" {
		return
	}
	o.Rooms.Update(state.Room, false, func(room *core.Room) {
		o.leaveLocked(room, sid, state.DisplayName)
	})
}

func (o *Orchestrator) leaveLocked(room *core.Room, sid domain.EndpointID, name string) {
	path := room.Path()

	if room.IsWaiting(sid) {
		room.Dequeue(sid)
		if host, ok := room.Host(); ok {
			o.Send(host, core.WaitingListEvent{
				Type:    core.TypeWaitingListUpdated,
				Waiting: room.Waiting(),
			})
		}
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(path)).Str("name", name).Msg("left waiting queue")
		return
	}

	removed, wasHost := room.RemoveParticipant(sid)
	if !removed {
		return
	}
	remaining := room.Participants()
	o.broadcast(remaining, "", core.ParticipantLeftEvent{Type: core.TypeParticipantLeft, ID: sid})
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(path)).Str("name", name).Int("participants", len(remaining)).Msg("left room")

	if room.Empty() {
		for _, w := range room.DrainWaiting() {
			o.Registry.ClearRoom(w.EndpointID, path)
			o.Send(w.EndpointID, core.NoticeEvent{
				Type: core.TypeSystemNotice,
				Text: "The meeting has ended.",
			})
		}
		return
	}
	if !wasHost {
		return
	}

	newHost, _ := room.Host()
	o.Send(newHost, core.RoomEvent{Type: core.TypeHostGranted, Room: path})
	hostName := o.Registry.NameOr(newHost, domain.UnknownDisplayName)
	o.broadcast(remaining, "", core.NoticeEvent{
		Type: core.TypeSystemNotice,
		Text: fmt.Sprintf("%s is now the host.", hostName),
	})
	if waiting := room.Waiting(); len(waiting) > 0 {
		o.Send(newHost, core.WaitingListEvent{Type: core.TypeWaitingListUpdated, Waiting: waiting})
	}
	log.Info().Str("module", "orch").Str("room", string(path)).Str("host", string(newHost)).Msg("host handed off")
}

// Snapshot returns the detailed view of one room.
func (o *Orchestrator) Snapshot(path domain.RoomPath) (core.RoomSnapshot, bool) {
	var snap core.RoomSnapshot
	ok := o.Rooms.View(path, func(room *core.Room) {
		snap = room.Snapshot(o.rosterName)
	})
	return snap, ok
}

// Whoami reports what the registry knows about sid.
func (o *Orchestrator) Whoami(sid domain.EndpointID) (app.EndpointState, bool) {
	return o.Registry.Get(sid)
}
