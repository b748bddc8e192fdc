package orch

import (
	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/rs/zerolog/log"
)

// Kick bans the target's current display name in the requester's room and
// tells the target it was kicked. The requester is not required to be host;
// such calls are only logged. The target keeps its connection and its seat
// until it leaves on its own.
func (o *Orchestrator) Kick(requester, target domain.EndpointID) {
	if !o.Registry.Known(requester) {
		return
	}
	name := o.Registry.DisplayName(target)
	path, ok := o.roomOf(requester)
	if !ok {
		o.Send(target, core.RoomEvent{Type: core.TypeKicked})
		return
	}

	delivered := o.Rooms.Update(path, false, func(room *core.Room) {
		if !room.IsHost(requester) {
			log.Warn().Str("module", "orch").Str("sid", string(requester)).Str("target", string(target)).Str("room", string(path)).Msg("kick from non-host")
		}
		room.Ban(name)
		o.Send(target, core.RoomEvent{Type: core.TypeKicked, Room: path})
	})
	if !delivered {
		o.Send(target, core.RoomEvent{Type: core.TypeKicked})
	}
	log.Info().Str("module", "orch").Str("sid", string(requester)).Str("target", string(target)).Str("room", string(path)).Str("name", name).Msg("kicked")
}

// Mute asks the target to mute itself. No host check is made.
func (o *Orchestrator) Mute(requester, target domain.EndpointID) {
	if path, ok := o.roomOf(requester); ok {
		o.Rooms.View(path, func(room *core.Room) {
			if !room.IsHost(requester) {
				log.Warn().Str("module", "orch").Str("sid", string(requester)).Str("target", string(target)).Str("room", string(path)).Msg("mute from non-host")
			}
		})
	}
	o.Send(target, core.NoticeEvent{Type: core.TypeMutedByHost})
}
