package signal

import (
	"strings"

	"github.com/dkeye/Meet/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleJoin(
	sid domain.EndpointID,
	conn *WsSignalConn,
	data []byte,
) {
	var p joinPayload
	if !ctl.decode(sid, conn, data, &p) {
		return
	}
	room := strings.TrimSpace(p.Room)
	if room == "" || len(room) > maxRoomPathLen {
		ctl.sendError(conn, errInvalidRoom)
		return
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", room).Str("name", p.Name).Msg("join")
	ctl.Orch.Join(sid, domain.RoomPath(room), p.Name)
}

func (ctl *SignalWSController) handleAdmit(
	sid domain.EndpointID,
	conn *WsSignalConn,
	data []byte,
) {
	var p targetPayload
	if !ctl.decode(sid, conn, data, &p) {
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("target", string(p.Target)).Msg("admit")
	ctl.Orch.Admit(sid, p.Target)
}

// handleLeave leaves the current room; the connection stays open.
func (ctl *SignalWSController) handleLeave(sid domain.EndpointID) {
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("leave")
	ctl.Orch.Leave(sid)
}
