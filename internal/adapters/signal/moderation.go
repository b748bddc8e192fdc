package signal

import (
	"github.com/dkeye/Meet/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleKick(sid domain.EndpointID, conn *WsSignalConn, data []byte) {
	var p targetPayload
	if !ctl.decode(sid, conn, data, &p) {
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("target", string(p.Target)).Msg("kick")
	ctl.Orch.Kick(sid, p.Target)
}

func (ctl *SignalWSController) handleMute(sid domain.EndpointID, conn *WsSignalConn, data []byte) {
	var p targetPayload
	if !ctl.decode(sid, conn, data, &p) {
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("target", string(p.Target)).Msg("mute")
	ctl.Orch.Mute(sid, p.Target)
}

func (ctl *SignalWSController) handleMuteStatus(sid domain.EndpointID, conn *WsSignalConn, data []byte) {
	var p muteStatusPayload
	if !ctl.decode(sid, conn, data, &p) {
		return
	}
	ctl.Orch.ReportMuteStatus(sid, p.Muted)
}
