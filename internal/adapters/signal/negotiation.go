package signal

import (
	"github.com/dkeye/Meet/internal/domain"
	"github.com/rs/zerolog/log"
)

// handleRelay forwards offers, answers and candidates without reading them.
func (ctl *SignalWSController) handleRelay(
	sid domain.EndpointID,
	conn *WsSignalConn,
	data []byte,
) {
	var p relayPayload
	if !ctl.decode(sid, conn, data, &p) {
		return
	}
	if p.To == "" || len(p.Payload) == 0 {
		ctl.sendError(conn, errBadPayload)
		return
	}
	log.Debug().Str("module", "signal").Str("sid", string(sid)).Str("to", string(p.To)).Int("bytes", len(p.Payload)).Msg("relay")
	ctl.Orch.Relay(sid, p.To, p.Payload)
}
