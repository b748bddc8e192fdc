package signal

import (
	"github.com/dkeye/Meet/internal/domain"
)

func (ctl *SignalWSController) handleWhoAmI(
	sid domain.EndpointID,
	conn *WsSignalConn,
) {
	resp := struct {
		Type  string            `json:"type"`
		ID    domain.EndpointID `json:"id"`
		Name  string            `json:"name,omitempty"`
		Room  domain.RoomPath   `json:"room,omitempty"`
		State string            `json:"state"`
		Muted bool              `json:"muted"`
	}{
		Type: typeWhoami,
		ID:   sid,
	}
	if st, ok := ctl.Orch.Whoami(sid); ok {
		resp.Name = st.DisplayName
		resp.Room = st.Room
		resp.State = st.Presence.String()
		resp.Muted = st.Muted
	}
	ctl.sendJSON(conn, resp)
}
