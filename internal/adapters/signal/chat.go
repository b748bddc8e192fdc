package signal

import (
	"errors"

	"github.com/dkeye/Meet/internal/app/orch"
	"github.com/dkeye/Meet/internal/domain"
)

func (ctl *SignalWSController) handleChat(sid domain.EndpointID, conn *WsSignalConn, data []byte) {
	var p chatPayload
	if !ctl.decode(sid, conn, data, &p) || !ctl.allow(sid, "chat", conn) {
		return
	}
	if err := ctl.Orch.Chat(sid, p.Name, p.Body); errors.Is(err, orch.ErrChatTooLong) {
		ctl.sendError(conn, errTooLong)
	}
}

func (ctl *SignalWSController) handleRaiseHand(sid domain.EndpointID, conn *WsSignalConn, data []byte) {
	var p namePayload
	if !ctl.decode(sid, conn, data, &p) || !ctl.allow(sid, "raise_hand", conn) {
		return
	}
	ctl.Orch.RaiseHand(sid, p.Name)
}

func (ctl *SignalWSController) handleReaction(sid domain.EndpointID, conn *WsSignalConn, data []byte) {
	var p reactionPayload
	if !ctl.decode(sid, conn, data, &p) || !ctl.allow(sid, "reaction", conn) {
		return
	}
	ctl.Orch.Reaction(sid, p.Emoji, p.Name)
}

func (ctl *SignalWSController) handleCaption(sid domain.EndpointID, conn *WsSignalConn, data []byte) {
	var p captionPayload
	if !ctl.decode(sid, conn, data, &p) || !ctl.allow(sid, "caption", conn) {
		return
	}
	ctl.Orch.Caption(sid, p.Text, p.Name)
}
