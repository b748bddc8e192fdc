package orch

import (
	"errors"
	"strings"
	"time"

	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/rs/zerolog/log"
)

const MaxChatBodyLen = 4000

var ErrChatTooLong = errors.New("chat message too long")

// Chat stores a message in the sender's room history and echoes it to every
// participant, sender included. Blank bodies are dropped without being
// stored, so they never reach history.
func (o *Orchestrator) Chat(sid domain.EndpointID, name, body string) error {
	if strings.TrimSpace(body) == "" {
		return nil
	}
	if len(body) > MaxChatBodyLen {
		return ErrChatTooLong
	}
	path, ok := o.roomOf(sid)
	if !ok {
		return nil
	}
	msg := domain.ChatMessage{
		Sender:   o.senderName(sid, name),
		Body:     body,
		SenderID: sid,
		SentAt:   time.Now(),
	}
	o.Rooms.Update(path, false, func(room *core.Room) {
		if !room.HasParticipant(sid) {
			return
		}
		room.AppendChat(msg)
		o.broadcast(room.Participants(), "", core.NewChatEvent(msg, false))
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("room", string(path)).Int("history", room.HistoryLen()).Msg("chat")
	})
	return nil
}

func (o *Orchestrator) RaiseHand(sid domain.EndpointID, name string) {
	o.toOthers(sid, core.RaiseHandEvent{
		Type: core.TypeRaiseHand,
		From: sid,
		Name: o.senderName(sid, name),
	})
}

func (o *Orchestrator) Reaction(sid domain.EndpointID, emoji, name string) {
	if emoji == "" {
		return
	}
	o.toOthers(sid, core.ReactionEvent{
		Type:  core.TypeReaction,
		From:  sid,
		Emoji: emoji,
		Name:  o.senderName(sid, name),
	})
}

func (o *Orchestrator) Caption(sid domain.EndpointID, text, name string) {
	if text == "" {
		return
	}
	o.toOthers(sid, core.CaptionEvent{
		Type: core.TypeCaption,
		Text: text,
		Name: o.senderName(sid, name),
	})
}

// ReportMuteStatus records the endpoint's own mute flag and tells the rest of its room.
func (o *Orchestrator) ReportMuteStatus(sid domain.EndpointID, muted bool) {
	o.Registry.SetMuted(sid, muted)
	o.toOthers(sid, core.MuteStatusEvent{
		Type:  core.TypeMuteStatusChanged,
		From:  sid,
		Muted: muted,
	})
}

// toOthers delivers v to every participant of sid's room except sid.
func (o *Orchestrator) toOthers(sid domain.EndpointID, v any) {
	path, ok := o.roomOf(sid)
	if !ok {
		return
	}
	o.Rooms.View(path, func(room *core.Room) {
		if !room.HasParticipant(sid) {
			return
		}
		o.broadcast(room.Participants(), sid, v)
	})
}

func (o *Orchestrator) senderName(sid domain.EndpointID, name string) string {
	if name = domain.NormalizeDisplayName(name); name != "" {
		return name
	}
	return o.rosterName(sid)
}
