package core

import (
	"encoding/json"

	"github.com/dkeye/Meet/internal/domain"
	"github.com/pion/webrtc/v4"
)

// Outbound event types.
const (
	TypeConnected          = "connected"
	TypeJoined             = "joined"
	TypeWaiting            = "waiting"
	TypeKicked             = "kicked"
	TypeHostGranted        = "host_granted"
	TypeWaitingListUpdated = "waiting_list_updated"
	TypeRosterUpdate       = "roster_update"
	TypeParticipantLeft    = "participant_left"
	TypeSignal             = "signal"
	TypeChat               = "chat"
	TypeRaiseHand          = "raise_hand"
	TypeReaction           = "reaction"
	TypeMuteStatusChanged  = "mute_status_changed"
	TypeCaption            = "caption"
	TypeMutedByHost        = "muted_by_host"
	TypeSystemNotice       = "system_notice"
)

type ConnectedEvent struct {
	Type string            `json:"type"`
	ID   domain.EndpointID `json:"id"`
}

type JoinedEvent struct {
	Type       string             `json:"type"`
	Room       domain.RoomPath    `json:"room"`
	ID         domain.EndpointID  `json:"id"`
	Host       bool               `json:"host"`
	ICEServers []webrtc.ICEServer `json:"ice_servers,omitempty"`
}

// RoomEvent covers the events that only name the room: waiting, kicked, host_granted.
type RoomEvent struct {
	Type string          `json:"type"`
	Room domain.RoomPath `json:"room,omitempty"`
}

type WaitingListEvent struct {
	Type    string                `json:"type"`
	Waiting []domain.WaitingEntry `json:"waiting"`
	Added   *domain.WaitingEntry  `json:"added,omitempty"`
}

type RosterEvent struct {
	Type         string              `json:"type"`
	Joiner       domain.EndpointID   `json:"joiner"`
	Participants []domain.EndpointID `json:"participants"`
	Roster       []domain.Member     `json:"roster"`
}

type ParticipantLeftEvent struct {
	Type string            `json:"type"`
	ID   domain.EndpointID `json:"id"`
}

// SignalEvent carries a negotiation payload untouched.
type SignalEvent struct {
	Type    string            `json:"type"`
	From    domain.EndpointID `json:"from"`
	Payload json.RawMessage   `json:"payload"`
}

type ChatEvent struct {
	Type     string            `json:"type"`
	Body     string            `json:"body"`
	Sender   string            `json:"sender"`
	SenderID domain.EndpointID `json:"sender_id"`
	History  bool              `json:"history,omitempty"`
}

type RaiseHandEvent struct {
	Type string            `json:"type"`
	From domain.EndpointID `json:"from"`
	Name string            `json:"name"`
}

type ReactionEvent struct {
	Type  string            `json:"type"`
	From  domain.EndpointID `json:"from"`
	Emoji string            `json:"emoji"`
	Name  string            `json:"name,omitempty"`
}

type MuteStatusEvent struct {
	Type  string            `json:"type"`
	From  domain.EndpointID `json:"from"`
	Muted bool              `json:"muted"`
}

type CaptionEvent struct {
	Type string `json:"type"`
	Text string `json:"text"`
	Name string `json:"name"`
}

type NoticeEvent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

func NewChatEvent(msg domain.ChatMessage, replay bool) ChatEvent {
	return ChatEvent{
		Type:     TypeChat,
		Body:     msg.Body,
		Sender:   msg.Sender,
		SenderID: msg.SenderID,
		History:  replay,
	}
}
