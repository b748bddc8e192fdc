package signal

import (
	"encoding/json"

	"github.com/dkeye/Meet/internal/domain"
)

const (
	typeError  = "error"
	typePong   = "pong"
	typeWhoami = "whoami"
)

// Error codes sent in error events.
const (
	errBadPayload  = "bad_payload"
	errUnknownType = "unknown_type"
	errRateLimited = "rate_limited"
	errTooLong     = "message_too_long"
	errInvalidRoom = "invalid_room"
)

const maxRoomPathLen = 128

type errorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type joinPayload struct {
	Room string `json:"room"`
	Name string `json:"name,omitempty"`
}

// targetPayload is shared by admit, kick and mute.
type targetPayload struct {
	Target domain.EndpointID `json:"target"`
}

type relayPayload struct {
	To      domain.EndpointID `json:"to"`
	Payload json.RawMessage   `json:"payload"`
}

type chatPayload struct {
	Body string `json:"body"`
	Name string `json:"name,omitempty"`
}

type namePayload struct {
	Name string `json:"name,omitempty"`
}

type reactionPayload struct {
	Emoji string `json:"emoji"`
	Name  string `json:"name,omitempty"`
}

type captionPayload struct {
	Text string `json:"text"`
	Name string `json:"name,omitempty"`
}

type muteStatusPayload struct {
	Muted bool `json:"muted"`
}
