// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MaxDisplayNameLen = 64

	// Fallbacks used when an endpoint never sent a display name.
	DefaultDisplayName = "Participant"
	UnknownDisplayName = "Someone"
)

var ErrDisplayNameEmpty = errors.New("display name empty")

type EndpointID string

// Endpoint is one live connection. Rooms only ever hold its ID.
type Endpoint struct {
	ID          EndpointID `json:"id"`
	DisplayName string     `json:"display_name"`
	ConnectedAt time.Time  `json:"connected_at"`
	JoinedAt    time.Time  `json:"joined_at,omitempty"`
	Muted       bool       `json:"muted"`
}

// NewEndpointID assigns the connection-scoped identifier.
func NewEndpointID() EndpointID {
	return EndpointID(uuid.NewString())
}

func NewEndpoint(id EndpointID) *Endpoint {
	return &Endpoint{ID: id, ConnectedAt: time.Now()}
}

// NormalizeDisplayName trims surrounding space and caps the name at MaxDisplayNameLen runes.
// The result is also the ban key, so join and kick must both go through it.
func NormalizeDisplayName(name string) string {
	name = strings.TrimSpace(name)
	if !utf8.ValidString(name) {
		name = strings.ToValidUTF8(name, "")
	}
	if utf8.RuneCountInString(name) <= MaxDisplayNameLen {
		return name
	}
	return string([]rune(name)[:MaxDisplayNameLen])
}

func (e *Endpoint) SetDisplayName(name string) error {
	name = NormalizeDisplayName(name)
	if name == "" {
		return ErrDisplayNameEmpty
	}
	e.DisplayName = name
	return nil
}

// NameOr returns the display name or fallback when none was set.
func (e *Endpoint) NameOr(fallback string) string {
	if e == nil || e.DisplayName == "" {
		return fallback
	}
	return e.DisplayName
}
