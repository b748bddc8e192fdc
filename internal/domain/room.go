package domain

import "time"

// RoomPath is whatever the client used to name the meeting (often the page URL).
type RoomPath string

type ChatMessage struct {
	Sender   string     `json:"sender"`
	Body     string     `json:"body"`
	SenderID EndpointID `json:"sender_id"`
	SentAt   time.Time  `json:"sent_at"`
}

type WaitingEntry struct {
	EndpointID  EndpointID `json:"id"`
	DisplayName string     `json:"name"`
}
