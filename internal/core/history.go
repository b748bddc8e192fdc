package core

import "github.com/dkeye/Meet/internal/domain"

const DefaultHistoryCapacity = 500

// History is the per-room chat log, bounded to the newest capacity messages.
type History struct {
	capacity int
	messages []domain.ChatMessage
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{capacity: capacity}
}

func (h *History) Append(msg domain.ChatMessage) {
	h.messages = append(h.messages, msg)
	if len(h.messages) > h.capacity {
		h.messages = h.messages[len(h.messages)-h.capacity:]
	}
}

func (h *History) Len() int { return len(h.messages) }

// Messages returns a copy in append order.
func (h *History) Messages() []domain.ChatMessage {
	out := make([]domain.ChatMessage, len(h.messages))
	copy(out, h.messages)
	return out
}
