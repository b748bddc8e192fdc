package core

import (
	"slices"

	"github.com/dkeye/Meet/internal/domain"
)

// Room is the state of one meeting: ordered participants, the host slot,
// the waiting queue, the ban list and the chat history.
// It is not safe for concurrent use; the room directory serializes access per room.
type Room struct {
	path         domain.RoomPath
	participants []domain.EndpointID
	host         domain.EndpointID
	waiting      []domain.WaitingEntry
	banned       map[string]struct{}
	history      *History
}

func NewRoom(path domain.RoomPath, historyCapacity int) *Room {
	return &Room{
		path:    path,
		banned:  make(map[string]struct{}),
		history: NewHistory(historyCapacity),
	}
}

func (r *Room) Path() domain.RoomPath { return r.path }

// Empty reports whether the room has no participants and must be discarded.
func (r *Room) Empty() bool { return len(r.participants) == 0 }

func (r *Room) Host() (domain.EndpointID, bool) {
	return r.host, r.host != ""
}

func (r *Room) IsHost(id domain.EndpointID) bool {
	return id != "" && r.host == id
}

// Participants returns ids in join order.
func (r *Room) Participants() []domain.EndpointID {
	out := make([]domain.EndpointID, len(r.participants))
	copy(out, r.participants)
	return out
}

func (r *Room) ParticipantCount() int { return len(r.participants) }

func (r *Room) HasParticipant(id domain.EndpointID) bool {
	return slices.Contains(r.participants, id)
}

// AddParticipant appends id in join order. An empty host slot goes to the new
// participant (first-come-first-host). Duplicate ids are ignored.
func (r *Room) AddParticipant(id domain.EndpointID) (added, becameHost bool) {
	if id == "" || r.HasParticipant(id) {
		return false, false
	}
	r.participants = append(r.participants, id)
	if r.host == "" {
		r.host = id
		becameHost = true
	}
	return true, becameHost
}

// RemoveParticipant drops id. If it held the host slot, the earliest joined
// remaining participant takes over; with nobody left the slot is cleared.
func (r *Room) RemoveParticipant(id domain.EndpointID) (removed, wasHost bool) {
	i := slices.Index(r.participants, id)
	if i < 0 {
		return false, false
	}
	r.participants = slices.Delete(r.participants, i, i+1)
	if r.host != id {
		return true, false
	}
	r.host = ""
	if len(r.participants) > 0 {
		r.host = r.participants[0]
	}
	return true, true
}

// Enqueue parks an endpoint in the waiting queue. Duplicates and current
// participants are ignored.
func (r *Room) Enqueue(entry domain.WaitingEntry) bool {
	if entry.EndpointID == "" || r.IsWaiting(entry.EndpointID) || r.HasParticipant(entry.EndpointID) {
		return false
	}
	r.waiting = append(r.waiting, entry)
	return true
}

// Dequeue removes id from the waiting queue. Only the first call for an id reports ok.
func (r *Room) Dequeue(id domain.EndpointID) (domain.WaitingEntry, bool) {
	i := slices.IndexFunc(r.waiting, func(e domain.WaitingEntry) bool { return e.EndpointID == id })
	if i < 0 {
		return domain.WaitingEntry{}, false
	}
	entry := r.waiting[i]
	r.waiting = slices.Delete(r.waiting, i, i+1)
	return entry, true
}

func (r *Room) IsWaiting(id domain.EndpointID) bool {
	return slices.ContainsFunc(r.waiting, func(e domain.WaitingEntry) bool { return e.EndpointID == id })
}

// Waiting returns the queue in arrival order.
func (r *Room) Waiting() []domain.WaitingEntry {
	out := make([]domain.WaitingEntry, len(r.waiting))
	copy(out, r.waiting)
	return out
}

// DrainWaiting empties the queue and returns what was in it.
func (r *Room) DrainWaiting() []domain.WaitingEntry {
	out := r.waiting
	r.waiting = nil
	return out
}

// Ban records a display name. Bans live as long as the room.
func (r *Room) Ban(displayName string) {
	if displayName == "" {
		return
	}
	r.banned[displayName] = struct{}{}
}

func (r *Room) IsBanned(displayName string) bool {
	if displayName == "" {
		return false
	}
	_, ok := r.banned[displayName]
	return ok
}

func (r *Room) AppendChat(msg domain.ChatMessage) { r.history.Append(msg) }

func (r *Room) History() []domain.ChatMessage { return r.history.Messages() }

func (r *Room) HistoryLen() int { return r.history.Len() }

// Roster builds the membership view in join order. nameOf resolves display names.
func (r *Room) Roster(nameOf func(domain.EndpointID) string) []domain.Member {
	out := make([]domain.Member, 0, len(r.participants))
	for _, id := range r.participants {
		out = append(out, domain.Member{
			ID:          id,
			DisplayName: nameOf(id),
			IsHost:      id == r.host,
		})
	}
	return out
}

// RoomInfo is a read-only summary for listings.
type RoomInfo struct {
	Path         domain.RoomPath   `json:"path"`
	Host         domain.EndpointID `json:"host,omitempty"`
	Participants int               `json:"participants"`
	Waiting      int               `json:"waiting"`
}

func (r *Room) Info() RoomInfo {
	return RoomInfo{
		Path:         r.path,
		Host:         r.host,
		Participants: len(r.participants),
		Waiting:      len(r.waiting),
	}
}

// RoomSnapshot is the detailed read-only view of one room.
type RoomSnapshot struct {
	RoomInfo
	Roster  []domain.Member       `json:"roster"`
	Queue   []domain.WaitingEntry `json:"queue"`
	History int                   `json:"history"`
}

func (r *Room) Snapshot(nameOf func(domain.EndpointID) string) RoomSnapshot {
	return RoomSnapshot{
		RoomInfo: r.Info(),
		Roster:   r.Roster(nameOf),
		Queue:    r.Waiting(),
		History:  r.history.Len(),
	}
}
