package app

import (
	"sort"
	"sync"

	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/rs/zerolog/log"
)

// roomSlot serializes every mutation of one room.
// A closed slot has been removed from the directory and must not be used.
type roomSlot struct {
	mu     sync.Mutex
	room   *core.Room
	closed bool
}

// RoomManager is the room directory. The map lock only guards lookup,
// creation and deletion; work on a room happens under that room's own lock.
type RoomManager struct {
	mu              sync.RWMutex
	rooms           map[domain.RoomPath]*roomSlot
	historyCapacity int
}

func NewRoomManager(historyCapacity int) *RoomManager {
	return &RoomManager{
		rooms:           make(map[domain.RoomPath]*roomSlot),
		historyCapacity: historyCapacity,
	}
}

func (m *RoomManager) slot(path domain.RoomPath, create bool) *roomSlot {
	m.mu.RLock()
	s, ok := m.rooms[path]
	m.mu.RUnlock()
	if ok || !create {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok = m.rooms[path]; ok {
		return s
	}
	s = &roomSlot{room: core.NewRoom(path, m.historyCapacity)}
	m.rooms[path] = s
	log.Info().Str("module", "app.rooms").Str("room", string(path)).Msg("room created")
	return s
}

// Update runs fn with exclusive access to the room at path, creating it first
// when create is set. A room left without participants is deleted before the
// lock is released. It reports whether fn ran.
func (m *RoomManager) Update(path domain.RoomPath, create bool, fn func(*core.Room)) bool {
	for {
		s := m.slot(path, create)
		if s == nil {
			return false
		}

		s.mu.Lock()
		if s.closed {
			// Lost a race with deletion; look the path up again.
			s.mu.Unlock()
			continue
		}
		fn(s.room)
		if s.room.Empty() {
			s.closed = true
			m.mu.Lock()
			if m.rooms[path] == s {
				delete(m.rooms, path)
			}
			m.mu.Unlock()
			log.Info().Str("module", "app.rooms").Str("room", string(path)).Msg("room deleted")
		}
		s.mu.Unlock()
		return true
	}
}

// View runs fn under the room lock without creating or deleting anything.
func (m *RoomManager) View(path domain.RoomPath, fn func(*core.Room)) bool {
	s := m.slot(path, false)
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	fn(s.room)
	return true
}

func (m *RoomManager) Exists(path domain.RoomPath) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.rooms[path]
	return ok
}

func (m *RoomManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// List returns a summary of every live room, ordered by path.
func (m *RoomManager) List() []core.RoomInfo {
	m.mu.RLock()
	slots := make([]*roomSlot, 0, len(m.rooms))
	for _, s := range m.rooms {
		slots = append(slots, s)
	}
	m.mu.RUnlock()

	out := make([]core.RoomInfo, 0, len(slots))
	for _, s := range slots {
		s.mu.Lock()
		if !s.closed {
			out = append(out, s.room.Info())
		}
		s.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
