package signal

import (
	"sync"
	"time"

	"github.com/dkeye/Meet/internal/domain"
)

type window struct {
	limit    int
	interval time.Duration
}

// RateLimiter keeps a sliding window per endpoint and event kind, so a burst
// of reactions does not eat into the chat budget.
type RateLimiter struct {
	mu      sync.Mutex
	history map[domain.EndpointID]map[string][]time.Time
	def     window
	kinds   map[string]window
	now     func() time.Time
}

func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		history: make(map[domain.EndpointID]map[string][]time.Time),
		def:     window{limit: limit, interval: interval},
		kinds:   make(map[string]window),
		now:     time.Now,
	}
}

// SetLimit overrides the window for one event kind.
func (rl *RateLimiter) SetLimit(kind string, limit int, interval time.Duration) *RateLimiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.kinds[kind] = window{limit: limit, interval: interval}
	return rl
}

func (rl *RateLimiter) Allow(sid domain.EndpointID, kind string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.kinds[kind]
	if !ok {
		w = rl.def
	}
	now := rl.now()
	windowStart := now.Add(-w.interval)

	perKind := rl.history[sid]
	if perKind == nil {
		perKind = make(map[string][]time.Time)
		rl.history[sid] = perKind
	}
	attempts := perKind[kind]
	fresh := attempts[:0]
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= w.limit {
		perKind[kind] = fresh
		return false
	}
	perKind[kind] = append(fresh, now)
	return true
}

// Forget drops every window of a disconnected endpoint.
func (rl *RateLimiter) Forget(sid domain.EndpointID) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.history, sid)
}
