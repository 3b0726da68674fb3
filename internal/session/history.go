package session

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"shopsearch/internal/domain"
)

// Turn is one query/response exchange recorded on the client.
type Turn struct {
	Query    string
	Kind     domain.ResultKind
	Products int
	At       time.Time
}

// History keeps the most recent turns per session token in memory. Entries
// expire after the configured TTL, mirroring the backend's own session expiry.
type History struct {
	mu    sync.Mutex
	cache *cache.Cache
	limit int
	now   func() time.Time
}

// NewHistory creates a history that keeps at most limit turns per session.
func NewHistory(ttl time.Duration, limit int) *History {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if limit <= 0 {
		limit = 10
	}
	return &History{
		cache: cache.New(ttl, ttl/6),
		limit: limit,
		now:   time.Now,
	}
}

// Record appends a turn under sessionID. Empty ids are ignored.
func (h *History) Record(sessionID string, t Turn) {
	if h == nil || sessionID == "" {
		return
	}
	if t.At.IsZero() {
		t.At = h.now()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	var turns []Turn
	if x, ok := h.cache.Get(sessionID); ok {
		turns = x.([]Turn)
	}
	turns = append(append([]Turn(nil), turns...), t)
	if len(turns) > h.limit {
		turns = turns[len(turns)-h.limit:]
	}
	h.cache.Set(sessionID, turns, cache.DefaultExpiration)
}

// Carry moves the turns recorded under from to to. The backend may reissue a
// token mid-conversation and the client follows it.
func (h *History) Carry(from, to string) {
	if h == nil || from == "" || to == "" || from == to {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	x, ok := h.cache.Get(from)
	if !ok {
		return
	}
	h.cache.Delete(from)
	h.cache.Set(to, x, cache.DefaultExpiration)
}

// Turns returns the recorded turns for sessionID, oldest first.
func (h *History) Turns(sessionID string) []Turn {
	if h == nil || sessionID == "" {
		return nil
	}
	x, ok := h.cache.Get(sessionID)
	if !ok {
		return nil
	}
	return append([]Turn(nil), x.([]Turn)...)
}

// Forget removes all turns for sessionID.
func (h *History) Forget(sessionID string) {
	if h == nil {
		return
	}
	h.cache.Delete(sessionID)
}
