package runtime

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"chat-relay/domain"
)

// SessionLimiter throttles message admission per session: one message
// every interval, first message free. Check and update happen as a
// single atomic step, so two concurrent attempts from the same session
// can never both be accepted inside one interval.
type SessionLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	limiters map[domain.SessionID]*rate.Limiter
}

func NewSessionLimiter(interval time.Duration) *SessionLimiter {
	return &SessionLimiter{
		interval: interval,
		limiters: make(map[domain.SessionID]*rate.Limiter),
	}
}

// Allow reports whether the session may post a message at now.
// A denied attempt consumes nothing; the next attempt after a full
// interval since the last accepted message goes through.
func (l *SessionLimiter) Allow(id domain.SessionID, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[id]
	if !ok {
		lim = rate.NewLimiter(rate.Every(l.interval), 1)
		l.limiters[id] = lim
	}
	return lim.AllowN(now, 1)
}

// Forget drops the session's limiter state so the map does not grow
// with disconnected sessions.
func (l *SessionLimiter) Forget(id domain.SessionID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.limiters, id)
}
