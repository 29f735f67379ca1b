package capture

import (
	"sync"
	"sync/atomic"
	"time"
)

// LogLimiter caps how many diagnostics per reason are logged in a window.
// Counts rotate when the window expires.
type LogLimiter struct {
	mu           sync.Mutex
	current      map[string]*atomic.Int64 // reason → messages in current window
	windowStart  time.Time
	windowSize   time.Duration
	maxPerWindow int64

	suppressed atomic.Int64
}

// NewLogLimiter returns nil when maxPerWindow <= 0; a nil limiter allows everything.
func NewLogLimiter(maxPerWindow int, window time.Duration) *LogLimiter {
	if maxPerWindow <= 0 {
		return nil
	}
	if window <= 0 {
		window = 10 * time.Second
	}
	return &LogLimiter{
		current:      make(map[string]*atomic.Int64),
		windowStart:  time.Now(),
		windowSize:   window,
		maxPerWindow: int64(maxPerWindow),
	}
}

// Allow reports whether a message for reason may be logged at now.
func (l *LogLimiter) Allow(reason string, now time.Time) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	if now.Sub(l.windowStart) >= l.windowSize {
		l.current = make(map[string]*atomic.Int64)
		l.windowStart = now
	}
	counter, exists := l.current[reason]
	if !exists {
		counter = &atomic.Int64{}
		l.current[reason] = counter
	}
	l.mu.Unlock()

	if counter.Add(1) > l.maxPerWindow {
		l.suppressed.Add(1)
		return false
	}
	return true
}

// Suppressed returns the total number of messages withheld.
func (l *LogLimiter) Suppressed() int64 {
	if l == nil {
		return 0
	}
	return l.suppressed.Load()
}
