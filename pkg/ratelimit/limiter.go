// Package ratelimit implements the per-caller fixed-window counter that gates
// every skill invocation.
package ratelimit

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const logPrefix = "ratelimit:limiter"

// Defaults match the protocol contract: 30 calls per 60-second window.
const (
	DefaultQuota  = 30
	DefaultWindow = 60 * time.Second
)

// window is one caller's current fixed window.
type window struct {
	start time.Time
	count int
}

// Limiter is a fixed-window rate limiter keyed by caller identity. Windows
// are created lazily on first use and evicted once idle past twice the window
// length. The fixed-window algorithm is approximate: a caller straddling a
// window boundary can burst to roughly twice the quota.
type Limiter struct {
	mu      sync.Mutex
	quota   int
	window  time.Duration
	callers map[string]*window
	stopCh  chan struct{}
	stopped sync.Once
}

// New creates a Limiter with the given quota and window length. Non-positive
// values fall back to the defaults.
func New(quota int, windowLen time.Duration) *Limiter {
	if quota <= 0 {
		quota = DefaultQuota
	}
	if windowLen <= 0 {
		windowLen = DefaultWindow
	}
	return &Limiter{
		quota:   quota,
		window:  windowLen,
		callers: make(map[string]*window),
		stopCh:  make(chan struct{}),
	}
}

// Allow records one attempted invocation for callerID and reports whether it
// fits the caller's quota for the current window. A fresh window always
// allows; an expired window is restarted.
func (l *Limiter) Allow(callerID string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.callers[callerID]
	if !ok || now.Sub(w.start) > l.window {
		l.callers[callerID] = &window{start: now, count: 1}
		return true
	}
	w.count++
	return w.count <= l.quota
}

// StartSweeper launches the background eviction loop. It runs every two
// window lengths and drops windows older than two window lengths. Call Stop
// to terminate it.
func (l *Limiter) StartSweeper() {
	go func() {
		ticker := time.NewTicker(2 * l.window)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				evicted := l.Sweep()
				if evicted > 0 {
					slog.Debug(fmt.Sprintf("%s - evicted %d idle rate windows", logPrefix, evicted))
				}
			case <-l.stopCh:
				return
			}
		}
	}()
}

// Sweep evicts windows older than twice the window length and returns how
// many were dropped.
func (l *Limiter) Sweep() int {
	cutoff := time.Now().Add(-2 * l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	evicted := 0
	for id, w := range l.callers {
		if w.start.Before(cutoff) {
			delete(l.callers, id)
			evicted++
		}
	}
	return evicted
}

// Stop terminates the sweeper goroutine. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopped.Do(func() { close(l.stopCh) })
}

// Tracked returns the number of callers with a live window. Used by tests and
// the metrics route.
func (l *Limiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.callers)
}
