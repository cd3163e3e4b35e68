package engine

import "sync"

// HealthFlag records whether the render thread is still alive. It starts healthy and can
// only ever go from healthy to failed. The watchdog is its only writer; the event loop reads
// it on every iteration.
type HealthFlag struct {
	mu      sync.RWMutex
	healthy bool
}

// NewHealthFlag returns a healthy flag.
func NewHealthFlag() *HealthFlag {
	return &HealthFlag{healthy: true}
}

// Healthy reports whether MarkFailed has not been called yet.
func (h *HealthFlag) Healthy() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.healthy
}

// MarkFailed flips the flag to failed.
//
// Returns:
//   - bool: true for the call that performed the transition, false if it was already failed
func (h *HealthFlag) MarkFailed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.healthy {
		return false
	}
	h.healthy = false
	return true
}
