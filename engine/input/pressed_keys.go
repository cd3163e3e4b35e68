// Package input holds the keyboard state shared between the event loop and the render loop.
package input

import (
	"slices"
	"sync"
)

// PressedKeys is the set of keys currently held down. The event loop writes it on key
// transitions and the render loop reads it once per frame; both sides go through the same
// mutex and keep their critical sections free of blocking calls.
//
// A key appears at most once, in the order it was pressed.
type PressedKeys struct {
	mu   sync.Mutex
	keys []uint32
}

// NewPressedKeys returns an empty set.
func NewPressedKeys() *PressedKeys {
	return &PressedKeys{keys: make([]uint32, 0, 10)}
}

// Press records a key-down. Pressing a key that is already down changes nothing.
//
// Parameters:
//   - key: the platform key code
//
// Returns:
//   - bool: true if the key was added
func (p *PressedKeys) Press(key uint32) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if slices.Contains(p.keys, key) {
		return false
	}
	p.keys = append(p.keys, key)
	return true
}

// Release records a key-up. Releasing a key that is not down changes nothing.
//
// Parameters:
//   - key: the platform key code
//
// Returns:
//   - bool: true if the key was removed
func (p *PressedKeys) Release(key uint32) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := slices.Index(p.keys, key)
	if i < 0 {
		return false
	}
	p.keys = slices.Delete(p.keys, i, i+1)
	return true
}

// Read calls fn with the pressed keys while holding the lock. fn must not retain the slice
// or block.
func (p *PressedKeys) Read(fn func(keys []uint32)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.keys)
}

// Snapshot returns a copy of the pressed keys.
func (p *PressedKeys) Snapshot() []uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.keys)
}

// Contains reports whether key is down.
func (p *PressedKeys) Contains(key uint32) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Contains(p.keys, key)
}

// Len returns the number of keys down.
func (p *PressedKeys) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}
