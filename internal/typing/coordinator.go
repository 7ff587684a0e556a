// Package typing debounces local typing-state emission. The transition to
// "typing" fires once when input resumes after idleness, not on every
// keystroke; a trailing idle timer emits the stop edge.
package typing

import (
	"sync"
	"time"
)

// DefaultIdleDelay is how long after the last keystroke the stop edge fires.
const DefaultIdleDelay = 800 * time.Millisecond

// Coordinator is an edge-triggered typing emitter for one conversation.
type Coordinator struct {
	mu     sync.Mutex
	typing bool
	idle   time.Duration
	timer  *time.Timer
	emit   func(isTyping bool)
}

// NewCoordinator builds a coordinator that calls emit on each edge. A
// non-positive idle delay falls back to DefaultIdleDelay.
func NewCoordinator(idle time.Duration, emit func(isTyping bool)) *Coordinator {
	if idle <= 0 {
		idle = DefaultIdleDelay
	}
	return &Coordinator{idle: idle, emit: emit}
}

// Keystroke records input activity. The first keystroke after idleness emits
// typing=true; every keystroke re-arms the trailing idle timer.
func (c *Coordinator) Keystroke() {
	c.mu.Lock()
	edge := !c.typing
	c.typing = true
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.idle, c.expire)
	c.mu.Unlock()

	if edge {
		c.emit(true)
	}
}

// Stop immediately ends the typing state, used when a message is sent.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.typing = false
	c.mu.Unlock()

	// The stop edge is emitted even when already idle: sending a message
	// always clears the remote indicator.
	c.emit(false)
}

// Typing reports the current local typing state.
func (c *Coordinator) Typing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.typing
}

func (c *Coordinator) expire() {
	c.mu.Lock()
	if !c.typing {
		c.mu.Unlock()
		return
	}
	c.typing = false
	c.timer = nil
	c.mu.Unlock()

	c.emit(false)
}
