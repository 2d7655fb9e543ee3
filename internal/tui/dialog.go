package tui

import (
	"context"
	"sync"
)

// Dialog carries the answer of the y/n prompt to the action it guards.
// The TUI records the answer, then runs the action, which consumes it
// through Confirm. An unanswered prompt reads as "no".
type Dialog struct {
	mu     sync.Mutex
	answer bool
}

func NewDialog() *Dialog {
	return &Dialog{}
}

func (d *Dialog) set(yes bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.answer = yes
}

// Confirm returns the recorded answer once.
func (d *Dialog) Confirm(context.Context, string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	yes := d.answer
	d.answer = false
	return yes, nil
}
