// Package events carries fire-and-forget "data changed" signals from the
// persistence engines to the presentation layer. Delivery is at-least-once
// with no payload: consumers are expected to re-read whatever they display.
package events

import (
	gosync "sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Domain identifies which slice of the data model changed.
type Domain string

const (
	DomainActivities Domain = "activities"
	DomainTasks      Domain = "tasks"
	DomainForms      Domain = "forms"
)

// ActivityUpdatedMsg signals that the activity timeline changed.
type ActivityUpdatedMsg struct{}

// TasksUpdatedMsg signals that one or more tasks changed.
type TasksUpdatedMsg struct{}

// FormsUpdatedMsg signals that a daily form changed.
type FormsUpdatedMsg struct{}

// Hub fans change signals out to a single subscriber channel.
type Hub struct {
	ch     chan Domain
	mu     gosync.Mutex
	closed bool
}

// NewHub creates a hub with a small buffer; emits never block.
func NewHub() *Hub {
	return &Hub{ch: make(chan Domain, 16)}
}

// Emit publishes a change signal without blocking. Signals are dropped when
// the buffer is full; consumers re-read state anyway, so a dropped signal
// coalesces with the one already queued.
func (h *Hub) Emit(d Domain) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	select {
	case h.ch <- d:
	default:
	}
}

// Close shuts the hub down. Subsequent Emit calls are no-ops.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.closed = true
		close(h.ch)
	}
}

// WaitForEvent returns a tea.Cmd that blocks until the next change signal
// and converts it into a typed message. Callers re-issue the command after
// each message to keep listening, exactly like a poller subscription.
func (h *Hub) WaitForEvent() tea.Cmd {
	return func() tea.Msg {
		d, ok := <-h.ch
		if !ok {
			return nil
		}
		switch d {
		case DomainActivities:
			return ActivityUpdatedMsg{}
		case DomainTasks:
			return TasksUpdatedMsg{}
		case DomainForms:
			return FormsUpdatedMsg{}
		}
		return nil
	}
}
