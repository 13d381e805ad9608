package task

import (
	"context"
	"sync"
)

// Notifier signals changes of a user's task collection.
type Notifier interface {
	// Publish signals that the tasks of userID changed.
	Publish(ctx context.Context, userID string) error
	// Subscribe returns a channel receiving a value after changes of userID's tasks,
	// and a function to call to unsubscribe.
	// Signals are coalesced: a subscriber that lags behind receives a single one.
	Subscribe(userID string) (<-chan struct{}, func())
}

// Hub is an in-process Notifier.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[chan struct{}]struct{} // {userID: {ch}}
	closed bool
}

var _ Notifier = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan struct{}]struct{})}
}

func (h *Hub) Publish(_ context.Context, userID string) error {
	h.Broadcast(userID)
	return nil
}

// Broadcast wakes up every subscriber of userID.
func (h *Hub) Broadcast(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[userID] {
		signal(ch)
	}
}

// BroadcastAll wakes up every subscriber, eg. after missed notifications.
func (h *Hub) BroadcastAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, chans := range h.subs {
		for ch := range chans {
			signal(ch)
		}
	}
}

func (h *Hub) Subscribe(userID string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan struct{}]struct{})
	}
	h.subs[userID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() { h.unsubscribe(userID, ch) })
	}
}

func (h *Hub) unsubscribe(userID string, ch chan struct{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	chans, ok := h.subs[userID]
	if !ok {
		return
	}
	if _, ok := chans[ch]; !ok {
		return
	}
	delete(chans, ch)
	close(ch)
	if len(chans) == 0 {
		delete(h.subs, userID)
	}
}

// Subscribers returns the number of live subscriptions of userID.
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}

// Close ends every subscription. Later subscriptions are closed right away.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for userID, chans := range h.subs {
		for ch := range chans {
			close(ch)
		}
		delete(h.subs, userID)
	}
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default: // a signal is already pending
	}
}
