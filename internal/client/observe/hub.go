// Package observe provides the synchronous publish/subscribe hub the stores
// use to expose state changes to views.
package observe

import (
	"sync"

	"github.com/google/uuid"
)

type subscription[T any] struct {
	id string
	fn func(T)
}

// Hub fans a value out to subscribers, synchronously and in subscription
// order. Listeners run on the publishing goroutine, outside the hub lock, so
// they may subscribe, unsubscribe or read the publishing store.
//
// The zero value is ready to use.
type Hub[T any] struct {
	mu   sync.RWMutex
	subs []subscription[T]
}

// Subscribe registers fn and returns a function that removes it. The
// returned function is idempotent.
func (h *Hub[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	id := uuid.NewString()

	h.mu.Lock()
	h.subs = append(h.subs, subscription[T]{id: id, fn: fn})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(id) })
	}
}

func (h *Hub[T]) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, s := range h.subs {
		if s.id == id {
			h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers v to every current subscriber.
func (h *Hub[T]) Publish(v T) {
	h.mu.RLock()
	targets := make([]func(T), 0, len(h.subs))
	for _, s := range h.subs {
		targets = append(targets, s.fn)
	}
	h.mu.RUnlock()

	for _, fn := range targets {
		fn(v)
	}
}

// Len reports the number of subscribers.
func (h *Hub[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
