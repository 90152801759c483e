package inflight

import (
	"context"
	"sync"
)

type call struct {
	cancel context.CancelFunc
}

// Registry tracks at most one cancellable call per key.
//
// Hosted game sessions register their outbound dialogue calls here so that switching characters, accusing or ending
// the game can abort the call. Whatever the aborted call returns is discarded by the caller.
type Registry[K comparable] struct {
	mu    sync.Mutex
	calls map[K]*call
}

func NewRegistry[K comparable]() *Registry[K] {
	return &Registry[K]{
		mu:    sync.Mutex{},
		calls: map[K]*call{},
	}
}

// Begin registers a call for key and returns its context. A call already registered for key is cancelled. The
// returned done function must be called when the call finishes and it only unregisters its own call.
func (r *Registry[K]) Begin(ctx context.Context, key K) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	c := &call{cancel: cancel}

	r.mu.Lock()
	if previous, ok := r.calls[key]; ok {
		previous.cancel()
	}
	r.calls[key] = c
	r.mu.Unlock()

	return ctx, func() {
		r.mu.Lock()
		if r.calls[key] == c {
			delete(r.calls, key)
		}
		r.mu.Unlock()
		cancel()
	}
}

// Cancel aborts the call registered for key and reports whether there was one.
func (r *Registry[K]) Cancel(key K) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[key]
	if !ok {
		return false
	}
	c.cancel()
	delete(r.calls, key)
	return true
}

// Len returns the number of registered calls.
func (r *Registry[K]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}
