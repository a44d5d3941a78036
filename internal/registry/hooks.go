package registry

import (
	"slices"
	"sync"

	"github.com/t569/scanapi/pkg/endpoints"
)

// Hook function types for endpoint events
type (
	// EndpointCreatedHook is called after a new endpoint is persisted.
	EndpointCreatedHook func(ep endpoints.Endpoint)

	// EndpointUpdatedHook is called after an endpoint update is persisted.
	EndpointUpdatedHook func(old, new endpoints.Endpoint)
)

type hookEntry[F any] struct {
	id uint64
	fn F
}

// hooks manages event callbacks for registry changes
type hooks struct {
	mu                sync.RWMutex
	nextID            uint64
	onEndpointCreated []hookEntry[EndpointCreatedHook]
	onEndpointUpdated []hookEntry[EndpointUpdatedHook]
}

func newHooks() *hooks {
	return &hooks{}
}

func (h *hooks) addCreated(fn EndpointCreatedHook) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	h.onEndpointCreated = append(h.onEndpointCreated, hookEntry[EndpointCreatedHook]{id: id, fn: fn})
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.onEndpointCreated = slices.DeleteFunc(slices.Clone(h.onEndpointCreated), func(e hookEntry[EndpointCreatedHook]) bool {
			return e.id == id
		})
	}
}

func (h *hooks) addUpdated(fn EndpointUpdatedHook) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	h.onEndpointUpdated = append(h.onEndpointUpdated, hookEntry[EndpointUpdatedHook]{id: id, fn: fn})
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.onEndpointUpdated = slices.DeleteFunc(slices.Clone(h.onEndpointUpdated), func(e hookEntry[EndpointUpdatedHook]) bool {
			return e.id == id
		})
	}
}

func (h *hooks) created(ep endpoints.Endpoint) {
	h.mu.RLock()
	fns := h.onEndpointCreated
	h.mu.RUnlock()
	for _, e := range fns {
		e.fn(ep)
	}
}

func (h *hooks) updated(old, new endpoints.Endpoint) {
	h.mu.RLock()
	fns := h.onEndpointUpdated
	h.mu.RUnlock()
	for _, e := range fns {
		e.fn(old, new)
	}
}
