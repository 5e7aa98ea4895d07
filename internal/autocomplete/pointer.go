package autocomplete

import "sync"

// Region identifies where a pointer-down landed relative to the search box.
type Region int

const (
	// RegionOutside is anywhere outside both the input and the dropdown.
	RegionOutside Region = iota
	// RegionInput is the text input.
	RegionInput
	// RegionDropdown is the candidate dropdown.
	RegionDropdown
)

// PointerEvent is a pointer-down observed by the host surface.
type PointerEvent struct {
	Region Region
}

// PointerEvents is a source of pointer-down events. OnPointerDown returns a
// function that removes the listener.
type PointerEvents interface {
	OnPointerDown(fn func(PointerEvent)) (unsubscribe func())
}

// PointerBus fans pointer-down events out to its listeners.
type PointerBus struct {
	mu        sync.Mutex
	listeners map[uint64]func(PointerEvent)
	nextID    uint64
}

// NewPointerBus creates an empty PointerBus.
func NewPointerBus() *PointerBus {
	return &PointerBus{listeners: make(map[uint64]func(PointerEvent))}
}

// OnPointerDown registers fn for every dispatched event.
func (b *PointerBus) OnPointerDown(fn func(PointerEvent)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

// Dispatch delivers event to every registered listener.
func (b *PointerBus) Dispatch(event PointerEvent) {
	b.mu.Lock()
	listeners := make([]func(PointerEvent), 0, len(b.listeners))
	for _, fn := range b.listeners {
		listeners = append(listeners, fn)
	}
	b.mu.Unlock()

	for _, fn := range listeners {
		fn(event)
	}
}

// Listeners returns the number of registered listeners.
func (b *PointerBus) Listeners() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.listeners)
}
