package brushwork

import (
	"unsafe"

	"github.com/akmonengine/brushwork/brush"
)

const (
	OVERLAP_ENTER EventType = iota
	OVERLAP_STAY
	OVERLAP_EXIT
	BRUSHES_ADDED
	BRUSHES_REMOVED
)

type pairKey struct {
	brushA *brush.Brush
	brushB *brush.Brush
}

// makePairKey creates a normalized pair key with consistent ordering
func makePairKey(brushA, brushB *brush.Brush) pairKey {
	ptrA := uintptr(unsafe.Pointer(brushA))
	ptrB := uintptr(unsafe.Pointer(brushB))

	if ptrB < ptrA {
		brushA, brushB = brushB, brushA
	}

	return pairKey{brushA: brushA, brushB: brushB}
}

type EventType uint8

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// OverlapEnterEvent reports a pair FindOverlaps did not find the previous time.
type OverlapEnterEvent struct {
	Overlap Overlap
}

func (e OverlapEnterEvent) Type() EventType { return OVERLAP_ENTER }

// OverlapStayEvent reports a pair FindOverlaps found again.
type OverlapStayEvent struct {
	Overlap Overlap
}

func (e OverlapStayEvent) Type() EventType { return OVERLAP_STAY }

// OverlapExitEvent reports a pair that no longer overlaps, or whose brushes left the world.
type OverlapExitEvent struct {
	BrushA *brush.Brush
	BrushB *brush.Brush
}

func (e OverlapExitEvent) Type() EventType { return OVERLAP_EXIT }

type BrushesAddedEvent struct {
	Brushes []*brush.Brush
}

func (e BrushesAddedEvent) Type() EventType { return BRUSHES_ADDED }

type BrushesRemovedEvent struct {
	Brushes []*brush.Brush
}

func (e BrushesRemovedEvent) Type() EventType { return BRUSHES_REMOVED }

// EventListener - callback for events
type EventListener func(event Event)

// Events dispatches the world's events to its listeners. Listeners run synchronously at
// the end of the world operation that raised the events.
type Events struct {
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event

	// Overlap tracking for Enter/Stay/Exit detection
	previousOverlaps map[pairKey]bool
	currentOverlaps  map[pairKey]bool
}

func NewEvents() Events {
	return Events{
		listeners:        make(map[EventType][]EventListener),
		buffer:           make([]Event, 0, 64),
		previousOverlaps: make(map[pairKey]bool),
		currentOverlaps:  make(map[pairKey]bool),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	if e.listeners == nil {
		e.listeners = make(map[EventType][]EventListener)
	}
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordOverlaps compares the overlaps with those of the previous call to detect
// Enter/Stay/Exit.
func (e *Events) recordOverlaps(overlaps []Overlap) {
	if e.currentOverlaps == nil {
		e.previousOverlaps = make(map[pairKey]bool)
		e.currentOverlaps = make(map[pairKey]bool)
	}

	for _, o := range overlaps {
		pair := makePairKey(o.BrushA, o.BrushB)
		e.currentOverlaps[pair] = true

		if e.previousOverlaps[pair] {
			e.buffer = append(e.buffer, OverlapStayEvent{Overlap: o})
		} else {
			e.buffer = append(e.buffer, OverlapEnterEvent{Overlap: o})
		}
	}

	for pair := range e.previousOverlaps {
		if !e.currentOverlaps[pair] {
			e.buffer = append(e.buffer, OverlapExitEvent{BrushA: pair.brushA, BrushB: pair.brushB})
		}
	}

	// Swap for next call and clear current
	e.previousOverlaps, e.currentOverlaps = e.currentOverlaps, e.previousOverlaps
	clear(e.currentOverlaps)
}

func (e *Events) emitAdded(brushes []*brush.Brush) {
	if len(brushes) > 0 {
		e.buffer = append(e.buffer, BrushesAddedEvent{Brushes: brushes})
	}
}

func (e *Events) emitRemoved(brushes []*brush.Brush) {
	if len(brushes) > 0 {
		e.buffer = append(e.buffer, BrushesRemovedEvent{Brushes: brushes})
	}
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	for _, event := range e.buffer {
		for _, listener := range e.listeners[event.Type()] {
			listener(event)
		}
	}
	e.buffer = e.buffer[:0]
}
