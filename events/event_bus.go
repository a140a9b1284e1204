package events

import (
	"sync"
	"time"

	"sourcemind/logging"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	// Project events
	ProjectOpened        EventType = "project:opened"
	ProjectStatusChanged EventType = "project:status_changed"
	FileTreeUpdated      EventType = "project:tree_updated"
	FileSystemChanged    EventType = "project:fs_changed"

	// Document events
	FileOpened EventType = "document:opened"
	FileSaved  EventType = "document:saved"

	// Transformation events
	EditRequested    EventType = "transform:requested"
	ProposalStaged   EventType = "transform:proposal_staged"
	ProposalResolved EventType = "transform:proposal_resolved"
	EditFailed       EventType = "transform:failed"

	// System events
	SystemError EventType = "system:error"
)

// Event represents an event in the system
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// EventHandler is a function that handles events
type EventHandler func(event Event)

// EventBus provides event-driven communication between components
type EventBus struct {
	handlers map[EventType][]EventHandler
	all      []EventHandler
	mutex    sync.RWMutex
	wg       sync.WaitGroup
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[EventType][]EventHandler),
	}
}

// Subscribe adds an event handler for a specific event type
func (eb *EventBus) Subscribe(eventType EventType, handler EventHandler) {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
}

// SubscribeAll adds a handler that receives every event
func (eb *EventBus) SubscribeAll(handler EventHandler) {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	eb.all = append(eb.all, handler)
}

// Unsubscribe removes all handlers for a specific event type
func (eb *EventBus) Unsubscribe(eventType EventType) {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	delete(eb.handlers, eventType)
}

// Emit publishes an event to all registered handlers. A nil bus drops events.
func (eb *EventBus) Emit(eventType EventType, data interface{}) {
	if eb == nil {
		return
	}

	eb.mutex.RLock()
	handlers := append(append([]EventHandler{}, eb.handlers[eventType]...), eb.all...)
	eb.mutex.RUnlock()

	event := Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}

	// Execute handlers in goroutines to avoid blocking
	for _, handler := range handlers {
		eb.wg.Add(1)
		go func(h EventHandler) {
			defer eb.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logging.S().Errorw("event handler panic", "event", eventType, "panic", r)
				}
			}()
			h(event)
		}(handler)
	}
}

// Wait blocks until every handler started so far has returned
func (eb *EventBus) Wait() {
	eb.wg.Wait()
}

// EmitError emits a system error event
func (eb *EventBus) EmitError(err error) {
	eb.Emit(SystemError, map[string]string{
		"error": err.Error(),
	})
}
