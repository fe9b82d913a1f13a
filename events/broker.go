package events

import (
	"sync"
)

// Event types published during a run
const (
	RunStarted    = "run_started"
	Warning       = "warning"
	PhaseStarted  = "phase_started"
	StageStarted  = "stage_started"
	StageFinished = "stage_finished"
	RunFinished   = "run_finished"
)

// Handler receives an event. Handlers run on the publishing goroutine, in
// subscription order.
type Handler func(eventType string, data interface{})

// Broker fans run events out to its subscribers
type Broker struct {
	handlers []Handler
	mu       sync.RWMutex
}

// NewBroker returns a broker with no subscribers
func NewBroker() *Broker {
	return &Broker{}
}

// Subscribe adds a handler
func (b *Broker) Subscribe(h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Broadcast delivers an event to every subscriber. A nil broker drops events.
func (b *Broker) Broadcast(eventType string, data interface{}) {
	if b == nil {
		return
	}
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(eventType, data)
	}
}
