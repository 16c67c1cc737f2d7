package orchestrator

import (
	"time"

	"github.com/google/uuid"
)

// EventKind identifies what happened to a record during an import
type EventKind string

const (
	EventProductImported    EventKind = "product_imported"
	EventProductFailed      EventKind = "product_failed"
	EventCategoryUnresolved EventKind = "category_unresolved"
	EventCategoryFailed     EventKind = "category_failed"
	EventVariantFailed      EventKind = "variant_failed"
)

// Event reports the outcome of one step for one record
type Event struct {
	Kind       EventKind
	RunID      uuid.UUID
	Index      int
	Name       string
	ProductID  int64
	CategoryID int64
	Variant    string
	Err        error
	At         time.Time
}

// EventHandler receives import events. Handlers are never called
// concurrently by a single run.
type EventHandler interface {
	HandleEvent(Event)
}

// EventHandlerFunc adapts a function to EventHandler
type EventHandlerFunc func(Event)

func (f EventHandlerFunc) HandleEvent(e Event) {
	f(e)
}

// Handlers fans an event out to several handlers in order
type Handlers []EventHandler

func (hs Handlers) HandleEvent(e Event) {
	for _, h := range hs {
		if h != nil {
			h.HandleEvent(e)
		}
	}
}
