package orchestrator

import (
	"github.com/badno/catimport/internal/database"
	"github.com/badno/catimport/pkg/models"
)

// eventBuffer collects events of one run for the analytics sink
type eventBuffer struct {
	source   string
	platform models.Platform
	events   []database.ImportEvent
}

func newEventBuffer(source string, platform models.Platform) *eventBuffer {
	return &eventBuffer{source: source, platform: platform}
}

func (b *eventBuffer) HandleEvent(e Event) {
	ev := database.ImportEvent{
		RunID:       e.RunID,
		Kind:        string(e.Kind),
		Source:      b.source,
		Platform:    string(b.platform),
		RecordIndex: e.Index,
		ProductName: e.Name,
		ProductID:   e.ProductID,
		CategoryID:  e.CategoryID,
		Variant:     e.Variant,
		OccurredAt:  e.At,
	}
	if e.Err != nil {
		ev.Error = e.Err.Error()
	}
	b.events = append(b.events, ev)
}

// Events returns the buffered events in emission order
func (b *eventBuffer) Events() []database.ImportEvent {
	return b.events
}
