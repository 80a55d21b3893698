// Package events records pipeline lifecycle occurrences (batch
// resolutions, statement exports, cache maintenance) as structured log
// entries. One stream to follow, no broker in the loop.
package events

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

// EventType names a pipeline lifecycle event.
type EventType string

const (
	BatchResolveStart    EventType = "BATCH_RESOLVE_START"
	BatchResolveComplete EventType = "BATCH_RESOLVE_COMPLETE"
	OFXGenerated         EventType = "OFX_GENERATED"
	ArchiveGenerated     EventType = "ARCHIVE_GENERATED"
	CacheCleanupDone     EventType = "CACHE_CLEANUP_DONE"
	ErrorOccurred        EventType = "ERROR_OCCURRED"
)

// Event is one emitted occurrence with its free-form payload.
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}

// Manager emits events into the structured log.
type Manager struct {
	log zerolog.Logger
}

// NewManager creates a new event manager.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		log: log.With().Str("component", "events").Logger(),
	}
}

// Emit records one event. Emission never fails; the caller pays only for
// the log write.
func (m *Manager) Emit(eventType EventType, module string, data map[string]interface{}) {
	event := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
		Module:    module,
	}

	eventJSON, _ := json.Marshal(event)
	m.log.Info().
		Str("event_type", string(eventType)).
		Str("module", module).
		RawJSON("event", eventJSON).
		Msg("Event emitted")
}

// EmitError records a failure as an ErrorOccurred event.
func (m *Manager) EmitError(module string, err error, context map[string]interface{}) {
	m.Emit(ErrorOccurred, module, map[string]interface{}{
		"error":   err.Error(),
		"context": context,
	})
}
