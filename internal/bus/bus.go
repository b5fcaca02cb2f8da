// Package bus provides the audit event trail. Every stage of an
// evaluation run publishes a lifecycle event so an external consumer
// can reconstruct what was ingested and measured. Publishing is
// best-effort: a bus failure never fails the run.
package bus

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Handler is a function that handles audit events.
type Handler func(ctx context.Context, event Event) error

// Bus is the audit trail transport.
type Bus interface {
	// Publish publishes an event to a topic.
	Publish(ctx context.Context, topic string, event Event) error

	// Subscribe registers a handler for events on a topic.
	Subscribe(ctx context.Context, topic string, handler Handler) error

	// Close closes the bus and releases resources.
	Close() error
}

// Event is one audit trail entry.
type Event struct {
	// ID is the unique event identifier.
	ID string `json:"id"`

	// Type is the event type, one of the Topic* constants.
	Type string `json:"type"`

	// RunID ties the event to an evaluation run.
	RunID string `json:"run_id,omitempty"`

	// Timestamp is when the event was created.
	Timestamp int64 `json:"timestamp"`

	// Payload contains the event data.
	Payload any `json:"payload"`
}

// NewEvent creates an event for a topic with a fresh identifier.
func NewEvent(topic string, payload any) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      topic,
		Timestamp: time.Now().UnixMilli(),
		Payload:   payload,
	}
}

// Audit trail topics, one per pipeline stage.
const (
	TopicStoreLoaded         = "store.loaded"
	TopicStoreAugmented      = "store.augmented"
	TopicIndexBuilt          = "index.built"
	TopicEvaluationCompleted = "evaluation.completed"
	TopicReportWritten       = "report.written"
)
