// Package events publishes domain events for downstream consumers such as
// a CRM sync or an analytics pipeline.
package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	// Producer identifies this service in event metadata.
	Producer = "site-assistant"

	// TypeSubmissionReceived is emitted once per successfully mailed form.
	TypeSubmissionReceived = "submission.received.v1"
)

type Meta struct {
	// Trace / request correlation ID
	CorrelationID *string `json:"correlation_id,omitempty"`
	// Unique event ID
	ID string `json:"id"`
	// Emitting service
	Producer *string `json:"producer,omitempty"`
	// Timestamp when the event was emitted
	Time time.Time `json:"time"`
	// Event name and version, e.g. submission.received.v1
	Type string `json:"type"`
}

type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

// SubmissionReceived carries the non-sensitive facts of a delivered form.
// Free text bodies stay in the inbox.
type SubmissionReceived struct {
	FormType    string    `json:"form_type"`
	HasEmail    bool      `json:"has_email"`
	Inferred    bool      `json:"inferred"`
	Subject     string    `json:"subject"`
	DeliveredAt time.Time `json:"delivered_at"`
}

// NewEnvelope stamps data with a fresh id, the producer name and now.
func NewEnvelope(eventType string, data any, correlationID string) Envelope {
	producer := Producer
	meta := Meta{
		ID:       uuid.NewString(),
		Producer: &producer,
		Time:     time.Now().UTC(),
		Type:     eventType,
	}
	if correlationID != "" {
		meta.CorrelationID = &correlationID
	}
	return Envelope{Meta: meta, Data: data}
}
