// Package kafka wires the engine into the upstream pipeline's event bus:
// dataset reload notifications in, aggregation telemetry out.
package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/areascope/areascope/pkg/errors"
)

const (
	// TopicDatasetUpdated carries upstream dataset reload events.  Every
	// event invalidates the cached results of the named dataset.
	TopicDatasetUpdated = "dataset.updated"

	// TopicAggregationComputed publishes one event per computed (uncached)
	// aggregation, consumed by downstream analytics.
	TopicAggregationComputed = "aggregation.computed"
)

// EventEnvelope standardizes event messages on the bus.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	TraceID       string            `json:"trace_id,omitempty"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// DatasetUpdatedPayload announces that the upstream pipeline reloaded a
// dataset under a new version.
type DatasetUpdatedPayload struct {
	DatasetID   string    `json:"dataset_id"`
	Version     string    `json:"version"`
	RecordCount int       `json:"record_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AggregationComputedPayload reports one cache-miss computation.
type AggregationComputedPayload struct {
	DatasetID           string    `json:"dataset_id"`
	GeometryFingerprint string    `json:"geometry_fingerprint"`
	SourceCount         int       `json:"source_count"`
	Method              string    `json:"aggregation_method"`
	ComputedAt          time.Time `json:"computed_at"`
}

// NewEventEnvelope wraps a payload in a versioned envelope.
func NewEventEnvelope(eventType, source string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal payload")
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: "v1",
		Payload:       data,
	}, nil
}

// DecodePayload unmarshals the envelope payload into target.
func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return errors.New(errors.ErrCodeValidation, "envelope has no payload")
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal payload")
	}
	return nil
}

// ParseEnvelope decodes a raw message value into an envelope.
func ParseEnvelope(value []byte) (*EventEnvelope, error) {
	if len(value) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "empty message value")
	}
	var env EventEnvelope
	if err := json.Unmarshal(value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal envelope")
	}
	return &env, nil
}
