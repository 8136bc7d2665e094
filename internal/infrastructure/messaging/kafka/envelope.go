package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/ClauseLens/pkg/errors"
)

// Envelope is the wire format shared by all published events. EventType
// carries the topic name so dead-lettered messages keep their origin.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	SchemaVersion string          `json:"schema_version"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope wraps payload for publication.
func NewEnvelope(eventType, source string, payload interface{}) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode event payload")
	}
	return &Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: "v1",
		Payload:       data,
	}, nil
}

// Encode serializes the envelope for the wire.
func (e *Envelope) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode event envelope")
	}
	return data, nil
}

// DecodeEnvelope parses an envelope from a consumed message value.
func DecodeEnvelope(value []byte) (*Envelope, error) {
	if len(value) == 0 {
		return nil, errors.NewValidation("empty event value")
	}
	var env Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode event envelope")
	}
	return &env, nil
}

// DecodePayload unmarshals the wrapped payload into target.
func (e *Envelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 {
		return errors.NewValidation("event payload is empty")
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrapf(err, errors.ErrCodeSerialization, "failed to decode %s payload", e.EventType)
	}
	return nil
}
