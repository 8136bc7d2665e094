package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/turtacn/ClauseLens/pkg/errors"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	type runRequested struct {
		RunID string `json:"run_id"`
	}

	env, err := NewEnvelope("comparison.run.requested", "apiserver", runRequested{RunID: "run-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, "v1", env.SchemaVersion)
	assert.WithinDuration(t, time.Now().UTC(), env.Timestamp, time.Second)

	wire, err := env.Encode()
	require.NoError(t, err)

	decoded, err := DecodeEnvelope(wire)
	require.NoError(t, err)
	assert.Equal(t, env.EventID, decoded.EventID)
	assert.Equal(t, "comparison.run.requested", decoded.EventType)
	assert.Equal(t, "apiserver", decoded.Source)

	var payload runRequested
	require.NoError(t, decoded.DecodePayload(&payload))
	assert.Equal(t, "run-1", payload.RunID)
}

func TestDecodeEnvelopeRejectsEmptyValue(t *testing.T) {
	_, err := DecodeEnvelope(nil)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestDecodeEnvelopeRejectsMalformedValue(t *testing.T) {
	_, err := DecodeEnvelope([]byte("{truncated"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))
}

func TestDecodePayloadRejectsEmptyPayload(t *testing.T) {
	env := &Envelope{EventType: "comparison.run.requested"}

	var out map[string]string
	err := env.DecodePayload(&out)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestNewEnvelopeRejectsUnencodablePayload(t *testing.T) {
	_, err := NewEnvelope("comparison.run.requested", "apiserver", make(chan int))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))
}
