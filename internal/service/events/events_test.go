package events

import (
	"context"
	"encoding/json"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	env := NewEnvelope(TypeSubmissionReceived, SubmissionReceived{FormType: "feedback"}, "")

	assert.NotEmpty(t, env.Meta.ID)
	assert.Equal(t, TypeSubmissionReceived, env.Meta.Type)
	require.NotNil(t, env.Meta.Producer)
	assert.Equal(t, Producer, *env.Meta.Producer)
	assert.Nil(t, env.Meta.CorrelationID)
	assert.False(t, env.Meta.Time.IsZero())

	env = NewEnvelope(TypeSubmissionReceived, nil, "req-1")
	require.NotNil(t, env.Meta.CorrelationID)
	assert.Equal(t, "req-1", *env.Meta.CorrelationID)
}

func TestPublishing(t *testing.T) {
	env := NewEnvelope(TypeSubmissionReceived, SubmissionReceived{FormType: "job", HasEmail: true}, "req-7")

	pub, err := publishing(env)
	require.NoError(t, err)

	assert.Equal(t, "application/json", pub.ContentType)
	assert.Equal(t, amqp.Persistent, pub.DeliveryMode)
	assert.Equal(t, env.Meta.ID, pub.MessageId)
	assert.Equal(t, "req-7", pub.CorrelationId)
	assert.Equal(t, TypeSubmissionReceived, pub.Type)

	var decoded struct {
		Meta Meta               `json:"meta"`
		Data SubmissionReceived `json:"data"`
	}
	require.NoError(t, json.Unmarshal(pub.Body, &decoded))
	assert.Equal(t, "job", decoded.Data.FormType)
	assert.True(t, decoded.Data.HasEmail)
}

func TestPublishingFallsBackToMessageID(t *testing.T) {
	pub, err := publishing(Envelope{Meta: Meta{Type: "x"}})
	require.NoError(t, err)
	assert.NotEmpty(t, pub.MessageId)
	assert.Equal(t, pub.MessageId, pub.CorrelationId)
}

func TestPublishingRejectsUnencodableData(t *testing.T) {
	_, err := publishing(Envelope{Data: make(chan int)})
	require.Error(t, err)
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	require.NoError(t, p.Publish(context.Background(), "k", Envelope{}))
	require.NoError(t, p.Close())
}
