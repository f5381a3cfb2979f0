package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"genmedia-backend/internal/models"
)

type fakeChannel struct {
	exchange string
	msgs     []amqp091.Publishing
	err      error
	closed   bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, _ string, _, _ bool, msg amqp091.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.exchange = exchange
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestRabbitMQPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := newRabbitMQPublisher(ch, "generation_events", zap.NewNop())

	gen := &models.Generation{ID: uuid.New(), UserID: uuid.New(), ToolType: "wan22_pro"}
	require.NoError(t, p.Publish(context.Background(), Completed(gen, "https://storage/x.mp4", "")))

	require.Len(t, ch.msgs, 1)
	assert.Equal(t, "generation_events", ch.exchange)
	assert.Equal(t, TypeGenerationCompleted, ch.msgs[0].Type)
	assert.Equal(t, "application/json", ch.msgs[0].ContentType)

	var ev GenerationEvent
	require.NoError(t, json.Unmarshal(ch.msgs[0].Body, &ev))
	assert.Equal(t, gen.ID.String(), ev.GenerationID)
	assert.Equal(t, models.StatusCompleted, ev.Status)
	assert.Equal(t, "https://storage/x.mp4", ev.OutputURL)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestRabbitMQPublisher_PublishError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := newRabbitMQPublisher(ch, "generation_events", zap.NewNop())

	gen := &models.Generation{ID: uuid.New(), UserID: uuid.New()}
	err := p.Publish(context.Background(), Failed(gen, "content_policy_violation", "blocked"))
	assert.ErrorContains(t, err, "generation.failed")
}

func TestNewRabbitMQPublisher_NilConnection(t *testing.T) {
	_, err := NewRabbitMQPublisher(nil, "x", zap.NewNop())
	assert.Error(t, err)
}
