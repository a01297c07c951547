package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/threemeal/threemeal-backend/config"
)

func TestNewSelectsPublisher(t *testing.T) {
	p := New(config.KafkaConfig{})
	_, ok := p.(NoopPublisher)
	assert.True(t, ok)
	assert.NoError(t, p.PublishOrderEvent(context.Background(), OrderEvent{Type: OrderPlaced}))
	assert.NoError(t, p.Close())

	p = New(config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "orders"})
	kp, ok := p.(*KafkaPublisher)
	assert.True(t, ok)
	assert.Equal(t, "orders", kp.writer.Topic)
	assert.NoError(t, kp.Close())
}
