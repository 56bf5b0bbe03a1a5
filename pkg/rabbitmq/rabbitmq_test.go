package rabbitmq_test

import (
	"encoding/json"
	"errors"
	"testing"

	"storefront/pkg/rabbitmq"

	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAcker struct {
	acked, nacked []uint64
	requeued      bool
}

func (a *recordingAcker) Ack(tag uint64, multiple bool) error {
	a.acked = append(a.acked, tag)
	return nil
}

func (a *recordingAcker) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked = append(a.nacked, tag)
	a.requeued = a.requeued || requeue
	return nil
}

func (a *recordingAcker) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func TestNewPublishing(t *testing.T) {
	msg, err := rabbitmq.NewPublishing("order.created", map[string]string{"orderId": "o1"})
	require.NoError(t, err)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, "order.created", msg.Type)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)

	var body map[string]string
	require.NoError(t, json.Unmarshal(msg.Body, &body))
	assert.Equal(t, "o1", body["orderId"])

	_, err = rabbitmq.NewPublishing("order.created", make(chan int))
	assert.Error(t, err)
}

func TestDispatchSettlesMessages(t *testing.T) {
	acker := &recordingAcker{}

	rabbitmq.Dispatch(amqp.Delivery{Acknowledger: acker, DeliveryTag: 1}, func(amqp.Delivery) error {
		return nil
	})
	rabbitmq.Dispatch(amqp.Delivery{Acknowledger: acker, DeliveryTag: 2}, func(amqp.Delivery) error {
		return errors.New("bad payload")
	})

	assert.Equal(t, []uint64{1}, acker.acked)
	assert.Equal(t, []uint64{2}, acker.nacked)
	assert.False(t, acker.requeued)
}
