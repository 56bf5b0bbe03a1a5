package services

import (
	"encoding/json"
	"fmt"
	"log"

	"storefront/internal/models"

	amqp "github.com/streadway/amqp"
)

// OrderNotifier consumes order events from the broker. It is where customer
// notifications hook in; for now every event is logged.
type OrderNotifier struct {
	logf func(format string, args ...interface{})
}

// NewOrderNotifier creates a notifier that writes to the standard logger.
func NewOrderNotifier() *OrderNotifier {
	return &OrderNotifier{logf: log.Printf}
}

// HandleDelivery decodes and processes one broker message. Returning an error
// makes the consumer reject the message.
func (n *OrderNotifier) HandleDelivery(msg amqp.Delivery) error {
	event, err := decodeOrderEvent(msg.Body)
	if err != nil {
		return err
	}

	switch event.Type {
	case models.EventOrderCreated:
		n.logf("[notify] order %s placed by user %s (%s, total %s)",
			event.OrderID, event.UserID, event.Method, event.TotalPrice.StringFixed(2))
	case models.EventOrderStatusChanged:
		n.logf("[notify] order %s of user %s is now %s", event.OrderID, event.UserID, event.Status)
	default:
		n.logf("[notify] ignoring unknown event type %q for order %s", event.Type, event.OrderID)
	}
	return nil
}

func decodeOrderEvent(body []byte) (*models.OrderEvent, error) {
	var event models.OrderEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("failed to decode order event: %w", err)
	}
	if event.OrderID == "" {
		return nil, fmt.Errorf("order event %q has no order id", event.Type)
	}
	return &event, nil
}
