package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Event is one booking lifecycle notification for external consumers such as
// calendar feeds and reporting pipelines.
type Event struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"booking_id,omitempty"`
	Unit       string    `json:"unit,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

const (
	EventBookingCreated = "booking.created"
	EventBookingUpdated = "booking.updated"
	EventBookingDeleted = "booking.deleted"
	EventPickupToggled  = "handoff.pickup"
	EventReturnToggled  = "handoff.return"
)

// Publisher pushes events to a durable RabbitMQ queue. A nil *Publisher is
// safe to call and publishes nothing, which is how the service runs when no
// broker is configured.
type Publisher struct {
	url   string
	queue string
}

func NewPublisher(url, queueName string) *Publisher {
	return &Publisher{url: url, queue: queueName}
}

// Publish opens a fresh connection per event. Booking traffic is low enough
// that connection reuse is not worth the reconnect handling.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	if p == nil {
		return nil
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("error encoding event: %w", err)
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("event %s not published: %v", ev.Type, err)
		return fmt.Errorf("error connecting to broker: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("event %s not published: %v", ev.Type, err)
		return fmt.Errorf("error opening channel: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(p.queue, true, false, false, false, nil)
	if err != nil {
		log.Printf("event %s not published: %v", ev.Type, err)
		return fmt.Errorf("error declaring queue: %w", err)
	}

	err = ch.PublishWithContext(ctx, "", q.Name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		log.Printf("event %s not published: %v", ev.Type, err)
		return fmt.Errorf("error publishing event: %w", err)
	}
	return nil
}
