package service

import (
	"context"

	"activerse/pkg/kafka"
	"activerse/pkg/logger"
	"activerse/pkg/model"
)

const (
	EventBookingCreated = "booking.created"
	EventBookingUpdated = "booking.updated"
	EventBookingDeleted = "booking.deleted"

	eventSource        = "activerse-booking-service"
	eventSchemaVersion = "1.0"
)

// EventPublisher emits booking lifecycle events for downstream collaborators
// (notifier, mailer). Publishing is best-effort; admission never depends on it.
type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, eventType string, booking *model.Booking) error
}

type kafkaEventPublisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewKafkaEventPublisher(producer *kafka.Producer, log *logger.Logger) EventPublisher {
	return &kafkaEventPublisher{
		producer: producer,
		log:      log,
	}
}

func (p *kafkaEventPublisher) PublishBookingEvent(ctx context.Context, eventType string, booking *model.Booking) error {
	msg := kafka.NewMessage().
		WithKey(booking.ID).
		WithValue(booking).
		WithEventType(eventType).
		WithSource(eventSource).
		WithSchemaVersion(eventSchemaVersion).
		Build()

	return p.producer.Publish(ctx, msg)
}

type noopEventPublisher struct{}

// NewNoopEventPublisher is used when Kafka is disabled.
func NewNoopEventPublisher() EventPublisher {
	return noopEventPublisher{}
}

func (noopEventPublisher) PublishBookingEvent(context.Context, string, *model.Booking) error {
	return nil
}
