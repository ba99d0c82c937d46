package service

import (
	"context"
	"errors"
	"time"

	"activerse/pkg/config"
	apperrors "activerse/pkg/errors"
	"activerse/pkg/kafka"
	"activerse/pkg/model"

	"github.com/go-playground/validator/v10"
)

const (
	EventContactMessage = "contact.message"

	eventSource        = "activerse-booking-service"
	eventSchemaVersion = "1.0"
)

// MessagePublisher hands the contact message to the mailer collaborator.
type MessagePublisher interface {
	PublishContactMessage(ctx context.Context, msg *model.ContactMessage) error
}

type ContactService interface {
	Submit(ctx context.Context, msg *model.ContactMessage) error
}

type contactService struct {
	publisher MessagePublisher
	validate  *validator.Validate
	cfg       *config.Config
}

func NewContactService(publisher MessagePublisher, cfg *config.Config) ContactService {
	return &contactService{
		publisher: publisher,
		validate:  validator.New(),
		cfg:       cfg,
	}
}

func (s *contactService) Submit(ctx context.Context, msg *model.ContactMessage) error {
	if err := s.validate.Struct(msg); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return apperrors.Validation("Name, email, and message are required", map[string]any{"error": err.Error()})
		}
		return apperrors.Validation("Name, email, and message are required", nil)
	}

	msg.ReceivedAt = time.Now().UTC()

	if s.publisher == nil {
		s.cfg.Log.Error("Contact message dropped: no publisher configured")
		return apperrors.Internal("Contact form is not configured. Please contact the administrator directly.", nil)
	}

	if err := s.publisher.PublishContactMessage(ctx, msg); err != nil {
		s.cfg.Log.Error("Failed to publish contact message", "error", err)
		return apperrors.Internal("Failed to send message. Please try again later or contact us directly.", err)
	}

	s.cfg.Log.Info("Contact message accepted", "email", msg.Email)
	return nil
}

type kafkaMessagePublisher struct {
	producer *kafka.Producer
}

func NewKafkaMessagePublisher(producer *kafka.Producer) MessagePublisher {
	return &kafkaMessagePublisher{producer: producer}
}

func (p *kafkaMessagePublisher) PublishContactMessage(ctx context.Context, msg *model.ContactMessage) error {
	kafkaMsg := kafka.NewMessage().
		WithKey(msg.Email).
		WithValue(msg).
		WithEventType(EventContactMessage).
		WithSource(eventSource).
		WithSchemaVersion(eventSchemaVersion).
		Build()

	return p.producer.Publish(ctx, kafkaMsg)
}
