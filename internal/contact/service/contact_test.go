package service

import (
	"context"
	"errors"
	"testing"

	"activerse/pkg/config"
	apperrors "activerse/pkg/errors"
	"activerse/pkg/logger"
	"activerse/pkg/model"
)

type mockMessagePublisher struct {
	PublishContactMessageFunc func(ctx context.Context, msg *model.ContactMessage) error
}

func (m *mockMessagePublisher) PublishContactMessage(ctx context.Context, msg *model.ContactMessage) error {
	return m.PublishContactMessageFunc(ctx, msg)
}

func newContactTestConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{Level: "error", Format: "json", Service: "test"}),
	}
}

func validMessage() *model.ContactMessage {
	return &model.ContactMessage{
		Name:    "Asha Verma",
		Email:   "asha@example.com",
		Message: "Do you take large group bookings on weekends?",
	}
}

func TestSubmit_PublishesMessage(t *testing.T) {
	var published *model.ContactMessage
	publisher := &mockMessagePublisher{
		PublishContactMessageFunc: func(ctx context.Context, msg *model.ContactMessage) error {
			published = msg
			return nil
		},
	}

	svc := NewContactService(publisher, newContactTestConfig())

	if err := svc.Submit(context.Background(), validMessage()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if published == nil {
		t.Fatal("expected the message to reach the publisher")
	}
	if published.ReceivedAt.IsZero() {
		t.Error("expected ReceivedAt to be stamped before publishing")
	}
}

func TestSubmit_RejectsIncompleteMessage(t *testing.T) {
	svc := NewContactService(&mockMessagePublisher{}, newContactTestConfig())

	cases := []struct {
		name   string
		mutate func(*model.ContactMessage)
	}{
		{"missing name", func(m *model.ContactMessage) { m.Name = "" }},
		{"missing email", func(m *model.ContactMessage) { m.Email = "" }},
		{"bad email", func(m *model.ContactMessage) { m.Email = "not-an-email" }},
		{"missing message", func(m *model.ContactMessage) { m.Message = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg := validMessage()
			tc.mutate(msg)
			err := svc.Submit(context.Background(), msg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if apperrors.AsAppError(err).HTTPStatus != 400 {
				t.Errorf("expected 400, got %d", apperrors.AsAppError(err).HTTPStatus)
			}
		})
	}
}

func TestSubmit_NoPublisherConfigured(t *testing.T) {
	svc := NewContactService(nil, newContactTestConfig())

	err := svc.Submit(context.Background(), validMessage())
	if err == nil {
		t.Fatal("expected an error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.HTTPStatus != 500 {
		t.Errorf("expected 500, got %d", appErr.HTTPStatus)
	}
	if appErr.Message != "Contact form is not configured. Please contact the administrator directly." {
		t.Errorf("unexpected message: %s", appErr.Message)
	}
}

func TestSubmit_PublishFailure(t *testing.T) {
	publisher := &mockMessagePublisher{
		PublishContactMessageFunc: func(ctx context.Context, msg *model.ContactMessage) error {
			return errors.New("broker unreachable")
		},
	}

	svc := NewContactService(publisher, newContactTestConfig())

	err := svc.Submit(context.Background(), validMessage())
	if err == nil {
		t.Fatal("expected an error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.HTTPStatus != 500 {
		t.Errorf("expected 500, got %d", appErr.HTTPStatus)
	}
	if appErr.Message != "Failed to send message. Please try again later or contact us directly." {
		t.Errorf("unexpected message: %s", appErr.Message)
	}
}
