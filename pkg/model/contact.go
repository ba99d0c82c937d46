package model

import "time"

// ContactMessage is a contact-form submission forwarded to the mailer
// collaborator; it is published as an event, not persisted.
type ContactMessage struct {
	Name       string    `json:"name" validate:"required,min=2,max=100"`
	Email      string    `json:"email" validate:"required,email"`
	Phone      string    `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
	Message    string    `json:"message" validate:"required,min=1,max=5000"`
	ReceivedAt time.Time `json:"received_at"`
}
