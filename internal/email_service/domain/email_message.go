package domain

import (
	"time"

	"github.com/google/uuid"
)

// EmailStatus tracks an email message through its delivery lifecycle.
type EmailStatus string

const (
	StatusQueued     EmailStatus = "queued"     // Created and waiting for a worker
	StatusProcessing EmailStatus = "processing" // A worker has picked it up and marked intent
	StatusSent       EmailStatus = "sent"       // Delivered to the SMTP server, terminal
	StatusFailed     EmailStatus = "failed"     // Delivery or persistence failed, terminal until re-enqueued
)

// IsValid reports whether s is one of the four known statuses.
func (s EmailStatus) IsValid() bool {
	switch s {
	case StatusQueued, StatusProcessing, StatusSent, StatusFailed:
		return true
	}
	return false
}

func (s EmailStatus) String() string {
	return string(s)
}

// EmailMessage is the durable record of one email send attempt and its outcome.
// ID and the payload fields are immutable after creation; Status, ErrorMessage
// and SentAt are owned by the worker's processor once the record exists.
type EmailMessage struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Recipient string    `json:"to_email"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"` // HTML

	Status EmailStatus `json:"status"`
	// ErrorMessage holds the diagnostic from the most recent failed attempt.
	// It is never cleared, so after a successful retry it may still describe
	// an earlier failure.
	ErrorMessage *string `json:"error_message,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	SentAt    *time.Time `json:"sent_at,omitempty"` // Set exactly once, on transition into sent
}

// NewEmailMessage creates a new queued EmailMessage with a fresh ID.
// The queued status is assigned explicitly here, at creation time.
func NewEmailMessage(userID uuid.UUID, recipient, subject, body string) *EmailMessage {
	return &EmailMessage{
		ID:        uuid.New(),
		UserID:    userID,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		Status:    StatusQueued,
		CreatedAt: time.Now().UTC(),
	}
}
