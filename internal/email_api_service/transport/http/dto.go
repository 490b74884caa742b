package http

import (
	"time"

	"github.com/google/uuid"

	"github.com/swiftnotify/golang_services/internal/email_service/domain"
)

// SendEmailRequest is the DTO for POST /emails.
type SendEmailRequest struct {
	UserID  string `json:"user_id" validate:"required,uuid4"`
	ToEmail string `json:"to_email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,max=500"`
	Body    string `json:"body" validate:"required"` // HTML
}

// EmailResponse is the wire representation of an email record.
type EmailResponse struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	ToEmail      string     `json:"to_email"`
	Subject      string     `json:"subject"`
	Status       string     `json:"status"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
}

// StandardResponse is the common envelope for all API responses.
type StandardResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *string     `json:"error,omitempty"`
	Message string      `json:"message"`
}

func toEmailResponse(msg *domain.EmailMessage) EmailResponse {
	return EmailResponse{
		ID:           msg.ID,
		UserID:       msg.UserID,
		ToEmail:      msg.Recipient,
		Subject:      msg.Subject,
		Status:       msg.Status.String(),
		ErrorMessage: msg.ErrorMessage,
		CreatedAt:    msg.CreatedAt,
		SentAt:       msg.SentAt,
	}
}

func toEmailResponses(msgs []*domain.EmailMessage) []EmailResponse {
	out := make([]EmailResponse, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, toEmailResponse(msg))
	}
	return out
}
