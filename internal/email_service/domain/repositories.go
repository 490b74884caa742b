package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no email message exists for the given ID.
	ErrNotFound = errors.New("email message not found")

	// ErrStaleStatus is returned by UpdateStatus when the record's current
	// status no longer matches the expected one, meaning another worker got
	// there first (or the record vanished).
	ErrStaleStatus = errors.New("email message status changed concurrently")
)

// EmailRepository is the durable store of email messages.
type EmailRepository interface {
	// Create inserts a new email message record.
	Create(ctx context.Context, msg *EmailMessage) error

	// GetByID fetches a message by ID. Returns ErrNotFound when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*EmailMessage, error)

	// UpdateStatus transitions a message from the expected status to the next
	// one as a single conditional write. errorMessage and sentAt are applied
	// only when non-nil; an existing error_message is never cleared.
	// Returns ErrStaleStatus when the guard did not match any row.
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, next EmailStatus, errorMessage *string, sentAt *time.Time) error

	// List returns messages ordered by creation time, newest first.
	List(ctx context.Context, limit, offset int) ([]*EmailMessage, error)
}
