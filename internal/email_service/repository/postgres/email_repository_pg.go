package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swiftnotify/golang_services/internal/email_service/domain"
)

// PgEmailRepository is the PostgreSQL implementation of domain.EmailRepository,
// backed by the email_messages table.
type PgEmailRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPgEmailRepository(dbPool *pgxpool.Pool, logger *slog.Logger) *PgEmailRepository {
	return &PgEmailRepository{
		db:     dbPool,
		logger: logger.With("repository", "email_pg"),
	}
}

func (r *PgEmailRepository) Create(ctx context.Context, msg *domain.EmailMessage) error {
	query := `
		INSERT INTO email_messages (
			id, user_id, to_email, subject, body, status, error_message, created_at, sent_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	_, err := r.db.Exec(ctx, query,
		msg.ID,
		msg.UserID,
		msg.Recipient,
		msg.Subject,
		msg.Body,
		msg.Status,
		msg.ErrorMessage,
		msg.CreatedAt,
		msg.SentAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error inserting email message", "error", err, "email_id", msg.ID)
		return fmt.Errorf("failed to insert email message: %w", err)
	}

	r.logger.DebugContext(ctx, "Inserted email message", "email_id", msg.ID, "status", msg.Status)
	return nil
}

func (r *PgEmailRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.EmailMessage, error) {
	query := `
		SELECT id, user_id, to_email, subject, body, status, error_message, created_at, sent_at
		FROM email_messages
		WHERE id = $1
	`

	var msg domain.EmailMessage
	err := r.db.QueryRow(ctx, query, id).Scan(
		&msg.ID,
		&msg.UserID,
		&msg.Recipient,
		&msg.Subject,
		&msg.Body,
		&msg.Status,
		&msg.ErrorMessage,
		&msg.CreatedAt,
		&msg.SentAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error fetching email message", "error", err, "email_id", id)
		return nil, fmt.Errorf("failed to fetch email message %s: %w", id, err)
	}
	return &msg, nil
}

// UpdateStatus performs the guarded status transition. The WHERE clause on the
// expected status makes concurrent workers race safely: only one of them can
// move the record, the others see ErrStaleStatus. error_message and sent_at
// keep their previous value when the corresponding argument is nil.
func (r *PgEmailRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next domain.EmailStatus, errorMessage *string, sentAt *time.Time) error {
	query := `
		UPDATE email_messages
		SET status = $1,
		    error_message = COALESCE($2, error_message),
		    sent_at = COALESCE($3, sent_at)
		WHERE id = $4 AND status = $5
	`

	tag, err := r.db.Exec(ctx, query, next, errorMessage, sentAt, id, expected)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error updating email message status",
			"error", err, "email_id", id, "expected_status", expected, "next_status", next)
		return fmt.Errorf("failed to update status of email message %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStaleStatus
	}

	r.logger.DebugContext(ctx, "Updated email message status",
		"email_id", id, "from", expected, "to", next)
	return nil
}

func (r *PgEmailRepository) List(ctx context.Context, limit, offset int) ([]*domain.EmailMessage, error) {
	query := `
		SELECT id, user_id, to_email, subject, body, status, error_message, created_at, sent_at
		FROM email_messages
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing email messages", "error", err)
		return nil, fmt.Errorf("failed to list email messages: %w", err)
	}
	defer rows.Close()

	var messages []*domain.EmailMessage
	for rows.Next() {
		var msg domain.EmailMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.UserID,
			&msg.Recipient,
			&msg.Subject,
			&msg.Body,
			&msg.Status,
			&msg.ErrorMessage,
			&msg.CreatedAt,
			&msg.SentAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan email message row: %w", err)
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}
