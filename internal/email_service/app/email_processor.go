package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/swiftnotify/golang_services/internal/email_service/domain"
)

// EmailProcessor turns an at-least-once queue delivery into an effectively-once
// send: fetch the record, guard against duplicates, mark intent, deliver, and
// write the outcome back. All failure modes end up in the record's status and
// a log line; the only error Process returns is a persistence fault that left
// the outcome unrecorded, and even then the caller is expected to acknowledge
// the queue delivery.
type EmailProcessor struct {
	emailRepo domain.EmailRepository
	mailer    domain.Mailer
	logger    *slog.Logger
}

func NewEmailProcessor(emailRepo domain.EmailRepository, mailer domain.Mailer, logger *slog.Logger) *EmailProcessor {
	return &EmailProcessor{
		emailRepo: emailRepo,
		mailer:    mailer,
		logger:    logger.With("component", "email_processor"),
	}
}

// Process handles a single email job.
func (p *EmailProcessor) Process(ctx context.Context, emailID uuid.UUID) error {
	started := time.Now()

	email, err := p.emailRepo.GetByID(ctx, emailID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// The job referenced a record that was never created or already
			// purged. Not an error for the pipeline.
			p.logger.InfoContext(ctx, "Email not found, skipping job", "email_id", emailID)
			emailsProcessedCounter.WithLabelValues("not_found").Inc()
			return nil
		}
		p.logger.ErrorContext(ctx, "Failed to fetch email record", "error", err, "email_id", emailID)
		emailsProcessedCounter.WithLabelValues("error_fetch").Inc()
		return fmt.Errorf("fetching email %s: %w", emailID, err)
	}

	if email.Status == domain.StatusSent {
		// Idempotence guard: the broker delivers at least once, e.g. after a
		// crash between send and ack. The record is the source of truth.
		p.logger.InfoContext(ctx, "Email already sent, skipping job", "email_id", emailID)
		emailsProcessedCounter.WithLabelValues("already_sent").Inc()
		return nil
	}

	// Mark intent before attempting delivery so a crash mid-send is observable.
	// Guarded by the status we just observed: if another worker moved the
	// record in the meantime, it owns this job and we stand down.
	if err := p.emailRepo.UpdateStatus(ctx, emailID, email.Status, domain.StatusProcessing, nil, nil); err != nil {
		if errors.Is(err, domain.ErrStaleStatus) {
			p.logger.InfoContext(ctx, "Email claimed by another worker, skipping job",
				"email_id", emailID, "observed_status", email.Status)
			emailsProcessedCounter.WithLabelValues("claimed_elsewhere").Inc()
			return nil
		}
		p.logger.ErrorContext(ctx, "Failed to mark email as processing", "error", err, "email_id", emailID)
		emailsProcessedCounter.WithLabelValues("error_persist").Inc()
		return fmt.Errorf("marking email %s as processing: %w", emailID, err)
	}

	p.logger.InfoContext(ctx, "Processing email", "email_id", emailID, "recipient", email.Recipient)

	if sendErr := p.mailer.Send(ctx, email.Recipient, email.Subject, email.Body); sendErr != nil {
		p.logger.ErrorContext(ctx, "Email delivery failed",
			"error", sendErr, "email_id", emailID, "recipient", email.Recipient)
		return p.markFailed(ctx, emailID, sendErr)
	}

	sentAt := time.Now().UTC()
	if err := p.emailRepo.UpdateStatus(ctx, emailID, domain.StatusProcessing, domain.StatusSent, nil, &sentAt); err != nil {
		// The email left the building but the record does not say so. Record
		// the fault; reconciliation is an external concern.
		p.logger.ErrorContext(ctx, "Email sent but status write-back failed",
			"error", err, "email_id", emailID)
		return p.markFailed(ctx, emailID, fmt.Errorf("recording sent status: %w", err))
	}

	emailsProcessedCounter.WithLabelValues("sent").Inc()
	emailProcessingDuration.Observe(time.Since(started).Seconds())
	p.logger.InfoContext(ctx, "Email sent", "email_id", emailID, "recipient", email.Recipient)
	return nil
}

// markFailed records the failure outcome with a human-readable diagnostic.
// If that persistence itself is unavailable, the fault is reported to the
// caller rather than silently swallowed.
func (p *EmailProcessor) markFailed(ctx context.Context, emailID uuid.UUID, cause error) error {
	errMsg := cause.Error()
	if err := p.emailRepo.UpdateStatus(ctx, emailID, domain.StatusProcessing, domain.StatusFailed, &errMsg, nil); err != nil {
		p.logger.ErrorContext(ctx, "Failed to mark email as failed",
			"error", err, "email_id", emailID, "cause", errMsg)
		emailsProcessedCounter.WithLabelValues("error_persist").Inc()
		return fmt.Errorf("marking email %s as failed after %q: %w", emailID, errMsg, err)
	}
	emailsProcessedCounter.WithLabelValues("failed").Inc()
	return nil
}
