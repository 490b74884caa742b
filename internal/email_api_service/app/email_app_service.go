package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/swiftnotify/golang_services/internal/email_service/domain"
)

// JobPublisher publishes job references to the email queue.
type JobPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// EmailAppService owns the enqueue side of the pipeline: create the durable
// record (the source of truth), then hand an ID-only job reference to the
// queue. The worker owns everything after that.
type EmailAppService struct {
	emailRepo  domain.EmailRepository
	publisher  JobPublisher
	jobSubject string
	logger     *slog.Logger
}

func NewEmailAppService(emailRepo domain.EmailRepository, publisher JobPublisher, jobSubject string, logger *slog.Logger) *EmailAppService {
	return &EmailAppService{
		emailRepo:  emailRepo,
		publisher:  publisher,
		jobSubject: jobSubject,
		logger:     logger.With("service", "email_app"),
	}
}

// EnqueueEmail creates a queued email record and publishes its job reference.
// If publishing fails the record stays in queued with no job on the wire;
// re-enqueueing is up to the caller.
func (s *EmailAppService) EnqueueEmail(ctx context.Context, userID uuid.UUID, recipient, subject, body string) (*domain.EmailMessage, error) {
	msg := domain.NewEmailMessage(userID, recipient, subject, body)

	if err := s.emailRepo.Create(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to create email record", "error", err, "recipient", recipient)
		emailsEnqueuedCounter.WithLabelValues("error_db").Inc()
		return nil, fmt.Errorf("creating email record: %w", err)
	}

	payload, err := json.Marshal(domain.EmailJobRef{EmailID: msg.ID.String()})
	if err != nil {
		emailsEnqueuedCounter.WithLabelValues("error_encode").Inc()
		return nil, fmt.Errorf("encoding job reference for email %s: %w", msg.ID, err)
	}

	if err := s.publisher.Publish(ctx, s.jobSubject, payload); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish email job",
			"error", err, "email_id", msg.ID, "subject", s.jobSubject)
		emailsEnqueuedCounter.WithLabelValues("error_publish").Inc()
		return nil, fmt.Errorf("publishing job for email %s: %w", msg.ID, err)
	}

	emailsEnqueuedCounter.WithLabelValues("accepted").Inc()
	s.logger.InfoContext(ctx, "Email enqueued", "email_id", msg.ID, "recipient", recipient)
	return msg, nil
}

// GetEmail fetches a single email record. Returns domain.ErrNotFound when absent.
func (s *EmailAppService) GetEmail(ctx context.Context, id uuid.UUID) (*domain.EmailMessage, error) {
	return s.emailRepo.GetByID(ctx, id)
}

// ListEmails returns a page of email records, newest first. page is 1-based.
func (s *EmailAppService) ListEmails(ctx context.Context, page, limit int) ([]*domain.EmailMessage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return s.emailRepo.List(ctx, limit, (page-1)*limit)
}
