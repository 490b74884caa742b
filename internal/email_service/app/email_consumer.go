package app

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/swiftnotify/golang_services/internal/email_service/domain"
)

// fetchInterval bounds how long a single fetch blocks, so cancellation is
// noticed promptly between deliveries.
const fetchInterval = 5 * time.Second

// JobProcessor handles one email job identified by its record ID.
type JobProcessor interface {
	Process(ctx context.Context, emailID uuid.UUID) error
}

// JobSubscription is the subset of *nats.Subscription the consumer needs.
type JobSubscription interface {
	Fetch(batch int, opts ...nats.PullOpt) ([]*nats.Msg, error)
}

// EmailConsumer pulls email jobs from the durable queue one at a time and
// hands them to the processor. Every delivery is acknowledged exactly once,
// whatever the processing outcome: a malformed payload must never block the
// queue, and effectively-once sending is the processor's job, not redelivery's.
type EmailConsumer struct {
	processor JobProcessor
	logger    *slog.Logger
}

func NewEmailConsumer(processor JobProcessor, logger *slog.Logger) *EmailConsumer {
	return &EmailConsumer{
		processor: processor,
		logger:    logger.With("component", "email_consumer"),
	}
}

// Run is the blocking consumer loop. It stops fetching when ctx is cancelled;
// a job already handed to the processor runs to completion first.
func (c *EmailConsumer) Run(ctx context.Context, sub JobSubscription) error {
	c.logger.InfoContext(ctx, "Email consumer started")
	for {
		if err := ctx.Err(); err != nil {
			c.logger.InfoContext(ctx, "Email consumer stopping", "reason", err)
			return err
		}

		msgs, err := sub.Fetch(1, nats.MaxWait(fetchInterval))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
				continue // No work right now.
			}
			if errors.Is(err, context.Canceled) {
				continue // Loop header returns ctx.Err.
			}
			c.logger.ErrorContext(ctx, "Failed to fetch from queue", "error", err)
			emailJobsReceivedCounter.WithLabelValues("fetch_error").Inc()
			continue
		}

		for _, msg := range msgs {
			c.HandleDelivery(ctx, msg.Data, msg.Ack)
		}
	}
}

// HandleDelivery processes one raw queue delivery and acknowledges it
// unconditionally afterwards. ack removes the message from the broker
// permanently.
func (c *EmailConsumer) HandleDelivery(ctx context.Context, data []byte, ack func(opts ...nats.AckOpt) error) {
	var job domain.EmailJobRef
	if err := json.Unmarshal(data, &job); err != nil {
		c.logger.WarnContext(ctx, "Dropping malformed email job payload", "error", err, "data", string(data))
		emailJobsReceivedCounter.WithLabelValues("malformed").Inc()
		c.acknowledge(ctx, ack)
		return
	}

	emailID, err := uuid.Parse(job.EmailID)
	if err != nil {
		c.logger.WarnContext(ctx, "Dropping email job with invalid email_id",
			"error", err, "email_id", job.EmailID)
		emailJobsReceivedCounter.WithLabelValues("malformed").Inc()
		c.acknowledge(ctx, ack)
		return
	}

	emailJobsReceivedCounter.WithLabelValues("accepted").Inc()
	c.logger.InfoContext(ctx, "Received email job", "email_id", emailID)

	if err := c.processor.Process(ctx, emailID); err != nil {
		// Already logged and recorded by the processor where possible; the
		// delivery is still acknowledged to keep the queue moving.
		c.logger.ErrorContext(ctx, "Email job processing failed", "error", err, "email_id", emailID)
	}

	c.acknowledge(ctx, ack)
}

func (c *EmailConsumer) acknowledge(ctx context.Context, ack func(opts ...nats.AckOpt) error) {
	if err := ack(); err != nil {
		c.logger.ErrorContext(ctx, "Failed to acknowledge queue delivery", "error", err)
	}
}
