package domain

import "context"

// Mailer performs a single synchronous delivery attempt over the outbound mail
// transport. Implementations do not retry; the returned error carries the
// transport's failure reason (auth, connection, protocol rejection) for
// diagnostics.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
