package notify

import (
	"context"
	"log"
)

// Sink delivers a confirmation code to an email address. Delivery is
// best-effort: callers log failures and never roll back code issuance on them.
type Sink interface {
	Send(ctx context.Context, email string, code int) error
}

// LogSink writes codes to the process log. Used when no broker is configured,
// and handy in development.
type LogSink struct{}

func (LogSink) Send(_ context.Context, email string, code int) error {
	log.Printf("[INFO] notify: confirmation_code=%d email=%s", code, email)
	return nil
}
