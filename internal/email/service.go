package email

import (
	"context"
)

// Sender performs a single, best-effort transactional send. One synchronous
// attempt per call; no queue, no retry.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}
