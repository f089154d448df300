package mail

import "context"

// Mailer dispatches the two transactional emails the platform sends.
// A dispatch failure must surface synchronously to the caller so the
// originating request can report a server error.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, code string) error
	SendPasswordResetEmail(ctx context.Context, to, code string) error
}

// Job kinds carried on the email queue.
const (
	JobKindVerification  = "verification"
	JobKindPasswordReset = "password-reset"
)

// Job is the queued form of an email dispatch, published by the API
// server and consumed by the mail-worker command.
type Job struct {
	Kind string `json:"kind"`
	To   string `json:"to"`
	Code string `json:"code"`
}
