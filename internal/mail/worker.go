package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/inkpress/apiserver/internal/mq"
)

// RunWorker consumes email jobs from the named channel and delivers
// them through the sender. It blocks until the context is cancelled or
// the subscription fails. A malformed or unknown job is dropped (acked)
// so it cannot poison the queue; a delivery failure is nacked for retry.
func RunWorker(ctx context.Context, queue *mq.MQ, channel string, sender Mailer) error {
	return queue.Subscribe(ctx, channel, func(ctx context.Context, msg mq.Message) error {
		var job Job
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			fmt.Fprintf(os.Stderr, "mail worker: dropping malformed job %s\n", msg.ID)
			return nil
		}

		switch job.Kind {
		case JobKindVerification:
			return sender.SendVerificationEmail(ctx, job.To, job.Code)
		case JobKindPasswordReset:
			return sender.SendPasswordResetEmail(ctx, job.To, job.Code)
		default:
			fmt.Fprintf(os.Stderr, "mail worker: dropping job %s with unknown kind %q\n", msg.ID, job.Kind)
			return nil
		}
	})
}
