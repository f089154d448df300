package mail

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/inkpress/apiserver/config"
	"github.com/inkpress/apiserver/internal/mq"
)

// QueueMailer publishes email jobs to a message broker instead of
// delivering them directly. The mail-worker command consumes the queue
// and delivers over SMTP. A publish failure surfaces to the caller
// like a direct send failure would.
type QueueMailer struct {
	queue   *mq.MQ
	channel string
}

// NewQueueMailer constructs a QueueMailer publishing to the named channel.
func NewQueueMailer(queue *mq.MQ, channel string) *QueueMailer {
	return &QueueMailer{queue: queue, channel: channel}
}

// SendVerificationEmail enqueues a verification email job.
func (m *QueueMailer) SendVerificationEmail(ctx context.Context, to, code string) error {
	return m.publish(ctx, Job{Kind: JobKindVerification, To: to, Code: code})
}

// SendPasswordResetEmail enqueues a password reset email job.
func (m *QueueMailer) SendPasswordResetEmail(ctx context.Context, to, code string) error {
	return m.publish(ctx, Job{Kind: JobKindPasswordReset, To: to, Code: code})
}

func (m *QueueMailer) publish(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	_, err = m.queue.Publish(ctx, m.channel, data, map[string]string{"kind": job.Kind})
	return err
}

// NewQueueBackend constructs the configured broker backend for the
// email queue.
func NewQueueBackend(ctx context.Context, cfg config.Config) (mq.Backend, error) {
	switch cfg.Mail.Queue {
	case "rabbitmq":
		return mq.NewRabbitMQClient(cfg.RabbitMQ)
	case "pubsub":
		return mq.NewPubSubClient(ctx, cfg.PubSub)
	default:
		return nil, fmt.Errorf("unknown mail queue backend: %q", cfg.Mail.Queue)
	}
}
