package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const mailListKey = "smartlib:mail"

// Queue is the best-effort channel between request handlers and the
// mailer worker. Enqueue failures are the caller's to log, never to
// surface: the primary state change has already committed.
type Queue interface {
	Enqueue(ctx context.Context, msg Message) error
}

// Sender delivers a single rendered message.
type Sender interface {
	Send(msg Message) error
}

// RedisQueue pushes mail jobs onto a Redis list consumed by Worker.
type RedisQueue struct {
	client *redis.Client
}

func NewRedisQueue(redisURL, password string) (*RedisQueue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if password != "" {
		opts.Password = password
	}
	return &RedisQueue{client: redis.NewClient(opts)}, nil
}

func (q *RedisQueue) Enqueue(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, mailListKey, payload).Err()
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}

// Worker consumes the mail list and hands each job to the sender. A
// failed delivery is logged and dropped; there is no retry.
type Worker struct {
	queue  *RedisQueue
	sender Sender
	logger *slog.Logger
}

func NewWorker(queue *RedisQueue, sender Sender, logger *slog.Logger) *Worker {
	return &Worker{queue: queue, sender: sender, logger: logger}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("mailer worker started")
	for {
		res, err := w.queue.client.BRPop(ctx, 5*time.Second, mailListKey).Result()
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("mailer worker stopped")
				return
			}
			if !errors.Is(err, redis.Nil) {
				w.logger.Error("mail queue pop failed", "error", err)
				time.Sleep(time.Second)
			}
			continue
		}

		// BRPop returns [key, value]
		if len(res) != 2 {
			continue
		}

		var msg Message
		if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
			w.logger.Error("malformed mail job dropped", "error", err)
			continue
		}

		if err := w.sender.Send(msg); err != nil {
			w.logger.Error("mail delivery failed", "to", msg.To, "subject", msg.Subject, "error", err)
			continue
		}
		w.logger.Debug("mail delivered", "to", msg.To, "subject", msg.Subject)
	}
}
