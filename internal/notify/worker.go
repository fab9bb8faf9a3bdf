package notify

import (
	"context"
	"sync"
	"time"

	"github.com/willowtherapy/booking-platform/internal/observability/metrics"
	"github.com/willowtherapy/booking-platform/pkg/logging"
)

type notificationWriter interface {
	Insert(ctx context.Context, n *Notification) error
}

// Worker drains the notification queue: each job becomes a persisted in-app
// notification and, when the recipient has an email address, an email.
type Worker struct {
	queue       queueClient
	store       notificationWriter
	email       EmailSender
	metrics     *metrics.BookingMetrics
	logger      *logging.Logger
	batchSize   int
	waitSeconds int

	wg sync.WaitGroup
}

// WorkerOption adjusts polling behavior.
type WorkerOption func(*Worker)

func WithBatchSize(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

func WithWaitSeconds(n int) WorkerOption {
	return func(w *Worker) {
		if n >= 0 {
			w.waitSeconds = n
		}
	}
}

// NewWorker wires a notification worker. email, m may be nil.
func NewWorker(queue queueClient, store notificationWriter, email EmailSender, m *metrics.BookingMetrics, logger *logging.Logger, opts ...WorkerOption) *Worker {
	if queue == nil {
		panic("notify: queue required")
	}
	if store == nil {
		panic("notify: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	w := &Worker{
		queue:       queue,
		store:       store,
		email:       email,
		metrics:     m,
		logger:      logger,
		batchSize:   10,
		waitSeconds: 5,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start launches the polling loop. It returns immediately; cancel ctx to
// stop, then Wait for in-flight work to finish.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
}

// Wait blocks until the polling loop has exited.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context) {
	w.logger.Info("notification worker started")
	for {
		if ctx.Err() != nil {
			w.logger.Info("notification worker stopped")
			return
		}

		messages, err := w.queue.Receive(ctx, w.batchSize, w.waitSeconds)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("notification worker stopped")
				return
			}
			w.logger.Error("notification receive failed", "error", err)
			time.Sleep(time.Second)
			continue
		}

		for _, msg := range messages {
			w.process(ctx, msg)
		}
	}
}

func (w *Worker) process(ctx context.Context, msg queueMessage) {
	if msg.Malformed {
		w.logger.Error("dropping malformed notification job", "message_id", msg.ID)
		_ = w.queue.Delete(ctx, msg.ReceiptHandle)
		return
	}
	payload := msg.Payload

	n := &Notification{
		ID:            payload.ID,
		RecipientID:   payload.RecipientID,
		Kind:          payload.Kind,
		Title:         payload.Title,
		Message:       payload.Message,
		AppointmentID: payload.AppointmentID,
	}
	if err := w.store.Insert(ctx, n); err != nil {
		w.logger.Error("notification persist failed", "error", err, "message_id", msg.ID)
		w.metrics.ObserveNotification("inapp", "failed")
		w.requeue(ctx, msg)
		return
	}
	w.metrics.ObserveNotification("inapp", "stored")

	if w.email != nil && payload.RecipientEmail != "" {
		err := w.email.Send(ctx, EmailMessage{
			To:      payload.RecipientEmail,
			ToName:  payload.RecipientName,
			Subject: payload.Title,
			Body:    payload.Message,
		})
		if err != nil {
			w.logger.Error("notification email failed", "error", err, "recipient_id", payload.RecipientID)
			w.metrics.ObserveNotification("email", "failed")
		} else {
			w.metrics.ObserveNotification("email", "sent")
		}
	}

	if err := w.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
		w.logger.Error("notification ack failed", "error", err, "message_id", msg.ID)
	}
}

// requeue puts a job back on the queue after a transient failure so delivery
// retries on any queue implementation. The payload keeps its ID, so a retry
// that races an earlier success still writes the same notification row. If
// the re-send itself fails the original message is left unacked and the
// queue's own redelivery applies.
func (w *Worker) requeue(ctx context.Context, msg queueMessage) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(time.Second):
	}
	if err := w.queue.Send(ctx, msg.Payload); err != nil {
		w.logger.Error("notification requeue failed", "error", err, "message_id", msg.ID)
		return
	}
	_ = w.queue.Delete(ctx, msg.ReceiptHandle)
}
