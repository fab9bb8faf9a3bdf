package notify

import (
	"context"
	"time"
)

// MemoryQueue is a queueClient backed by an in-memory buffered channel. Used
// in local runs and tests where SQS is not available. A payload is gone once
// received and Delete is a no-op, so a consumer that cannot finish a job must
// Send it back to keep it alive.
type MemoryQueue struct {
	ch chan queuePayload
}

// NewMemoryQueue creates a MemoryQueue with the provided buffer capacity.
func NewMemoryQueue(buffer int) *MemoryQueue {
	if buffer <= 0 {
		buffer = 128
	}
	return &MemoryQueue{ch: make(chan queuePayload, buffer)}
}

// Send enqueues a payload or blocks until ctx is done.
func (q *MemoryQueue) Send(ctx context.Context, payload queuePayload) error {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case q.ch <- payload.withID():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive blocks until a payload is available, ctx is done, or waitSeconds
// elapses.
func (q *MemoryQueue) Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if maxMessages <= 0 {
		maxMessages = 1
	}

	var timer *time.Timer
	if waitSeconds > 0 {
		timer = time.NewTimer(time.Duration(waitSeconds) * time.Second)
		defer timer.Stop()
	}

	if timer == nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case payload := <-q.ch:
			return q.collect(ctx, payload, maxMessages), nil
		}
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, nil
	case payload := <-q.ch:
		return q.collect(ctx, payload, maxMessages), nil
	}
}

// Delete is a no-op; receiving already removed the payload.
func (q *MemoryQueue) Delete(_ context.Context, _ string) error {
	return nil
}

func (q *MemoryQueue) collect(ctx context.Context, first queuePayload, max int) []queueMessage {
	messages := make([]queueMessage, 0, max)
	messages = append(messages, asMessage(first))

	for len(messages) < max {
		select {
		case <-ctx.Done():
			return messages
		case payload := <-q.ch:
			messages = append(messages, asMessage(payload))
		default:
			return messages
		}
	}
	return messages
}

func asMessage(payload queuePayload) queueMessage {
	return queueMessage{ID: payload.ID, Payload: payload}
}
