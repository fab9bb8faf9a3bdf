package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SQSQueue is a queueClient backed by an AWS SQS queue. Payloads travel as
// JSON; the codec lives here so callers only ever see queuePayload values.
type SQSQueue struct {
	client   *sqs.Client
	queueURL string
}

// NewSQSQueue creates an SQSQueue. Panics if client is nil or queueURL is
// empty so a misconfigured deploy fails at startup.
func NewSQSQueue(client *sqs.Client, queueURL string) *SQSQueue {
	if client == nil {
		panic("notify: sqs client is required")
	}
	if queueURL == "" {
		panic("notify: sqs queue URL is required")
	}
	return &SQSQueue{client: client, queueURL: queueURL}
}

// Send marshals the payload and publishes it to the queue.
func (q *SQSQueue) Send(ctx context.Context, payload queuePayload) error {
	body, err := json.Marshal(payload.withID())
	if err != nil {
		return fmt.Errorf("notify: failed to encode payload: %w", err)
	}
	_, err = q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("notify: failed to send SQS message: %w", err)
	}
	return nil
}

// Receive long-polls the queue for up to maxMessages messages. A body that
// does not decode comes back with Malformed set so the worker can drop it
// instead of looping on it forever.
func (q *SQSQueue) Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error) {
	if maxMessages <= 0 {
		maxMessages = 1
	}
	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.queueURL),
		MaxNumberOfMessages: int32(maxMessages),
		WaitTimeSeconds:     int32(waitSeconds),
	})
	if err != nil {
		return nil, fmt.Errorf("notify: failed to receive SQS messages: %w", err)
	}

	messages := make([]queueMessage, 0, len(out.Messages))
	for _, raw := range out.Messages {
		msg := queueMessage{
			ID:            aws.ToString(raw.MessageId),
			ReceiptHandle: aws.ToString(raw.ReceiptHandle),
		}
		if err := json.Unmarshal([]byte(aws.ToString(raw.Body)), &msg.Payload); err != nil {
			msg.Malformed = true
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Delete removes a received message from the queue.
func (q *SQSQueue) Delete(ctx context.Context, receiptHandle string) error {
	if receiptHandle == "" {
		return nil
	}
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("notify: failed to delete SQS message: %w", err)
	}
	return nil
}
