package infrastructure

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/cartena/fulfillment-system/shared/events"
	"github.com/cartena/fulfillment-system/shared/models"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	SQSMessageIDKey     = "sqs_message_id"
	SQSReceiptHandleKey = "sqs_receipt_handle"
)

// EventHandler is the consumer-side handler contract
type EventHandler interface {
	HandlerID() string
	Handle(ctx context.Context, event *events.Event) error
}

// SQSEventSubscriber polls an SQS queue and dispatches decoded events to a
// handler. Delivery is at-least-once; handlers are expected to be idempotent.
type SQSEventSubscriber struct {
	client   *sqs.Client
	queueURL string
	logger   zerolog.Logger
	options  sqsSubscriberOptions
}

type sqsSubscriberOptions struct {
	readers             int
	workers             int
	maxNumberOfMessages int32
	waitTimeSeconds     int32
	visibilityTimeout   int32
	sleepAfterError     time.Duration
}

// SQSSubscriberOption overrides subscriber defaults
type SQSSubscriberOption func(*sqsSubscriberOptions)

func WithReaders(readers int) SQSSubscriberOption {
	return func(o *sqsSubscriberOptions) {
		o.readers = readers
	}
}

func WithWorkers(workers int) SQSSubscriberOption {
	return func(o *sqsSubscriberOptions) {
		o.workers = workers
	}
}

func WithVisibilityTimeout(seconds int32) SQSSubscriberOption {
	return func(o *sqsSubscriberOptions) {
		o.visibilityTimeout = seconds
	}
}

// NewSQSEventSubscriber creates a new SQS event subscriber
func NewSQSEventSubscriber(client *sqs.Client, queueURL string, logger zerolog.Logger, opts ...SQSSubscriberOption) *SQSEventSubscriber {
	options := sqsSubscriberOptions{
		readers:             1,
		workers:             10,
		maxNumberOfMessages: 5,
		waitTimeSeconds:     15,
		visibilityTimeout:   30,
		sleepAfterError:     time.Second,
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &SQSEventSubscriber{
		client:   client,
		queueURL: queueURL,
		logger:   logger.With().Str("component", "sqs_subscriber").Logger(),
		options:  options,
	}
}

// Run consumes the queue until ctx is cancelled. Messages that fail handling
// are left on the queue for redelivery after the visibility timeout.
func (s *SQSEventSubscriber) Run(ctx context.Context, handler EventHandler) error {
	messages := make(chan types.Message, s.options.workers)

	gr, ctx := errgroup.WithContext(ctx)

	readers, readerCtx := errgroup.WithContext(ctx)
	for i := 0; i < s.options.readers; i++ {
		readers.Go(func() error {
			return s.readLoop(readerCtx, messages)
		})
	}
	gr.Go(func() error {
		// The channel closes exactly once, after every reader has returned.
		defer close(messages)
		return readers.Wait()
	})

	for i := 0; i < s.options.workers; i++ {
		gr.Go(func() error {
			for msg := range messages {
				s.process(ctx, handler, msg)
			}
			return nil
		})
	}

	return gr.Wait()
}

func (s *SQSEventSubscriber) readLoop(ctx context.Context, out chan<- types.Message) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		result, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:              aws.String(s.queueURL),
			MaxNumberOfMessages:   s.options.maxNumberOfMessages,
			WaitTimeSeconds:       s.options.waitTimeSeconds,
			VisibilityTimeout:     s.options.visibilityTimeout,
			MessageAttributeNames: []string{"All"},
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error().Err(err).Msg("failed to receive messages")
			time.Sleep(s.options.sleepAfterError)
			continue
		}

		for _, msg := range result.Messages {
			select {
			case out <- msg:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (s *SQSEventSubscriber) process(ctx context.Context, handler EventHandler, msg types.Message) {
	event, err := decodeMessage(msg)
	if err != nil {
		s.logger.Error().Err(err).Str("handler", handler.HandlerID()).
			Msg("failed to decode message, dropping")
		// Malformed messages would never succeed; delete so they don't loop.
		s.delete(ctx, msg)
		return
	}

	if err := handler.Handle(ctx, event); err != nil {
		s.logger.Error().Err(err).
			Str("handler", handler.HandlerID()).
			Str("topic", event.Topic.String()).
			Msg("event handler failed, message will be redelivered")
		return
	}

	s.delete(ctx, msg)
}

func (s *SQSEventSubscriber) delete(ctx context.Context, msg types.Message) {
	_, err := s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(s.queueURL),
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to delete message")
	}
}

// snsEnvelope is the wrapper SNS puts around messages delivered to SQS
type snsEnvelope struct {
	Message string `json:"Message"`
}

func decodeMessage(msg types.Message) (*events.Event, error) {
	if msg.Body == nil {
		return nil, errors.New("message has no body")
	}

	body := []byte(*msg.Body)

	// Messages arriving via an SNS subscription carry an envelope
	var envelope snsEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		body = []byte(envelope.Message)
	}

	var message snsMessage
	if err := json.Unmarshal(body, &message); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal sns message")
	}

	event := &events.Event{
		ID:            models.ID(message.ID),
		AggregateID:   models.ID(message.AggregateID),
		Topic:         events.Topic(message.Topic),
		EventType:     message.Topic,
		Data:          message.Payload,
		Metadata:      message.Metadata,
		Timestamp:     message.Timestamp,
		CorrelationID: models.ID(message.CorrelationID),
	}

	if event.Metadata == nil {
		event.Metadata = make(events.Metadata)
	}
	if msg.MessageId != nil {
		event.Metadata.Set(SQSMessageIDKey, *msg.MessageId)
	}
	if msg.ReceiptHandle != nil {
		event.Metadata.Set(SQSReceiptHandleKey, *msg.ReceiptHandle)
	}

	return event, nil
}
