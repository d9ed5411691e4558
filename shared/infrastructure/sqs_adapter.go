package infrastructure

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// SQSSubscriberAdapter owns an SQSEventSubscriber built from environment AWS
// config.
type SQSSubscriberAdapter struct {
	subscriber *SQSEventSubscriber
}

// NewSQSSubscriberAdapter creates a new SQS subscriber adapter
func NewSQSSubscriberAdapter(queueURL string, logger zerolog.Logger, opts ...SQSSubscriberOption) (*SQSSubscriberAdapter, error) {
	cfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS config")
	}

	client := sqs.NewFromConfig(cfg)

	return &SQSSubscriberAdapter{
		subscriber: NewSQSEventSubscriber(client, queueURL, logger, opts...),
	}, nil
}

// Run consumes the queue with the given handler until ctx is cancelled
func (a *SQSSubscriberAdapter) Run(ctx context.Context, handler EventHandler) error {
	return a.subscriber.Run(ctx, handler)
}

// Close closes the subscriber; the SQS client needs no explicit teardown
func (a *SQSSubscriberAdapter) Close() error {
	return nil
}
