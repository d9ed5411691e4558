package infrastructure

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/cartena/fulfillment-system/shared/events"
	"github.com/pkg/errors"
)

// SNSPublisherAdapter wires an SNSEventPublisher behind the events.Publisher
// interface, loading AWS config from the environment (works with LocalStack
// when AWS_ENDPOINT_URL is set).
type SNSPublisherAdapter struct {
	publisher *SNSEventPublisher
}

// NewSNSPublisherAdapter creates a new SNS publisher adapter
func NewSNSPublisherAdapter(topicArn string) (*SNSPublisherAdapter, error) {
	cfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS config")
	}

	client := sns.NewFromConfig(cfg)

	return &SNSPublisherAdapter{
		publisher: NewSNSEventPublisher(client, topicArn),
	}, nil
}

// Publish implements events.Publisher
func (p *SNSPublisherAdapter) Publish(ctx context.Context, evts ...*events.Event) error {
	return p.publisher.Publish(ctx, evts...)
}

// Close closes the publisher; the SNS client needs no explicit teardown
func (p *SNSPublisherAdapter) Close() error {
	return nil
}
