package infrastructure

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/cartena/fulfillment-system/shared/events"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type nopHandler struct{}

func (nopHandler) HandlerID() string { return "test.nop" }

func (nopHandler) Handle(ctx context.Context, event *events.Event) error { return nil }

// Several readers share one message channel; shutdown must close it exactly
// once after every reader has returned.
func TestSQSEventSubscriber_Run_MultipleReadersShutDownCleanly(t *testing.T) {
	client := sqs.New(sqs.Options{
		Region:       "us-east-1",
		Credentials:  aws.AnonymousCredentials{},
		BaseEndpoint: aws.String("http://127.0.0.1:1"),
	})

	subscriber := NewSQSEventSubscriber(client, "http://127.0.0.1:1/queue", zerolog.Nop(),
		WithReaders(3), WithWorkers(2))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := subscriber.Run(ctx, nopHandler{})
	require.ErrorIs(t, err, context.Canceled)
}
