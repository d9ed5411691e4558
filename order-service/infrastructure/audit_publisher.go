package infrastructure

import (
	"context"

	"github.com/cartena/fulfillment-system/shared/events"
)

var _ events.Publisher = (*AuditPublisher)(nil)

// AuditPublisher appends every event to the durable event stream before
// handing it to the outbound publisher. The stream is the audit trail of
// order lifecycle changes; an append failure blocks the publish so the trail
// never lags the broadcast.
type AuditPublisher struct {
	store events.EventStore
	next  events.Publisher
}

// NewAuditPublisher creates a new AuditPublisher
func NewAuditPublisher(store events.EventStore, next events.Publisher) *AuditPublisher {
	return &AuditPublisher{
		store: store,
		next:  next,
	}
}

// Publish appends the events to the stream, then publishes them
func (p *AuditPublisher) Publish(ctx context.Context, evts ...*events.Event) error {
	byAggregate := make(map[string][]*events.Event)
	for _, event := range evts {
		key := event.AggregateID.String()
		byAggregate[key] = append(byAggregate[key], event)
	}

	for _, group := range byAggregate {
		if err := p.store.Append(ctx, group[0].AggregateID, group); err != nil {
			return err
		}
	}

	return p.next.Publish(ctx, evts...)
}
