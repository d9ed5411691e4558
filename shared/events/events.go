package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/cartena/fulfillment-system/shared/models"
)

var (
	ErrInvalidTopic    = errors.New("invalid topic")
	ErrInvalidReceiver = errors.New("receiver should be a pointer")
)

// Topic represents an event topic with dot-separated segments and
// wildcard matching ("*" matches one segment, "#" matches any suffix).
type Topic string

func NewTopic(topic string) (Topic, error) {
	if topic == "" {
		return "", ErrInvalidTopic
	}
	return Topic(topic), nil
}

func (t Topic) String() string {
	return string(t)
}

// Matches reports whether the topic matches the given pattern
func (t Topic) Matches(pattern Topic) bool {
	patternParts := strings.Split(pattern.String(), ".")
	topicParts := strings.Split(t.String(), ".")
	return matchPattern(patternParts, topicParts)
}

func matchPattern(patternParts, topicParts []string) bool {
	if len(patternParts) > 0 && patternParts[0] == "#" {
		return true
	}
	if len(patternParts) != len(topicParts) {
		return false
	}
	if len(patternParts) == 0 {
		return true
	}
	if patternParts[0] == "*" || patternParts[0] == topicParts[0] {
		return matchPattern(patternParts[1:], topicParts[1:])
	}
	return false
}

// Metadata represents event metadata
type Metadata map[string]string

func (m Metadata) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m Metadata) Set(key string, value string) {
	m[key] = value
}

func (m Metadata) Clone() Metadata {
	clone := Metadata{}
	for k, v := range m {
		clone[k] = v
	}
	return clone
}

// Event represents a domain event
type Event struct {
	ID            models.ID   `json:"id"`
	AggregateID   models.ID   `json:"aggregate_id"`
	Topic         Topic       `json:"topic"`
	EventType     string      `json:"event_type"`
	Version       string      `json:"version"`
	Data          interface{} `json:"data"`
	Metadata      Metadata    `json:"metadata"`
	Timestamp     time.Time   `json:"timestamp"`
	CorrelationID models.ID   `json:"correlation_id"`
}

// Publisher publishes events
type Publisher interface {
	Publish(ctx context.Context, events ...*Event) error
}

// Subscriber subscribes to events
type Subscriber interface {
	Subscribe(ctx context.Context, eventType string, handler EventHandler) error
}

// EventHandler handles domain events
type EventHandler interface {
	Handle(ctx context.Context, event *Event) error
}

// EventStore appends and retrieves the per-aggregate event stream
type EventStore interface {
	Append(ctx context.Context, aggregateID models.ID, events []*Event) error
	GetEvents(ctx context.Context, aggregateID models.ID) ([]*Event, error)
}

// NewEvent creates a new domain event
func NewEvent(aggregateID models.ID, eventType string, data interface{}) *Event {
	return &Event{
		ID:          models.GenerateUUID(),
		AggregateID: aggregateID,
		Topic:       Topic(eventType),
		EventType:   eventType,
		Version:     "1.0",
		Data:        data,
		Metadata:    make(Metadata),
		Timestamp:   time.Now(),
	}
}

// WithCorrelationID sets correlation ID
func (e *Event) WithCorrelationID(correlationID models.ID) *Event {
	e.CorrelationID = correlationID
	return e
}

// WithMetadata adds metadata
func (e *Event) WithMetadata(key string, value string) *Event {
	if e.Metadata == nil {
		e.Metadata = make(Metadata)
	}
	e.Metadata.Set(key, value)
	return e
}

// MarshalPayload marshals the event payload
func (e *Event) MarshalPayload() (json.RawMessage, error) {
	if b, ok := e.Data.([]byte); ok {
		return b, nil
	}
	if b, ok := e.Data.(json.RawMessage); ok {
		return b, nil
	}
	return json.Marshal(e.Data)
}

// UnmarshalPayload unmarshals the event payload into the given receiver
func (e *Event) UnmarshalPayload(v interface{}) error {
	if b, ok := e.Data.([]byte); ok {
		return json.Unmarshal(b, v)
	}
	if b, ok := e.Data.(json.RawMessage); ok {
		return json.Unmarshal(b, v)
	}
	raw, err := e.MarshalPayload()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// Event type constants for the order-fulfillment flow
const (
	// Order events
	OrderCreatedEvent       = "order.created"
	OrderPaidEvent          = "order.paid"
	OrderCancelledEvent     = "order.cancelled"
	OrderStatusUpdatedEvent = "order.status.updated"

	// Inventory events
	StockAddedEvent     = "stock.added"
	StockReservedEvent  = "stock.reserved"
	StockReleasedEvent  = "stock.released"
	StockCommittedEvent = "stock.committed"

	// Payment events
	PaymentSucceededEvent = "payment.succeeded"
	PaymentFailedEvent    = "payment.failed"
	PaymentRefundedEvent  = "payment.refunded"

	// Shipping events consumed from the delivery collaborator
	ShippingStatusChangedEvent = "shipping.status.changed"
)
