package events

import (
	"context"
	"fmt"
	"time"

	"masterbook/pkg/kafka"
	"masterbook/pkg/model"
)

const (
	TypeRequested = "booking.requested"
	TypeConfirmed = "booking.confirmed"
	TypeDeclined  = "booking.declined"
	TypeCanceled  = "booking.canceled"
	TypeCompleted = "booking.completed"

	SchemaVersion = "1"
	Source        = "masterbook-api"
)

// BookingEvent is the payload published on every booking state change.
type BookingEvent struct {
	Type       string              `json:"type"`
	BookingID  string              `json:"bookingId"`
	MasterID   string              `json:"masterId"`
	ClientID   string              `json:"clientId,omitempty"`
	ActorID    string              `json:"actorId,omitempty"`
	Status     model.BookingStatus `json:"status"`
	Date       string              `json:"date"`
	Time       string              `json:"time"`
	OccurredAt time.Time           `json:"occurredAt"`
}

// Recipients are the participants to notify: everyone involved except the actor.
func (e BookingEvent) Recipients() []string {
	var out []string
	for _, uid := range []string{e.MasterID, e.ClientID} {
		if uid != "" && uid != e.ActorID {
			out = append(out, uid)
		}
	}
	return out
}

func TypeFor(status model.BookingStatus) string {
	switch status {
	case model.StatusConfirmed:
		return TypeConfirmed
	case model.StatusDeclined:
		return TypeDeclined
	case model.StatusCanceled:
		return TypeCanceled
	case model.StatusCompleted:
		return TypeCompleted
	default:
		return TypeRequested
	}
}

func NewBookingEvent(b *model.Booking, actorID string) BookingEvent {
	return BookingEvent{
		Type:       TypeFor(b.Status),
		BookingID:  b.ID,
		MasterID:   b.MasterID,
		ClientID:   b.ClientID,
		ActorID:    actorID,
		Status:     b.Status,
		Date:       b.Date,
		Time:       b.Time,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event BookingEvent) error
}

// NopPublisher drops events. It is used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, BookingEvent) error { return nil }

type messagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type KafkaPublisher struct {
	producer messagePublisher
}

func NewKafkaPublisher(producer *kafka.Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event BookingEvent) error {
	msg, err := kafka.NewMessage().
		WithKey(event.BookingID).
		WithValue(event).
		WithEventType(event.Type).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		WithCorrelationID(CorrelationID(ctx)).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build booking event: %w", err)
	}
	return p.producer.Publish(ctx, msg)
}

type correlationKey struct{}

// WithCorrelationID tags events published under ctx with id, usually the
// HTTP request id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// Decode reads a BookingEvent from a consumed message.
func Decode(msg kafka.Message) (BookingEvent, error) {
	var event BookingEvent
	if err := msg.DecodeValue(&event); err != nil {
		return BookingEvent{}, err
	}
	if event.BookingID == "" || event.Type == "" {
		return BookingEvent{}, kafka.NewPermanentError("booking event is missing id or type", nil)
	}
	return event, nil
}
