package events

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"masterbook/pkg/kafka"
	"masterbook/pkg/model"
)

type capturePublisher struct {
	msgs []kafka.Message
}

func (c *capturePublisher) Publish(_ context.Context, msg kafka.Message) error {
	c.msgs = append(c.msgs, msg)
	return nil
}

func TestKafkaPublisher_RoundTrip(t *testing.T) {
	capture := &capturePublisher{}
	p := &KafkaPublisher{producer: capture}

	b := &model.Booking{ID: "b1", MasterID: "m1", ClientID: "c1", Status: model.StatusConfirmed, Date: "2025-03-10", Time: "10:00"}
	ctx := WithCorrelationID(context.Background(), "req-1")
	if err := p.Publish(ctx, NewBookingEvent(b, "m1")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if len(capture.msgs) != 1 {
		t.Fatalf("published %d messages", len(capture.msgs))
	}
	msg := capture.msgs[0]
	if msg.Key != "b1" || msg.GetEventType() != TypeConfirmed || msg.GetCorrelationID() != "req-1" {
		t.Errorf("unexpected message metadata key=%q type=%q corr=%q", msg.Key, msg.GetEventType(), msg.GetCorrelationID())
	}

	event, err := Decode(msg)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if event.BookingID != "b1" || event.Status != model.StatusConfirmed {
		t.Errorf("decoded %+v", event)
	}
}

func TestDecode_RejectsIncompleteEvent(t *testing.T) {
	msg, _ := kafka.NewMessage().WithKey("b1").WithValue(map[string]string{"type": ""}).Build()
	_, err := Decode(msg)
	var kerr *kafka.KafkaError
	if !errors.As(err, &kerr) || kafka.ClassifyError(err) != kafka.ErrorTypePermanent {
		t.Errorf("Decode() error = %v, want permanent kafka error", err)
	}
}

func TestRecipients(t *testing.T) {
	tests := []struct {
		name  string
		event BookingEvent
		want  []string
	}{
		{"client requested", BookingEvent{MasterID: "m", ClientID: "c", ActorID: "c"}, []string{"m"}},
		{"provider confirmed", BookingEvent{MasterID: "m", ClientID: "c", ActorID: "m"}, []string{"c"}},
		{"guest booking", BookingEvent{MasterID: "m", ActorID: ""}, []string{"m"}},
		{"system completion", BookingEvent{MasterID: "m", ClientID: "c"}, []string{"m", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.Recipients(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Recipients() = %v, want %v", got, tt.want)
			}
		})
	}
}
