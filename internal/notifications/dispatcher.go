package notifications

import (
	"context"
	"errors"

	"masterbook/internal/bookings/events"
	"masterbook/pkg/kafka"
	"masterbook/pkg/logger"
)

const TopicPrefix = "user_"

// Dispatcher turns booking events into pushes for every participant other
// than the one who caused the change.
type Dispatcher struct {
	sender PushSender
	log    *logger.Logger
}

func NewDispatcher(sender PushSender, log *logger.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, log: log}
}

// Handle is a kafka.MessageHandler. A failed send to any recipient is
// reported as transient when FCM says so, so the consumer retries the event.
func (d *Dispatcher) Handle(ctx context.Context, msg kafka.Message) error {
	event, err := events.Decode(msg)
	if err != nil {
		d.log.Warn("Dropping undecodable booking event", "event_id", msg.GetEventID(), "error", err)
		return err
	}

	var errs []error
	transient := false
	for _, uid := range event.Recipients() {
		push := Compose(event, uid)
		if err := d.sender.Send(ctx, push); err != nil {
			d.log.Warn("Failed to send push",
				"booking_id", event.BookingID,
				"event_type", event.Type,
				"recipient", uid,
				"error", err,
			)
			errs = append(errs, err)
			transient = transient || isTransient(err) || kafka.ClassifyError(err) == kafka.ErrorTypeTransient
			continue
		}
		d.log.Debug("Push sent", "booking_id", event.BookingID, "event_type", event.Type, "topic", push.Topic)
	}

	if len(errs) == 0 {
		return nil
	}
	joined := errors.Join(errs...)
	if transient {
		return kafka.NewTransientError("push delivery failed", joined)
	}
	return kafka.NewPermanentError("push delivery failed", joined)
}

// Compose renders the push a recipient gets for event.
func Compose(event events.BookingEvent, recipient string) Push {
	title, body := copyFor(event, recipient == event.MasterID)
	return Push{
		Topic: TopicPrefix + recipient,
		Title: title,
		Body:  body,
		Data: map[string]string{
			"type":      event.Type,
			"bookingId": event.BookingID,
			"status":    string(event.Status),
			"date":      event.Date,
			"time":      event.Time,
		},
	}
}

func copyFor(event events.BookingEvent, toProvider bool) (string, string) {
	when := event.Date + " " + event.Time
	switch event.Type {
	case events.TypeRequested:
		return "New booking request", "You have a new request for " + when
	case events.TypeConfirmed:
		return "Booking confirmed", "Your booking for " + when + " is confirmed"
	case events.TypeDeclined:
		return "Booking declined", "Your request for " + when + " was declined"
	case events.TypeCanceled:
		if toProvider {
			return "Booking canceled", "The client canceled the booking for " + when
		}
		return "Booking canceled", "Your booking for " + when + " was canceled"
	case events.TypeCompleted:
		return "Booking completed", "Thanks for visiting on " + when
	default:
		return "Booking updated", "Your booking for " + when + " was updated"
	}
}
