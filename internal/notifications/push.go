package notifications

import (
	"context"
	"fmt"

	"masterbook/pkg/logger"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"
)

// Push is a notification addressed to an FCM topic.
type Push struct {
	Topic string
	Title string
	Body  string
	Data  map[string]string
}

type PushSender interface {
	Send(ctx context.Context, push Push) error
}

type messagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type FCMSender struct {
	client messagingClient
}

func NewFCMSender(ctx context.Context, app *firebase.App) (*FCMSender, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create messaging client: %w", err)
	}
	return &FCMSender{client: client}, nil
}

func (s *FCMSender) Send(ctx context.Context, push Push) error {
	msg := &messaging.Message{
		Topic: push.Topic,
		Notification: &messaging.Notification{
			Title: push.Title,
			Body:  push.Body,
		},
		Data: push.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "bookings",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}

	if _, err := s.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send FCM message to %s: %w", push.Topic, err)
	}
	return nil
}

// isTransient reports whether FCM may accept the same message on a later try.
func isTransient(err error) bool {
	return errorutils.IsUnavailable(err) ||
		errorutils.IsInternal(err) ||
		errorutils.IsResourceExhausted(err) ||
		errorutils.IsDeadlineExceeded(err)
}

// LogSender records pushes instead of delivering them. It backs the notifier
// when push delivery is switched off.
type LogSender struct {
	Log *logger.Logger
}

func (s LogSender) Send(_ context.Context, push Push) error {
	s.Log.Info("Push delivery disabled, dropping push", "topic", push.Topic, "title", push.Title)
	return nil
}
