package notification

import (
	"context"
	"fmt"

	"medislot/models"

	"firebase.google.com/go/v4/messaging"
)

var pushTitles = map[string]string{
	models.EventNewAppointment:    "New appointment request",
	models.EventPaymentReceived:   "Payment received",
	models.EventAppointmentStatus: "Appointment updated",
}

// FCMSender is the subset of the Firebase messaging client the sink uses.
type FCMSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMSink pushes events to the recipient's devices through an FCM topic per account.
type FCMSink struct {
	client FCMSender
}

func NewFCMSink(client FCMSender) *FCMSink {
	return &FCMSink{client: client}
}

func (s *FCMSink) Name() string { return "fcm" }

func (s *FCMSink) Deliver(ctx context.Context, n models.Notification) error {
	if _, err := s.client.Send(ctx, BuildPushMessage(n)); err != nil {
		return fmt.Errorf("failed to send FCM message: %w", err)
	}
	return nil
}

// PushTopic is the FCM topic a user's devices subscribe to.
func PushTopic(userID string) string {
	return "user_" + userID
}

// BuildPushMessage flattens n into an FCM message. FCM data values must be strings.
func BuildPushMessage(n models.Notification) *messaging.Message {
	data := map[string]string{"type": n.Type, "eventId": n.ID}
	for k, v := range n.Data {
		data[k] = fmt.Sprint(v)
	}

	title := pushTitles[n.Type]
	if title == "" {
		title = "MediSlot"
	}
	body, _ := n.Data["message"].(string)

	return &messaging.Message{
		Topic: PushTopic(n.UserID),
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}
}
