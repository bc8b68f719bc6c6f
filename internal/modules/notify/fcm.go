// README: Push notifications to drivers over Firebase Cloud Messaging.
package notify

import (
	"context"
	"fmt"
	"strconv"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/sirupsen/logrus"

	"cabsys/internal/modules/booking"
	"cabsys/internal/modules/fleet"
	"cabsys/internal/types"
)

// Sender is satisfied by *messaging.Client.
type Sender interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
}

type DriverLookup interface {
	GetDriver(ctx context.Context, id types.ID) (*fleet.Driver, error)
}

type FCMNotifier struct {
	sender  Sender
	drivers DriverLookup
	log     logrus.FieldLogger
}

func NewMessagingClient(ctx context.Context, app *firebase.App) (*messaging.Client, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialising firebase messaging client: %w", err)
	}
	return client, nil
}

func NewFCMNotifier(sender Sender, drivers DriverLookup, log logrus.FieldLogger) *FCMNotifier {
	return &FCMNotifier{sender: sender, drivers: drivers, log: log}
}

// NotifyAssigned sends the new booking to the assigned driver's device.
// Drivers without a registered device token are skipped.
func (n *FCMNotifier) NotifyAssigned(ctx context.Context, b *booking.Booking) error {
	d, err := n.drivers.GetDriver(ctx, b.Assigned.DriverID)
	if err != nil {
		return fmt.Errorf("load driver %s: %w", b.Assigned.DriverID, err)
	}
	if d.DeviceToken == "" {
		n.log.WithField("driver_id", d.ID).Debug("driver has no device token, skipping push")
		return nil
	}

	messageID, err := n.sender.Send(ctx, buildAssignmentMessage(d.DeviceToken, b))
	if err != nil {
		return fmt.Errorf("sending FCM for booking %s: %w", b.ID, err)
	}
	n.log.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"driver_id":  d.ID,
		"message_id": messageID,
	}).Info("FCM sent")
	return nil
}

func buildAssignmentMessage(token string, b *booking.Booking) *messaging.Message {
	data := map[string]string{
		"type":        "booking_assigned",
		"booking_id":  string(b.ID),
		"pickup":      b.Pickup.Address,
		"drop":        b.Drop.Address,
		"distance_km": strconv.FormatFloat(b.DistanceKm, 'f', 2, 64),
		"fare":        strconv.FormatFloat(b.Fare.Major(), 'f', 2, 64),
		"currency":    b.Fare.Currency,
		"payment":     string(b.Payment.Method),
		"eco_ride":    strconv.FormatBool(b.EcoRide),
	}
	if p := b.Pickup.Point; p != nil {
		data["pickup_lat"] = strconv.FormatFloat(p.Lat, 'f', 6, 64)
		data["pickup_lng"] = strconv.FormatFloat(p.Lng, 'f', 6, 64)
	}
	if p := b.Drop.Point; p != nil {
		data["drop_lat"] = strconv.FormatFloat(p.Lat, 'f', 6, 64)
		data["drop_lng"] = strconv.FormatFloat(p.Lng, 'f', 6, 64)
	}
	return &messaging.Message{
		Token: token,
		Data:  data,
		Notification: &messaging.Notification{
			Title: "New booking assigned",
			Body:  fmt.Sprintf("Pickup at %s, fare %s", b.Pickup.Address, b.Fare),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	}
}
