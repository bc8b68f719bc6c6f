package notify

import (
	"context"
	"errors"
	"io"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/sirupsen/logrus"

	"cabsys/internal/modules/booking"
	"cabsys/internal/modules/fleet"
	"cabsys/internal/types"
)

type stubSender struct {
	sent []*messaging.Message
	err  error
}

func (s *stubSender) Send(_ context.Context, msg *messaging.Message) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, msg)
	return "projects/cabsys/messages/1", nil
}

type stubDrivers map[types.ID]fleet.Driver

func (d stubDrivers) GetDriver(_ context.Context, id types.ID) (*fleet.Driver, error) {
	drv, ok := d[id]
	if !ok {
		return nil, fleet.ErrDriverNotFound
	}
	return &drv, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func sampleBooking(driver types.ID) *booking.Booking {
	return &booking.Booking{
		ID:         "b1",
		Pickup:     booking.Location{Address: "Connaught Place", Point: &types.Point{Lat: 28.6315, Lng: 77.2167}},
		Drop:       booking.Location{Address: "India Gate"},
		DistanceKm: 3.5,
		Fare:       types.Money{Amount: 10250, Currency: "INR"},
		Assigned:   booking.Assigned{DriverID: driver},
		Payment:    booking.PaymentDetails{Method: booking.PaymentCash},
	}
}

func TestBuildAssignmentMessage(t *testing.T) {
	msg := buildAssignmentMessage("tok-1", sampleBooking("drv-001"))
	if msg.Token != "tok-1" || msg.Android == nil || msg.Android.Priority != "high" {
		t.Fatalf("unexpected message %+v", msg)
	}
	want := map[string]string{
		"type":        "booking_assigned",
		"booking_id":  "b1",
		"fare":        "102.50",
		"distance_km": "3.50",
		"pickup_lat":  "28.631500",
		"payment":     "CASH",
	}
	for k, v := range want {
		if msg.Data[k] != v {
			t.Errorf("data[%s] = %q, want %q", k, msg.Data[k], v)
		}
	}
	if _, ok := msg.Data["drop_lat"]; ok {
		t.Error("drop without coordinates must not carry drop_lat")
	}
	if msg.Notification.Body != "Pickup at Connaught Place, fare INR 102.50" {
		t.Errorf("body = %q", msg.Notification.Body)
	}
}

func TestNotifyAssigned(t *testing.T) {
	ctx := context.Background()
	drivers := stubDrivers{
		"drv-001": {ID: "drv-001", DeviceToken: "tok-1"},
		"drv-002": {ID: "drv-002"},
	}
	sender := &stubSender{}
	n := NewFCMNotifier(sender, drivers, quietLogger())

	if err := n.NotifyAssigned(ctx, sampleBooking("drv-001")); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].Token != "tok-1" {
		t.Fatalf("sent %+v", sender.sent)
	}

	if err := n.NotifyAssigned(ctx, sampleBooking("drv-002")); err != nil {
		t.Fatalf("driver without token should be skipped, got %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatal("nothing should be sent without a token")
	}

	if err := n.NotifyAssigned(ctx, sampleBooking("drv-404")); !errors.Is(err, fleet.ErrDriverNotFound) {
		t.Fatalf("expected ErrDriverNotFound, got %v", err)
	}

	sender.err = errors.New("quota exceeded")
	if err := n.NotifyAssigned(ctx, sampleBooking("drv-001")); err == nil {
		t.Fatal("expected send error")
	}
}
