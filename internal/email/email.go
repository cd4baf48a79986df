package email

import (
	"context"
	"fmt"

	"github.com/Domenick1991/flightbooking/internal/kafka"
	"go.uber.org/zap"
)

// Sender delivers booking notifications. Delivery is simulated by logging
// the rendered message.
type Sender struct {
	log *zap.Logger
}

func NewSender(log *zap.Logger) *Sender {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sender{log: log}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	if event.Email == "" {
		return nil
	}
	s.log.Info("send email",
		zap.String("to", event.Email),
		zap.String("subject", Subject(event)),
		zap.String("booking_id", event.BookingID),
	)
	return nil
}

// Subject renders the notification subject line for an event.
func Subject(event kafka.BookingEvent) string {
	switch event.Type {
	case kafka.EventBookingCreated:
		return fmt.Sprintf("Your e-ticket %s for flight %s is confirmed", event.PNR, event.FlightID)
	case kafka.EventPassengerCheckedIn:
		return fmt.Sprintf("Check-in update for booking %s (%d checked in)", event.PNR, len(event.CheckedIn))
	default:
		return fmt.Sprintf("Update for booking %s", event.PNR)
	}
}
