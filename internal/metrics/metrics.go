package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookings_created_total",
		Help: "Bookings finalized and appended to the record store.",
	})

	Payments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_total",
		Help: "Payment attempts by outcome.",
	}, []string{"result"})

	CheckIns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkins_total",
		Help: "Passengers newly checked in.",
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "booking_sessions_active",
		Help: "Booking sessions currently held in memory.",
	})
)

const (
	PaymentSucceeded  = "succeeded"
	PaymentFailed     = "failed"
	PaymentRedirected = "redirected"
)
