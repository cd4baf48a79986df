package main

import (
	"context"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flightbooking/api"
	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/bootstrap"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/logger"
	"github.com/Domenick1991/flightbooking/internal/payment"
	"github.com/Domenick1991/flightbooking/internal/pnr"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/Domenick1991/flightbooking/internal/service/checkin"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/Domenick1991/flightbooking/internal/service/session"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := bootstrap.OpenStorage(ctx, cfg, logg)
	if err != nil {
		logg.Fatal("open storage", zap.Error(err))
	}
	defer storage.Close()

	probes := map[string]bootstrap.Probe{"storage": storage.Probe}
	sessionOpts := []session.Option{
		session.WithLogger(logg.Named("session")),
		session.WithIdleTTL(time.Duration(cfg.Booking.SessionTTLMinutes) * time.Minute),
		session.WithPNRGenerator(pnr.NewGenerator(newRand(), cfg.Booking.PNRAttempts)),
	}
	checkinOpts := []checkin.CheckInServiceOption{checkin.WithLogger(logg.Named("checkin"))}

	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, logg.Named("kafka"))
		defer producer.Close()
		if err := producer.CheckConnection(ctx); err != nil {
			logg.Warn("kafka is not reachable, events will be dropped until it is", zap.Error(err))
		}
		sessionOpts = append(sessionOpts, session.WithProducer(producer, cfg.Kafka.BookingTopic, cfg.Kafka.NotificationsTopic))
		checkinOpts = append(checkinOpts, checkin.WithProducer(producer, cfg.Kafka.NotificationsTopic))
		probes["kafka"] = producer.CheckConnection
	}

	registry := session.NewRegistry(storage.Bookings, sessionOpts...)
	go registry.RunEviction(ctx, time.Duration(cfg.Booking.SessionSweepSeconds)*time.Second)

	flightService := flights.NewFlightService(storage.Flights, storage.FlightCache, logg.Named("flights"))
	gateway := payment.NewMockGateway(newRand(), cfg.Payment.SuccessRate, cfg.Payment.NPRRate)
	bookingService := booking.NewBookingService(
		storage.Bookings,
		gateway,
		payment.NewTracker(time.Duration(cfg.Payment.TimeoutSeconds)*time.Second),
		booking.WithLogger(logg.Named("booking")),
		booking.WithCallbackBaseURL(cfg.Payment.CallbackBaseURL),
	)
	defer bookingService.Shutdown()
	checkinService := checkin.NewCheckInService(storage.Bookings, checkinOpts...)

	router := bootstrap.NewRouter(cfg.HTTP, logg, bootstrap.Handlers{
		Sessions: api.NewSessionHandler(registry, flightService, bookingService),
		Flights:  api.NewFlightHandler(flightService),
		Bookings: api.NewBookingHandler(bookingService, checkinService),
		Payments: api.NewPaymentHandler(bookingService),
		Probes:   probes,
	})

	if err := bootstrap.Run(ctx, cfg.HTTP, logg, router); err != nil {
		logg.Error("server error", zap.Error(err))
	}
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
