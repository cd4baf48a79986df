package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/cache"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

var errDegraded = errors.New("redis unreachable, serving from memory")

// Storage is the selected backing medium for bookings and flights.
type Storage struct {
	Bookings    repository.BookingRepository
	Flights     repository.FlightRepository
	FlightCache flights.FlightCache
	Probe       Probe

	closers []func()
}

func (s *Storage) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// OpenStorage builds the repositories for cfg.Storage.Driver. The flight
// catalog comes from postgres with the postgres driver and from the yaml
// catalog file otherwise.
func OpenStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Storage, error) {
	st := &Storage{}
	cacheTTL := time.Duration(cfg.Flights.CacheTTLSeconds) * time.Second

	switch cfg.Storage.Driver {
	case DriverMemory:
		st.Bookings = repository.NewKVBookingRepository(cache.NewMemoryKV())
		st.Probe = func(context.Context) error { return nil }

	case DriverRedis:
		redisCache := cache.NewRedisCache(cfg.Redis, cacheTTL)
		st.closers = append(st.closers, func() { _ = redisCache.Close() })
		if err := redisCache.Ping(ctx); err != nil {
			log.Warn("redis ping failed, bookings may fall back to memory", zap.Error(err))
		}
		kv := cache.NewFallbackKV(redisCache, log)
		st.Bookings = repository.NewKVBookingRepository(kv)
		st.FlightCache = redisCache
		st.Probe = func(context.Context) error {
			if kv.Degraded() {
				return errDegraded
			}
			return nil
		}

	case DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		st.closers = append(st.closers, pool.Close)
		st.Bookings = repository.NewBookingRepository(pool)
		st.Flights = repository.NewFlightRepository(pool)
		redisCache := cache.NewRedisCache(cfg.Redis, cacheTTL)
		st.closers = append(st.closers, func() { _ = redisCache.Close() })
		st.FlightCache = redisCache
		st.Probe = pool.Ping

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if st.Flights == nil {
		catalog, err := repository.LoadCatalog(cfg.Flights.CatalogPath)
		if err != nil {
			st.Close()
			return nil, err
		}
		st.Flights = repository.NewMemoryFlightRepository(catalog)
		log.Info("flight catalog loaded", zap.String("path", cfg.Flights.CatalogPath), zap.Int("flights", len(catalog)))
	}

	log.Info("storage ready", zap.String("driver", cfg.Storage.Driver))
	return st, nil
}
