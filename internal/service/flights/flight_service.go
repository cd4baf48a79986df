package flights

import (
	"context"
	"strings"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"go.uber.org/zap"
)

type FlightUseCase interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id string) (*domain.Flight, error)
	Search(ctx context.Context, filters domain.SearchFilters) ([]domain.Flight, error)
}

// FlightCache holds the whole catalog under one key.
type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
}

type FlightService struct {
	repo  repository.FlightRepository
	cache FlightCache
	log   *zap.Logger
}

func NewFlightService(repo repository.FlightRepository, cache FlightCache, log *zap.Logger) *FlightService {
	if log == nil {
		log = zap.NewNop()
	}
	return &FlightService{repo: repo, cache: cache, log: log}
}

func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		cached, err := s.cache.GetFlights(ctx)
		if err == nil && cached != nil {
			return cached, nil
		}
		if err != nil {
			s.log.Warn("flight cache read failed", zap.Error(err))
		}
	}

	flights, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetFlights(ctx, flights); err != nil {
			s.log.Warn("flight cache write failed", zap.Error(err))
		}
	}
	return flights, nil
}

func (s *FlightService) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

// Search returns the flights whose origin, destination and cabin class
// equal the filters. Dates and trip type do not narrow the result.
func (s *FlightService) Search(ctx context.Context, filters domain.SearchFilters) ([]domain.Flight, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Flight, 0, len(all))
	for _, f := range all {
		if f.From == filters.From && f.To == filters.To && strings.EqualFold(string(f.Class), string(filters.Class)) {
			out = append(out, f)
		}
	}
	s.log.Debug("flight search",
		zap.String("from", filters.From), zap.String("to", filters.To), zap.Int("results", len(out)))
	return out, nil
}

var _ FlightUseCase = (*FlightService)(nil)
