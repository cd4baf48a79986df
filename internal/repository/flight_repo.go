package repository

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"gopkg.in/yaml.v3"
)

type FlightRepository interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id string) (*domain.Flight, error)
}

// MemoryFlightRepository serves a fixed flight catalog.
type MemoryFlightRepository struct {
	flights []domain.Flight
	byID    map[string]int
}

func NewMemoryFlightRepository(flights []domain.Flight) *MemoryFlightRepository {
	sorted := make([]domain.Flight, len(flights))
	copy(sorted, flights)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DepartureTime.Before(sorted[j].DepartureTime)
	})

	byID := make(map[string]int, len(sorted))
	for i, f := range sorted {
		byID[f.ID] = i
	}
	return &MemoryFlightRepository{flights: sorted, byID: byID}
}

type catalogFile struct {
	Flights []domain.Flight `yaml:"flights"`
}

// LoadCatalog reads a yaml flight catalog.
func LoadCatalog(path string) ([]domain.Flight, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flight catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse flight catalog: %w", err)
	}
	return file.Flights, nil
}

func (r *MemoryFlightRepository) List(_ context.Context) ([]domain.Flight, error) {
	out := make([]domain.Flight, len(r.flights))
	copy(out, r.flights)
	return out, nil
}

func (r *MemoryFlightRepository) GetByID(_ context.Context, id string) (*domain.Flight, error) {
	i, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrFlightNotFound
	}
	f := r.flights[i]
	return &f, nil
}

var _ FlightRepository = (*MemoryFlightRepository)(nil)
