package flights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	args := m.Called(ctx, flights)
	return args.Error(0)
}

func catalog() []domain.Flight {
	dep := time.Date(2026, 11, 2, 8, 0, 0, 0, time.UTC)
	return []domain.Flight{
		{ID: "1", FlightNumber: "RA 201", From: "Kathmandu (KTM)", To: "Delhi (DEL)", DepartureTime: dep,
			ArrivalTime: dep.Add(90 * time.Minute), Price: 180, Aircraft: "Airbus A320", Class: domain.CabinEconomy},
		{ID: "2", FlightNumber: "RA 203", From: "Kathmandu (KTM)", To: "Delhi (DEL)", DepartureTime: dep.Add(6 * time.Hour),
			ArrivalTime: dep.Add(450 * time.Minute), Price: 420, Aircraft: "Boeing 737", Class: domain.CabinBusiness},
		{ID: "3", FlightNumber: "QR 647", From: "Kathmandu (KTM)", To: "Doha (DOH)", DepartureTime: dep,
			ArrivalTime: dep.Add(5 * time.Hour), Price: 510, Aircraft: "Boeing 777", Class: domain.CabinEconomy},
	}
}

func TestFlightService_List_CacheMiss(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache, nil)
	ctx := context.Background()
	flights := catalog()

	mockCache.On("GetFlights", ctx).Return(([]domain.Flight)(nil), nil).Once()
	mockRepo.On("List", ctx).Return(flights, nil).Once()
	mockCache.On("SetFlights", ctx, flights).Return(nil).Once()

	result, err := service.List(ctx)

	assert.NoError(t, err)
	assert.Equal(t, flights, result)
	mockCache.AssertExpectations(t)
	mockRepo.AssertExpectations(t)
}

func TestFlightService_List_CacheHit(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache, nil)
	ctx := context.Background()
	flights := catalog()

	mockCache.On("GetFlights", ctx).Return(flights, nil).Once()

	result, err := service.List(ctx)

	assert.NoError(t, err)
	assert.Equal(t, flights, result)
	mockCache.AssertExpectations(t)
	mockRepo.AssertNotCalled(t, "List")
	mockCache.AssertNotCalled(t, "SetFlights")
}

func TestFlightService_List_CacheError(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache, nil)
	ctx := context.Background()
	flights := catalog()

	mockCache.On("GetFlights", ctx).Return(([]domain.Flight)(nil), errors.New("cache error")).Once()
	mockRepo.On("List", ctx).Return(flights, nil).Once()
	mockCache.On("SetFlights", ctx, flights).Return(errors.New("cache error")).Once()

	result, err := service.List(ctx)

	assert.NoError(t, err)
	assert.Equal(t, flights, result)
	mockCache.AssertExpectations(t)
	mockRepo.AssertExpectations(t)
}

func TestFlightService_List_RepositoryError(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache, nil)
	ctx := context.Background()

	expectedErr := errors.New("database error")
	mockCache.On("GetFlights", ctx).Return(([]domain.Flight)(nil), nil).Once()
	mockRepo.On("List", ctx).Return([]domain.Flight{}, expectedErr).Once()

	result, err := service.List(ctx)

	assert.Nil(t, result)
	assert.Equal(t, expectedErr, err)
	mockCache.AssertNotCalled(t, "SetFlights")
}

func TestFlightService_GetByID(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(mockRepo, nil, nil)
	ctx := context.Background()
	flight := catalog()[0]

	mockRepo.On("GetByID", ctx, "1").Return(&flight, nil).Once()
	mockRepo.On("GetByID", ctx, "999").Return(nil, domain.ErrFlightNotFound).Once()

	result, err := service.GetByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, &flight, result)

	result, err = service.GetByID(ctx, "999")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrFlightNotFound)
}

func TestFlightService_Search(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(mockRepo, nil, nil)
	ctx := context.Background()
	mockRepo.On("List", ctx).Return(catalog(), nil)

	tests := []struct {
		name    string
		filters domain.SearchFilters
		ids     []string
	}{
		{
			name:    "economy route",
			filters: domain.SearchFilters{From: "Kathmandu (KTM)", To: "Delhi (DEL)", Class: domain.CabinEconomy},
			ids:     []string{"1"},
		},
		{
			name:    "business route",
			filters: domain.SearchFilters{From: "Kathmandu (KTM)", To: "Delhi (DEL)", Class: domain.CabinBusiness},
			ids:     []string{"2"},
		},
		{
			name:    "no partial match",
			filters: domain.SearchFilters{From: "Kathmandu", To: "Delhi (DEL)", Class: domain.CabinEconomy},
			ids:     []string{},
		},
		{
			name:    "reverse direction",
			filters: domain.SearchFilters{From: "Delhi (DEL)", To: "Kathmandu (KTM)", Class: domain.CabinEconomy},
			ids:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := service.Search(ctx, tt.filters)
			require.NoError(t, err)
			ids := make([]string, 0, len(result))
			for _, f := range result {
				ids = append(ids, f.ID)
			}
			assert.Equal(t, tt.ids, ids)
		})
	}
}

func TestFlightService_NoCache(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(mockRepo, nil, nil)
	ctx := context.Background()
	flights := catalog()

	mockRepo.On("List", ctx).Return(flights, nil).Once()

	result, err := service.List(ctx)

	assert.NoError(t, err)
	assert.Equal(t, flights, result)
	mockRepo.AssertExpectations(t)
}
