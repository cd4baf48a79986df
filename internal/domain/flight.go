package domain

import "time"

type CabinClass string

const (
	CabinEconomy  CabinClass = "Economy"
	CabinBusiness CabinClass = "Business"
	CabinFirst    CabinClass = "First"
)

// Flight is read-only reference data. From and To hold the composite
// "City (CODE)" label used by search.
type Flight struct {
	ID             string     `json:"id" yaml:"id"`
	FlightNumber   string     `json:"flight_number" yaml:"flight_number"`
	Airline        string     `json:"airline" yaml:"airline"`
	From           string     `json:"from" yaml:"from"`
	To             string     `json:"to" yaml:"to"`
	DepartureTime  time.Time  `json:"departure_time" yaml:"departure_time"`
	ArrivalTime    time.Time  `json:"arrival_time" yaml:"arrival_time"`
	Duration       string     `json:"duration" yaml:"duration"`
	Price          float64    `json:"price" yaml:"price"`
	AvailableSeats int        `json:"available_seats" yaml:"available_seats"`
	Aircraft       string     `json:"aircraft" yaml:"aircraft"`
	Class          CabinClass `json:"class" yaml:"class"`
}

type TripType string

const (
	TripOneWay    TripType = "one-way"
	TripRoundTrip TripType = "round-trip"
)

type SearchFilters struct {
	From          string     `json:"from" validate:"required"`
	To            string     `json:"to" validate:"required,nefield=From"`
	DepartureDate string     `json:"departure_date" validate:"required,datetime=2006-01-02"`
	ReturnDate    string     `json:"return_date,omitempty" validate:"required_if=TripType round-trip"`
	Passengers    int        `json:"passengers" validate:"min=1,max=9"`
	Class         CabinClass `json:"class" validate:"oneof=Economy Business First"`
	TripType      TripType   `json:"trip_type" validate:"oneof=one-way round-trip"`
}

type SeatPosition string

const (
	SeatWindow SeatPosition = "window"
	SeatAisle  SeatPosition = "aisle"
	SeatMiddle SeatPosition = "middle"
)

type Seat struct {
	ID         string       `json:"id"`
	SeatNumber string       `json:"seat_number"`
	Class      CabinClass   `json:"class"`
	Available  bool         `json:"available"`
	Price      float64      `json:"price"`
	Position   SeatPosition `json:"position"`
}
