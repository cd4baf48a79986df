package domain

import "time"

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type Passenger struct {
	ID             string `json:"id"`
	Title          string `json:"title" validate:"required,oneof=Mr Mrs Ms Miss Dr"`
	FirstName      string `json:"first_name" validate:"required"`
	LastName       string `json:"last_name" validate:"required"`
	DateOfBirth    string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Nationality    string `json:"nationality" validate:"required"`
	PassportNumber string `json:"passport_number" validate:"required,alphanum,min=6,max=12"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone" validate:"required"`
}

// User is the read-only view of the signed-in customer supplied by the
// session provider.
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// PassengerFromUser prefills the contact fields of the first passenger.
func PassengerFromUser(u User) Passenger {
	return Passenger{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
	}
}

// Booking is the finalized, immutable record. Seats[i] belongs to
// Passengers[i].
type Booking struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	FlightID      string        `json:"flight_id"`
	Passengers    []Passenger   `json:"passengers"`
	Seats         []string      `json:"seats"`
	TotalAmount   float64       `json:"total_amount"`
	Status        BookingStatus `json:"status"`
	BookingDate   time.Time     `json:"booking_date"`
	PaymentMethod string        `json:"payment_method"`
	PNR           string        `json:"pnr"`
}

// HasPassenger reports whether id belongs to one of the booking's passengers.
func (b *Booking) HasPassenger(id string) bool {
	for _, p := range b.Passengers {
		if p.ID == id {
			return true
		}
	}
	return false
}

// PassengerIDs returns passenger ids in booking order.
func (b *Booking) PassengerIDs() []string {
	ids := make([]string, 0, len(b.Passengers))
	for _, p := range b.Passengers {
		ids = append(ids, p.ID)
	}
	return ids
}

type TotalsSummary struct {
	Subtotal   float64 `json:"subtotal"`
	Taxes      float64 `json:"taxes"`
	ServiceFee float64 `json:"service_fee"`
	Total      float64 `json:"total"`
}
