package api

import (
	"net/http"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/Domenick1991/flightbooking/internal/service/session"
	"github.com/gin-gonic/gin"
)

// UserIDHeader carries the opaque id of the signed-in user.
const UserIDHeader = "X-User-ID"

type SessionStore interface {
	Create() *session.Session
	Get(id string) (*session.Session, error)
}

type SessionHandler struct {
	sessions SessionStore
	flights  flights.FlightUseCase
	bookings booking.BookingUseCase
}

type selectFlightRequest struct {
	FlightID string `json:"flight_id" binding:"required"`
}

type passengersRequest struct {
	Passengers []domain.Passenger `json:"passengers" binding:"required"`
}

type seatsRequest struct {
	Seats []string `json:"seats"`
}

type seatMapResponse struct {
	FlightID string        `json:"flight_id"`
	Selected []string      `json:"selected"`
	Seats    []domain.Seat `json:"seats"`
}

func NewSessionHandler(sessions SessionStore, flightSvc flights.FlightUseCase, bookingSvc booking.BookingUseCase) *SessionHandler {
	return &SessionHandler{sessions: sessions, flights: flightSvc, bookings: bookingSvc}
}

func (h *SessionHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("/:id", h.get)
	router.DELETE("/:id", h.clear)
	router.PUT("/:id/search", h.search)
	router.GET("/:id/flights", h.searchResults)
	router.PUT("/:id/flight", h.selectFlight)
	router.PUT("/:id/passengers", h.passengers)
	router.GET("/:id/seats", h.seatMap)
	router.PUT("/:id/seats", h.selectSeats)
	router.PUT("/:id/payment", h.payment)
	router.POST("/:id/checkout", h.checkout)
}

func (h *SessionHandler) load(c *gin.Context) (*session.Session, bool) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) create(c *gin.Context) {
	s := h.sessions.Create()
	c.JSON(http.StatusCreated, s.Snapshot())
}

func (h *SessionHandler) get(c *gin.Context) {
	s, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *SessionHandler) clear(c *gin.Context) {
	s, ok := h.load(c)
	if !ok {
		return
	}
	if err := s.ClearBooking(); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *SessionHandler) search(c *gin.Context) {
	s, ok := h.load(c)
	if !ok {
		return
	}
	var req domain.SearchFilters
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.SetSearchFilters(req); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *SessionHandler) searchResults(c *gin.Context) {
	s, ok := h.load(c)
	if !ok {
		return
	}
	filters := s.SearchFilters()
	if filters == nil {
		writeError(c, domain.ErrIncompleteBooking)
		return
	}
	results, err := h.flights.Search(c.Request.Context(), *filters)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *SessionHandler) selectFlight(c *gin.Context) {
	s, ok := h.load(c)
	if !ok {
		return
	}
	var req selectFlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	flight, err := h.flights.GetByID(c.Request.Context(), req.FlightID)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := s.SetSelectedFlight(*flight); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *SessionHandler) passengers(c *gin.Context) {
	s, ok := h.load(c)
	if !ok {
		return
	}
	var req passengersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.SetPassengers(req.Passengers); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *SessionHandler) seatMap(c *gin.Context) {
	s, ok := h.load(c)
	if !ok {
		return
	}
	d := s.Snapshot()
	if d.SelectedFlight == nil {
		writeError(c, domain.ErrIncompleteBooking)
		return
	}
	c.JSON(http.StatusOK, seatMapResponse{
		FlightID: d.SelectedFlight.ID,
		Selected: d.SelectedSeats,
		Seats:    s.SeatMap(),
	})
}

func (h *SessionHandler) selectSeats(c *gin.Context) {
	s, ok := h.load(c)
	if !ok {
		return
	}
	var req seatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.SetSelectedSeats(req.Seats); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *SessionHandler) payment(c *gin.Context) {
	s, ok := h.load(c)
	if !ok {
		return
	}
	var req domain.PaymentDetails
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.SetPaymentDetails(req); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// checkout answers 201 with the booking for settled payments and 202 with
// the redirect for wallet payments.
func (h *SessionHandler) checkout(c *gin.Context) {
	s, ok := h.load(c)
	if !ok {
		return
	}
	result, err := h.bookings.Checkout(c.Request.Context(), s, c.GetHeader(UserIDHeader))
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusCreated
	if result.Booking == nil {
		status = http.StatusAccepted
	}
	c.JSON(status, result)
}
