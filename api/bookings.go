package api

import (
	"net/http"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/Domenick1991/flightbooking/internal/service/checkin"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	bookings booking.BookingUseCase
	checkin  checkin.CheckInUseCase
}

type checkInRequest struct {
	PassengerID string `json:"passenger_id"`
	All         bool   `json:"all"`
}

type checkInResponse struct {
	BookingID string   `json:"booking_id"`
	CheckedIn []string `json:"checked_in"`
}

func NewBookingHandler(bookingSvc booking.BookingUseCase, checkinSvc checkin.CheckInUseCase) *BookingHandler {
	return &BookingHandler{bookings: bookingSvc, checkin: checkinSvc}
}

// Register mounts the routes on the api root since they span /users and
// /bookings.
func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.GET("/users/:user_id/bookings", h.listByUser)
	router.GET("/bookings/lookup", h.lookup)
	router.GET("/bookings/:id/checkin", h.checkInStatus)
	router.POST("/bookings/:id/checkin", h.checkIn)
}

func (h *BookingHandler) listByUser(c *gin.Context) {
	list, err := h.bookings.ListByUser(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if list == nil {
		list = []domain.Booking{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *BookingHandler) lookup(c *gin.Context) {
	by, value := checkin.LookupPNR, c.Query("pnr")
	if value == "" && c.Query("email") != "" {
		by, value = checkin.LookupEmail, c.Query("email")
	}

	b, err := h.checkin.FindBooking(c.Request.Context(), by, value)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) checkInStatus(c *gin.Context) {
	id := c.Param("id")
	ids, err := h.checkin.Status(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkInResponse{BookingID: id, CheckedIn: ids})
}

func (h *BookingHandler) checkIn(c *gin.Context) {
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	id := c.Param("id")
	var (
		ids []string
		err error
	)
	switch {
	case req.All:
		ids, err = h.checkin.CheckInAll(c.Request.Context(), id)
	case req.PassengerID != "":
		ids, err = h.checkin.CheckIn(c.Request.Context(), id, req.PassengerID)
	default:
		err = domain.NewValidationError("passenger_id", "is required unless all is set")
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkInResponse{BookingID: id, CheckedIn: ids})
}
