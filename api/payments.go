package api

import (
	"net/http"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	service booking.BookingUseCase
}

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

type callbackRequest struct {
	ReferenceID string `json:"reference_id"`
	Outcome     string `json:"outcome"`
	Message     string `json:"message"`
}

func NewPaymentHandler(service booking.BookingUseCase) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) Register(router *gin.RouterGroup) {
	router.GET("/:order_id", h.status)
	// gateways send the customer back with a GET on the return URL
	router.GET("/:order_id/callback", h.callback)
	router.POST("/:order_id/callback", h.callback)
	router.DELETE("/:order_id", h.cancel)
}

func (h *PaymentHandler) status(c *gin.Context) {
	order, err := h.service.PaymentStatus(c.Param("order_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// callback accepts its fields either as JSON or as the query parameters
// gateways append to the return URL. A failure outcome settles the order
// without verification; anything else is verified with the gateway.
func (h *PaymentHandler) callback(c *gin.Context) {
	var req callbackRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	if req.ReferenceID == "" {
		req.ReferenceID = c.Query("refId")
	}
	if req.Outcome == "" {
		req.Outcome = c.DefaultQuery("outcome", outcomeSuccess)
	}
	if req.Message == "" {
		req.Message = c.Query("message")
	}

	orderID := c.Param("order_id")
	switch req.Outcome {
	case outcomeSuccess:
	case outcomeFailure:
		if err := h.service.FailPayment(orderID, req.Message); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"order_id": orderID, "status": booking.OrderFailed})
		return
	default:
		writeError(c, domain.NewValidationError("outcome", "must be success or failure"))
		return
	}

	result, err := h.service.CompletePayment(c.Request.Context(), orderID, req.ReferenceID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *PaymentHandler) cancel(c *gin.Context) {
	if err := h.service.CancelPayment(c.Param("order_id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": c.Param("order_id"), "status": "cancelled"})
}
