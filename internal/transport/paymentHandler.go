package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/courtsidehq/booking-server/internal/service"
)

type PaymentHandler struct {
	splitService service.SplitPaymentService
}

func NewPaymentHandler(splitService service.SplitPaymentService) *PaymentHandler {
	return &PaymentHandler{splitService: splitService}
}

type SplitPayRequest struct {
	SessionID         int64    `json:"session_id" binding:"required"`
	PlayerIdentifiers []string `json:"player_identifiers" binding:"required,min=1,max=20,dive,email"`
	HostUserID        int64    `json:"host_user_id"`
}

// SplitPay always answers 200 with the per-participant manifest when the
// preconditions hold; individual participant failures live inside the
// manifest, not in the HTTP status.
func (h *PaymentHandler) SplitPay(c *gin.Context) {
	var req SplitPayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.splitService.SplitPay(c.Request.Context(), req.SessionID, req.PlayerIdentifiers, req.HostUserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type CreateIntentRequest struct {
	BookingID int64 `json:"booking_id" binding:"required"`
	UserID    int64 `json:"user_id" binding:"required"`
}

func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var req CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.splitService.CreateIntent(c.Request.Context(), req.BookingID, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}
