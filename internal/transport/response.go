package transport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/courtsidehq/booking-server/internal/entity"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError maps domain sentinels onto HTTP statuses so the handlers
// never leak raw 500s for expected outcomes.
func respondError(c *gin.Context, err error) {
	c.JSON(statusFromError(err), ErrorResponse{Error: err.Error()})
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, entity.ErrSessionNotFound),
		errors.Is(err, entity.ErrBookingNotFound),
		errors.Is(err, entity.ErrOrderNotFound),
		errors.Is(err, entity.ErrUserNotFound),
		errors.Is(err, entity.ErrMembershipNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrUserAlreadyExists),
		errors.Is(err, entity.ErrPaymentInProgress),
		errors.Is(err, entity.ErrAlreadyPaid):
		return http.StatusConflict
	case errors.Is(err, entity.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, entity.ErrInvalidInput),
		errors.Is(err, entity.ErrSessionNotOpen),
		errors.Is(err, entity.ErrNotEnoughSpots),
		errors.Is(err, entity.ErrAlreadyCancelled),
		errors.Is(err, entity.ErrSignatureInvalid):
		return http.StatusBadRequest
	default:
		// Gateway failures included: the caller sees a plain 500 and decides
		// whether to retry.
		return http.StatusInternalServerError
	}
}
