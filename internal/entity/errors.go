package entity

import "errors"

var (
	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionNotOpen  = errors.New("session is not open for booking")
	ErrNotEnoughSpots  = errors.New("not enough spots remaining")

	// Booking errors
	ErrBookingNotFound  = errors.New("booking not found")
	ErrAlreadyCancelled = errors.New("booking already cancelled")

	// Order errors
	ErrOrderNotFound     = errors.New("order not found")
	ErrPaymentInProgress = errors.New("a payment for this booking is already in progress")
	ErrAlreadyPaid       = errors.New("booking is already paid")

	// Membership errors
	ErrMembershipNotFound = errors.New("membership not found")

	// User errors
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")

	// Gateway errors
	ErrRefundFailed     = errors.New("refund could not be issued")
	ErrSignatureInvalid = errors.New("webhook signature verification failed")

	// General errors
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden operation")
)
