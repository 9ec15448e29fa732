package entity

import (
	"time"
)

type BookingStatus string

const (
	BookingStatusReserved  BookingStatus = "reserved"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusNoShow    BookingStatus = "no_show"
)

type Booking struct {
	ID          int64         `json:"id" db:"id"`
	SessionID   int64         `json:"session_id" db:"session_id"`
	UserID      int64         `json:"user_id" db:"user_id"`
	Guests      int           `json:"guests" db:"guests"`
	Status      BookingStatus `json:"status" db:"status"`
	ReservedAt  time.Time     `json:"reserved_at" db:"reserved_at"`
	ConfirmedAt *time.Time    `json:"confirmed_at,omitempty" db:"confirmed_at"`
	CancelledAt *time.Time    `json:"cancelled_at,omitempty" db:"cancelled_at"`
}

// StaleBooking is a reserved booking whose payment never completed within
// the reservation window, joined with what the expiry worker needs to
// release the held spot.
type StaleBooking struct {
	BookingID  int64     `json:"booking_id"`
	SessionID  int64     `json:"session_id"`
	UserID     int64     `json:"user_id"`
	Guests     int       `json:"guests"`
	ReservedAt time.Time `json:"reserved_at"`
}
