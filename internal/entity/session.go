package entity

import (
	"time"
)

type SessionStatus string

const (
	SessionStatusOpen       SessionStatus = "open"
	SessionStatusFull       SessionStatus = "full"
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusCancelled  SessionStatus = "cancelled"
)

type Session struct {
	ID             int64         `json:"id" db:"id"`
	Title          string        `json:"title" db:"title"`
	PriceCents     int64         `json:"price_cents" db:"price_cents"`
	SpotsRemaining int           `json:"spots_remaining" db:"spots_remaining"`
	Status         SessionStatus `json:"status" db:"status"`
	StartsAt       time.Time     `json:"starts_at" db:"starts_at"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}
