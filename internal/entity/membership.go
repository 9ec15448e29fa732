package entity

import (
	"time"
)

type MembershipStatus string

const (
	MembershipStatusActive    MembershipStatus = "active"
	MembershipStatusPastDue   MembershipStatus = "past_due"
	MembershipStatusCancelled MembershipStatus = "cancelled"
)

type MembershipTier string

const (
	TierBasic MembershipTier = "basic"
	TierPlus  MembershipTier = "plus"
	TierElite MembershipTier = "elite"
)

type Membership struct {
	ID                     int64            `json:"id" db:"id"`
	UserID                 int64            `json:"user_id" db:"user_id"`
	Tier                   MembershipTier   `json:"tier" db:"tier"`
	ExternalSubscriptionID string           `json:"external_subscription_id" db:"external_subscription_id"`
	Status                 MembershipStatus `json:"status" db:"status"`
	DiscountPercent        int              `json:"discount_percent" db:"discount_percent"`
	PriorityBookingHours   int              `json:"priority_booking_hours" db:"priority_booking_hours"`
	GuestPassesRemaining   int              `json:"guest_passes_remaining" db:"guest_passes_remaining"`
	CurrentPeriodStart     time.Time        `json:"current_period_start" db:"current_period_start"`
	CurrentPeriodEnd       time.Time        `json:"current_period_end" db:"current_period_end"`
	CreatedAt              time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time        `json:"updated_at" db:"updated_at"`
}

// TierBenefits holds the static entitlements attached to a membership tier.
type TierBenefits struct {
	DiscountPercent      int
	PriorityBookingHours int
	GuestPasses          int
}

var tierTable = map[MembershipTier]TierBenefits{
	TierBasic: {DiscountPercent: 0, PriorityBookingHours: 0, GuestPasses: 0},
	TierPlus:  {DiscountPercent: 10, PriorityBookingHours: 24, GuestPasses: 2},
	TierElite: {DiscountPercent: 20, PriorityBookingHours: 48, GuestPasses: 5},
}

// BenefitsForTier returns the entitlements for a tier name. Unrecognized
// names fall back to the lowest tier.
func BenefitsForTier(tier MembershipTier) (MembershipTier, TierBenefits) {
	if b, ok := tierTable[tier]; ok {
		return tier, b
	}
	return TierBasic, tierTable[TierBasic]
}
