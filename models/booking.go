package models

import "time"

// Booking statuses.
const (
	BookingPending   = "PENDING"
	BookingAccepted  = "ACCEPTED"
	BookingActive    = "ACTIVE"
	BookingCompleted = "COMPLETED"
	BookingCancelled = "CANCELLED"
	BookingDisputed  = "DISPUTED"
)

// Booking is a purchased multi-day pass for a facility slot. Created ACCEPTED
// by the reservation engine, activated on payment capture, consumed by
// attendance toward COMPLETED.
type Booking struct {
	ID         string `bson:"id" json:"id"`
	UserID     string `bson:"user_id" json:"user_id"`
	FacilityID string `bson:"facility_id" json:"facility_id"`
	SlotType   string `bson:"slot_type" json:"slot_type"`
	PassDays   int    `bson:"pass_days" json:"pass_days"` // 1, 3 or 7

	StartDate           string `bson:"start_date" json:"start_date"` // "YYYY-MM-DD"
	EndDate             string `bson:"end_date" json:"end_date"`     // last consumed date
	ActiveDaysRemaining int    `bson:"active_days_remaining" json:"active_days_remaining"`

	// Amounts in minor currency units.
	BaseAmount  int64 `bson:"base_amount" json:"base_amount"`
	PlatformFee int64 `bson:"platform_fee" json:"platform_fee"`
	TotalAmount int64 `bson:"total_amount" json:"total_amount"`

	Status         string    `bson:"status" json:"status"`
	IdempotencyKey string    `bson:"idempotency_key" json:"-"` // unique
	ActiveKey      string    `bson:"active_key,omitempty" json:"-"`
	PassCredential string    `bson:"qr_code" json:"qrCode"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updated_at"`
}

// ActiveBookingStatus reports whether status counts toward the one active
// booking per (user, facility, slot type) rule.
func ActiveBookingStatus(status string) bool {
	switch status {
	case BookingPending, BookingAccepted, BookingActive:
		return true
	}
	return false
}

// ActiveBookingKey is the value held in ActiveKey while a booking is in an
// active status. A partial unique index on it closes the race between two
// concurrent creates that would otherwise touch no common document.
func ActiveBookingKey(userID, facilityID, slotType string) string {
	return userID + "|" + facilityID + "|" + slotType
}

// BookingResult is the response shape for booking creation; it is also the
// value replayed verbatim on idempotency-key retries.
type BookingResult struct {
	BookingID           string `json:"bookingId"`
	Status              string `json:"status"`
	StartDate           string `json:"startDate"`
	EndDate             string `json:"endDate"`
	ActiveDaysRemaining int    `json:"activeDaysRemaining"`
	PassCredential      string `json:"qrCode"`
}
