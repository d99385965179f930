package models

import "time"

// Escrow statuses. HELD -> {RELEASED, PAUSED, REFUNDED}; PAUSED -> {HELD,
// REFUNDED}; RELEASED and REFUNDED are terminal.
const (
	EscrowHeld     = "HELD"
	EscrowReleased = "RELEASED"
	EscrowPaused   = "PAUSED"
	EscrowRefunded = "REFUNDED"
)

// Escrow is the platform-held payment for one booking, created exactly once
// at payment capture and settled by the release sweep, a refund, or a dispute.
type Escrow struct {
	ID        string `bson:"id" json:"id"`
	BookingID string `bson:"booking_id" json:"booking_id"` // unique
	OwnerID   string `bson:"owner_id" json:"owner_id"`

	AmountHeld  int64 `bson:"amount_held" json:"amount_held"`
	PlatformFee int64 `bson:"platform_fee" json:"platform_fee"`

	Status      string     `bson:"status" json:"status"`
	ReleaseDate string     `bson:"release_date" json:"release_date"` // booking end date + 1 day
	ReleasedAt  *time.Time `bson:"released_at,omitempty" json:"released_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

// PayoutAmount is what the owner receives on release.
func (e *Escrow) PayoutAmount() int64 {
	return e.AmountHeld - e.PlatformFee
}
