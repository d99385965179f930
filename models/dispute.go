package models

import "time"

// Dispute statuses.
const (
	DisputeSubmitted   = "SUBMITTED"
	DisputeUnderReview = "UNDER_REVIEW"
	DisputeRefunded    = "RESOLVED_REFUND"
	DisputeRejected    = "RESOLVED_REJECTED"
)

// Dispute decisions.
const (
	DecisionRefund = "REFUND"
	DecisionReject = "REJECT"
)

// Dispute is a user claim against a booking. An active dispute pauses the
// booking's escrow and blocks release until resolution.
type Dispute struct {
	ID         string `bson:"id" json:"id"`
	BookingID  string `bson:"booking_id" json:"booking_id"`
	UserID     string `bson:"user_id" json:"user_id"`
	OwnerID    string `bson:"owner_id" json:"owner_id"`
	FacilityID string `bson:"facility_id" json:"facility_id"`
	Reason     string `bson:"reason" json:"reason"`

	Status        string     `bson:"status" json:"status"`
	AdminDecision string     `bson:"admin_decision,omitempty" json:"admin_decision,omitempty"`
	RefundAmount  *int64     `bson:"refund_amount,omitempty" json:"refund_amount,omitempty"`
	ResolvedAt    *time.Time `bson:"resolved_at,omitempty" json:"resolved_at,omitempty"`
	CreatedAt     time.Time  `bson:"created_at" json:"created_at"`
}

// Active reports whether the dispute still blocks settlement.
func (d *Dispute) Active() bool {
	return d.Status == DisputeSubmitted || d.Status == DisputeUnderReview
}
