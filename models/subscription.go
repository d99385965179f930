package models

import "time"

// OwnerSubscription is a facility owner's platform subscription, purchased
// through the same payment pipeline as bookings (SUBSCRIPTION entity).
type OwnerSubscription struct {
	ID        string    `bson:"id" json:"id"`
	OwnerID   string    `bson:"owner_id" json:"owner_id"`
	Status    string    `bson:"status" json:"status"` // ACTIVE, EXPIRED
	StartsAt  time.Time `bson:"starts_at" json:"starts_at"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// SubscriptionActive is the ACTIVE subscription status.
const SubscriptionActive = "ACTIVE"

// SubscriptionExpired is the EXPIRED subscription status.
const SubscriptionExpired = "EXPIRED"
