package models

import "time"

// Payment statuses.
const (
	PaymentPending  = "PENDING"
	PaymentCaptured = "CAPTURED"
	PaymentFailed   = "FAILED"
	PaymentRefunded = "REFUNDED"
)

// Payment entity types.
const (
	EntityBooking      = "BOOKING"
	EntitySubscription = "SUBSCRIPTION"
)

// Payment tracks one gateway order. EntityID points at the booking or, for
// subscriptions, at a placeholder until the subscription is created on
// capture and the payment is rebound.
type Payment struct {
	ID               string `bson:"id" json:"id"`
	GatewayOrderID   string `bson:"gateway_order_id" json:"gateway_order_id"` // unique
	GatewayPaymentID string `bson:"gateway_payment_id,omitempty" json:"gateway_payment_id,omitempty"`
	EntityType       string `bson:"entity_type" json:"entity_type"`
	EntityID         string `bson:"entity_id" json:"entity_id"`

	Amount   int64  `bson:"amount" json:"amount"` // minor currency units
	Currency string `bson:"currency" json:"currency"`
	Method   string `bson:"method,omitempty" json:"method,omitempty"`
	Status   string `bson:"status" json:"status"`

	Metadata  map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time         `bson:"updated_at" json:"updated_at"`
}

// WebhookPaymentEntity is the payment object carried by gateway webhooks.
type WebhookPaymentEntity struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Method   string `json:"method"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// WebhookEvent is the envelope delivered by the payment gateway.
type WebhookEvent struct {
	Event   string `json:"event"` // "payment.captured" or "payment.failed"
	Payload struct {
		Payment struct {
			Entity WebhookPaymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}
