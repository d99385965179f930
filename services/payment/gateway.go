package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"
)

// GatewayOrder is a payable order created at the gateway. The client confirms
// it; capture and failure come back over the webhook.
type GatewayOrder struct {
	OrderID      string `json:"orderId"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// Gateway is the payment provider surface the settlement engine needs.
type Gateway interface {
	CreateOrder(ctx context.Context, amount int64, currency string, metadata map[string]string) (*GatewayOrder, error)

	// Refund returns money against a captured gateway payment and returns the
	// provider's refund id.
	Refund(ctx context.Context, gatewayPaymentID string, amount int64) (string, error)
}

// StripeGateway implements Gateway on Stripe payment intents.
type StripeGateway struct{}

// NewStripeGateway constructs a new instance of StripeGateway. The package
// level stripe.Key must already be set.
func NewStripeGateway() *StripeGateway {
	return &StripeGateway{}
}

func (g *StripeGateway) CreateOrder(ctx context.Context, amount int64, currency string, metadata map[string]string) (*GatewayOrder, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("gateway order creation failed: %w", err)
	}
	return &GatewayOrder{
		OrderID:      intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       amount,
		Currency:     currency,
	}, nil
}

func (g *StripeGateway) Refund(ctx context.Context, gatewayPaymentID string, amount int64) (string, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(gatewayPaymentID),
		Amount:        stripe.Int64(amount),
	}
	params.Context = ctx

	ref, err := refund.New(params)
	if err != nil {
		return "", fmt.Errorf("gateway refund failed: %w", err)
	}
	return ref.ID, nil
}
