package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"slotpass/config"
	facilityRepo "slotpass/database/repository/facility"
	paymentRepo "slotpass/database/repository/payment"
	reservationRepo "slotpass/database/repository/reservation"
	subscriptionRepo "slotpass/database/repository/subscription"
	"slotpass/models"
	"slotpass/services/subscription"
	"slotpass/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testBooking  = "bkg-1"
	testFacility = "fac-1"
	testOwner    = "own-1"
	testUser     = "usr-1"
	testOrder    = "order-1"
)

type fakeGateway struct {
	mu     sync.Mutex
	orders int
}

func (g *fakeGateway) CreateOrder(ctx context.Context, amount int64, currency string, metadata map[string]string) (*GatewayOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders++
	id := fmt.Sprintf("order-%d", g.orders)
	return &GatewayOrder{
		OrderID:      id,
		ClientSecret: id + "_secret",
		Amount:       amount,
		Currency:     currency,
	}, nil
}

func (g *fakeGateway) Refund(ctx context.Context, gatewayPaymentID string, amount int64) (string, error) {
	return "rfnd-1", nil
}

type fakeEscrowOpener struct {
	mu     sync.Mutex
	opened []string
	err    error
}

func (f *fakeEscrowOpener) CreateForBooking(ctx context.Context, booking *models.Booking, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.opened = append(f.opened, booking.ID+"/"+ownerID)
	return nil
}

type fakeScheduler struct {
	mu        sync.Mutex
	scheduled []string
}

func (f *fakeScheduler) ScheduleEscrowEnsure(ctx context.Context, bookingID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, bookingID)
	return nil
}

type paymentFixture struct {
	svc           *DefaultPaymentService
	payments      *paymentRepo.MemoryPaymentRepo
	reservations  *reservationRepo.MemoryReservationRepo
	subscriptions *subscriptionRepo.MemorySubscriptionRepo
	opener        *fakeEscrowOpener
	scheduler     *fakeScheduler
	gateway       *fakeGateway
}

func newFixture(t *testing.T) *paymentFixture {
	t.Helper()
	config.AppConfig.WebhookSecret = "whsec-test"

	payments := paymentRepo.NewMemoryPaymentRepo()
	reservations := reservationRepo.NewMemoryReservationRepo()
	facilities := facilityRepo.NewMemoryFacilityRepo()
	subs := subscriptionRepo.NewMemorySubscriptionRepo()
	opener := &fakeEscrowOpener{}
	scheduler := &fakeScheduler{}
	gateway := &fakeGateway{}

	facilities.Seed(models.Facility{ID: testFacility, OwnerID: testOwner})
	reservations.SeedBooking(models.Booking{
		ID:          testBooking,
		UserID:      testUser,
		FacilityID:  testFacility,
		StartDate:   utils.AddDays(utils.Today(), 1),
		EndDate:     utils.AddDays(utils.Today(), 3),
		TotalAmount: 2705,
		Status:      models.BookingAccepted,
	})

	svc := NewPaymentService(payments, reservations, facilities,
		opener, subscription.NewSubscriptionService(subs), gateway, scheduler)
	return &paymentFixture{
		svc:           svc,
		payments:      payments,
		reservations:  reservations,
		subscriptions: subs,
		opener:        opener,
		scheduler:     scheduler,
		gateway:       gateway,
	}
}

func (f *paymentFixture) seedPendingPayment(t *testing.T, entityType, entityID string, amount int64) {
	t.Helper()
	require.NoError(t, f.payments.Insert(context.Background(), &models.Payment{
		GatewayOrderID: testOrder,
		EntityType:     entityType,
		EntityID:       entityID,
		Amount:         amount,
		Currency:       "usd",
		Status:         models.PaymentPending,
		Metadata:       map[string]string{"client_secret": "sec-1", "owner_id": testOwner},
	}))
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(config.AppConfig.WebhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func eventBody(t *testing.T, event, orderID string, amount int64, currency string) []byte {
	t.Helper()
	var ev models.WebhookEvent
	ev.Event = event
	ev.Payload.Payment.Entity = models.WebhookPaymentEntity{
		ID:       "pay-1",
		OrderID:  orderID,
		Method:   "card",
		Amount:   amount,
		Currency: currency,
	}
	body, err := json.Marshal(ev)
	require.NoError(t, err)
	return body
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	f := newFixture(t)
	f.seedPendingPayment(t, models.EntityBooking, testBooking, 2705)
	body := eventBody(t, EventPaymentCaptured, testOrder, 2705, "usd")

	err := f.svc.HandleWebhookEvent(context.Background(), body, "deadbeef")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	p, _ := f.payments.GetByOrderID(context.Background(), testOrder)
	assert.Equal(t, models.PaymentPending, p.Status)
	assert.Empty(t, f.opener.opened)
}

func TestWebhookRejectsTamperedBody(t *testing.T) {
	f := newFixture(t)
	f.seedPendingPayment(t, models.EntityBooking, testBooking, 2705)
	body := eventBody(t, EventPaymentCaptured, testOrder, 2705, "usd")
	signature := sign(body)

	tampered := eventBody(t, EventPaymentCaptured, testOrder, 1, "usd")
	err := f.svc.HandleWebhookEvent(context.Background(), tampered, signature)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestWebhookMalformedBody(t *testing.T) {
	f := newFixture(t)
	body := []byte("{not json")

	err := f.svc.HandleWebhookEvent(context.Background(), body, sign(body))
	assert.ErrorIs(t, err, ErrMalformedEvent)
}

func TestWebhookCapturedActivatesBooking(t *testing.T) {
	f := newFixture(t)
	f.seedPendingPayment(t, models.EntityBooking, testBooking, 2705)
	body := eventBody(t, EventPaymentCaptured, testOrder, 2705, "usd")

	require.NoError(t, f.svc.HandleWebhookEvent(context.Background(), body, sign(body)))

	p, _ := f.payments.GetByOrderID(context.Background(), testOrder)
	assert.Equal(t, models.PaymentCaptured, p.Status)
	assert.Equal(t, "pay-1", p.GatewayPaymentID)

	booking, err := f.reservations.GetBooking(context.Background(), testBooking)
	require.NoError(t, err)
	assert.Equal(t, models.BookingActive, booking.Status)
	assert.Equal(t, []string{testBooking + "/" + testOwner}, f.opener.opened)
}

func TestWebhookCapturedRedelivery(t *testing.T) {
	f := newFixture(t)
	f.seedPendingPayment(t, models.EntityBooking, testBooking, 2705)
	body := eventBody(t, EventPaymentCaptured, testOrder, 2705, "usd")
	signature := sign(body)

	require.NoError(t, f.svc.HandleWebhookEvent(context.Background(), body, signature))
	require.NoError(t, f.svc.HandleWebhookEvent(context.Background(), body, signature))

	// Redelivery after a completed capture changes nothing.
	assert.Len(t, f.opener.opened, 1)
	booking, _ := f.reservations.GetBooking(context.Background(), testBooking)
	assert.Equal(t, models.BookingActive, booking.Status)
}

func TestWebhookCapturedAmountMismatch(t *testing.T) {
	f := newFixture(t)
	f.seedPendingPayment(t, models.EntityBooking, testBooking, 2705)

	cases := []struct {
		name     string
		amount   int64
		currency string
	}{
		{"wrong amount", 1000, "usd"},
		{"wrong currency", 2705, "eur"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := eventBody(t, EventPaymentCaptured, testOrder, tc.amount, tc.currency)
			err := f.svc.HandleWebhookEvent(context.Background(), body, sign(body))
			assert.ErrorIs(t, err, ErrAmountMismatch)

			p, _ := f.payments.GetByOrderID(context.Background(), testOrder)
			assert.Equal(t, models.PaymentPending, p.Status)
			booking, _ := f.reservations.GetBooking(context.Background(), testBooking)
			assert.Equal(t, models.BookingAccepted, booking.Status)
			assert.Empty(t, f.opener.opened)
		})
	}
}

func TestWebhookUnknownOrder(t *testing.T) {
	f := newFixture(t)
	body := eventBody(t, EventPaymentCaptured, "order-missing", 2705, "usd")

	err := f.svc.HandleWebhookEvent(context.Background(), body, sign(body))
	assert.ErrorIs(t, err, ErrUnknownOrder)
}

func TestWebhookUnknownEventAcknowledged(t *testing.T) {
	f := newFixture(t)
	f.seedPendingPayment(t, models.EntityBooking, testBooking, 2705)
	body := eventBody(t, "payment.authorized", testOrder, 2705, "usd")

	require.NoError(t, f.svc.HandleWebhookEvent(context.Background(), body, sign(body)))

	p, _ := f.payments.GetByOrderID(context.Background(), testOrder)
	assert.Equal(t, models.PaymentPending, p.Status)
}

func TestWebhookCapturedSubscription(t *testing.T) {
	f := newFixture(t)
	f.seedPendingPayment(t, models.EntitySubscription, "pending-x", subscription.PlanAmountMinor)
	body := eventBody(t, EventPaymentCaptured, testOrder, subscription.PlanAmountMinor, "usd")

	require.NoError(t, f.svc.HandleWebhookEvent(context.Background(), body, sign(body)))

	active, err := subscription.NewSubscriptionService(f.subscriptions).Current(context.Background(), testOwner)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, models.SubscriptionActive, active.Status)

	// Capture rebinds the placeholder payment to the created subscription.
	p, _ := f.payments.GetByOrderID(context.Background(), testOrder)
	assert.Equal(t, active.ID, p.EntityID)
	assert.Equal(t, models.PaymentCaptured, p.Status)
	assert.Empty(t, f.opener.opened)
}

func TestWebhookFailedIdempotent(t *testing.T) {
	f := newFixture(t)
	f.seedPendingPayment(t, models.EntityBooking, testBooking, 2705)
	body := eventBody(t, EventPaymentFailed, testOrder, 2705, "usd")
	signature := sign(body)

	require.NoError(t, f.svc.HandleWebhookEvent(context.Background(), body, signature))
	require.NoError(t, f.svc.HandleWebhookEvent(context.Background(), body, signature))

	p, _ := f.payments.GetByOrderID(context.Background(), testOrder)
	assert.Equal(t, models.PaymentFailed, p.Status)
	booking, _ := f.reservations.GetBooking(context.Background(), testBooking)
	assert.Equal(t, models.BookingAccepted, booking.Status)
}

func TestWebhookEscrowFailureDefersToRetry(t *testing.T) {
	f := newFixture(t)
	f.seedPendingPayment(t, models.EntityBooking, testBooking, 2705)
	f.opener.err = errors.New("store unavailable")
	body := eventBody(t, EventPaymentCaptured, testOrder, 2705, "usd")

	// The capture itself must succeed; escrow creation is retried later.
	require.NoError(t, f.svc.HandleWebhookEvent(context.Background(), body, sign(body)))

	p, _ := f.payments.GetByOrderID(context.Background(), testOrder)
	assert.Equal(t, models.PaymentCaptured, p.Status)
	assert.Equal(t, []string{testBooking}, f.scheduler.scheduled)
}

func TestEnsureEscrow(t *testing.T) {
	f := newFixture(t)

	// No captured payment yet: nothing to do, no error.
	require.NoError(t, f.svc.EnsureEscrow(context.Background(), testBooking))
	assert.Empty(t, f.opener.opened)

	require.NoError(t, f.payments.Insert(context.Background(), &models.Payment{
		GatewayOrderID:   testOrder,
		GatewayPaymentID: "pay-1",
		EntityType:       models.EntityBooking,
		EntityID:         testBooking,
		Amount:           2705,
		Currency:         "usd",
		Status:           models.PaymentCaptured,
	}))

	require.NoError(t, f.svc.EnsureEscrow(context.Background(), testBooking))
	assert.Equal(t, []string{testBooking + "/" + testOwner}, f.opener.opened)
}

func TestCreateOrderForBooking(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.CreateOrderForBooking(context.Background(), testUser, testBooking)
	require.NoError(t, err)
	assert.Equal(t, int64(2705), order.Amount)
	assert.Equal(t, "usd", order.Currency)
	assert.NotEmpty(t, order.ClientSecret)

	// A retry while the order is still pending reuses it.
	again, err := f.svc.CreateOrderForBooking(context.Background(), testUser, testBooking)
	require.NoError(t, err)
	assert.Equal(t, order.OrderID, again.OrderID)
	assert.Equal(t, order.ClientSecret, again.ClientSecret)
	assert.Equal(t, 1, f.gateway.orders)
}

func TestCreateOrderForBookingGuards(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateOrderForBooking(context.Background(), testUser, "bkg-missing")
	assert.ErrorIs(t, err, ErrBookingNotFound)

	// Owner-scoped lookup: someone else's booking reads as absent.
	_, err = f.svc.CreateOrderForBooking(context.Background(), "usr-2", testBooking)
	assert.ErrorIs(t, err, ErrBookingNotFound)

	f.reservations.SeedBooking(models.Booking{
		ID:         "bkg-2",
		UserID:     testUser,
		FacilityID: testFacility,
		Status:     models.BookingCancelled,
	})
	_, err = f.svc.CreateOrderForBooking(context.Background(), testUser, "bkg-2")
	assert.ErrorIs(t, err, ErrBookingNotPayable)
}

func TestCreateOrderForBookingAlreadyPaid(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.payments.Insert(context.Background(), &models.Payment{
		GatewayOrderID: testOrder,
		EntityType:     models.EntityBooking,
		EntityID:       testBooking,
		Amount:         2705,
		Currency:       "usd",
		Status:         models.PaymentCaptured,
	}))

	_, err := f.svc.CreateOrderForBooking(context.Background(), testUser, testBooking)
	assert.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestCreateOrderForSubscription(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.CreateOrderForSubscription(context.Background(), testOwner)
	require.NoError(t, err)
	assert.Equal(t, subscription.PlanAmountMinor, order.Amount)
	assert.Equal(t, subscription.PlanCurrency, order.Currency)

	p, err := f.payments.GetByOrderID(context.Background(), order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.EntitySubscription, p.EntityType)
	assert.Equal(t, testOwner, p.Metadata["owner_id"])
}
