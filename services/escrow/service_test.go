package escrow

import (
	"context"
	"errors"
	"sync"
	"testing"

	disputeRepo "slotpass/database/repository/dispute"
	escrowRepo "slotpass/database/repository/escrow"
	paymentRepo "slotpass/database/repository/payment"
	reservationRepo "slotpass/database/repository/reservation"
	"slotpass/models"
	"slotpass/services/payment"
	"slotpass/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testBooking = "bkg-1"
	testOwner   = "own-1"
)

type refundCall struct {
	gatewayPaymentID string
	amount           int64
}

// stubGateway records refund calls and can be forced to fail.
type stubGateway struct {
	mu        sync.Mutex
	refunds   []refundCall
	refundErr error
}

func (g *stubGateway) CreateOrder(ctx context.Context, amount int64, currency string, metadata map[string]string) (*payment.GatewayOrder, error) {
	return &payment.GatewayOrder{OrderID: "order-stub", Amount: amount, Currency: currency}, nil
}

func (g *stubGateway) Refund(ctx context.Context, gatewayPaymentID string, amount int64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refundErr != nil {
		return "", g.refundErr
	}
	g.refunds = append(g.refunds, refundCall{gatewayPaymentID, amount})
	return "rfnd-1", nil
}

func newTestService(t *testing.T) (*DefaultEscrowService, *escrowRepo.MemoryEscrowRepo, *paymentRepo.MemoryPaymentRepo, *disputeRepo.MemoryDisputeRepo, *stubGateway, *reservationRepo.MemoryReservationRepo) {
	t.Helper()
	escrows := escrowRepo.NewMemoryEscrowRepo()
	payments := paymentRepo.NewMemoryPaymentRepo()
	disputes := disputeRepo.NewMemoryDisputeRepo()
	bookings := reservationRepo.NewMemoryReservationRepo()
	gateway := &stubGateway{}
	return NewEscrowService(escrows, payments, disputes, bookings, gateway), escrows, payments, disputes, gateway, bookings
}

func testBookingDoc(start, end string) *models.Booking {
	return &models.Booking{
		ID:          testBooking,
		FacilityID:  "fac-1",
		StartDate:   start,
		EndDate:     end,
		TotalAmount: 2705,
		PlatformFee: 5,
		Status:      models.BookingActive,
	}
}

func seedCapturedPayment(t *testing.T, payments *paymentRepo.MemoryPaymentRepo) {
	t.Helper()
	require.NoError(t, payments.Insert(context.Background(), &models.Payment{
		GatewayOrderID:   "order-1",
		GatewayPaymentID: "pay-1",
		EntityType:       models.EntityBooking,
		EntityID:         testBooking,
		Amount:           2705,
		Currency:         "usd",
		Status:           models.PaymentCaptured,
	}))
}

func TestCreateForBookingOnce(t *testing.T) {
	svc, escrows, _, _, _, _ := newTestService(t)
	booking := testBookingDoc("2026-09-01", "2026-09-03")

	require.NoError(t, svc.CreateForBooking(context.Background(), booking, testOwner))

	e, err := escrows.GetByBookingID(context.Background(), testBooking)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, models.EscrowHeld, e.Status)
	assert.Equal(t, int64(2705), e.AmountHeld)
	assert.Equal(t, int64(5), e.PlatformFee)
	assert.Equal(t, "2026-09-04", e.ReleaseDate)
	assert.Equal(t, int64(2700), e.PayoutAmount())

	// A replayed capture finds the hold and succeeds without a second row.
	require.NoError(t, svc.CreateForBooking(context.Background(), booking, testOwner))
	all, err := escrows.ListByOwner(context.Background(), testOwner)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestReleaseOnlyFromHeld(t *testing.T) {
	svc, escrows, _, _, _, _ := newTestService(t)
	e := &models.Escrow{BookingID: testBooking, OwnerID: testOwner, Status: models.EscrowHeld, ReleaseDate: utils.Today()}
	require.NoError(t, escrows.Insert(context.Background(), e))

	require.NoError(t, svc.Release(context.Background(), e.ID))

	stored, err := escrows.GetByID(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EscrowReleased, stored.Status)
	assert.NotNil(t, stored.ReleasedAt)

	// Releasing a released hold is a no-op, not an error.
	require.NoError(t, svc.Release(context.Background(), e.ID))

	assert.ErrorIs(t, svc.Release(context.Background(), "esc-missing"), ErrEscrowNotFound)
}

func TestBlockFreezesEscrowAndBooking(t *testing.T) {
	svc, escrows, _, _, _, bookings := newTestService(t)
	bookings.SeedBooking(*testBookingDoc("2026-09-01", "2026-09-03"))
	e := &models.Escrow{BookingID: testBooking, OwnerID: testOwner, AmountHeld: 2705, Status: models.EscrowHeld}
	require.NoError(t, escrows.Insert(context.Background(), e))

	require.NoError(t, svc.Block(context.Background(), e.ID))

	stored, err := escrows.GetByID(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EscrowPaused, stored.Status)

	booking, err := bookings.GetBooking(context.Background(), testBooking)
	require.NoError(t, err)
	assert.Equal(t, models.BookingDisputed, booking.Status)

	// Blocking an already paused hold is a no-op.
	require.NoError(t, svc.Block(context.Background(), e.ID))

	assert.ErrorIs(t, svc.Block(context.Background(), "esc-missing"), ErrEscrowNotFound)
}

func TestBlockSettledRejected(t *testing.T) {
	svc, escrows, _, _, _, _ := newTestService(t)
	e := &models.Escrow{BookingID: testBooking, OwnerID: testOwner, AmountHeld: 2705, Status: models.EscrowReleased}
	require.NoError(t, escrows.Insert(context.Background(), e))

	assert.ErrorIs(t, svc.Block(context.Background(), e.ID), ErrNotBlockable)
}

func TestRefundByEscrowID(t *testing.T) {
	svc, escrows, payments, _, gateway, _ := newTestService(t)
	seedCapturedPayment(t, payments)
	e := &models.Escrow{BookingID: testBooking, OwnerID: testOwner, AmountHeld: 2705, Status: models.EscrowPaused}
	require.NoError(t, escrows.Insert(context.Background(), e))

	require.NoError(t, svc.Refund(context.Background(), e.ID))

	stored, err := escrows.GetByID(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EscrowRefunded, stored.Status)
	require.Len(t, gateway.refunds, 1)
	assert.Equal(t, refundCall{"pay-1", 2705}, gateway.refunds[0])

	assert.ErrorIs(t, svc.Refund(context.Background(), "esc-missing"), ErrEscrowNotFound)
}

func TestReleasePausedRejected(t *testing.T) {
	svc, escrows, _, _, _, _ := newTestService(t)
	e := &models.Escrow{BookingID: testBooking, OwnerID: testOwner, Status: models.EscrowPaused, ReleaseDate: utils.Today()}
	require.NoError(t, escrows.Insert(context.Background(), e))

	assert.ErrorIs(t, svc.Release(context.Background(), e.ID), ErrNotReleasable)
}

func TestReleaseBlockedByDispute(t *testing.T) {
	svc, escrows, _, disputes, _, _ := newTestService(t)
	e := &models.Escrow{BookingID: testBooking, OwnerID: testOwner, Status: models.EscrowHeld, ReleaseDate: utils.Today()}
	require.NoError(t, escrows.Insert(context.Background(), e))
	require.NoError(t, disputes.Insert(context.Background(), &models.Dispute{
		BookingID: testBooking,
		Status:    models.DisputeSubmitted,
	}))

	assert.ErrorIs(t, svc.Release(context.Background(), e.ID), ErrDisputeOpen)

	stored, err := escrows.GetByID(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EscrowHeld, stored.Status)
}

func TestRefundForBooking(t *testing.T) {
	svc, escrows, payments, _, gateway, _ := newTestService(t)
	seedCapturedPayment(t, payments)
	e := &models.Escrow{BookingID: testBooking, OwnerID: testOwner, AmountHeld: 2705, Status: models.EscrowHeld}
	require.NoError(t, escrows.Insert(context.Background(), e))

	require.NoError(t, svc.RefundForBooking(context.Background(), testBooking))

	stored, err := escrows.GetByID(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EscrowRefunded, stored.Status)
	require.Len(t, gateway.refunds, 1)
	assert.Equal(t, refundCall{"pay-1", 2705}, gateway.refunds[0])

	p, err := payments.GetByOrderID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, p.Status)
	assert.Equal(t, "rfnd-1", p.Metadata["refund_id"])

	// Refunding again is a no-op with no second gateway call.
	require.NoError(t, svc.RefundForBooking(context.Background(), testBooking))
	assert.Len(t, gateway.refunds, 1)
}

func TestRefundRollsBackOnGatewayFailure(t *testing.T) {
	svc, escrows, payments, _, gateway, _ := newTestService(t)
	seedCapturedPayment(t, payments)
	gateway.refundErr = errors.New("gateway unavailable")
	e := &models.Escrow{BookingID: testBooking, OwnerID: testOwner, AmountHeld: 2705, Status: models.EscrowPaused}
	require.NoError(t, escrows.Insert(context.Background(), e))

	err := svc.RefundForBooking(context.Background(), testBooking)
	require.Error(t, err)

	// The optimistic flip is undone so the hold can settle later.
	stored, getErr := escrows.GetByID(context.Background(), e.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.EscrowPaused, stored.Status)
}

func TestRefundRequiresCapturedPayment(t *testing.T) {
	svc, escrows, payments, _, gateway, _ := newTestService(t)
	e := &models.Escrow{BookingID: testBooking, OwnerID: testOwner, AmountHeld: 2705, Status: models.EscrowHeld}
	require.NoError(t, escrows.Insert(context.Background(), e))

	// No payment at all.
	assert.ErrorIs(t, svc.RefundForBooking(context.Background(), testBooking), ErrPaymentNotCharged)

	// Payment exists but was never captured.
	require.NoError(t, payments.Insert(context.Background(), &models.Payment{
		GatewayOrderID: "order-1",
		EntityType:     models.EntityBooking,
		EntityID:       testBooking,
		Status:         models.PaymentPending,
	}))
	assert.ErrorIs(t, svc.RefundForBooking(context.Background(), testBooking), ErrPaymentNotCharged)
	assert.Empty(t, gateway.refunds)
}

func TestRefundReleasedRejected(t *testing.T) {
	svc, escrows, payments, _, _, _ := newTestService(t)
	seedCapturedPayment(t, payments)
	e := &models.Escrow{BookingID: testBooking, OwnerID: testOwner, Status: models.EscrowReleased}
	require.NoError(t, escrows.Insert(context.Background(), e))

	assert.ErrorIs(t, svc.RefundForBooking(context.Background(), testBooking), ErrNotRefundable)
}

func TestPauseResume(t *testing.T) {
	svc, escrows, _, _, _, _ := newTestService(t)
	e := &models.Escrow{BookingID: testBooking, OwnerID: testOwner, Status: models.EscrowHeld}
	require.NoError(t, escrows.Insert(context.Background(), e))

	require.NoError(t, svc.Pause(context.Background(), testBooking))
	stored, _ := escrows.GetByID(context.Background(), e.ID)
	assert.Equal(t, models.EscrowPaused, stored.Status)

	// Pausing a paused hold is a no-op.
	require.NoError(t, svc.Pause(context.Background(), testBooking))

	require.NoError(t, svc.Resume(context.Background(), testBooking))
	stored, _ = escrows.GetByID(context.Background(), e.ID)
	assert.Equal(t, models.EscrowHeld, stored.Status)

	assert.ErrorIs(t, svc.Pause(context.Background(), "bkg-missing"), ErrEscrowNotFound)
}

func TestHandleBookingCancellation(t *testing.T) {
	tomorrow := utils.AddDays(utils.Today(), 1)

	t.Run("held hold before start is refunded", func(t *testing.T) {
		svc, escrows, payments, _, gateway, _ := newTestService(t)
		seedCapturedPayment(t, payments)
		require.NoError(t, escrows.Insert(context.Background(), &models.Escrow{
			BookingID: testBooking, OwnerID: testOwner, AmountHeld: 2705, Status: models.EscrowHeld,
		}))

		require.NoError(t, svc.HandleBookingCancellation(context.Background(), testBookingDoc(tomorrow, utils.AddDays(tomorrow, 2))))
		assert.Len(t, gateway.refunds, 1)
	})

	t.Run("no escrow means nothing to reverse", func(t *testing.T) {
		svc, _, _, _, gateway, _ := newTestService(t)
		require.NoError(t, svc.HandleBookingCancellation(context.Background(), testBookingDoc(tomorrow, utils.AddDays(tomorrow, 2))))
		assert.Empty(t, gateway.refunds)
	})

	t.Run("pass already started keeps the hold", func(t *testing.T) {
		svc, escrows, payments, _, gateway, _ := newTestService(t)
		seedCapturedPayment(t, payments)
		require.NoError(t, escrows.Insert(context.Background(), &models.Escrow{
			BookingID: testBooking, OwnerID: testOwner, AmountHeld: 2705, Status: models.EscrowHeld,
		}))

		require.NoError(t, svc.HandleBookingCancellation(context.Background(), testBookingDoc(utils.Today(), utils.AddDays(utils.Today(), 2))))
		assert.Empty(t, gateway.refunds)
	})
}

func TestReleaseDueEscrows(t *testing.T) {
	svc, escrows, _, disputes, _, _ := newTestService(t)
	today := utils.Today()

	due1 := &models.Escrow{BookingID: "bkg-a", OwnerID: testOwner, Status: models.EscrowHeld, ReleaseDate: utils.AddDays(today, -1)}
	due2 := &models.Escrow{BookingID: "bkg-b", OwnerID: testOwner, Status: models.EscrowHeld, ReleaseDate: today}
	disputed := &models.Escrow{BookingID: "bkg-c", OwnerID: testOwner, Status: models.EscrowHeld, ReleaseDate: today}
	future := &models.Escrow{BookingID: "bkg-d", OwnerID: testOwner, Status: models.EscrowHeld, ReleaseDate: utils.AddDays(today, 3)}
	for _, e := range []*models.Escrow{due1, due2, disputed, future} {
		require.NoError(t, escrows.Insert(context.Background(), e))
	}
	require.NoError(t, disputes.Insert(context.Background(), &models.Dispute{
		BookingID: "bkg-c",
		Status:    models.DisputeSubmitted,
	}))

	released, err := svc.ReleaseDueEscrows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, released)

	for id, want := range map[string]string{
		due1.ID:     models.EscrowReleased,
		due2.ID:     models.EscrowReleased,
		disputed.ID: models.EscrowHeld,
		future.ID:   models.EscrowHeld,
	} {
		stored, err := escrows.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, want, stored.Status, "escrow %s", id)
	}
}
