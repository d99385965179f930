package escrow

import (
	"context"
	"errors"
	"time"

	disputeRepo "slotpass/database/repository/dispute"
	escrowRepo "slotpass/database/repository/escrow"
	paymentRepo "slotpass/database/repository/payment"
	"slotpass/models"
	"slotpass/services/payment"
	"slotpass/utils"

	"go.uber.org/zap"
)

// sweepBatchSize caps how many due escrows one sweep run settles.
const sweepBatchSize = 100

// BookingFlagger flips a booking into DISPUTED when its escrow is blocked.
// Local interface so the escrow package does not depend on the reservation
// store wiring.
type BookingFlagger interface {
	UpdateBookingStatus(ctx context.Context, bookingID string, from []string, to string) (bool, error)
}

// EscrowService settles platform-held booking payments: release to the owner
// after the pass ends, refund to the user, or freeze under dispute. Every
// transition is a compare-and-swap on the current status, so concurrent
// settlers (sweep runs, webhook retries, admin actions) cannot double-settle.
type EscrowService interface {
	CreateForBooking(ctx context.Context, booking *models.Booking, ownerID string) error
	Release(ctx context.Context, escrowID string) error
	Block(ctx context.Context, escrowID string) error
	Refund(ctx context.Context, escrowID string) error
	RefundForBooking(ctx context.Context, bookingID string) error
	Pause(ctx context.Context, bookingID string) error
	Resume(ctx context.Context, bookingID string) error
	HandleBookingCancellation(ctx context.Context, booking *models.Booking) error
	ReleaseDueEscrows(ctx context.Context) (int, error)
	GetForBooking(ctx context.Context, bookingID string) (*models.Escrow, error)
	ListForOwner(ctx context.Context, ownerID string) ([]models.Escrow, error)
}

// DefaultEscrowService is the production implementation.
type DefaultEscrowService struct {
	Escrows  escrowRepo.EscrowRepository
	Payments paymentRepo.PaymentRepository
	Disputes disputeRepo.DisputeRepository
	Bookings BookingFlagger
	Gateway  payment.Gateway
	Logger   *zap.Logger
}

// NewEscrowService constructs a new instance of DefaultEscrowService.
func NewEscrowService(escrows escrowRepo.EscrowRepository, payments paymentRepo.PaymentRepository, disputes disputeRepo.DisputeRepository, bookings BookingFlagger, gateway payment.Gateway) *DefaultEscrowService {
	return &DefaultEscrowService{
		Escrows:  escrows,
		Payments: payments,
		Disputes: disputes,
		Bookings: bookings,
		Gateway:  gateway,
		Logger:   utils.GetLogger().Named("escrow-service"),
	}
}

// CreateForBooking opens the HELD escrow at payment capture. The hold matures
// one day after the pass ends. Creation is once per booking; a replayed
// capture finds the existing hold and succeeds without a second insert.
func (s *DefaultEscrowService) CreateForBooking(ctx context.Context, booking *models.Booking, ownerID string) error {
	e := &models.Escrow{
		BookingID:   booking.ID,
		OwnerID:     ownerID,
		AmountHeld:  booking.TotalAmount,
		PlatformFee: booking.PlatformFee,
		Status:      models.EscrowHeld,
		ReleaseDate: utils.AddDays(booking.EndDate, 1),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	err := s.Escrows.Insert(ctx, e)
	if errors.Is(err, escrowRepo.ErrExists) {
		return nil
	}
	if err != nil {
		return err
	}
	s.Logger.Info("escrow opened",
		zap.String("bookingID", booking.ID),
		zap.Int64("amountHeld", e.AmountHeld),
		zap.String("releaseDate", e.ReleaseDate))
	return nil
}

// Release pays a matured hold out to the owner. Only HELD escrows release,
// and never while a dispute is open. A hold another settler already released
// is treated as done.
func (s *DefaultEscrowService) Release(ctx context.Context, escrowID string) error {
	e, err := s.Escrows.GetByID(ctx, escrowID)
	if err != nil {
		return err
	}
	if e == nil {
		return ErrEscrowNotFound
	}
	if e.Status == models.EscrowReleased {
		return nil
	}
	if e.Status != models.EscrowHeld {
		return ErrNotReleasable
	}
	open, err := s.Disputes.HasActiveDispute(ctx, e.BookingID)
	if err != nil {
		return err
	}
	if open {
		return ErrDisputeOpen
	}

	now := time.Now()
	won, err := s.Escrows.TransitionStatus(ctx, e.ID, []string{models.EscrowHeld}, models.EscrowReleased, &now)
	if err != nil {
		return err
	}
	if !won {
		// Another settler got there first.
		return nil
	}
	utils.EscrowsReleased.Inc()
	s.Logger.Info("escrow released",
		zap.String("escrowID", e.ID),
		zap.String("bookingID", e.BookingID),
		zap.Int64("payout", e.PayoutAmount()))
	return nil
}

// Block is the admin freeze: the escrow moves to PAUSED and the booking is
// forced into DISPUTED so attendance and release both stop. Any state short
// of settled can be blocked; RELEASED and REFUNDED money is gone.
func (s *DefaultEscrowService) Block(ctx context.Context, escrowID string) error {
	e, err := s.Escrows.GetByID(ctx, escrowID)
	if err != nil {
		return err
	}
	if e == nil {
		return ErrEscrowNotFound
	}
	if e.Status == models.EscrowReleased || e.Status == models.EscrowRefunded {
		return ErrNotBlockable
	}
	if e.Status != models.EscrowPaused {
		won, err := s.Escrows.TransitionStatus(ctx, e.ID, []string{models.EscrowHeld}, models.EscrowPaused, nil)
		if err != nil {
			return err
		}
		if !won {
			return ErrNotBlockable
		}
	}
	if _, err := s.Bookings.UpdateBookingStatus(ctx, e.BookingID,
		[]string{models.BookingPending, models.BookingAccepted, models.BookingActive}, models.BookingDisputed); err != nil {
		return err
	}
	s.Logger.Info("escrow blocked",
		zap.String("escrowID", e.ID), zap.String("bookingID", e.BookingID))
	return nil
}

// Refund is the admin force-refund addressed by escrow id.
func (s *DefaultEscrowService) Refund(ctx context.Context, escrowID string) error {
	e, err := s.Escrows.GetByID(ctx, escrowID)
	if err != nil {
		return err
	}
	if e == nil {
		return ErrEscrowNotFound
	}
	return s.RefundForBooking(ctx, e.BookingID)
}

// RefundForBooking returns the full held amount to the user through the
// gateway. The escrow is flipped to REFUNDED before the gateway call and
// flipped back if the gateway rejects it, so a concurrent release can never
// pay out money that is on its way back to the user. Already-refunded holds
// are a no-op.
func (s *DefaultEscrowService) RefundForBooking(ctx context.Context, bookingID string) error {
	e, err := s.Escrows.GetByBookingID(ctx, bookingID)
	if err != nil {
		return err
	}
	if e == nil {
		return ErrEscrowNotFound
	}
	if e.Status == models.EscrowRefunded {
		return nil
	}
	if e.Status != models.EscrowHeld && e.Status != models.EscrowPaused {
		return ErrNotRefundable
	}

	p, err := s.Payments.GetByEntity(ctx, models.EntityBooking, bookingID)
	if err != nil {
		return err
	}
	if p == nil || p.GatewayPaymentID == "" ||
		(p.Status != models.PaymentCaptured && p.Status != models.PaymentRefunded) {
		return ErrPaymentNotCharged
	}

	prior := e.Status
	won, err := s.Escrows.TransitionStatus(ctx, e.ID, []string{prior}, models.EscrowRefunded, nil)
	if err != nil {
		return err
	}
	if !won {
		// Status moved under us; re-evaluate on retry.
		return ErrNotRefundable
	}

	refundID, err := s.Gateway.Refund(ctx, p.GatewayPaymentID, e.AmountHeld)
	if err != nil {
		if _, rbErr := s.Escrows.TransitionStatus(ctx, e.ID, []string{models.EscrowRefunded}, prior, nil); rbErr != nil {
			s.Logger.Error("escrow refund rollback failed",
				zap.String("escrowID", e.ID), zap.Error(rbErr))
		}
		return err
	}
	if err := s.Payments.MarkRefunded(ctx, p.GatewayOrderID, refundID); err != nil {
		// The money moved; surface the bookkeeping failure without undoing
		// the escrow state.
		s.Logger.Error("payment refund bookkeeping failed",
			zap.String("orderID", p.GatewayOrderID), zap.Error(err))
		return err
	}
	s.Logger.Info("escrow refunded",
		zap.String("escrowID", e.ID),
		zap.String("bookingID", bookingID),
		zap.String("refundID", refundID))
	return nil
}

// Pause freezes a HELD escrow while a dispute is reviewed.
func (s *DefaultEscrowService) Pause(ctx context.Context, bookingID string) error {
	return s.flip(ctx, bookingID, models.EscrowHeld, models.EscrowPaused)
}

// Resume returns a PAUSED escrow to HELD after a dispute is rejected.
func (s *DefaultEscrowService) Resume(ctx context.Context, bookingID string) error {
	return s.flip(ctx, bookingID, models.EscrowPaused, models.EscrowHeld)
}

func (s *DefaultEscrowService) flip(ctx context.Context, bookingID, from, to string) error {
	e, err := s.Escrows.GetByBookingID(ctx, bookingID)
	if err != nil {
		return err
	}
	if e == nil {
		return ErrEscrowNotFound
	}
	if e.Status == to {
		return nil
	}
	won, err := s.Escrows.TransitionStatus(ctx, e.ID, []string{from}, to, nil)
	if err != nil {
		return err
	}
	if !won {
		return ErrNotRefundable
	}
	return nil
}

// HandleBookingCancellation reverses the escrow of a cancelled booking. Only
// a hold still HELD before the pass starts is refunded; a booking that was
// never paid has no escrow and nothing to reverse.
func (s *DefaultEscrowService) HandleBookingCancellation(ctx context.Context, booking *models.Booking) error {
	e, err := s.Escrows.GetByBookingID(ctx, booking.ID)
	if err != nil {
		return err
	}
	if e == nil {
		return nil
	}
	if e.Status != models.EscrowHeld || utils.Today() >= booking.StartDate {
		return nil
	}
	return s.RefundForBooking(ctx, booking.ID)
}

// ReleaseDueEscrows settles every matured hold. Individual failures are
// logged and skipped so one bad row cannot stall the sweep; the next run
// picks it up again. Safe to run concurrently.
func (s *DefaultEscrowService) ReleaseDueEscrows(ctx context.Context) (int, error) {
	due, err := s.Escrows.ListDue(ctx, utils.Today(), sweepBatchSize)
	if err != nil {
		return 0, err
	}
	released := 0
	for i := range due {
		if err := s.Release(ctx, due[i].ID); err != nil {
			s.Logger.Warn("escrow release skipped",
				zap.String("escrowID", due[i].ID), zap.Error(err))
			continue
		}
		released++
	}
	return released, nil
}

func (s *DefaultEscrowService) GetForBooking(ctx context.Context, bookingID string) (*models.Escrow, error) {
	e, err := s.Escrows.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrEscrowNotFound
	}
	return e, nil
}

func (s *DefaultEscrowService) ListForOwner(ctx context.Context, ownerID string) ([]models.Escrow, error) {
	return s.Escrows.ListByOwner(ctx, ownerID)
}
