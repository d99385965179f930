package dispute

import (
	"context"
	"errors"
	"time"

	disputeRepo "slotpass/database/repository/dispute"
	facilityRepo "slotpass/database/repository/facility"
	reservationRepo "slotpass/database/repository/reservation"
	"slotpass/models"
	"slotpass/services/escrow"
	"slotpass/utils"

	"go.uber.org/zap"
)

const (
	// disputeGraceMinutes extends the dispute window past the slot end.
	disputeGraceMinutes = 15

	// trust scoring applied at resolution.
	trustRewardRefunded  = 5
	trustPenaltyRejected = 10

	// falseDisputeThreshold is the lifetime rejected-dispute count that flags
	// an account.
	falseDisputeThreshold = 3
)

// CreateDisputeRequest carries a user's claim against a booking.
type CreateDisputeRequest struct {
	UserID    string
	BookingID string `json:"bookingId" binding:"required"`
	Reason    string `json:"reason" binding:"required"`
}

// DisputeService files user claims against bookings and applies admin
// resolutions. Filing freezes the booking's escrow; resolution settles it and
// adjusts the user's trust score.
type DisputeService interface {
	Create(ctx context.Context, req CreateDisputeRequest) (*models.Dispute, error)
	Resolve(ctx context.Context, disputeID, decision string) (*models.Dispute, error)
	GetByBooking(ctx context.Context, bookingID string) (*models.Dispute, error)
}

// DefaultDisputeService is the production implementation.
type DefaultDisputeService struct {
	Disputes     disputeRepo.DisputeRepository
	Reservations reservationRepo.ReservationRepository
	Facilities   facilityRepo.FacilityRepository
	Escrows      escrow.EscrowService
	Logger       *zap.Logger

	now func() time.Time
}

// NewDisputeService constructs a new instance of DefaultDisputeService.
func NewDisputeService(disputes disputeRepo.DisputeRepository, reservations reservationRepo.ReservationRepository, facilities facilityRepo.FacilityRepository, escrows escrow.EscrowService) *DefaultDisputeService {
	return &DefaultDisputeService{
		Disputes:     disputes,
		Reservations: reservations,
		Facilities:   facilities,
		Escrows:      escrows,
		Logger:       utils.GetLogger().Named("dispute-service"),
		now:          time.Now,
	}
}

// Create files a dispute. The booking must belong to the caller, be ACTIVE or
// ACCEPTED, carry no other active dispute, and the claim must be raised
// during the slot window of a covered day before attendance is marked. The
// dispute insert, the booking DISPUTED flip and the escrow pause commit
// together.
func (s *DefaultDisputeService) Create(ctx context.Context, req CreateDisputeRequest) (*models.Dispute, error) {
	if req.Reason == "" {
		return nil, ErrReasonRequired
	}

	var dispute *models.Dispute
	err := s.Disputes.RunInTransaction(ctx, func(ctx context.Context) error {
		booking, err := s.Reservations.GetBooking(ctx, req.BookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return ErrBookingNotFound
		}
		if booking.UserID != req.UserID {
			return ErrNotBookingOwner
		}
		if booking.Status != models.BookingActive && booking.Status != models.BookingAccepted {
			return ErrNotDisputable
		}

		open, err := s.Disputes.HasActiveDispute(ctx, booking.ID)
		if err != nil {
			return err
		}
		if open {
			return ErrDisputeExists
		}
		if err := s.checkWindow(ctx, booking); err != nil {
			return err
		}

		marked, err := s.Reservations.HasAttendanceOn(ctx, booking.ID, utils.Today())
		if err != nil {
			return err
		}
		if marked {
			return ErrAfterAttendance
		}

		facility, err := s.Facilities.GetByID(ctx, booking.FacilityID)
		if err != nil {
			return err
		}

		dispute = &models.Dispute{
			BookingID:  booking.ID,
			UserID:     booking.UserID,
			OwnerID:    facility.OwnerID,
			FacilityID: booking.FacilityID,
			Reason:     req.Reason,
			Status:     models.DisputeSubmitted,
			CreatedAt:  time.Now(),
		}
		if err := s.Disputes.Insert(ctx, dispute); err != nil {
			return err
		}
		if _, err := s.Reservations.UpdateBookingStatus(ctx, booking.ID,
			[]string{models.BookingActive, models.BookingAccepted}, models.BookingDisputed); err != nil {
			return err
		}
		// A booking disputed before capture has no escrow yet; release stays
		// blocked through the active-dispute guard either way.
		if err := s.Escrows.Pause(ctx, booking.ID); err != nil && !errors.Is(err, escrow.ErrEscrowNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("dispute filed",
		zap.String("disputeID", dispute.ID),
		zap.String("bookingID", dispute.BookingID))
	return dispute, nil
}

// checkWindow requires the claim to land on a covered, open day within the
// slot hours plus a short grace after the end.
func (s *DefaultDisputeService) checkWindow(ctx context.Context, booking *models.Booking) error {
	today := utils.Today()
	if today < booking.StartDate || today > booking.EndDate {
		return ErrOutsideWindow
	}
	holiday, err := s.Reservations.IsHoliday(ctx, booking.FacilityID, today)
	if err != nil {
		return err
	}
	if holiday {
		return ErrOutsideWindow
	}

	tmpl, err := s.Reservations.GetTemplate(ctx, booking.FacilityID, booking.SlotType)
	if err != nil {
		return err
	}
	if tmpl == nil {
		return nil
	}
	start, okStart := utils.MinutesOfDay(tmpl.StartTime)
	end, okEnd := utils.MinutesOfDay(tmpl.EndTime)
	if !okStart || !okEnd {
		return nil
	}
	now := s.now()
	minutes := now.Hour()*60 + now.Minute()
	if minutes < start || minutes > end+disputeGraceMinutes {
		return ErrOutsideWindow
	}
	return nil
}

// Resolve applies an admin decision. REFUND returns the held amount to the
// user and cancels the booking, rewarding the user's trust score. REJECT
// restores the escrow and the booking, penalizes the score, and flags the
// account once the lifetime rejection count reaches the threshold. The
// resolution swap is a compare-and-swap, so two admins cannot both resolve.
func (s *DefaultDisputeService) Resolve(ctx context.Context, disputeID, decision string) (*models.Dispute, error) {
	if decision != models.DecisionRefund && decision != models.DecisionReject {
		return nil, ErrInvalidDecision
	}
	d, err := s.Disputes.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrDisputeNotFound
	}
	if !d.Active() {
		return nil, ErrAlreadyResolved
	}
	booking, err := s.Reservations.GetBooking(ctx, d.BookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}

	if decision == models.DecisionRefund {
		return s.resolveRefund(ctx, d, booking)
	}
	return s.resolveReject(ctx, d, booking)
}

func (s *DefaultDisputeService) resolveRefund(ctx context.Context, d *models.Dispute, booking *models.Booking) (*models.Dispute, error) {
	refundAmount := booking.TotalAmount
	won, err := s.Disputes.Resolve(ctx, d.ID, models.DisputeRefunded, models.DecisionRefund, &refundAmount)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, ErrAlreadyResolved
	}

	if err := s.Escrows.RefundForBooking(ctx, booking.ID); err != nil && !errors.Is(err, escrow.ErrEscrowNotFound) {
		return nil, err
	}
	if _, err := s.Reservations.UpdateBookingStatus(ctx, booking.ID,
		[]string{models.BookingDisputed}, models.BookingCancelled); err != nil {
		return nil, err
	}
	if err := s.Disputes.AdjustTrustScore(ctx, d.UserID, trustRewardRefunded); err != nil {
		return nil, err
	}

	s.Logger.Info("dispute resolved with refund",
		zap.String("disputeID", d.ID),
		zap.Int64("refundAmount", refundAmount))
	return s.Disputes.GetByID(ctx, d.ID)
}

func (s *DefaultDisputeService) resolveReject(ctx context.Context, d *models.Dispute, booking *models.Booking) (*models.Dispute, error) {
	won, err := s.Disputes.Resolve(ctx, d.ID, models.DisputeRejected, models.DecisionReject, nil)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, ErrAlreadyResolved
	}

	if err := s.Escrows.Resume(ctx, booking.ID); err != nil && !errors.Is(err, escrow.ErrEscrowNotFound) {
		return nil, err
	}
	// A pass whose term already ran out goes straight to COMPLETED.
	restored := models.BookingActive
	if utils.Today() > booking.EndDate {
		restored = models.BookingCompleted
	}
	if _, err := s.Reservations.UpdateBookingStatus(ctx, booking.ID,
		[]string{models.BookingDisputed}, restored); err != nil {
		return nil, err
	}
	if err := s.Disputes.AdjustTrustScore(ctx, d.UserID, -trustPenaltyRejected); err != nil {
		return nil, err
	}

	rejected, err := s.Disputes.CountRejectedByUser(ctx, d.UserID)
	if err != nil {
		return nil, err
	}
	if rejected >= falseDisputeThreshold {
		if err := s.Disputes.FlagAccountIfActive(ctx, d.UserID, models.AccountUnderMonitoring); err != nil {
			return nil, err
		}
		s.Logger.Warn("account flagged for repeated rejected disputes",
			zap.String("userID", d.UserID), zap.Int64("rejected", rejected))
	}

	s.Logger.Info("dispute rejected",
		zap.String("disputeID", d.ID),
		zap.String("restoredStatus", restored))
	return s.Disputes.GetByID(ctx, d.ID)
}

// GetByBooking returns the latest dispute for a booking, nil-safe for the
// read models.
func (s *DefaultDisputeService) GetByBooking(ctx context.Context, bookingID string) (*models.Dispute, error) {
	d, err := s.Disputes.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrDisputeNotFound
	}
	return d, nil
}
