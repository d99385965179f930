package booking

import (
	"context"

	"slotpass/models"
	"slotpass/utils"

	"go.uber.org/zap"
)

// CancelBooking releases the capacity a booking holds and marks it CANCELLED.
// Only PENDING and ACCEPTED bookings qualify, only before the start date, and
// only while no attendance exists. Any escrow already held is reversed after
// the transaction commits; that step is idempotent on its own, so a crash
// between the two leaves a retryable state rather than a double refund.
func (s *DefaultBookingService) CancelBooking(ctx context.Context, userID, bookingID string) error {
	var cancelled *models.Booking
	err := s.Repo.RunInTransaction(ctx, func(ctx context.Context) error {
		booking, err := s.Repo.GetUserBooking(ctx, bookingID, userID)
		if err != nil {
			return err
		}
		if booking == nil {
			return ErrBookingNotFound
		}
		if booking.Status != models.BookingPending && booking.Status != models.BookingAccepted {
			return ErrNotCancellable
		}
		if utils.Today() >= booking.StartDate {
			return ErrCancelAfterStart
		}
		attended, err := s.Repo.HasAttendance(ctx, bookingID)
		if err != nil {
			return err
		}
		if attended {
			return ErrCancelAfterAttendance
		}

		if err := s.releaseTerm(ctx, booking); err != nil {
			return err
		}
		ok, err := s.Repo.UpdateBookingStatus(ctx, bookingID,
			[]string{models.BookingPending, models.BookingAccepted}, models.BookingCancelled)
		if err != nil {
			return err
		}
		if !ok {
			// Lost a race with another transition; the transaction aborts so
			// the capacity decrements above are rolled back too.
			return ErrNotCancellable
		}
		cancelled = booking
		return nil
	})
	if err != nil {
		return err
	}

	utils.BookingsCancelled.Inc()
	s.Logger.Info("booking cancelled", zap.String("bookingID", bookingID))

	if s.Escrow != nil {
		if err := s.Escrow.HandleBookingCancellation(ctx, cancelled); err != nil {
			// The booking is already cancelled; escrow reversal retries
			// independently rather than resurrecting the booking.
			s.Logger.Error("escrow reversal after cancellation failed",
				zap.String("bookingID", bookingID), zap.Error(err))
			return err
		}
	}
	return nil
}

// releaseTerm mirrors the reservation walk: every non-holiday date between
// start and end held one capacity unit, so each is decremented once.
func (s *DefaultBookingService) releaseTerm(ctx context.Context, booking *models.Booking) error {
	for cursor := booking.StartDate; cursor <= booking.EndDate; cursor = utils.AddDays(cursor, 1) {
		holiday, err := s.Repo.IsHoliday(ctx, booking.FacilityID, cursor)
		if err != nil {
			return err
		}
		if holiday {
			continue
		}
		if err := s.Repo.DecrementSlotBooked(ctx, booking.FacilityID, cursor, booking.SlotType); err != nil {
			return err
		}
	}
	return nil
}
