package attendance

import (
	"context"
	"errors"
	"time"

	facilityRepo "slotpass/database/repository/facility"
	reservationRepo "slotpass/database/repository/reservation"
	"slotpass/models"
	"slotpass/utils"

	"go.uber.org/zap"
)

// checkinGraceMinutes is how early before the slot start a check-in is
// accepted. The window closes at the slot end.
const checkinGraceMinutes = 60

// MarkResult is returned after a successful attendance mark.
type MarkResult struct {
	BookingID           string `json:"bookingId"`
	Date                string `json:"date"`
	ActiveDaysRemaining int    `json:"activeDaysRemaining"`
	Completed           bool   `json:"completed"`
}

// AttendanceService verifies pass credentials at the door and records
// consumed pass days. The scan is a read-only preview; marking is a separate
// explicit mutation so an accidental scan never burns a day.
type AttendanceService interface {
	ScanPass(ctx context.Context, ownerID, credential string) (*models.ScanResult, error)
	MarkAttendance(ctx context.Context, ownerID, bookingID string) (*MarkResult, error)
}

// DefaultAttendanceService is the production implementation.
type DefaultAttendanceService struct {
	Repo       reservationRepo.ReservationRepository
	Facilities facilityRepo.FacilityRepository
	Logger     *zap.Logger

	// now is injectable for slot-time window checks.
	now func() time.Time
}

// NewAttendanceService constructs a new instance of DefaultAttendanceService.
func NewAttendanceService(repo reservationRepo.ReservationRepository, facilities facilityRepo.FacilityRepository) *DefaultAttendanceService {
	return &DefaultAttendanceService{
		Repo:       repo,
		Facilities: facilities,
		Logger:     utils.GetLogger().Named("attendance-service"),
		now:        time.Now,
	}
}

// ScanPass validates a presented credential and reports whether attendance
// can be marked right now, with the blocking reason when it cannot. Nothing
// is mutated.
func (s *DefaultAttendanceService) ScanPass(ctx context.Context, ownerID, credential string) (*models.ScanResult, error) {
	payload, err := utils.VerifyPass(credential)
	if err != nil {
		return nil, ErrInvalidPass
	}

	booking, err := s.Repo.GetBooking(ctx, payload.BookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil || booking.FacilityID != payload.FacilityID {
		return nil, ErrBookingNotFound
	}
	if err := s.requireOwner(ctx, booking.FacilityID, ownerID); err != nil {
		return nil, err
	}

	result := &models.ScanResult{
		BookingID:           booking.ID,
		UserID:              booking.UserID,
		FacilityID:          booking.FacilityID,
		SlotType:            booking.SlotType,
		PassDays:            booking.PassDays,
		ActiveDaysRemaining: booking.ActiveDaysRemaining,
		StartDate:           booking.StartDate,
		EndDate:             booking.EndDate,
	}

	tmpl, err := s.Repo.GetTemplate(ctx, booking.FacilityID, booking.SlotType)
	if err != nil {
		return nil, err
	}
	if tmpl != nil {
		result.SlotTime = tmpl.StartTime + " - " + tmpl.EndTime
	}

	reason, err := s.eligibility(ctx, booking, tmpl)
	if err != nil {
		return nil, err
	}
	result.CanMarkAttendance = reason == ""
	result.Reason = reason
	return result, nil
}

// eligibility returns the empty string when attendance can be marked now, or
// the first blocking reason.
func (s *DefaultAttendanceService) eligibility(ctx context.Context, booking *models.Booking, tmpl *models.SlotTemplate) (string, error) {
	if booking.Status != models.BookingActive && booking.Status != models.BookingAccepted {
		return "booking is not active", nil
	}
	today := utils.Today()
	if today < booking.StartDate || today > booking.EndDate {
		return "outside pass validity window", nil
	}
	holiday, err := s.Repo.IsHoliday(ctx, booking.FacilityID, today)
	if err != nil {
		return "", err
	}
	if holiday {
		return "facility is closed today", nil
	}
	marked, err := s.Repo.HasAttendanceOn(ctx, booking.ID, today)
	if err != nil {
		return "", err
	}
	if marked {
		return "attendance already marked today", nil
	}
	if booking.ActiveDaysRemaining <= 0 {
		return "no active days remaining", nil
	}
	if tmpl != nil && !s.withinSlotHours(tmpl) {
		return "outside slot hours", nil
	}
	return "", nil
}

func (s *DefaultAttendanceService) withinSlotHours(tmpl *models.SlotTemplate) bool {
	start, okStart := utils.MinutesOfDay(tmpl.StartTime)
	end, okEnd := utils.MinutesOfDay(tmpl.EndTime)
	if !okStart || !okEnd {
		return true
	}
	now := s.now()
	minutes := now.Hour()*60 + now.Minute()
	return minutes >= start-checkinGraceMinutes && minutes <= end
}

// MarkAttendance consumes one pass day for today. The attendance insert, the
// day decrement and any COMPLETED transition commit or roll back together;
// the per-(booking, date) uniqueness makes a double mark from two doors lose
// cleanly.
func (s *DefaultAttendanceService) MarkAttendance(ctx context.Context, ownerID, bookingID string) (*MarkResult, error) {
	var result *MarkResult
	err := s.Repo.RunInTransaction(ctx, func(ctx context.Context) error {
		booking, err := s.Repo.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return ErrBookingNotFound
		}
		if err := s.requireOwner(ctx, booking.FacilityID, ownerID); err != nil {
			return err
		}
		if booking.Status != models.BookingActive && booking.Status != models.BookingAccepted {
			return ErrBookingNotMarkable
		}
		today := utils.Today()
		if today < booking.StartDate || today > booking.EndDate {
			return ErrOutsideWindow
		}
		holiday, err := s.Repo.IsHoliday(ctx, booking.FacilityID, today)
		if err != nil {
			return err
		}
		if holiday {
			return ErrFacilityClosed
		}

		att := &models.Attendance{
			BookingID:  booking.ID,
			FacilityID: booking.FacilityID,
			Date:       today,
			CreatedAt:  time.Now(),
		}
		if err := s.Repo.InsertAttendance(ctx, att); err != nil {
			if errors.Is(err, reservationRepo.ErrAlreadyMarked) {
				return ErrAlreadyMarked
			}
			return err
		}
		remaining, err := s.Repo.ConsumePassDay(ctx, booking.ID)
		if err != nil {
			if errors.Is(err, reservationRepo.ErrNoActivePass) {
				return ErrNoDaysRemaining
			}
			return err
		}
		completed := remaining == 0
		if completed {
			if _, err := s.Repo.UpdateBookingStatus(ctx, booking.ID,
				[]string{models.BookingActive, models.BookingAccepted}, models.BookingCompleted); err != nil {
				return err
			}
		}
		result = &MarkResult{
			BookingID:           booking.ID,
			Date:                today,
			ActiveDaysRemaining: remaining,
			Completed:           completed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.AttendanceMarked.Inc()
	s.Logger.Info("attendance marked",
		zap.String("bookingID", result.BookingID),
		zap.Int("remaining", result.ActiveDaysRemaining))
	return result, nil
}

func (s *DefaultAttendanceService) requireOwner(ctx context.Context, facilityID, ownerID string) error {
	facility, err := s.Facilities.GetByID(ctx, facilityID)
	if err != nil {
		return err
	}
	if facility.OwnerID != ownerID {
		return ErrNotFacilityOwner
	}
	return nil
}
