package holiday

import (
	"context"
	"errors"
	"time"

	facilityRepo "slotpass/database/repository/facility"
	holidayRepo "slotpass/database/repository/holiday"
	"slotpass/models"
	"slotpass/utils"

	"go.uber.org/zap"
)

var (
	ErrInvalidRange     = utils.BadRequestError("INVALID_HOLIDAY_RANGE", "Holiday range is invalid")
	ErrOverlappingRange = utils.ConflictError("OVERLAPPING_HOLIDAY", "Holiday overlaps an existing range")
	ErrFacilityNotFound = utils.NotFoundError("FACILITY_NOT_FOUND", "Facility not found")
	ErrNotFacilityOwner = utils.ForbiddenError("NOT_FACILITY_OWNER", "Facility belongs to another owner")
)

// Regenerator re-materializes capacity after a holiday change. Local
// interface to keep this package independent of slot service wiring.
type Regenerator interface {
	RegenerateForFacility(ctx context.Context, facilityID string) error
}

// AddHolidayRequest carries an owner's closed date range.
type AddHolidayRequest struct {
	OwnerID    string
	FacilityID string `json:"facilityId" binding:"required"`
	StartDate  string `json:"startDate" binding:"required"` // "YYYY-MM-DD"
	EndDate    string `json:"endDate" binding:"required"`   // "YYYY-MM-DD"
	Reason     string `json:"reason"`
}

// HolidayService manages facility closed ranges. Removing a range triggers
// re-materialization so the freed dates become bookable again.
type HolidayService interface {
	Add(ctx context.Context, req AddHolidayRequest) (*models.Holiday, error)
	Remove(ctx context.Context, ownerID, facilityID, startDate, endDate string) error
	List(ctx context.Context, facilityID string) ([]models.Holiday, error)
}

// DefaultHolidayService is the production implementation.
type DefaultHolidayService struct {
	Holidays    holidayRepo.HolidayRepository
	Facilities  facilityRepo.FacilityRepository
	Regenerator Regenerator
	Logger      *zap.Logger
}

// NewHolidayService constructs a new instance of DefaultHolidayService.
func NewHolidayService(holidays holidayRepo.HolidayRepository, facilities facilityRepo.FacilityRepository, regen Regenerator) *DefaultHolidayService {
	return &DefaultHolidayService{
		Holidays:    holidays,
		Facilities:  facilities,
		Regenerator: regen,
		Logger:      utils.GetLogger().Named("holiday-service"),
	}
}

// Add records a closed range. Ranges stay non-overlapping per facility; dates
// already materialized inside the range simply stop selling, since both the
// booking walk and attendance skip holiday dates.
func (s *DefaultHolidayService) Add(ctx context.Context, req AddHolidayRequest) (*models.Holiday, error) {
	if _, err := utils.ParseDate(req.StartDate); err != nil {
		return nil, ErrInvalidRange
	}
	if _, err := utils.ParseDate(req.EndDate); err != nil {
		return nil, ErrInvalidRange
	}
	if req.StartDate > req.EndDate {
		return nil, ErrInvalidRange
	}
	if err := s.requireOwner(ctx, req.FacilityID, req.OwnerID); err != nil {
		return nil, err
	}

	overlaps, err := s.Holidays.Overlaps(ctx, req.FacilityID, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if overlaps {
		return nil, ErrOverlappingRange
	}

	h := &models.Holiday{
		FacilityID: req.FacilityID,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Reason:     req.Reason,
		CreatedAt:  time.Now(),
	}
	if err := s.Holidays.Create(ctx, h); err != nil {
		return nil, err
	}
	s.Logger.Info("holiday added",
		zap.String("facilityID", req.FacilityID),
		zap.String("range", req.StartDate+".."+req.EndDate))
	return h, nil
}

// Remove deletes a range and re-materializes capacity for the freed dates.
func (s *DefaultHolidayService) Remove(ctx context.Context, ownerID, facilityID, startDate, endDate string) error {
	if err := s.requireOwner(ctx, facilityID, ownerID); err != nil {
		return err
	}
	if err := s.Holidays.Delete(ctx, facilityID, startDate, endDate); err != nil {
		return err
	}
	if err := s.Regenerator.RegenerateForFacility(ctx, facilityID); err != nil {
		return err
	}
	s.Logger.Info("holiday removed",
		zap.String("facilityID", facilityID),
		zap.String("range", startDate+".."+endDate))
	return nil
}

func (s *DefaultHolidayService) List(ctx context.Context, facilityID string) ([]models.Holiday, error) {
	return s.Holidays.RangesForFacility(ctx, facilityID)
}

func (s *DefaultHolidayService) requireOwner(ctx context.Context, facilityID, ownerID string) error {
	facility, err := s.Facilities.GetByID(ctx, facilityID)
	if err != nil {
		if errors.Is(err, facilityRepo.ErrNotFound) {
			return ErrFacilityNotFound
		}
		return err
	}
	if facility.OwnerID != ownerID {
		return ErrNotFacilityOwner
	}
	return nil
}
