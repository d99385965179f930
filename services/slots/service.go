package slots

import (
	"context"
	"errors"
	"time"

	facilityRepo "slotpass/database/repository/facility"
	holidayRepo "slotpass/database/repository/holiday"
	slotRepo "slotpass/database/repository/slots"
	"slotpass/models"
	"slotpass/utils"

	"go.uber.org/zap"
)

// AutoExtendDays is how far a lapsed validity window is pushed forward before
// capacity is materialized for it.
const AutoExtendDays = 15

// CreateTemplateRequest carries the owner-supplied definition of a recurring
// slot offering.
type CreateTemplateRequest struct {
	OwnerID    string
	FacilityID string `json:"facilityId" binding:"required"`
	SlotType   string `json:"slotType" binding:"required"`
	StartTime  string `json:"startTime" binding:"required"` // "HH:MM"
	EndTime    string `json:"endTime" binding:"required"`   // "HH:MM"
	Capacity   int    `json:"capacity" binding:"required"`
	Price1Day  *int64 `json:"price1Day"`
	Price3Day  *int64 `json:"price3Day"`
	Price7Day  *int64 `json:"price7Day"`
	ValidFrom  string `json:"validFrom" binding:"required"` // "YYYY-MM-DD"
	ValidTill  string `json:"validTill" binding:"required"` // "YYYY-MM-DD"
}

// SlotService owns slot templates and expands them into per-date capacity
// rows ahead of demand.
type SlotService interface {
	CreateTemplate(ctx context.Context, req CreateTemplateRequest) (*models.SlotTemplate, error)
	UpdateCapacity(ctx context.Context, ownerID, templateID string, capacity int) error
	ListTemplates(ctx context.Context, facilityID string) ([]models.SlotTemplate, error)
	GenerateForTemplate(ctx context.Context, tmpl *models.SlotTemplate) (int, error)
	RegenerateForFacility(ctx context.Context, facilityID string) error
	ExtendExpiredTemplates(ctx context.Context) (int, error)
}

// DefaultSlotService is the production implementation.
type DefaultSlotService struct {
	Slots      slotRepo.SlotRepository
	Holidays   holidayRepo.HolidayRepository
	Facilities facilityRepo.FacilityRepository
	Logger     *zap.Logger
}

// NewSlotService constructs a new instance of DefaultSlotService.
func NewSlotService(slotsRepo slotRepo.SlotRepository, holidays holidayRepo.HolidayRepository, facilities facilityRepo.FacilityRepository) *DefaultSlotService {
	return &DefaultSlotService{
		Slots:      slotsRepo,
		Holidays:   holidays,
		Facilities: facilities,
		Logger:     utils.GetLogger().Named("slot-service"),
	}
}

// CreateTemplate validates and stores a template, then materializes capacity
// for its validity window immediately so bookings never race the generator.
func (s *DefaultSlotService) CreateTemplate(ctx context.Context, req CreateTemplateRequest) (*models.SlotTemplate, error) {
	if !models.ValidSlotType(req.SlotType) {
		return nil, ErrInvalidSlotType
	}
	start, okStart := utils.MinutesOfDay(req.StartTime)
	end, okEnd := utils.MinutesOfDay(req.EndTime)
	if !okStart || !okEnd || start >= end {
		return nil, ErrInvalidTimeWindow
	}
	if req.Capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if req.Price1Day == nil && req.Price3Day == nil && req.Price7Day == nil {
		return nil, ErrNoPassPrices
	}
	if _, err := utils.ParseDate(req.ValidFrom); err != nil {
		return nil, ErrInvalidValidity
	}
	if _, err := utils.ParseDate(req.ValidTill); err != nil {
		return nil, ErrInvalidValidity
	}
	if req.ValidFrom > req.ValidTill {
		return nil, ErrInvalidValidity
	}
	if err := s.requireOwner(ctx, req.FacilityID, req.OwnerID); err != nil {
		return nil, err
	}

	tmpl := &models.SlotTemplate{
		FacilityID: req.FacilityID,
		SlotType:   req.SlotType,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Capacity:   req.Capacity,
		Price1Day:  req.Price1Day,
		Price3Day:  req.Price3Day,
		Price7Day:  req.Price7Day,
		ValidFrom:  req.ValidFrom,
		ValidTill:  req.ValidTill,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := s.Slots.CreateTemplate(ctx, tmpl); err != nil {
		if errors.Is(err, slotRepo.ErrTemplateExists) {
			return nil, ErrTemplateExists
		}
		return nil, err
	}

	generated, err := s.GenerateForTemplate(ctx, tmpl)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("slot template created",
		zap.String("templateID", tmpl.ID),
		zap.String("facilityID", tmpl.FacilityID),
		zap.String("slotType", tmpl.SlotType),
		zap.Int("slotsGenerated", generated))
	return tmpl, nil
}

// UpdateCapacity changes the template capacity for dates materialized from
// now on. Rows that already exist keep the capacity they were sold under, so
// the new capacity may never undercut what any row has already booked.
func (s *DefaultSlotService) UpdateCapacity(ctx context.Context, ownerID, templateID string, capacity int) error {
	if capacity <= 0 {
		return ErrInvalidCapacity
	}
	tmpl, err := s.Slots.GetTemplateByID(ctx, templateID)
	if err != nil {
		return err
	}
	if tmpl == nil {
		return ErrTemplateNotFound
	}
	if err := s.requireOwner(ctx, tmpl.FacilityID, ownerID); err != nil {
		return err
	}
	maxBooked, err := s.Slots.MaxBooked(ctx, tmpl.FacilityID, tmpl.SlotType)
	if err != nil {
		return err
	}
	if capacity < maxBooked {
		return ErrCapacityBelowBooked
	}
	if err := s.Slots.UpdateTemplateCapacity(ctx, templateID, capacity); err != nil {
		return err
	}
	return s.RegenerateForFacility(ctx, tmpl.FacilityID)
}

func (s *DefaultSlotService) ListTemplates(ctx context.Context, facilityID string) ([]models.SlotTemplate, error) {
	return s.Slots.GetTemplatesByFacility(ctx, facilityID)
}

// GenerateForTemplate inserts the missing capacity rows for every non-holiday
// date in the validity window, past dates included since a pass may start on
// any in-window date. A lapsed window is first extended to today plus
// AutoExtendDays, and the extension is persisted before any row so a crash
// cannot leave rows past the stored window. Existing rows are left untouched.
// Returns the number of rows inserted.
func (s *DefaultSlotService) GenerateForTemplate(ctx context.Context, tmpl *models.SlotTemplate) (int, error) {
	today := utils.Today()
	if tmpl.ValidTill < today {
		extended := utils.AddDays(today, AutoExtendDays)
		if err := s.Slots.UpdateTemplateValidTill(ctx, tmpl.ID, extended); err != nil {
			return 0, err
		}
		tmpl.ValidTill = extended
		s.Logger.Info("slot template auto-extended",
			zap.String("templateID", tmpl.ID), zap.String("validTill", extended))
	}

	holidays, err := s.Holidays.RangesForFacility(ctx, tmpl.FacilityID)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for date := tmpl.ValidFrom; date <= tmpl.ValidTill; date = utils.AddDays(date, 1) {
		if coveredByHoliday(holidays, date) {
			continue
		}
		exists, err := s.Slots.CapacitySlotExists(ctx, tmpl.FacilityID, date, tmpl.SlotType)
		if err != nil {
			return inserted, err
		}
		if exists {
			continue
		}
		slot := &models.CapacitySlot{
			FacilityID: tmpl.FacilityID,
			Date:       date,
			SlotType:   tmpl.SlotType,
			Capacity:   tmpl.Capacity,
			Booked:     0,
		}
		if err := s.Slots.InsertCapacitySlot(ctx, slot); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

// RegenerateForFacility re-runs materialization for every template of a
// facility. Called after a holiday range is removed, since those dates were
// skipped the first time.
func (s *DefaultSlotService) RegenerateForFacility(ctx context.Context, facilityID string) error {
	templates, err := s.Slots.GetTemplatesByFacility(ctx, facilityID)
	if err != nil {
		return err
	}
	for i := range templates {
		if _, err := s.GenerateForTemplate(ctx, &templates[i]); err != nil {
			return err
		}
	}
	return nil
}

// ExtendExpiredTemplates finds templates whose window has lapsed and pushes
// each forward, materializing the new dates. Run on a schedule.
func (s *DefaultSlotService) ExtendExpiredTemplates(ctx context.Context) (int, error) {
	expired, err := s.Slots.ListExpiredTemplates(ctx, utils.Today())
	if err != nil {
		return 0, err
	}
	for i := range expired {
		if _, err := s.GenerateForTemplate(ctx, &expired[i]); err != nil {
			s.Logger.Error("template extension failed",
				zap.String("templateID", expired[i].ID), zap.Error(err))
			continue
		}
	}
	return len(expired), nil
}

func (s *DefaultSlotService) requireOwner(ctx context.Context, facilityID, ownerID string) error {
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

func coveredByHoliday(holidays []models.Holiday, date string) bool {
	for i := range holidays {
		if holidays[i].Covers(date) {
			return true
		}
	}
	return false
}
