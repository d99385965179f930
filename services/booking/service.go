package booking

import (
	"context"
	"errors"
	"time"

	reservationRepo "slotpass/database/repository/reservation"
	"slotpass/models"
	"slotpass/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateBookingRequest carries the validated input for a pass purchase.
type CreateBookingRequest struct {
	UserID         string
	FacilityID     string `json:"facilityId" binding:"required"`
	SlotType       string `json:"slotType" binding:"required"`
	StartDate      string `json:"startDate" binding:"required"`
	PassDays       int    `json:"passDays" binding:"required"`
	IdempotencyKey string
}

// EscrowReverser is the cancellation bridge into the escrow module. Kept as a
// local interface so the booking package does not depend on escrow wiring.
type EscrowReverser interface {
	HandleBookingCancellation(ctx context.Context, booking *models.Booking) error
}

// BookingService creates and cancels multi-day passes.
type BookingService interface {
	CreateBooking(ctx context.Context, req CreateBookingRequest) (*models.BookingResult, error)
	CancelBooking(ctx context.Context, userID, bookingID string) error
	GetBooking(ctx context.Context, userID, bookingID string) (*models.Booking, error)
}

// DefaultBookingService is the production implementation backed by the
// transactional reservation store.
type DefaultBookingService struct {
	Repo        reservationRepo.ReservationRepository
	Idempotency IdempotencyStore
	Escrow      EscrowReverser
	Logger      *zap.Logger
}

// NewBookingService constructs a new instance of DefaultBookingService.
func NewBookingService(repo reservationRepo.ReservationRepository, idem IdempotencyStore, escrow EscrowReverser) *DefaultBookingService {
	return &DefaultBookingService{
		Repo:        repo,
		Idempotency: idem,
		Escrow:      escrow,
		Logger:      utils.GetLogger().Named("booking-service"),
	}
}

// CreateBooking reserves capacity for every non-holiday date of the pass term
// and persists the booking, all inside one transaction. Retries carrying the
// same idempotency key replay the original result without touching capacity.
func (s *DefaultBookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*models.BookingResult, error) {
	if req.IdempotencyKey == "" {
		return nil, ErrMissingIdempotencyKey
	}
	if !ValidPassDays(req.PassDays) {
		return nil, ErrInvalidPassDays
	}
	if !models.ValidSlotType(req.SlotType) {
		return nil, ErrInvalidSlotType
	}
	if _, err := utils.ParseDate(req.StartDate); err != nil {
		return nil, ErrInvalidStartDate
	}

	if cached, err := s.Idempotency.Get(ctx, req.IdempotencyKey); err != nil {
		s.Logger.Warn("idempotency cache read failed", zap.Error(err))
	} else if cached != nil {
		return cached, nil
	}
	// A retry after cache expiry must replay, not trip the duplicate-booking
	// guard inside the transaction.
	if existing, err := s.Repo.GetBookingByIdempotencyKey(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	} else if existing != nil {
		return bookingResult(existing), nil
	}

	var result *models.BookingResult
	err := s.Repo.RunInTransaction(ctx, func(ctx context.Context) error {
		facility, err := s.Repo.GetFacility(ctx, req.FacilityID)
		if err != nil {
			return err
		}
		if facility == nil || !facility.Bookable() {
			return ErrFacilityNotBookable
		}

		exists, err := s.Repo.HasActiveBooking(ctx, req.UserID, req.FacilityID, req.SlotType)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateActiveBooking
		}

		tmpl, err := s.Repo.GetTemplate(ctx, req.FacilityID, req.SlotType)
		if err != nil {
			return err
		}
		if tmpl == nil {
			return ErrTemplateNotFound
		}
		if req.StartDate < tmpl.ValidFrom || req.StartDate > tmpl.ValidTill {
			return ErrOutsideValidity
		}
		price := tmpl.PriceFor(req.PassDays)
		if price == nil {
			return ErrPassNotSupported
		}

		endDate, err := s.reserveTerm(ctx, req.FacilityID, req.SlotType, req.StartDate, tmpl.ValidTill, req.PassDays)
		if err != nil {
			return err
		}

		fee := PlatformFeeFor(req.PassDays)
		booking := &models.Booking{
			ID:                  uuid.NewString(),
			UserID:              req.UserID,
			FacilityID:          req.FacilityID,
			SlotType:            req.SlotType,
			PassDays:            req.PassDays,
			StartDate:           req.StartDate,
			EndDate:             endDate,
			ActiveDaysRemaining: req.PassDays,
			BaseAmount:          *price,
			PlatformFee:         fee,
			TotalAmount:         *price + fee,
			Status:              models.BookingAccepted,
			IdempotencyKey:      req.IdempotencyKey,
			ActiveKey:           models.ActiveBookingKey(req.UserID, req.FacilityID, req.SlotType),
			CreatedAt:           time.Now(),
			UpdatedAt:           time.Now(),
		}
		credential, err := utils.SignPass(utils.PassPayload{
			BookingID:  booking.ID,
			FacilityID: booking.FacilityID,
			SlotType:   booking.SlotType,
			ValidFrom:  booking.StartDate,
			ValidTill:  booking.EndDate,
		})
		if err != nil {
			return err
		}
		booking.PassCredential = credential

		if err := s.Repo.InsertBooking(ctx, booking); err != nil {
			return err
		}
		result = bookingResult(booking)
		return nil
	})
	if errors.Is(err, reservationRepo.ErrDuplicateKey) {
		// Cache entry expired but the key is already bound: replay from the
		// stored booking instead of failing the retry.
		return s.replayByKey(ctx, req.IdempotencyKey)
	}
	if errors.Is(err, reservationRepo.ErrDuplicateActive) {
		// A concurrent create for the same (user, facility, slot type) hit
		// the unique index our pre-insert check could not see.
		return nil, ErrDuplicateActiveBooking
	}
	if err != nil {
		return nil, err
	}

	if err := s.Idempotency.Set(ctx, req.IdempotencyKey, result); err != nil {
		s.Logger.Warn("idempotency cache write failed", zap.Error(err))
	}
	utils.BookingsCreated.Inc()
	s.Logger.Info("booking created",
		zap.String("bookingID", result.BookingID),
		zap.String("facilityID", req.FacilityID),
		zap.Int("passDays", req.PassDays))
	return result, nil
}

// reserveTerm walks the calendar from startDate, consuming capacity on
// non-holiday dates until passDays units are reserved. Holidays consume
// neither a pass day nor capacity; the term stretches past them. Returns the
// last consumed date.
func (s *DefaultBookingService) reserveTerm(ctx context.Context, facilityID, slotType, startDate, validTill string, passDays int) (string, error) {
	cursor := startDate
	endDate := startDate
	remaining := passDays
	for remaining > 0 {
		if cursor > validTill {
			// Capacity is never materialized past the validity window, so a
			// term stretched this far cannot be satisfied.
			return "", ErrSlotNotGenerated
		}
		holiday, err := s.Repo.IsHoliday(ctx, facilityID, cursor)
		if err != nil {
			return "", err
		}
		if !holiday {
			if err := s.Repo.IncrementSlotBooked(ctx, facilityID, cursor, slotType); err != nil {
				switch {
				case errors.Is(err, reservationRepo.ErrSlotNotFound):
					return "", ErrSlotNotGenerated
				case errors.Is(err, reservationRepo.ErrSlotFull):
					return "", ErrSlotFull
				}
				return "", err
			}
			endDate = cursor
			remaining--
		}
		cursor = utils.AddDays(cursor, 1)
	}
	return endDate, nil
}

func (s *DefaultBookingService) replayByKey(ctx context.Context, key string) (*models.BookingResult, error) {
	booking, err := s.Repo.GetBookingByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	return bookingResult(booking), nil
}

// GetBooking fetches a booking scoped to its owner.
func (s *DefaultBookingService) GetBooking(ctx context.Context, userID, bookingID string) (*models.Booking, error) {
	booking, err := s.Repo.GetUserBooking(ctx, bookingID, userID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

func bookingResult(b *models.Booking) *models.BookingResult {
	return &models.BookingResult{
		BookingID:           b.ID,
		Status:              b.Status,
		StartDate:           b.StartDate,
		EndDate:             b.EndDate,
		ActiveDaysRemaining: b.ActiveDaysRemaining,
		PassCredential:      b.PassCredential,
	}
}
