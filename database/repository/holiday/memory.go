package holidayRepo

import (
	"context"
	"sync"

	"slotpass/models"

	"github.com/google/uuid"
)

// MemoryHolidayRepo is an in-memory HolidayRepository used by service tests.
type MemoryHolidayRepo struct {
	mu       sync.Mutex
	holidays []models.Holiday
}

// NewMemoryHolidayRepo constructs an empty in-memory store.
func NewMemoryHolidayRepo() *MemoryHolidayRepo {
	return &MemoryHolidayRepo{}
}

func (r *MemoryHolidayRepo) Create(ctx context.Context, h *models.Holiday) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	r.holidays = append(r.holidays, *h)
	return nil
}

func (r *MemoryHolidayRepo) Delete(ctx context.Context, facilityID, startDate, endDate string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.holidays[:0]
	for _, h := range r.holidays {
		if h.FacilityID == facilityID && h.StartDate == startDate && h.EndDate == endDate {
			continue
		}
		kept = append(kept, h)
	}
	r.holidays = kept
	return nil
}

func (r *MemoryHolidayRepo) Overlaps(ctx context.Context, facilityID, startDate, endDate string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.holidays {
		if h.FacilityID == facilityID && h.StartDate <= endDate && h.EndDate >= startDate {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryHolidayRepo) RangesForFacility(ctx context.Context, facilityID string) ([]models.Holiday, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Holiday
	for _, h := range r.holidays {
		if h.FacilityID == facilityID {
			out = append(out, h)
		}
	}
	return out, nil
}
