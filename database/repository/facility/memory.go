package facilityRepo

import (
	"context"
	"sync"

	"slotpass/models"
)

// MemoryFacilityRepo is an in-memory FacilityRepository used by service tests.
type MemoryFacilityRepo struct {
	mu         sync.Mutex
	facilities map[string]models.Facility
}

// NewMemoryFacilityRepo constructs an empty in-memory store.
func NewMemoryFacilityRepo() *MemoryFacilityRepo {
	return &MemoryFacilityRepo{facilities: make(map[string]models.Facility)}
}

// Seed stores a facility projection.
func (r *MemoryFacilityRepo) Seed(f models.Facility) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.facilities[f.ID] = f
}

func (r *MemoryFacilityRepo) GetByID(ctx context.Context, facilityID string) (*models.Facility, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.facilities[facilityID]
	if !ok {
		return nil, ErrNotFound
	}
	return &f, nil
}
