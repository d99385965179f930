package escrowRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"slotpass/models"

	"github.com/google/uuid"
)

// MemoryEscrowRepo is an in-memory EscrowRepository used by service tests.
type MemoryEscrowRepo struct {
	mu      sync.Mutex
	escrows map[string]models.Escrow
	byBkg   map[string]string
}

// NewMemoryEscrowRepo constructs an empty in-memory store.
func NewMemoryEscrowRepo() *MemoryEscrowRepo {
	return &MemoryEscrowRepo{
		escrows: make(map[string]models.Escrow),
		byBkg:   make(map[string]string),
	}
}

func (r *MemoryEscrowRepo) Insert(ctx context.Context, e *models.Escrow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byBkg[e.BookingID]; exists {
		return ErrExists
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	r.escrows[e.ID] = *e
	r.byBkg[e.BookingID] = e.ID
	return nil
}

func (r *MemoryEscrowRepo) GetByID(ctx context.Context, escrowID string) (*models.Escrow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.escrows[escrowID]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r *MemoryEscrowRepo) GetByBookingID(ctx context.Context, bookingID string) (*models.Escrow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byBkg[bookingID]
	if !ok {
		return nil, nil
	}
	e := r.escrows[id]
	return &e, nil
}

func (r *MemoryEscrowRepo) TransitionStatus(ctx context.Context, escrowID string, from []string, to string, releasedAt *time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.escrows[escrowID]
	if !ok {
		return false, nil
	}
	allowed := false
	for _, s := range from {
		if e.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return false, nil
	}
	e.Status = to
	e.UpdatedAt = time.Now()
	if releasedAt != nil {
		e.ReleasedAt = releasedAt
	} else if to != models.EscrowReleased {
		e.ReleasedAt = nil
	}
	r.escrows[escrowID] = e
	return true, nil
}

func (r *MemoryEscrowRepo) ListDue(ctx context.Context, today string, limit int64) ([]models.Escrow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []models.Escrow
	for _, e := range r.escrows {
		if e.Status == models.EscrowHeld && e.ReleaseDate <= today {
			due = append(due, e)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	if int64(len(due)) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (r *MemoryEscrowRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Escrow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Escrow
	for _, e := range r.escrows {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
