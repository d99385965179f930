package disputeRepo

import (
	"context"
	"sync"
	"time"

	"slotpass/models"

	"github.com/google/uuid"
)

// MemoryDisputeRepo is an in-memory DisputeRepository used by service tests.
type MemoryDisputeRepo struct {
	mu       sync.Mutex
	txnMu    sync.Mutex
	disputes map[string]models.Dispute
	users    map[string]models.UserProfile
}

// NewMemoryDisputeRepo constructs an empty in-memory store.
func NewMemoryDisputeRepo() *MemoryDisputeRepo {
	return &MemoryDisputeRepo{
		disputes: make(map[string]models.Dispute),
		users:    make(map[string]models.UserProfile),
	}
}

// SeedUser stores a user profile for trust scoring.
func (r *MemoryDisputeRepo) SeedUser(u models.UserProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
}

// User returns the stored profile.
func (r *MemoryDisputeRepo) User(userID string) models.UserProfile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[userID]
}

func (r *MemoryDisputeRepo) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	r.txnMu.Lock()
	defer r.txnMu.Unlock()
	return fn(ctx)
}

func (r *MemoryDisputeRepo) Insert(ctx context.Context, d *models.Dispute) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	r.disputes[d.ID] = *d
	return nil
}

func (r *MemoryDisputeRepo) GetByID(ctx context.Context, disputeID string) (*models.Dispute, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.disputes[disputeID]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (r *MemoryDisputeRepo) GetByBookingID(ctx context.Context, bookingID string) (*models.Dispute, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.Dispute
	for _, d := range r.disputes {
		if d.BookingID != bookingID {
			continue
		}
		copy := d
		if latest == nil || copy.CreatedAt.After(latest.CreatedAt) {
			latest = &copy
		}
	}
	return latest, nil
}

func (r *MemoryDisputeRepo) HasActiveDispute(ctx context.Context, bookingID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.disputes {
		if d.BookingID == bookingID && d.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryDisputeRepo) Resolve(ctx context.Context, disputeID, status, adminDecision string, refundAmount *int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.disputes[disputeID]
	if !ok || !d.Active() {
		return false, nil
	}
	now := time.Now()
	d.Status = status
	d.AdminDecision = adminDecision
	d.RefundAmount = refundAmount
	d.ResolvedAt = &now
	r.disputes[disputeID] = d
	return true, nil
}

func (r *MemoryDisputeRepo) CountRejectedByUser(ctx context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, d := range r.disputes {
		if d.UserID == userID && d.Status == models.DisputeRejected {
			n++
		}
	}
	return n, nil
}

func (r *MemoryDisputeRepo) AdjustTrustScore(ctx context.Context, userID string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.users[userID]
	u.ID = userID
	u.TrustScore += delta
	r.users[userID] = u
	return nil
}

func (r *MemoryDisputeRepo) FlagAccountIfActive(ctx context.Context, userID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok || u.AccountStatus != models.AccountActive {
		return nil
	}
	u.AccountStatus = status
	r.users[userID] = u
	return nil
}
