package subscriptionRepo

import (
	"context"
	"sync"
	"time"

	"slotpass/models"

	"github.com/google/uuid"
)

// MemorySubscriptionRepo is an in-memory SubscriptionRepository used by
// service tests.
type MemorySubscriptionRepo struct {
	mu   sync.Mutex
	subs []models.OwnerSubscription
}

// NewMemorySubscriptionRepo constructs an empty in-memory store.
func NewMemorySubscriptionRepo() *MemorySubscriptionRepo {
	return &MemorySubscriptionRepo{}
}

func (r *MemorySubscriptionRepo) Insert(ctx context.Context, s *models.OwnerSubscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	r.subs = append(r.subs, *s)
	return nil
}

func (r *MemorySubscriptionRepo) GetActiveForOwner(ctx context.Context, ownerID string, now time.Time) (*models.OwnerSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *models.OwnerSubscription
	for _, s := range r.subs {
		if s.OwnerID != ownerID || s.Status != models.SubscriptionActive || !s.ExpiresAt.After(now) {
			continue
		}
		copy := s
		if best == nil || copy.ExpiresAt.After(best.ExpiresAt) {
			best = &copy
		}
	}
	return best, nil
}
