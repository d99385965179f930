package subscription

import (
	"context"
	"time"

	subscriptionRepo "slotpass/database/repository/subscription"
	"slotpass/models"
	"slotpass/utils"

	"go.uber.org/zap"
)

// Owner subscription plan: one flat window per purchase.
const (
	PlanDays        = 90
	PlanAmountMinor = int64(49900)
	PlanCurrency    = "usd"
)

// SubscriptionService manages owner platform subscriptions. Purchases go
// through the payment pipeline; Activate is invoked on capture.
type SubscriptionService interface {
	Activate(ctx context.Context, ownerID string) (*models.OwnerSubscription, error)
	IsActive(ctx context.Context, ownerID string) (bool, error)
	Current(ctx context.Context, ownerID string) (*models.OwnerSubscription, error)
}

// DefaultSubscriptionService is the production implementation.
type DefaultSubscriptionService struct {
	Repo   subscriptionRepo.SubscriptionRepository
	Logger *zap.Logger
}

// NewSubscriptionService constructs a new instance of DefaultSubscriptionService.
func NewSubscriptionService(repo subscriptionRepo.SubscriptionRepository) *DefaultSubscriptionService {
	return &DefaultSubscriptionService{
		Repo:   repo,
		Logger: utils.GetLogger().Named("subscription-service"),
	}
}

// Activate opens a new PlanDays subscription window for the owner starting
// now. Called from the payment capture path only.
func (s *DefaultSubscriptionService) Activate(ctx context.Context, ownerID string) (*models.OwnerSubscription, error) {
	now := time.Now()
	sub := &models.OwnerSubscription{
		OwnerID:   ownerID,
		Status:    models.SubscriptionActive,
		StartsAt:  now,
		ExpiresAt: now.AddDate(0, 0, PlanDays),
		CreatedAt: now,
	}
	if err := s.Repo.Insert(ctx, sub); err != nil {
		return nil, err
	}
	s.Logger.Info("subscription activated",
		zap.String("ownerID", ownerID),
		zap.Time("expiresAt", sub.ExpiresAt))
	return sub, nil
}

// IsActive reports whether the owner holds an unexpired subscription.
func (s *DefaultSubscriptionService) IsActive(ctx context.Context, ownerID string) (bool, error) {
	sub, err := s.Repo.GetActiveForOwner(ctx, ownerID, time.Now())
	if err != nil {
		return false, err
	}
	return sub != nil, nil
}

// Current returns the owner's active subscription, nil when none.
func (s *DefaultSubscriptionService) Current(ctx context.Context, ownerID string) (*models.OwnerSubscription, error) {
	return s.Repo.GetActiveForOwner(ctx, ownerID, time.Now())
}
