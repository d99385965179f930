package subscription

import (
	"context"
	"testing"
	"time"

	subscriptionRepo "slotpass/database/repository/subscription"
	"slotpass/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivateOpensPlanWindow(t *testing.T) {
	svc := NewSubscriptionService(subscriptionRepo.NewMemorySubscriptionRepo())

	sub, err := svc.Activate(context.Background(), "own-1")
	require.NoError(t, err)

	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, models.SubscriptionActive, sub.Status)
	assert.Equal(t, sub.StartsAt.AddDate(0, 0, PlanDays), sub.ExpiresAt)

	active, err := svc.IsActive(context.Background(), "own-1")
	require.NoError(t, err)
	assert.True(t, active)

	active, err = svc.IsActive(context.Background(), "own-2")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestCurrentPicksLatestWindow(t *testing.T) {
	repo := subscriptionRepo.NewMemorySubscriptionRepo()
	svc := NewSubscriptionService(repo)

	now := time.Now()
	require.NoError(t, repo.Insert(context.Background(), &models.OwnerSubscription{
		OwnerID:   "own-1",
		Status:    models.SubscriptionActive,
		StartsAt:  now.AddDate(0, 0, -100),
		ExpiresAt: now.AddDate(0, 0, -10),
	}))

	// The lapsed window alone does not count as active.
	current, err := svc.Current(context.Background(), "own-1")
	require.NoError(t, err)
	assert.Nil(t, current)

	renewed, err := svc.Activate(context.Background(), "own-1")
	require.NoError(t, err)

	current, err = svc.Current(context.Background(), "own-1")
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, renewed.ID, current.ID)
}
