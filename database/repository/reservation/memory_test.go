package reservationRepo

import (
	"context"
	"testing"

	"slotpass/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeBooking(id, idemKey string) *models.Booking {
	return &models.Booking{
		ID:             id,
		UserID:         "usr-1",
		FacilityID:     "fac-1",
		SlotType:       models.SlotMorning,
		Status:         models.BookingAccepted,
		IdempotencyKey: idemKey,
		ActiveKey:      models.ActiveBookingKey("usr-1", "fac-1", models.SlotMorning),
	}
}

func TestInsertBookingActiveKeyUnique(t *testing.T) {
	repo := NewMemoryReservationRepo()
	ctx := context.Background()

	require.NoError(t, repo.InsertBooking(ctx, activeBooking("bkg-1", "key-1")))

	// Distinct idempotency key, same active slot claim.
	err := repo.InsertBooking(ctx, activeBooking("bkg-2", "key-2"))
	assert.ErrorIs(t, err, ErrDuplicateActive)
}

func TestBookingStatusTracksActiveKey(t *testing.T) {
	repo := NewMemoryReservationRepo()
	ctx := context.Background()

	require.NoError(t, repo.InsertBooking(ctx, activeBooking("bkg-1", "key-1")))

	// A terminal transition frees the claim for a new booking.
	matched, err := repo.UpdateBookingStatus(ctx, "bkg-1", nil, models.BookingCancelled)
	require.NoError(t, err)
	require.True(t, matched)
	require.NoError(t, repo.InsertBooking(ctx, activeBooking("bkg-2", "key-2")))

	// DISPUTED does not count as active; returning to ACTIVE reclaims it.
	_, err = repo.UpdateBookingStatus(ctx, "bkg-2", nil, models.BookingDisputed)
	require.NoError(t, err)
	b, err := repo.GetBooking(ctx, "bkg-2")
	require.NoError(t, err)
	assert.Empty(t, b.ActiveKey)

	_, err = repo.UpdateBookingStatus(ctx, "bkg-2", nil, models.BookingActive)
	require.NoError(t, err)
	b, err = repo.GetBooking(ctx, "bkg-2")
	require.NoError(t, err)
	assert.Equal(t, models.ActiveBookingKey("usr-1", "fac-1", models.SlotMorning), b.ActiveKey)
}
