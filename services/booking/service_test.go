package booking

import (
	"context"
	"sync"
	"testing"

	"slotpass/config"
	reservationRepo "slotpass/database/repository/reservation"
	"slotpass/models"
	"slotpass/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testFacility = "fac-1"
	testOwner    = "own-1"
	testUser     = "usr-1"
)

// memIdemStore is a map-backed IdempotencyStore.
type memIdemStore struct {
	mu sync.Mutex
	m  map[string]*models.BookingResult
}

func newMemIdemStore() *memIdemStore {
	return &memIdemStore{m: make(map[string]*models.BookingResult)}
}

func (s *memIdemStore) Get(ctx context.Context, key string) (*models.BookingResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[key], nil
}

func (s *memIdemStore) Set(ctx context.Context, key string, result *models.BookingResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = result
	return nil
}

func (s *memIdemStore) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = make(map[string]*models.BookingResult)
}

// recordingReverser captures escrow reversal calls.
type recordingReverser struct {
	mu       sync.Mutex
	reversed []string
}

func (r *recordingReverser) HandleBookingCancellation(ctx context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reversed = append(r.reversed, booking.ID)
	return nil
}

func price(v int64) *int64 { return &v }

func newTestService(t *testing.T, capacity int) (*DefaultBookingService, *reservationRepo.MemoryReservationRepo, *memIdemStore, *recordingReverser) {
	t.Helper()
	config.AppConfig.CheckinSecret = "test-checkin-secret"

	repo := reservationRepo.NewMemoryReservationRepo()
	repo.SeedFacility(models.Facility{
		ID:             testFacility,
		OwnerID:        testOwner,
		ApprovalStatus: "APPROVED",
		IsPublished:    true,
	})
	repo.SeedTemplate(models.SlotTemplate{
		ID:         "tmpl-1",
		FacilityID: testFacility,
		SlotType:   models.SlotMorning,
		StartTime:  "06:00",
		EndTime:    "12:00",
		Capacity:   capacity,
		Price1Day:  price(1000),
		Price3Day:  price(2700),
		Price7Day:  price(5600),
		ValidFrom:  utils.Today(),
		ValidTill:  utils.AddDays(utils.Today(), 30),
	})

	idem := newMemIdemStore()
	reverser := &recordingReverser{}
	svc := NewBookingService(repo, idem, reverser)
	return svc, repo, idem, reverser
}

func seedSlots(repo *reservationRepo.MemoryReservationRepo, capacity int, dates ...string) {
	for _, d := range dates {
		repo.SeedSlot(models.CapacitySlot{
			ID:         "slot-" + d,
			FacilityID: testFacility,
			Date:       d,
			SlotType:   models.SlotMorning,
			Capacity:   capacity,
			Booked:     0,
		})
	}
}

func datesFrom(start string, n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, utils.AddDays(start, i))
	}
	return out
}

func createReq(key, start string, passDays int) CreateBookingRequest {
	return CreateBookingRequest{
		UserID:         testUser,
		FacilityID:     testFacility,
		SlotType:       models.SlotMorning,
		StartDate:      start,
		PassDays:       passDays,
		IdempotencyKey: key,
	}
}

func TestCreateBookingReservesEachDay(t *testing.T) {
	svc, repo, _, _ := newTestService(t, 2)
	start := utils.AddDays(utils.Today(), 1)
	seedSlots(repo, 2, datesFrom(start, 5)...)

	result, err := svc.CreateBooking(context.Background(), createReq("key-1", start, 3))
	require.NoError(t, err)

	assert.Equal(t, models.BookingAccepted, result.Status)
	assert.Equal(t, start, result.StartDate)
	assert.Equal(t, utils.AddDays(start, 2), result.EndDate)
	assert.Equal(t, 3, result.ActiveDaysRemaining)

	for _, d := range datesFrom(start, 3) {
		assert.Equal(t, 1, repo.SlotBooked(testFacility, d, models.SlotMorning), "date %s", d)
	}
	assert.Equal(t, 0, repo.SlotBooked(testFacility, utils.AddDays(start, 3), models.SlotMorning))

	payload, err := utils.VerifyPass(result.PassCredential)
	require.NoError(t, err)
	assert.Equal(t, result.BookingID, payload.BookingID)
	assert.Equal(t, start, payload.ValidFrom)
	assert.Equal(t, result.EndDate, payload.ValidTill)

	booking, err := repo.GetBooking(context.Background(), result.BookingID)
	require.NoError(t, err)
	assert.Equal(t, int64(2700), booking.BaseAmount)
	assert.Equal(t, int64(5), booking.PlatformFee)
	assert.Equal(t, int64(2705), booking.TotalAmount)
}

func TestCreateBookingSkipsHolidays(t *testing.T) {
	svc, repo, _, _ := newTestService(t, 2)
	start := utils.AddDays(utils.Today(), 1)
	holiday := utils.AddDays(start, 1)
	repo.SeedHoliday(models.Holiday{FacilityID: testFacility, StartDate: holiday, EndDate: holiday})
	// No capacity row exists for the holiday date; the walk must never touch it.
	seedSlots(repo, 2, start, utils.AddDays(start, 2), utils.AddDays(start, 3))

	result, err := svc.CreateBooking(context.Background(), createReq("key-1", start, 3))
	require.NoError(t, err)

	assert.Equal(t, utils.AddDays(start, 3), result.EndDate)
	assert.Equal(t, 1, repo.SlotBooked(testFacility, start, models.SlotMorning))
	assert.Equal(t, -1, repo.SlotBooked(testFacility, holiday, models.SlotMorning))
	assert.Equal(t, 1, repo.SlotBooked(testFacility, utils.AddDays(start, 2), models.SlotMorning))
	assert.Equal(t, 1, repo.SlotBooked(testFacility, utils.AddDays(start, 3), models.SlotMorning))
}

func TestCreateBookingStartDateHoliday(t *testing.T) {
	svc, repo, _, _ := newTestService(t, 2)
	start := utils.AddDays(utils.Today(), 1)
	next := utils.AddDays(start, 1)
	repo.SeedHoliday(models.Holiday{FacilityID: testFacility, StartDate: start, EndDate: start})
	seedSlots(repo, 2, next)

	result, err := svc.CreateBooking(context.Background(), createReq("key-1", start, 1))
	require.NoError(t, err)

	// A one-day pass whose nominal start is closed lands on the next open day.
	assert.Equal(t, next, result.EndDate)
	assert.Equal(t, 1, repo.SlotBooked(testFacility, next, models.SlotMorning))
}

func TestCreateBookingSlotFullRollsBackWalk(t *testing.T) {
	svc, repo, _, _ := newTestService(t, 2)
	start := utils.AddDays(utils.Today(), 1)
	seedSlots(repo, 2, start, utils.AddDays(start, 1))
	// Third day exists but is exhausted.
	repo.SeedSlot(models.CapacitySlot{
		FacilityID: testFacility,
		Date:       utils.AddDays(start, 2),
		SlotType:   models.SlotMorning,
		Capacity:   2,
		Booked:     2,
	})

	_, err := svc.CreateBooking(context.Background(), createReq("key-1", start, 3))
	assert.ErrorIs(t, err, ErrSlotFull)

	// The two successful increments were rolled back with the transaction.
	assert.Equal(t, 0, repo.SlotBooked(testFacility, start, models.SlotMorning))
	assert.Equal(t, 0, repo.SlotBooked(testFacility, utils.AddDays(start, 1), models.SlotMorning))
}

func TestCreateBookingMissingSlotRow(t *testing.T) {
	svc, repo, _, _ := newTestService(t, 2)
	start := utils.AddDays(utils.Today(), 1)
	seedSlots(repo, 2, start) // second day never materialized

	_, err := svc.CreateBooking(context.Background(), createReq("key-1", start, 3))
	assert.ErrorIs(t, err, ErrSlotNotGenerated)
	assert.Equal(t, 0, repo.SlotBooked(testFacility, start, models.SlotMorning))
}

func TestCreateBookingIdempotentReplay(t *testing.T) {
	svc, repo, idem, _ := newTestService(t, 2)
	start := utils.AddDays(utils.Today(), 1)
	seedSlots(repo, 2, datesFrom(start, 3)...)

	first, err := svc.CreateBooking(context.Background(), createReq("key-1", start, 1))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		again, err := svc.CreateBooking(context.Background(), createReq("key-1", start, 1))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, 1, repo.SlotBooked(testFacility, start, models.SlotMorning))

	// Replay must survive cache expiry through the stored key binding.
	idem.clear()
	again, err := svc.CreateBooking(context.Background(), createReq("key-1", start, 1))
	require.NoError(t, err)
	assert.Equal(t, first.BookingID, again.BookingID)
	assert.Equal(t, 1, repo.SlotBooked(testFacility, start, models.SlotMorning))
}

func TestCreateBookingDuplicateActive(t *testing.T) {
	svc, repo, _, _ := newTestService(t, 2)
	start := utils.AddDays(utils.Today(), 1)
	seedSlots(repo, 2, datesFrom(start, 3)...)

	_, err := svc.CreateBooking(context.Background(), createReq("key-1", start, 1))
	require.NoError(t, err)

	_, err = svc.CreateBooking(context.Background(), createReq("key-2", utils.AddDays(start, 1), 1))
	assert.ErrorIs(t, err, ErrDuplicateActiveBooking)
}

func TestCreateBookingValidation(t *testing.T) {
	svc, repo, _, _ := newTestService(t, 2)
	start := utils.AddDays(utils.Today(), 1)
	seedSlots(repo, 2, start)
	ctx := context.Background()

	cases := []struct {
		name string
		req  CreateBookingRequest
		want error
	}{
		{"missing idempotency key", CreateBookingRequest{UserID: testUser, FacilityID: testFacility, SlotType: models.SlotMorning, StartDate: start, PassDays: 1}, ErrMissingIdempotencyKey},
		{"unknown pass days", createReq("k1", start, 5), ErrInvalidPassDays},
		{"unknown slot type", func() CreateBookingRequest { r := createReq("k2", start, 1); r.SlotType = "NIGHT"; return r }(), ErrInvalidSlotType},
		{"bad start date", createReq("k3", "2026/01/01", 1), ErrInvalidStartDate},
		{"outside validity", createReq("k4", utils.AddDays(utils.Today(), 60), 1), ErrOutsideValidity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateBooking(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreateBookingFacilityNotBookable(t *testing.T) {
	svc, repo, _, _ := newTestService(t, 2)
	repo.SeedFacility(models.Facility{
		ID:             testFacility,
		OwnerID:        testOwner,
		ApprovalStatus: "APPROVED",
		IsPublished:    false,
	})
	start := utils.AddDays(utils.Today(), 1)
	seedSlots(repo, 2, start)

	_, err := svc.CreateBooking(context.Background(), createReq("key-1", start, 1))
	assert.ErrorIs(t, err, ErrFacilityNotBookable)
}

func TestCreateBookingPassNotSupported(t *testing.T) {
	svc, repo, _, _ := newTestService(t, 2)
	repo.SeedTemplate(models.SlotTemplate{
		ID:         "tmpl-1",
		FacilityID: testFacility,
		SlotType:   models.SlotMorning,
		Capacity:   2,
		Price1Day:  price(1000), // 7-day pass not offered
		ValidFrom:  utils.Today(),
		ValidTill:  utils.AddDays(utils.Today(), 30),
	})
	start := utils.AddDays(utils.Today(), 1)
	seedSlots(repo, 2, datesFrom(start, 8)...)

	_, err := svc.CreateBooking(context.Background(), createReq("key-1", start, 7))
	assert.ErrorIs(t, err, ErrPassNotSupported)
}

func TestCreateBookingConcurrentCapacity(t *testing.T) {
	svc, repo, _, _ := newTestService(t, 2)
	start := utils.AddDays(utils.Today(), 1)
	seedSlots(repo, 2, start)

	const attempts = 3
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := createReq("key-"+string(rune('a'+i)), start, 1)
			req.UserID = "usr-" + string(rune('a'+i))
			_, err := svc.CreateBooking(context.Background(), req)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	succeeded, full := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case err == ErrSlotFull:
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 1, full)
	assert.Equal(t, 2, repo.SlotBooked(testFacility, start, models.SlotMorning))
}

func TestPlatformFeeTable(t *testing.T) {
	assert.Equal(t, int64(2), PlatformFeeFor(1))
	assert.Equal(t, int64(5), PlatformFeeFor(3))
	assert.Equal(t, int64(7), PlatformFeeFor(7))
}

func TestCancelBookingReleasesCapacity(t *testing.T) {
	svc, repo, _, reverser := newTestService(t, 2)
	start := utils.AddDays(utils.Today(), 1)
	holiday := utils.AddDays(start, 1)
	repo.SeedHoliday(models.Holiday{FacilityID: testFacility, StartDate: holiday, EndDate: holiday})
	seedSlots(repo, 2, start, utils.AddDays(start, 2), utils.AddDays(start, 3))

	result, err := svc.CreateBooking(context.Background(), createReq("key-1", start, 3))
	require.NoError(t, err)

	require.NoError(t, svc.CancelBooking(context.Background(), testUser, result.BookingID))

	booking, err := repo.GetBooking(context.Background(), result.BookingID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, booking.Status)
	for _, d := range []string{start, utils.AddDays(start, 2), utils.AddDays(start, 3)} {
		assert.Equal(t, 0, repo.SlotBooked(testFacility, d, models.SlotMorning), "date %s", d)
	}
	assert.Equal(t, []string{result.BookingID}, reverser.reversed)
}

func TestCancelBookingAllowsRebooking(t *testing.T) {
	svc, repo, _, _ := newTestService(t, 1)
	start := utils.AddDays(utils.Today(), 1)
	seedSlots(repo, 1, start)

	first, err := svc.CreateBooking(context.Background(), createReq("key-1", start, 1))
	require.NoError(t, err)
	require.NoError(t, svc.CancelBooking(context.Background(), testUser, first.BookingID))

	// Cancellation frees the one-active-booking claim along with capacity.
	second, err := svc.CreateBooking(context.Background(), createReq("key-2", start, 1))
	require.NoError(t, err)
	assert.NotEqual(t, first.BookingID, second.BookingID)
}

func TestCancelBookingAfterStart(t *testing.T) {
	svc, repo, _, _ := newTestService(t, 2)
	repo.SeedBooking(models.Booking{
		ID:         "bkg-1",
		UserID:     testUser,
		FacilityID: testFacility,
		SlotType:   models.SlotMorning,
		StartDate:  utils.Today(),
		EndDate:    utils.AddDays(utils.Today(), 2),
		Status:     models.BookingAccepted,
	})

	err := svc.CancelBooking(context.Background(), testUser, "bkg-1")
	assert.ErrorIs(t, err, ErrCancelAfterStart)
}

func TestCancelBookingAfterAttendance(t *testing.T) {
	svc, repo, _, _ := newTestService(t, 2)
	start := utils.AddDays(utils.Today(), 1)
	repo.SeedBooking(models.Booking{
		ID:         "bkg-1",
		UserID:     testUser,
		FacilityID: testFacility,
		SlotType:   models.SlotMorning,
		StartDate:  start,
		EndDate:    utils.AddDays(start, 2),
		Status:     models.BookingAccepted,
	})
	require.NoError(t, repo.InsertAttendance(context.Background(), &models.Attendance{
		BookingID:  "bkg-1",
		FacilityID: testFacility,
		Date:       utils.Today(),
	}))

	err := svc.CancelBooking(context.Background(), testUser, "bkg-1")
	assert.ErrorIs(t, err, ErrCancelAfterAttendance)
}

func TestCancelBookingWrongStatus(t *testing.T) {
	svc, repo, _, _ := newTestService(t, 2)
	repo.SeedBooking(models.Booking{
		ID:         "bkg-1",
		UserID:     testUser,
		FacilityID: testFacility,
		SlotType:   models.SlotMorning,
		StartDate:  utils.AddDays(utils.Today(), 1),
		EndDate:    utils.AddDays(utils.Today(), 3),
		Status:     models.BookingActive,
	})

	err := svc.CancelBooking(context.Background(), testUser, "bkg-1")
	assert.ErrorIs(t, err, ErrNotCancellable)
}
