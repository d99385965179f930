package holiday

import (
	"context"
	"sync"
	"testing"

	facilityRepo "slotpass/database/repository/facility"
	holidayRepo "slotpass/database/repository/holiday"
	"slotpass/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testFacility = "fac-1"
	testOwner    = "own-1"
)

type recordingRegenerator struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingRegenerator) RegenerateForFacility(ctx context.Context, facilityID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, facilityID)
	return nil
}

func newTestService(t *testing.T) (*DefaultHolidayService, *holidayRepo.MemoryHolidayRepo, *recordingRegenerator) {
	t.Helper()
	holidays := holidayRepo.NewMemoryHolidayRepo()
	facilities := facilityRepo.NewMemoryFacilityRepo()
	facilities.Seed(models.Facility{ID: testFacility, OwnerID: testOwner})
	regen := &recordingRegenerator{}
	return NewHolidayService(holidays, facilities, regen), holidays, regen
}

func addReq(start, end string) AddHolidayRequest {
	return AddHolidayRequest{
		OwnerID:    testOwner,
		FacilityID: testFacility,
		StartDate:  start,
		EndDate:    end,
		Reason:     "maintenance",
	}
}

func TestAddHoliday(t *testing.T) {
	svc, holidays, _ := newTestService(t)

	h, err := svc.Add(context.Background(), addReq("2026-09-10", "2026-09-12"))
	require.NoError(t, err)
	assert.NotEmpty(t, h.ID)

	ranges, err := holidays.RangesForFacility(context.Background(), testFacility)
	require.NoError(t, err)
	require.Len(t, ranges, 1)
	assert.Equal(t, "maintenance", ranges[0].Reason)
}

func TestAddHolidayValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  AddHolidayRequest
		want error
	}{
		{"bad start date", addReq("10-09-2026", "2026-09-12"), ErrInvalidRange},
		{"bad end date", addReq("2026-09-10", "soon"), ErrInvalidRange},
		{"inverted range", addReq("2026-09-12", "2026-09-10"), ErrInvalidRange},
		{"unknown facility", func() AddHolidayRequest { r := addReq("2026-09-10", "2026-09-12"); r.FacilityID = "fac-x"; return r }(), ErrFacilityNotFound},
		{"not the owner", func() AddHolidayRequest { r := addReq("2026-09-10", "2026-09-12"); r.OwnerID = "own-2"; return r }(), ErrNotFacilityOwner},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Add(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestAddHolidayOverlap(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Add(context.Background(), addReq("2026-09-10", "2026-09-12"))
	require.NoError(t, err)

	_, err = svc.Add(context.Background(), addReq("2026-09-12", "2026-09-14"))
	assert.ErrorIs(t, err, ErrOverlappingRange)

	// Adjacent but disjoint ranges are fine.
	_, err = svc.Add(context.Background(), addReq("2026-09-13", "2026-09-14"))
	assert.NoError(t, err)
}

func TestRemoveHolidayRegenerates(t *testing.T) {
	svc, holidays, regen := newTestService(t)

	_, err := svc.Add(context.Background(), addReq("2026-09-10", "2026-09-12"))
	require.NoError(t, err)

	require.NoError(t, svc.Remove(context.Background(), testOwner, testFacility, "2026-09-10", "2026-09-12"))

	ranges, err := holidays.RangesForFacility(context.Background(), testFacility)
	require.NoError(t, err)
	assert.Empty(t, ranges)
	assert.Equal(t, []string{testFacility}, regen.calls)

	assert.ErrorIs(t, svc.Remove(context.Background(), "own-2", testFacility, "2026-09-10", "2026-09-12"), ErrNotFacilityOwner)
}
