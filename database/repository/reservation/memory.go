package reservationRepo

import (
	"context"
	"sync"

	"slotpass/models"
)

// MemoryReservationRepo is an in-memory ReservationRepository with the same
// transactional semantics as the Mongo implementation: RunInTransaction
// serializes units of work and rolls state back when fn fails. Used by
// service tests and local development.
type MemoryReservationRepo struct {
	mu    sync.Mutex
	txnMu sync.Mutex

	facilities map[string]models.Facility
	templates  map[string]models.SlotTemplate
	holidays   []models.Holiday
	bookings   map[string]models.Booking
	byIdemKey  map[string]string
	slots      map[string]models.CapacitySlot
	attendance map[string]models.Attendance
}

// NewMemoryReservationRepo constructs an empty in-memory store.
func NewMemoryReservationRepo() *MemoryReservationRepo {
	return &MemoryReservationRepo{
		facilities: make(map[string]models.Facility),
		templates:  make(map[string]models.SlotTemplate),
		bookings:   make(map[string]models.Booking),
		byIdemKey:  make(map[string]string),
		slots:      make(map[string]models.CapacitySlot),
		attendance: make(map[string]models.Attendance),
	}
}

func tmplKey(facilityID, slotType string) string   { return facilityID + "|" + slotType }
func slotKey(facilityID, date, slot string) string { return facilityID + "|" + date + "|" + slot }
func attKey(bookingID, date string) string         { return bookingID + "|" + date }

// Seed helpers.

func (r *MemoryReservationRepo) SeedFacility(f models.Facility) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.facilities[f.ID] = f
}

func (r *MemoryReservationRepo) SeedTemplate(t models.SlotTemplate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[tmplKey(t.FacilityID, t.SlotType)] = t
}

func (r *MemoryReservationRepo) SeedHoliday(h models.Holiday) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.holidays = append(r.holidays, h)
}

func (r *MemoryReservationRepo) SeedSlot(s models.CapacitySlot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[slotKey(s.FacilityID, s.Date, s.SlotType)] = s
}

func (r *MemoryReservationRepo) SeedBooking(b models.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ActiveKey == "" && models.ActiveBookingStatus(b.Status) {
		b.ActiveKey = models.ActiveBookingKey(b.UserID, b.FacilityID, b.SlotType)
	}
	r.bookings[b.ID] = b
	if b.IdempotencyKey != "" {
		r.byIdemKey[b.IdempotencyKey] = b.ID
	}
}

// SlotBooked reports the booked counter for one capacity row, -1 when the
// row does not exist.
func (r *MemoryReservationRepo) SlotBooked(facilityID, date, slotType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[slotKey(facilityID, date, slotType)]
	if !ok {
		return -1
	}
	return s.Booked
}

func (r *MemoryReservationRepo) snapshot() *MemoryReservationRepo {
	clone := NewMemoryReservationRepo()
	for k, v := range r.facilities {
		clone.facilities[k] = v
	}
	for k, v := range r.templates {
		clone.templates[k] = v
	}
	clone.holidays = append(clone.holidays, r.holidays...)
	for k, v := range r.bookings {
		clone.bookings[k] = v
	}
	for k, v := range r.byIdemKey {
		clone.byIdemKey[k] = v
	}
	for k, v := range r.slots {
		clone.slots[k] = v
	}
	for k, v := range r.attendance {
		clone.attendance[k] = v
	}
	return clone
}

func (r *MemoryReservationRepo) restore(snap *MemoryReservationRepo) {
	r.facilities = snap.facilities
	r.templates = snap.templates
	r.holidays = snap.holidays
	r.bookings = snap.bookings
	r.byIdemKey = snap.byIdemKey
	r.slots = snap.slots
	r.attendance = snap.attendance
}

func (r *MemoryReservationRepo) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	r.txnMu.Lock()
	defer r.txnMu.Unlock()

	r.mu.Lock()
	snap := r.snapshot()
	r.mu.Unlock()

	if err := fn(ctx); err != nil {
		r.mu.Lock()
		r.restore(snap)
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *MemoryReservationRepo) GetFacility(ctx context.Context, facilityID string) (*models.Facility, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.facilities[facilityID]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

func (r *MemoryReservationRepo) GetTemplate(ctx context.Context, facilityID, slotType string) (*models.SlotTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[tmplKey(facilityID, slotType)]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *MemoryReservationRepo) IsHoliday(ctx context.Context, facilityID, date string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.holidays {
		if r.holidays[i].FacilityID == facilityID && r.holidays[i].Covers(date) {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryReservationRepo) HasActiveBooking(ctx context.Context, userID, facilityID, slotType string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.UserID == userID && b.FacilityID == facilityID && b.SlotType == slotType {
			switch b.Status {
			case models.BookingPending, models.BookingAccepted, models.BookingActive:
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *MemoryReservationRepo) IncrementSlotBooked(ctx context.Context, facilityID, date, slotType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := slotKey(facilityID, date, slotType)
	s, ok := r.slots[key]
	if !ok {
		return ErrSlotNotFound
	}
	if s.Booked >= s.Capacity {
		return ErrSlotFull
	}
	s.Booked++
	r.slots[key] = s
	return nil
}

func (r *MemoryReservationRepo) DecrementSlotBooked(ctx context.Context, facilityID, date, slotType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := slotKey(facilityID, date, slotType)
	s, ok := r.slots[key]
	if !ok || s.Booked == 0 {
		return nil
	}
	s.Booked--
	r.slots[key] = s
	return nil
}

func (r *MemoryReservationRepo) InsertBooking(ctx context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byIdemKey[booking.IdempotencyKey]; exists {
		return ErrDuplicateKey
	}
	if booking.ActiveKey != "" {
		for _, b := range r.bookings {
			if b.ActiveKey == booking.ActiveKey {
				return ErrDuplicateActive
			}
		}
	}
	r.bookings[booking.ID] = *booking
	r.byIdemKey[booking.IdempotencyKey] = booking.ID
	return nil
}

func (r *MemoryReservationRepo) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[bookingID]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *MemoryReservationRepo) GetUserBooking(ctx context.Context, bookingID, userID string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[bookingID]
	if !ok || b.UserID != userID {
		return nil, nil
	}
	return &b, nil
}

func (r *MemoryReservationRepo) GetBookingByIdempotencyKey(ctx context.Context, key string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byIdemKey[key]
	if !ok {
		return nil, nil
	}
	b := r.bookings[id]
	return &b, nil
}

func (r *MemoryReservationRepo) UpdateBookingStatus(ctx context.Context, bookingID string, from []string, to string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[bookingID]
	if !ok {
		return false, nil
	}
	if len(from) > 0 {
		allowed := false
		for _, s := range from {
			if b.Status == s {
				allowed = true
				break
			}
		}
		if !allowed {
			return false, nil
		}
	}
	b.Status = to
	if models.ActiveBookingStatus(to) {
		b.ActiveKey = models.ActiveBookingKey(b.UserID, b.FacilityID, b.SlotType)
	} else {
		b.ActiveKey = ""
	}
	r.bookings[bookingID] = b
	return true, nil
}

func (r *MemoryReservationRepo) HasAttendance(ctx context.Context, bookingID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attendance {
		if a.BookingID == bookingID {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryReservationRepo) HasAttendanceOn(ctx context.Context, bookingID, date string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.attendance[attKey(bookingID, date)]
	return ok, nil
}

func (r *MemoryReservationRepo) InsertAttendance(ctx context.Context, att *models.Attendance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := attKey(att.BookingID, att.Date)
	if _, exists := r.attendance[key]; exists {
		return ErrAlreadyMarked
	}
	r.attendance[key] = *att
	return nil
}

func (r *MemoryReservationRepo) ConsumePassDay(ctx context.Context, bookingID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[bookingID]
	if !ok || b.ActiveDaysRemaining <= 0 {
		return 0, ErrNoActivePass
	}
	b.ActiveDaysRemaining--
	r.bookings[bookingID] = b
	return b.ActiveDaysRemaining, nil
}
