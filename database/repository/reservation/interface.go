package reservationRepo

import (
	"context"
	"errors"

	"slotpass/models"
)

// Sentinel errors surfaced by the reservation store. The booking service maps
// them onto its own error taxonomy at the boundary.
var (
	ErrSlotNotFound    = errors.New("capacity slot not generated")
	ErrSlotFull        = errors.New("capacity slot full")
	ErrDuplicateKey    = errors.New("duplicate idempotency key")
	ErrDuplicateActive = errors.New("active booking already exists")
	ErrAlreadyMarked   = errors.New("attendance already marked")
	ErrNoActivePass    = errors.New("no active pass days remaining")
	ErrBookingMissing  = errors.New("booking not found")
)

// ReservationRepository is the transactional core store: bookings, capacity
// counters, attendance, and the reference data the reservation walk consults.
// All mutating steps of one operation run inside RunInTransaction so a
// failure aborts every capacity increment together.
type ReservationRepository interface {
	// RunInTransaction executes fn inside one unit of work. Repository calls
	// made with the ctx passed to fn join the transaction.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	GetFacility(ctx context.Context, facilityID string) (*models.Facility, error)
	GetTemplate(ctx context.Context, facilityID, slotType string) (*models.SlotTemplate, error)
	IsHoliday(ctx context.Context, facilityID, date string) (bool, error)

	// HasActiveBooking reports whether the user already holds a PENDING,
	// ACCEPTED or ACTIVE booking for (facility, slot type).
	HasActiveBooking(ctx context.Context, userID, facilityID, slotType string) (bool, error)

	// IncrementSlotBooked consumes one unit of (facility, date, slot type)
	// capacity. Returns ErrSlotNotFound when the row was never materialized
	// and ErrSlotFull when booked has reached capacity. The update is guarded
	// so the invariant booked <= capacity holds under concurrency.
	IncrementSlotBooked(ctx context.Context, facilityID, date, slotType string) error

	// DecrementSlotBooked releases one unit, never below zero.
	DecrementSlotBooked(ctx context.Context, facilityID, date, slotType string) error

	// InsertBooking persists a new booking. Returns ErrDuplicateKey when the
	// idempotency key is already bound to another booking and
	// ErrDuplicateActive when the user already holds an active booking for
	// the same (facility, slot type). The latter is the backstop for
	// concurrent creates whose snapshots both saw no active booking.
	InsertBooking(ctx context.Context, booking *models.Booking) error

	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	GetUserBooking(ctx context.Context, bookingID, userID string) (*models.Booking, error)

	// GetBookingByIdempotencyKey resolves the booking a key was bound to, for
	// replaying a create after the cache entry expired.
	GetBookingByIdempotencyKey(ctx context.Context, key string) (*models.Booking, error)

	// UpdateBookingStatus transitions a booking from any of the given
	// statuses to the target and reports whether a document matched. The
	// active-booking key is recomputed from the target status: cleared on
	// terminal transitions, restored when a booking returns to active.
	UpdateBookingStatus(ctx context.Context, bookingID string, from []string, to string) (bool, error)

	HasAttendance(ctx context.Context, bookingID string) (bool, error)
	HasAttendanceOn(ctx context.Context, bookingID, date string) (bool, error)

	// InsertAttendance records one consumed day; unique per (booking, date).
	InsertAttendance(ctx context.Context, att *models.Attendance) error

	// ConsumePassDay decrements activeDaysRemaining (guarded > 0) and returns
	// the remaining count after the decrement.
	ConsumePassDay(ctx context.Context, bookingID string) (int, error)
}
