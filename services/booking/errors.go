package booking

import "slotpass/utils"

// The closed failure set of the reservation engine. Every path out of
// CreateBooking and CancelBooking ends in one of these or an internal error.
var (
	ErrInvalidPassDays        = utils.BadRequestError("INVALID_PASS_DAYS", "Invalid pass duration")
	ErrInvalidSlotType        = utils.BadRequestError("INVALID_SLOT_TYPE", "Unknown slot type")
	ErrMissingIdempotencyKey  = utils.BadRequestError("MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required")
	ErrInvalidStartDate       = utils.BadRequestError("INVALID_START_DATE", "Start date must be YYYY-MM-DD")
	ErrFacilityNotBookable    = utils.ForbiddenError("FACILITY_NOT_BOOKABLE", "Facility not bookable")
	ErrDuplicateActiveBooking = utils.ConflictError("DUPLICATE_ACTIVE_BOOKING", "Active booking already exists")
	ErrTemplateNotFound       = utils.NotFoundError("SLOT_TEMPLATE_NOT_FOUND", "Slot template not found")
	ErrOutsideValidity        = utils.BadRequestError("SLOT_OUTSIDE_VALIDITY", "Start date outside slot validity window")
	ErrPassNotSupported       = utils.BadRequestError("PASS_NOT_SUPPORTED", "Pass duration not offered for this slot")
	ErrSlotNotGenerated       = utils.NotFoundError("SLOT_NOT_GENERATED", "Slots not generated")
	ErrSlotFull               = utils.ConflictError("SLOT_FULL", "Slot is full")

	ErrBookingNotFound       = utils.NotFoundError("BOOKING_NOT_FOUND", "Booking not found")
	ErrNotCancellable        = utils.BadRequestError("BOOKING_NOT_CANCELLABLE", "Booking is not cancellable")
	ErrCancelAfterStart      = utils.ForbiddenError("CANNOT_CANCEL_AFTER_START_DATE", "Booking already started")
	ErrCancelAfterAttendance = utils.ForbiddenError("CANNOT_CANCEL_AFTER_ATTENDANCE", "Attendance already recorded")
)
