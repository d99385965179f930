package attendance

import "slotpass/utils"

var (
	ErrInvalidPass        = utils.BadRequestError("INVALID_PASS", "Pass credential is invalid")
	ErrBookingNotFound    = utils.NotFoundError("BOOKING_NOT_FOUND", "Booking not found")
	ErrNotFacilityOwner   = utils.ForbiddenError("NOT_FACILITY_OWNER", "Booking belongs to another facility")
	ErrBookingNotMarkable = utils.ConflictError("BOOKING_NOT_MARKABLE", "Booking is not active")
	ErrOutsideWindow      = utils.BadRequestError("OUTSIDE_PASS_WINDOW", "Today is outside the pass validity window")
	ErrFacilityClosed     = utils.BadRequestError("FACILITY_CLOSED", "Facility is closed today")
	ErrAlreadyMarked      = utils.ConflictError("ATTENDANCE_ALREADY_MARKED", "Attendance already marked today")
	ErrNoDaysRemaining    = utils.ConflictError("NO_DAYS_REMAINING", "Pass has no active days remaining")
)
