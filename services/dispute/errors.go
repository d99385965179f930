package dispute

import "slotpass/utils"

var (
	ErrBookingNotFound = utils.NotFoundError("BOOKING_NOT_FOUND", "Booking not found")
	ErrNotBookingOwner = utils.ForbiddenError("NOT_BOOKING_OWNER", "Booking belongs to another user")
	ErrNotDisputable   = utils.ConflictError("BOOKING_NOT_DISPUTABLE", "Booking is not in a disputable state")
	ErrDisputeExists   = utils.ConflictError("DISPUTE_EXISTS", "An active dispute already exists for this booking")
	ErrOutsideWindow   = utils.ForbiddenError("OUTSIDE_DISPUTE_WINDOW", "Disputes can only be raised during the slot window")
	ErrAfterAttendance = utils.ForbiddenError("ATTENDANCE_MARKED_TODAY", "Attendance was already marked today")
	ErrDisputeNotFound = utils.NotFoundError("DISPUTE_NOT_FOUND", "Dispute not found")
	ErrAlreadyResolved = utils.ConflictError("DISPUTE_ALREADY_RESOLVED", "Dispute is already resolved")
	ErrInvalidDecision = utils.BadRequestError("INVALID_DECISION", "Decision must be REFUND or REJECT")
	ErrReasonRequired  = utils.BadRequestError("REASON_REQUIRED", "A dispute reason is required")
)
