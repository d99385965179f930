package slots

import "slotpass/utils"

var (
	ErrInvalidSlotType     = utils.BadRequestError("INVALID_SLOT_TYPE", "Unknown slot type")
	ErrInvalidTimeWindow   = utils.BadRequestError("INVALID_TIME_WINDOW", "Start time must be before end time")
	ErrInvalidCapacity     = utils.BadRequestError("INVALID_CAPACITY", "Capacity must be positive")
	ErrCapacityBelowBooked = utils.ConflictError("CAPACITY_BELOW_BOOKED", "Capacity cannot be less than what is already booked")
	ErrNoPassPrices        = utils.BadRequestError("NO_PASS_PRICES", "At least one pass price is required")
	ErrInvalidValidity     = utils.BadRequestError("INVALID_VALIDITY_WINDOW", "Validity window is invalid")
	ErrTemplateExists      = utils.ConflictError("SLOT_TEMPLATE_EXISTS", "Template already defined for this slot type")
	ErrTemplateNotFound    = utils.NotFoundError("SLOT_TEMPLATE_NOT_FOUND", "Slot template not found")
	ErrFacilityNotFound    = utils.NotFoundError("FACILITY_NOT_FOUND", "Facility not found")
	ErrNotFacilityOwner    = utils.ForbiddenError("NOT_FACILITY_OWNER", "Facility belongs to another owner")
)
