package payment

import "slotpass/utils"

var (
	ErrBookingNotFound   = utils.NotFoundError("BOOKING_NOT_FOUND", "Booking not found")
	ErrBookingNotPayable = utils.ConflictError("BOOKING_NOT_PAYABLE", "Booking is not awaiting payment")
	ErrAlreadyPaid       = utils.ConflictError("ALREADY_PAID", "Payment already captured")
	ErrInvalidSignature  = utils.ForbiddenError("INVALID_WEBHOOK_SIGNATURE", "Webhook signature mismatch")
	ErrMalformedEvent    = utils.BadRequestError("MALFORMED_WEBHOOK_EVENT", "Webhook payload unreadable")
	ErrUnknownOrder      = utils.NotFoundError("UNKNOWN_ORDER", "No payment recorded for order")
	ErrAmountMismatch    = utils.ConflictError("AMOUNT_MISMATCH", "Webhook amount or currency disagrees with order")
)
