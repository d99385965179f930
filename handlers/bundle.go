package handlers

import (
	"slotpass/services/attendance"
	"slotpass/services/booking"
	"slotpass/services/dispute"
	"slotpass/services/escrow"
	"slotpass/services/holiday"
	"slotpass/services/payment"
	"slotpass/services/slots"
	"slotpass/services/subscription"
)

// HandlerBundle groups the services behind all endpoint handlers.
type HandlerBundle struct {
	Booking       booking.BookingService
	Slots         slots.SlotService
	Holidays      holiday.HolidayService
	Payments      payment.PaymentService
	Attendance    attendance.AttendanceService
	Disputes      dispute.DisputeService
	Escrows       escrow.EscrowService
	Subscriptions subscription.SubscriptionService
}
