package handlers

import (
	"net/http"

	"slotpass/middleware"
	"slotpass/services/booking"
	"slotpass/utils"

	"github.com/gin-gonic/gin"
)

// CreateBookingHandler reserves a multi-day pass. The Idempotency-Key header
// is a hard precondition; replays with the same key return the original
// result.
func (hb *HandlerBundle) CreateBookingHandler(c *gin.Context) {
	idemKey := c.GetHeader("Idempotency-Key")
	if idemKey == "" {
		utils.RespondError(c, booking.ErrMissingIdempotencyKey)
		return
	}

	var req booking.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	req.UserID = middleware.SessionUserID(c)
	req.IdempotencyKey = idemKey

	result, err := hb.Booking.CreateBooking(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetBookingHandler returns one of the caller's bookings.
func (hb *HandlerBundle) GetBookingHandler(c *gin.Context) {
	b, err := hb.Booking.GetBooking(c.Request.Context(), middleware.SessionUserID(c), c.Param("bookingID"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// CancelBookingHandler cancels a not-yet-started booking and reverses any
// held escrow.
func (hb *HandlerBundle) CancelBookingHandler(c *gin.Context) {
	bookingID := c.Param("bookingID")
	if err := hb.Booking.CancelBooking(c.Request.Context(), middleware.SessionUserID(c), bookingID); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookingId": bookingID, "status": "CANCELLED"})
}
