package handlers

import (
	"net/http"

	"slotpass/middleware"
	"slotpass/services/dispute"
	"slotpass/utils"

	"github.com/gin-gonic/gin"
)

// CreateDisputeHandler files a claim against a booking.
func (hb *HandlerBundle) CreateDisputeHandler(c *gin.Context) {
	var req dispute.CreateDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	req.UserID = middleware.SessionUserID(c)

	d, err := hb.Disputes.Create(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

// ResolveDisputeHandler applies an admin decision to a dispute.
func (hb *HandlerBundle) ResolveDisputeHandler(c *gin.Context) {
	var req struct {
		Decision string `json:"decision" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	d, err := hb.Disputes.Resolve(c.Request.Context(), c.Param("disputeID"), req.Decision)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// GetBookingDisputeHandler returns the dispute attached to a booking.
func (hb *HandlerBundle) GetBookingDisputeHandler(c *gin.Context) {
	d, err := hb.Disputes.GetByBooking(c.Request.Context(), c.Param("bookingID"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
