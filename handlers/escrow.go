package handlers

import (
	"net/http"

	"slotpass/middleware"
	"slotpass/utils"

	"github.com/gin-gonic/gin"
)

// GetBookingEscrowHandler returns the escrow held for a booking.
func (hb *HandlerBundle) GetBookingEscrowHandler(c *gin.Context) {
	e, err := hb.Escrows.GetForBooking(c.Request.Context(), c.Param("bookingID"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// ListOwnerEscrowsHandler lists the caller's escrows for dashboards.
func (hb *HandlerBundle) ListOwnerEscrowsHandler(c *gin.Context) {
	escrows, err := hb.Escrows.ListForOwner(c.Request.Context(), middleware.SessionUserID(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, escrows)
}

// ReleaseEscrowHandler releases one matured hold ahead of the sweep.
func (hb *HandlerBundle) ReleaseEscrowHandler(c *gin.Context) {
	if err := hb.Escrows.Release(c.Request.Context(), c.Param("escrowID")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"escrowId": c.Param("escrowID"), "status": "RELEASED"})
}

// BlockEscrowHandler freezes a hold and flags its booking as disputed.
func (hb *HandlerBundle) BlockEscrowHandler(c *gin.Context) {
	if err := hb.Escrows.Block(c.Request.Context(), c.Param("escrowID")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"escrowId": c.Param("escrowID"), "status": "PAUSED"})
}

// RefundEscrowHandler returns a hold to the user outside the dispute flow.
func (hb *HandlerBundle) RefundEscrowHandler(c *gin.Context) {
	if err := hb.Escrows.Refund(c.Request.Context(), c.Param("escrowID")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"escrowId": c.Param("escrowID"), "status": "REFUNDED"})
}
