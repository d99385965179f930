package handlers

import (
	"net/http"

	"slotpass/middleware"
	"slotpass/utils"

	"github.com/gin-gonic/gin"
)

// ScanPassHandler previews a presented pass credential without consuming a
// day.
func (hb *HandlerBundle) ScanPassHandler(c *gin.Context) {
	var req struct {
		Credential string `json:"credential" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	result, err := hb.Attendance.ScanPass(c.Request.Context(), middleware.SessionUserID(c), req.Credential)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// MarkAttendanceHandler consumes one pass day for today.
func (hb *HandlerBundle) MarkAttendanceHandler(c *gin.Context) {
	var req struct {
		BookingID string `json:"bookingId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	result, err := hb.Attendance.MarkAttendance(c.Request.Context(), middleware.SessionUserID(c), req.BookingID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
