package handlers

import (
	"net/http"

	"slotpass/middleware"
	"slotpass/services/holiday"
	"slotpass/utils"

	"github.com/gin-gonic/gin"
)

// AddHolidayHandler records a closed date range for a facility.
func (hb *HandlerBundle) AddHolidayHandler(c *gin.Context) {
	var req holiday.AddHolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	req.OwnerID = middleware.SessionUserID(c)

	h, err := hb.Holidays.Add(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h)
}

// RemoveHolidayHandler deletes a closed range and reopens its dates.
func (hb *HandlerBundle) RemoveHolidayHandler(c *gin.Context) {
	var req struct {
		FacilityID string `json:"facilityId" binding:"required"`
		StartDate  string `json:"startDate" binding:"required"`
		EndDate    string `json:"endDate" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	err := hb.Holidays.Remove(c.Request.Context(), middleware.SessionUserID(c), req.FacilityID, req.StartDate, req.EndDate)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": true})
}

// ListHolidaysHandler lists a facility's closed ranges.
func (hb *HandlerBundle) ListHolidaysHandler(c *gin.Context) {
	holidays, err := hb.Holidays.List(c.Request.Context(), c.Param("facilityID"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, holidays)
}
