package handlers

import (
	"net/http"

	"slotpass/middleware"
	"slotpass/services/slots"
	"slotpass/utils"

	"github.com/gin-gonic/gin"
)

// CreateTemplateHandler defines a recurring slot offering and materializes
// its capacity.
func (hb *HandlerBundle) CreateTemplateHandler(c *gin.Context) {
	var req slots.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	req.OwnerID = middleware.SessionUserID(c)

	tmpl, err := hb.Slots.CreateTemplate(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tmpl)
}

// UpdateCapacityHandler changes a template's capacity for dates materialized
// from now on.
func (hb *HandlerBundle) UpdateCapacityHandler(c *gin.Context) {
	var req struct {
		Capacity int `json:"capacity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	err := hb.Slots.UpdateCapacity(c.Request.Context(), middleware.SessionUserID(c), c.Param("templateID"), req.Capacity)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templateId": c.Param("templateID"), "capacity": req.Capacity})
}

// ListTemplatesHandler lists a facility's slot templates.
func (hb *HandlerBundle) ListTemplatesHandler(c *gin.Context) {
	templates, err := hb.Slots.ListTemplates(c.Request.Context(), c.Param("facilityID"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}
