package handlers

import (
	"context"
	"net/http"

	"medislot/models"
	"medislot/services/scheduling"
	"medislot/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AvailabilityHandler struct {
	Service scheduling.AvailabilityService
}

func NewAvailabilityHandler(svc scheduling.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{Service: svc}
}

type availabilityWrite func(ctx context.Context, callerID, doctorID string, windows []models.WeeklyWindow) ([]models.DayAvailability, error)

func (h *AvailabilityHandler) GetAvailabilityHandler(c *gin.Context) {
	availability, err := h.Service.GetAvailability(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"availability": availability})
}

// SetAvailabilityHandler replaces the doctor's whole weekly schedule.
func (h *AvailabilityHandler) SetAvailabilityHandler(c *gin.Context) {
	h.write(c, h.Service.SetAvailability, "Availability updated")
}

// MergeAvailabilityHandler adds windows to the existing schedule.
func (h *AvailabilityHandler) MergeAvailabilityHandler(c *gin.Context) {
	h.write(c, h.Service.MergeAvailability, "Availability merged")
}

func (h *AvailabilityHandler) write(c *gin.Context, apply availabilityWrite, message string) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req models.SetAvailabilityRequest
	if !bindJSON(c, &req) {
		return
	}

	doctorID := c.Param("id")
	availability, err := apply(c.Request.Context(), userID, doctorID, req.Availability)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.GetLogger().Info(message, zap.String("doctorID", doctorID), zap.Int("windows", len(req.Availability)))
	c.JSON(http.StatusOK, gin.H{"message": message, "availability": availability})
}

func (h *AvailabilityHandler) DeleteWindowHandler(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var window models.WeeklyWindow
	if !bindJSON(c, &window) {
		return
	}

	availability, err := h.Service.DeleteWindow(c.Request.Context(), userID, c.Param("id"), window)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Window removed", "availability": availability})
}

// GetSlotsHandler lists the bookable slots for ?date=YYYY-MM-DD.
func (h *AvailabilityHandler) GetSlotsHandler(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		utils.RespondError(c, utils.NewValidationError("date", "date query parameter is required"))
		return
	}

	slots, err := h.Service.ResolveSlots(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}
