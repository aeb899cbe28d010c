package handlers

import (
	"net/http"
	"strconv"

	"medislot/models"
	"medislot/services/doctor"
	"medislot/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DoctorHandler struct {
	Service doctor.DoctorService
}

func NewDoctorHandler(svc doctor.DoctorService) *DoctorHandler {
	return &DoctorHandler{Service: svc}
}

// CreateDoctorHandler registers the calling doctor account as a bookable listing.
func (h *DoctorHandler) CreateDoctorHandler(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var input models.DoctorListingInput
	if !bindJSON(c, &input) {
		return
	}

	doc, err := h.Service.CreateListing(c.Request.Context(), userID, input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.GetLogger().Info("Doctor listing created via API", zap.String("doctorID", doc.ID))
	c.JSON(http.StatusCreated, gin.H{"message": "Doctor listing created", "doctor": doc})
}

func (h *DoctorHandler) ListDoctorsHandler(c *gin.Context) {
	filter := models.DoctorFilter{
		Name:      c.Query("name"),
		Specialty: c.Query("specialty"),
		Day:       c.Query("day"),
	}
	if raw := c.Query("maxFee"); raw != "" {
		fee, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			utils.RespondError(c, utils.NewValidationError("maxFee", "maxFee must be a number"))
			return
		}
		filter.MaxFee = fee
	}

	doctors, err := h.Service.ListDoctors(c.Request.Context(), filter)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"doctors": doctors})
}

func (h *DoctorHandler) GetDoctorHandler(c *gin.Context) {
	doc, err := h.Service.GetDoctor(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"doctor": doc})
}
