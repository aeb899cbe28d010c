package handlers

import (
	"net/http"

	"medislot/models"
	"medislot/services/appointment"
	"medislot/services/booking"
	"medislot/utils"

	"github.com/gin-gonic/gin"
)

type AppointmentHandler struct {
	Booking      booking.BookingService
	Appointments appointment.AppointmentService
}

func NewAppointmentHandler(bookingSvc booking.BookingService, appointmentSvc appointment.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{Booking: bookingSvc, Appointments: appointmentSvc}
}

// BookAppointmentHandler books a slot with the doctor in the path. A slot that is
// already held answers 409.
func (h *AppointmentHandler) BookAppointmentHandler(c *gin.Context) {
	patientID, ok := callerID(c)
	if !ok {
		return
	}

	var req models.BookingRequest
	if !bindJSON(c, &req) {
		return
	}

	appt, err := h.Booking.BookSlot(c.Request.Context(), patientID, c.Param("doctorId"), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Appointment booked", "appointment": appt})
}

func (h *AppointmentHandler) UpdateAppointmentStatusHandler(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req models.StatusUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	appt, err := h.Appointments.UpdateStatus(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Appointment status updated", "appointment": appt})
}

func (h *AppointmentHandler) DoctorAppointmentsHandler(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	appts, err := h.Appointments.ListForDoctor(c.Request.Context(), userID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts})
}

func (h *AppointmentHandler) PatientAppointmentsHandler(c *gin.Context) {
	patientID, ok := callerID(c)
	if !ok {
		return
	}

	appts, err := h.Appointments.ListForPatient(c.Request.Context(), patientID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts})
}
