// File: medislot/handlers/bundle.go
package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Doctor listing endpoints
	CreateDoctorHandler gin.HandlerFunc
	ListDoctorsHandler  gin.HandlerFunc
	GetDoctorHandler    gin.HandlerFunc

	// Availability endpoints
	GetAvailabilityHandler   gin.HandlerFunc
	SetAvailabilityHandler   gin.HandlerFunc
	MergeAvailabilityHandler gin.HandlerFunc
	DeleteWindowHandler      gin.HandlerFunc
	GetSlotsHandler          gin.HandlerFunc

	// Appointment endpoints
	BookAppointmentHandler         gin.HandlerFunc
	UpdateAppointmentStatusHandler gin.HandlerFunc
	DoctorAppointmentsHandler      gin.HandlerFunc
	PatientAppointmentsHandler     gin.HandlerFunc

	// Payment endpoints
	CreateOrderHandler   gin.HandlerFunc
	VerifyPaymentHandler gin.HandlerFunc
	PaymentStatusHandler gin.HandlerFunc
	RefundPaymentHandler gin.HandlerFunc

	// Live events
	WebsocketHandler gin.HandlerFunc
}
