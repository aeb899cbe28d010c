package routes

import (
	"medislot/handlers"
	"medislot/middleware"
	"medislot/utils"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterDoctorRoutes registers doctor listing, availability and slot endpoints.
func RegisterDoctorRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/doctors")
	{
		// Public browsing
		api.GET("", hb.ListDoctorsHandler)
		api.GET("/:id", hb.GetDoctorHandler)
		api.GET("/:id/availability", hb.GetAvailabilityHandler)
		api.GET("/:id/slots", hb.GetSlotsHandler)

		// Doctor-only management; ownership is checked by the services.
		protected := api.Group("")
		protected.Use(middleware.JWTAuthMiddleware(utils.RoleDoctor))
		protected.POST("", hb.CreateDoctorHandler)
		protected.POST("/:id/availability", hb.SetAvailabilityHandler)
		protected.PATCH("/:id/availability", hb.MergeAvailabilityHandler)
		protected.DELETE("/:id/availability/slot", hb.DeleteWindowHandler)
	}
}

// RegisterAppointmentRoutes registers booking and appointment lifecycle endpoints.
func RegisterAppointmentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/appointments")
	{
		patient := api.Group("")
		patient.Use(middleware.JWTAuthMiddleware(utils.RolePatient))
		patient.POST("/:doctorId", hb.BookAppointmentHandler)
		patient.GET("/mine", hb.PatientAppointmentsHandler)

		doctor := api.Group("")
		doctor.Use(middleware.JWTAuthMiddleware(utils.RoleDoctor))
		doctor.PATCH("/:id/status", hb.UpdateAppointmentStatusHandler)
		doctor.GET("/doctor", hb.DoctorAppointmentsHandler)
	}
}

// RegisterPaymentRoutes registers consultation fee endpoints.
func RegisterPaymentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/payment")
	{
		patient := api.Group("")
		patient.Use(middleware.JWTAuthMiddleware(utils.RolePatient))
		patient.POST("/create-order/:appointmentId", hb.CreateOrderHandler)
		patient.POST("/verify/:appointmentId", hb.VerifyPaymentHandler)
		patient.GET("/status/:appointmentId", hb.PaymentStatusHandler)

		api.POST("/refund/:appointmentId", middleware.JWTAuthMiddleware(utils.RoleDoctor), hb.RefundPaymentHandler)
	}
}

// RegisterLiveRoutes registers the websocket endpoint for live events.
func RegisterLiveRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/ws", middleware.JWTAuthMiddleware(), hb.WebsocketHandler)
}

// RegisterHealthRoute registers health-check and metrics endpoints.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm MediSlot", "dependencies": utils.GetHealthStatus()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterDoctorRoutes(r, hb)
	RegisterAppointmentRoutes(r, hb)
	RegisterPaymentRoutes(r, hb)
	RegisterLiveRoutes(r, hb)
}
