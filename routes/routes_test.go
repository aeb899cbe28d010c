package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"medislot/config"
	"medislot/handlers"
	"medislot/utils"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
	config.AppConfig.JWTSecret = "test-secret"
}

func stub(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"handler": name})
	}
}

func testEngine() *gin.Engine {
	hb := &handlers.HandlerBundle{
		CreateDoctorHandler:            stub("createDoctor"),
		ListDoctorsHandler:             stub("listDoctors"),
		GetDoctorHandler:               stub("getDoctor"),
		GetAvailabilityHandler:         stub("getAvailability"),
		SetAvailabilityHandler:         stub("setAvailability"),
		MergeAvailabilityHandler:       stub("mergeAvailability"),
		DeleteWindowHandler:            stub("deleteWindow"),
		GetSlotsHandler:                stub("slots"),
		BookAppointmentHandler:         stub("book"),
		UpdateAppointmentStatusHandler: stub("status"),
		DoctorAppointmentsHandler:      stub("doctorAppointments"),
		PatientAppointmentsHandler:     stub("patientAppointments"),
		CreateOrderHandler:             stub("createOrder"),
		VerifyPaymentHandler:           stub("verify"),
		PaymentStatusHandler:           stub("paymentStatus"),
		RefundPaymentHandler:           stub("refund"),
		WebsocketHandler:               stub("ws"),
	}
	r := gin.New()
	RegisterRoutes(r, hb)
	return r
}

func TestRoutesEnforceRoles(t *testing.T) {
	r := testEngine()
	doctorTok, _ := utils.GenerateToken("doctor-1", utils.RoleDoctor, time.Hour)
	patientTok, _ := utils.GenerateToken("patient-1", utils.RolePatient, time.Hour)

	cases := []struct {
		method, path, token string
		want                int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodGet, "/api/doctors", "", http.StatusOK},
		{http.MethodGet, "/api/doctors/d1/slots?date=2030-01-07", "", http.StatusOK},
		{http.MethodPost, "/api/doctors", "", http.StatusUnauthorized},
		{http.MethodPost, "/api/doctors", patientTok, http.StatusForbidden},
		{http.MethodPost, "/api/doctors", doctorTok, http.StatusOK},
		{http.MethodPatch, "/api/doctors/d1/availability", doctorTok, http.StatusOK},
		{http.MethodDelete, "/api/doctors/d1/availability/slot", doctorTok, http.StatusOK},
		{http.MethodPost, "/api/appointments/d1", patientTok, http.StatusOK},
		{http.MethodPost, "/api/appointments/d1", doctorTok, http.StatusForbidden},
		{http.MethodGet, "/api/appointments/mine", patientTok, http.StatusOK},
		{http.MethodGet, "/api/appointments/doctor", doctorTok, http.StatusOK},
		{http.MethodGet, "/api/appointments/doctor", patientTok, http.StatusForbidden},
		{http.MethodPatch, "/api/appointments/a1/status", doctorTok, http.StatusOK},
		{http.MethodPost, "/api/payment/verify/a1", patientTok, http.StatusOK},
		{http.MethodPost, "/api/payment/refund/a1", patientTok, http.StatusForbidden},
		{http.MethodPost, "/api/payment/refund/a1", doctorTok, http.StatusOK},
		{http.MethodGet, "/ws", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		if tc.token != "" {
			req.Header.Set("Authorization", "Bearer "+tc.token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Errorf("%s %s: got %d, want %d", tc.method, tc.path, w.Code, tc.want)
		}
	}
}
