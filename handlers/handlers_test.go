package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"medislot/config"
	doctorRepo "medislot/database/repository/doctor"
	"medislot/middleware"
	"medislot/services/appointment"
	"medislot/services/booking"
	"medislot/services/doctor"
	"medislot/services/payment"
	"medislot/services/scheduling"
	"medislot/utils"

	"github.com/gin-gonic/gin"
)

var ist = time.FixedZone("IST", 5*3600+1800)

const paymentSecret = "test-payment-secret"

func init() {
	gin.SetMode(gin.TestMode)
	config.AppConfig.JWTSecret = "test-secret"
}

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	repo := doctorRepo.NewMemoryDoctorRepo()
	now := func() time.Time { return time.Date(2030, 1, 1, 12, 0, 0, 0, ist) }
	metrics := utils.NewTestMetrics()

	appointments := &appointment.DefaultAppointmentService{Repo: repo, Metrics: metrics, Now: now}
	doctors := NewDoctorHandler(&doctor.DefaultDoctorService{Repo: repo, Now: now})
	availability := NewAvailabilityHandler(&scheduling.DefaultAvailabilityService{Repo: repo, Location: ist})
	appts := NewAppointmentHandler(
		&booking.DefaultBookingService{Repo: repo, Metrics: metrics, Location: ist, Now: now},
		appointments,
	)
	payments := NewPaymentHandler(&payment.DefaultPaymentService{
		Appointments: appointments,
		Gateway:      payment.LocalGateway{},
		Secret:       paymentSecret,
		Currency:     "INR",
		Metrics:      metrics,
		Now:          now,
	})

	r := gin.New()
	doctorOnly := middleware.JWTAuthMiddleware(utils.RoleDoctor)
	patientOnly := middleware.JWTAuthMiddleware(utils.RolePatient)

	r.POST("/api/doctors", doctorOnly, doctors.CreateDoctorHandler)
	r.GET("/api/doctors", doctors.ListDoctorsHandler)
	r.GET("/api/doctors/:id", doctors.GetDoctorHandler)
	r.GET("/api/doctors/:id/slots", availability.GetSlotsHandler)
	r.GET("/api/doctors/:id/availability", availability.GetAvailabilityHandler)
	r.POST("/api/doctors/:id/availability", doctorOnly, availability.SetAvailabilityHandler)
	r.PATCH("/api/doctors/:id/availability", doctorOnly, availability.MergeAvailabilityHandler)
	r.DELETE("/api/doctors/:id/availability/slot", doctorOnly, availability.DeleteWindowHandler)
	r.POST("/api/appointments/:doctorId", patientOnly, appts.BookAppointmentHandler)
	r.PATCH("/api/appointments/:id/status", doctorOnly, appts.UpdateAppointmentStatusHandler)
	r.GET("/api/appointments/doctor", doctorOnly, appts.DoctorAppointmentsHandler)
	r.GET("/api/appointments/mine", patientOnly, appts.PatientAppointmentsHandler)
	r.POST("/api/payment/create-order/:appointmentId", patientOnly, payments.CreateOrderHandler)
	r.POST("/api/payment/verify/:appointmentId", patientOnly, payments.VerifyPaymentHandler)
	r.GET("/api/payment/status/:appointmentId", patientOnly, payments.PaymentStatusHandler)
	r.POST("/api/payment/refund/:appointmentId", doctorOnly, payments.RefundPaymentHandler)
	return r
}

func token(t *testing.T, subject, role string) string {
	t.Helper()
	tok, err := utils.GenerateToken(subject, role, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func do(t *testing.T, r http.Handler, method, path, tok string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func field(t *testing.T, m map[string]any, keys ...string) any {
	t.Helper()
	var cur any = m
	for _, k := range keys {
		obj, ok := cur.(map[string]any)
		if !ok {
			t.Fatalf("expected object at %q in %v", k, m)
		}
		cur = obj[k]
	}
	return cur
}

func setupDoctor(t *testing.T, r http.Handler) (string, string) {
	t.Helper()
	docTok := token(t, "doctor-user", utils.RoleDoctor)
	w, body := do(t, r, http.MethodPost, "/api/doctors", docTok, map[string]any{
		"name": "Asha Rao", "specialty": "Cardiology", "description": "Heart care", "consultationFees": 500,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create doctor: %d %s", w.Code, w.Body.String())
	}
	doctorID := field(t, body, "doctor", "id").(string)

	w, _ = do(t, r, http.MethodPost, "/api/doctors/"+doctorID+"/availability", docTok, map[string]any{
		"availability": []map[string]string{
			{"day": "Monday", "start": "09:00", "end": "09:30"},
			{"day": "Monday", "start": "10:00", "end": "10:30"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("set availability: %d %s", w.Code, w.Body.String())
	}
	return doctorID, docTok
}

func TestBookingFlow(t *testing.T) {
	r := testRouter(t)
	doctorID, docTok := setupDoctor(t, r)
	patientTok := token(t, "patient-1", utils.RolePatient)
	otherTok := token(t, "patient-2", utils.RolePatient)

	w, body := do(t, r, http.MethodGet, "/api/doctors/"+doctorID+"/slots?date=2030-01-07", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("slots: %d %s", w.Code, w.Body.String())
	}
	if slots := body["slots"].([]any); len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %v", slots)
	}
	if booked := body["booked"].([]any); len(booked) != 0 {
		t.Fatalf("expected nothing booked, got %v", booked)
	}

	req := map[string]string{
		"patientName":     "Ravi Kumar",
		"patientContact":  "ravi@example.com",
		"appointmentTime": "2030-01-07T09:00:00+05:30",
		"reason":          "checkup",
	}
	w, body = do(t, r, http.MethodPost, "/api/appointments/"+doctorID, patientTok, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("book: %d %s", w.Code, w.Body.String())
	}
	appointmentID := field(t, body, "appointment", "id").(string)
	if got := field(t, body, "appointment", "status"); got != "Pending" {
		t.Fatalf("expected Pending, got %v", got)
	}

	w, body = do(t, r, http.MethodPost, "/api/appointments/"+doctorID, otherTok, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for a taken slot, got %d %s", w.Code, w.Body.String())
	}
	if body["error"] != "SlotConflict" {
		t.Fatalf("unexpected error body %v", body)
	}

	_, body = do(t, r, http.MethodGet, "/api/doctors/"+doctorID+"/slots?date=2030-01-07", "", nil)
	if booked := body["booked"].([]any); len(booked) != 1 || booked[0] != "09:00" {
		t.Fatalf("expected 09:00 booked, got %v", booked)
	}

	w, _ = do(t, r, http.MethodPatch, "/api/appointments/"+appointmentID+"/status", docTok, map[string]string{"status": "Completed"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for Pending to Completed, got %d", w.Code)
	}
	w, body = do(t, r, http.MethodPatch, "/api/appointments/"+appointmentID+"/status", docTok, map[string]string{"status": "Confirmed"})
	if w.Code != http.StatusOK {
		t.Fatalf("confirm: %d %s", w.Code, w.Body.String())
	}
	if got := field(t, body, "appointment", "amount"); got != float64(500) {
		t.Fatalf("expected amount 500, got %v", got)
	}

	w, body = do(t, r, http.MethodGet, "/api/appointments/doctor", docTok, nil)
	if w.Code != http.StatusOK || len(body["appointments"].([]any)) != 1 {
		t.Fatalf("doctor appointments: %d %s", w.Code, w.Body.String())
	}
	w, body = do(t, r, http.MethodGet, "/api/appointments/mine", otherTok, nil)
	if w.Code != http.StatusOK || len(body["appointments"].([]any)) != 0 {
		t.Fatalf("other patient should see nothing: %d %s", w.Code, w.Body.String())
	}
}

func TestPaymentFlow(t *testing.T) {
	r := testRouter(t)
	doctorID, docTok := setupDoctor(t, r)
	patientTok := token(t, "patient-1", utils.RolePatient)

	_, body := do(t, r, http.MethodPost, "/api/appointments/"+doctorID, patientTok, map[string]string{
		"patientName": "Ravi Kumar", "patientContact": "ravi@example.com", "date": "2030-01-07", "slot": "10:00",
	})
	appointmentID := field(t, body, "appointment", "id").(string)

	w, _ := do(t, r, http.MethodPost, "/api/payment/create-order/"+appointmentID, patientTok, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unconfirmed appointment should not be payable, got %d", w.Code)
	}

	do(t, r, http.MethodPatch, "/api/appointments/"+appointmentID+"/status", docTok, map[string]string{"status": "Confirmed"})

	w, body = do(t, r, http.MethodPost, "/api/payment/create-order/"+appointmentID, patientTok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("create order: %d %s", w.Code, w.Body.String())
	}
	orderID := body["orderId"].(string)
	if body["amount"] != float64(50000) {
		t.Fatalf("expected 50000 minor units, got %v", body["amount"])
	}

	w, _ = do(t, r, http.MethodPost, "/api/payment/verify/"+appointmentID, patientTok, map[string]string{
		"orderId": orderID, "paymentId": "pay_1", "signature": "deadbeef",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad signature should answer 400, got %d", w.Code)
	}
	_, body = do(t, r, http.MethodGet, "/api/payment/status/"+appointmentID, patientTok, nil)
	if body["paymentStatus"] != "Failed" {
		t.Fatalf("expected Failed after mismatch, got %v", body["paymentStatus"])
	}

	w, body = do(t, r, http.MethodPost, "/api/payment/verify/"+appointmentID, patientTok, map[string]string{
		"orderId": orderID, "paymentId": "pay_1", "signature": payment.Sign(paymentSecret, orderID, "pay_1"),
	})
	if w.Code != http.StatusOK || body["success"] != true {
		t.Fatalf("verify: %d %s", w.Code, w.Body.String())
	}

	w, body = do(t, r, http.MethodPost, "/api/payment/refund/"+appointmentID, docTok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("refund: %d %s", w.Code, w.Body.String())
	}
	if got := field(t, body, "appointment", "paymentStatus"); got != "Refunded" {
		t.Fatalf("expected Refunded, got %v", got)
	}
}

func TestAuthorization(t *testing.T) {
	r := testRouter(t)
	doctorID, _ := setupDoctor(t, r)
	patientTok := token(t, "patient-1", utils.RolePatient)
	strangerTok := token(t, "doctor-2", utils.RoleDoctor)

	w, _ := do(t, r, http.MethodPost, "/api/doctors/"+doctorID+"/availability", patientTok, map[string]any{"availability": []any{}})
	if w.Code != http.StatusForbidden {
		t.Fatalf("patient editing availability: expected 403, got %d", w.Code)
	}
	w, _ = do(t, r, http.MethodPatch, "/api/doctors/"+doctorID+"/availability", strangerTok, map[string]any{
		"availability": []map[string]string{{"day": "Tuesday", "start": "09:00", "end": "10:00"}},
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("another doctor editing availability: expected 403, got %d", w.Code)
	}
	w, _ = do(t, r, http.MethodPost, "/api/appointments/"+doctorID, "", map[string]string{})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous booking: expected 401, got %d", w.Code)
	}
}

func TestAvailabilityEdits(t *testing.T) {
	r := testRouter(t)
	doctorID, docTok := setupDoctor(t, r)

	w, body := do(t, r, http.MethodPatch, "/api/doctors/"+doctorID+"/availability", docTok, map[string]any{
		"availability": []map[string]string{{"day": "wed", "start": "14:00", "end": "15:00"}},
	})
	if w.Code != http.StatusOK || len(body["availability"].([]any)) != 2 {
		t.Fatalf("merge: %d %s", w.Code, w.Body.String())
	}

	w, _ = do(t, r, http.MethodDelete, "/api/doctors/"+doctorID+"/availability/slot", docTok, map[string]string{
		"day": "Wednesday", "start": "14:00", "end": "15:00",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("delete window: %d %s", w.Code, w.Body.String())
	}
	w, _ = do(t, r, http.MethodDelete, "/api/doctors/"+doctorID+"/availability/slot", docTok, map[string]string{
		"day": "Wednesday", "start": "14:00", "end": "15:00",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("deleting a missing window: expected 404, got %d", w.Code)
	}

	w, body = do(t, r, http.MethodPost, "/api/doctors/"+doctorID+"/availability", docTok, map[string]any{
		"availability": []map[string]string{{"day": "Monday", "start": "11:00", "end": "10:00"}},
	})
	if w.Code != http.StatusBadRequest || body["error"] != "ValidationError" {
		t.Fatalf("inverted window: %d %s", w.Code, w.Body.String())
	}

	w, _ = do(t, r, http.MethodGet, "/api/doctors/"+doctorID+"/slots", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing date: expected 400, got %d", w.Code)
	}
}

func TestListDoctors(t *testing.T) {
	r := testRouter(t)
	setupDoctor(t, r)

	w, body := do(t, r, http.MethodGet, "/api/doctors?specialty=cardio&day=Monday&maxFee=600", "", nil)
	if w.Code != http.StatusOK || len(body["doctors"].([]any)) != 1 {
		t.Fatalf("list: %d %s", w.Code, w.Body.String())
	}
	_, body = do(t, r, http.MethodGet, "/api/doctors?maxFee=100", "", nil)
	if len(body["doctors"].([]any)) != 0 {
		t.Fatalf("fee filter should exclude the doctor: %v", body)
	}
	w, _ = do(t, r, http.MethodGet, "/api/doctors?maxFee=cheap", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad maxFee: expected 400, got %d", w.Code)
	}
	w, _ = do(t, r, http.MethodGet, "/api/doctors/missing", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing doctor: expected 404, got %d", w.Code)
	}
}

func TestMalformedBody(t *testing.T) {
	r := testRouter(t)
	doctorID, _ := setupDoctor(t, r)
	patientTok := token(t, "patient-1", utils.RolePatient)

	req := httptest.NewRequest(http.MethodPost, "/api/appointments/"+doctorID, bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+patientTok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body utils.ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if w.Code != http.StatusBadRequest || body.Error != string(utils.KindValidation) || body.Details == "" {
		t.Fatalf("got %d %+v", w.Code, body)
	}
}
