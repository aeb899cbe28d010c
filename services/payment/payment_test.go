package payment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	doctorRepo "medislot/database/repository/doctor"
	"medislot/models"
	"medislot/services/appointment"
	"medislot/utils"
)

const signatureVector = "742a38a9b459999e738a2d54e89b9f64b144535a09efaf21054dc143460d16c7"

func TestSign_KnownVector(t *testing.T) {
	if got := Sign("s", "order_1", "pay_1"); got != signatureVector {
		t.Fatalf("Sign = %s, want %s", got, signatureVector)
	}
	if !VerifySignature("s", "order_1", "pay_1", signatureVector) {
		t.Fatal("vector should verify")
	}
	for _, bad := range []string{"", "zz", signatureVector[:62], Sign("other", "order_1", "pay_1"), Sign("s", "order_1", "pay_2")} {
		if VerifySignature("s", "order_1", "pay_1", bad) {
			t.Errorf("signature %q should not verify", bad)
		}
	}
}

type fakeGateway struct {
	orders    int
	refunded  []string
	createErr error
}

func (g *fakeGateway) CreateOrder(_ context.Context, req models.OrderRequest) (*models.PaymentOrder, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.orders++
	return &models.PaymentOrder{OrderID: "order_1", Amount: MinorUnits(req.Amount), Currency: req.Currency, Receipt: req.Receipt}, nil
}

func (g *fakeGateway) Refund(_ context.Context, orderID string) error {
	g.refunded = append(g.refunded, orderID)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.Notification
}

func (p *recordingPublisher) Publish(n models.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, n)
}

func newPaymentService(t *testing.T, status models.AppointmentStatus) (*DefaultPaymentService, *doctorRepo.MemoryDoctorRepo, *fakeGateway, *recordingPublisher) {
	t.Helper()
	repo := doctorRepo.NewMemoryDoctorRepo()
	ctx := context.Background()
	if err := repo.Create(ctx, &models.Doctor{ID: "doc-1", UserRef: "doctor-user", Name: "Asha Rao", ConsultationFees: 500}); err != nil {
		t.Fatal(err)
	}
	err := repo.AppendAppointmentIfFree(ctx, "doc-1", models.Appointment{
		ID: "a1", PatientRef: "patient-1", PatientName: "Ravi", AppointmentTime: time.Date(2030, 1, 7, 3, 30, 0, 0, time.UTC),
		Status: status, PaymentStatus: models.PaymentPending, Amount: 500,
	})
	if err != nil {
		t.Fatal(err)
	}
	gw := &fakeGateway{}
	events := &recordingPublisher{}
	svc := &DefaultPaymentService{
		Appointments: &appointment.DefaultAppointmentService{Repo: repo},
		Gateway:      gw,
		Secret:       "s",
		Currency:     "INR",
		Events:       events,
		Metrics:      utils.NewTestMetrics(),
	}
	return svc, repo, gw, events
}

func storedAppointment(t *testing.T, repo *doctorRepo.MemoryDoctorRepo) models.Appointment {
	t.Helper()
	doc, err := repo.GetByAppointmentID(context.Background(), "a1")
	if err != nil {
		t.Fatal(err)
	}
	return *doc.FindAppointment("a1")
}

func TestVerify_SuccessMarksPaid(t *testing.T) {
	svc, repo, gw, events := newPaymentService(t, models.StatusConfirmed)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, "patient-1", "a1")
	if err != nil {
		t.Fatal(err)
	}
	if order.Amount != 50000 || gw.orders != 1 {
		t.Fatalf("unexpected order: %+v", order)
	}

	err = svc.Verify(ctx, "patient-1", "a1", models.VerifyPaymentRequest{OrderID: "order_1", PaymentID: "pay_1", Signature: signatureVector})
	if err != nil {
		t.Fatal(err)
	}
	appt := storedAppointment(t, repo)
	if appt.PaymentStatus != models.PaymentPaid || appt.PaymentID != "pay_1" || appt.Status != models.StatusConfirmed {
		t.Fatalf("unexpected appointment: %+v", appt)
	}
	if len(events.events) != 1 || events.events[0].Type != models.EventPaymentReceived || events.events[0].UserID != "doctor-user" {
		t.Fatalf("unexpected events: %+v", events.events)
	}

	if _, err := svc.CreateOrder(ctx, "patient-1", "a1"); !utils.IsKind(err, utils.KindValidation) {
		t.Fatalf("paid appointment should not accept a new order, got %v", err)
	}
}

func TestVerify_MismatchMarksFailedAndAllowsRetry(t *testing.T) {
	svc, repo, _, _ := newPaymentService(t, models.StatusConfirmed)
	ctx := context.Background()
	if _, err := svc.CreateOrder(ctx, "patient-1", "a1"); err != nil {
		t.Fatal(err)
	}

	err := svc.Verify(ctx, "patient-1", "a1", models.VerifyPaymentRequest{OrderID: "order_1", PaymentID: "pay_1", Signature: "deadbeef"})
	if !utils.IsKind(err, utils.KindSignatureMismatch) {
		t.Fatalf("expected signature mismatch, got %v", err)
	}
	var appErr *utils.AppError
	if errors.As(err, &appErr) && appErr.Message != "payment verification failed" {
		t.Fatalf("mismatch must not leak details: %q", appErr.Message)
	}
	appt := storedAppointment(t, repo)
	if appt.PaymentStatus != models.PaymentFailed || appt.Status != models.StatusConfirmed || appt.PaymentID != "" {
		t.Fatalf("unexpected appointment after mismatch: %+v", appt)
	}

	// Retry: a new order resets to Pending, then a valid signature succeeds.
	if _, err := svc.CreateOrder(ctx, "patient-1", "a1"); err != nil {
		t.Fatal(err)
	}
	if got := storedAppointment(t, repo).PaymentStatus; got != models.PaymentPending {
		t.Fatalf("payment status after new order = %s", got)
	}
	if err := svc.Verify(ctx, "patient-1", "a1", models.VerifyPaymentRequest{OrderID: "order_1", PaymentID: "pay_1", Signature: signatureVector}); err != nil {
		t.Fatal(err)
	}
}

func TestPayment_Preconditions(t *testing.T) {
	svc, _, gw, _ := newPaymentService(t, models.StatusPending)
	ctx := context.Background()

	if _, err := svc.CreateOrder(ctx, "patient-1", "a1"); !utils.IsKind(err, utils.KindValidation) {
		t.Fatalf("pending appointment is not payable, got %v", err)
	}
	if _, err := svc.CreateOrder(ctx, "patient-2", "a1"); !utils.IsKind(err, utils.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := svc.Verify(ctx, "patient-1", "a1", models.VerifyPaymentRequest{OrderID: "order_9", PaymentID: "p", Signature: "00"}); !utils.IsKind(err, utils.KindValidation) {
		t.Fatalf("unknown order must be a validation error, got %v", err)
	}
	if _, err := svc.Status(ctx, "patient-1", "missing"); !utils.IsKind(err, utils.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	svc.Secret = ""
	if _, err := svc.CreateOrder(ctx, "patient-1", "a1"); !utils.IsKind(err, utils.KindDependencyUnavailable) {
		t.Fatalf("expected dependency unavailable, got %v", err)
	}
	if gw.orders != 0 {
		t.Fatalf("gateway should not be called")
	}
}

func TestCreateOrder_GatewayFailure(t *testing.T) {
	svc, repo, gw, _ := newPaymentService(t, models.StatusConfirmed)
	gw.createErr = errors.New("connection refused")

	if _, err := svc.CreateOrder(context.Background(), "patient-1", "a1"); !utils.IsKind(err, utils.KindDependencyUnavailable) {
		t.Fatalf("expected dependency unavailable, got %v", err)
	}
	if storedAppointment(t, repo).OrderID != "" {
		t.Fatal("order id must not be recorded on failure")
	}
}

func TestRefund(t *testing.T) {
	svc, repo, gw, _ := newPaymentService(t, models.StatusConfirmed)
	ctx := context.Background()

	if _, err := svc.Refund(ctx, "doctor-user", "a1"); !utils.IsKind(err, utils.KindInvalidTransition) {
		t.Fatalf("unpaid appointment cannot be refunded, got %v", err)
	}

	_, _ = svc.CreateOrder(ctx, "patient-1", "a1")
	_ = svc.Verify(ctx, "patient-1", "a1", models.VerifyPaymentRequest{OrderID: "order_1", PaymentID: "pay_1", Signature: signatureVector})

	if _, err := svc.Refund(ctx, "patient-1", "a1"); !utils.IsKind(err, utils.KindForbidden) {
		t.Fatalf("patients cannot refund, got %v", err)
	}
	appt, err := svc.Refund(ctx, "doctor-user", "a1")
	if err != nil {
		t.Fatal(err)
	}
	if appt.PaymentStatus != models.PaymentRefunded || len(gw.refunded) != 1 || gw.refunded[0] != "order_1" {
		t.Fatalf("unexpected refund result: %+v %v", appt, gw.refunded)
	}
	if storedAppointment(t, repo).PaymentStatus != models.PaymentRefunded {
		t.Fatal("refund not persisted")
	}
}
