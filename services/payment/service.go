package payment

import (
	"context"
	"fmt"
	"time"

	"medislot/models"
	"medislot/services/appointment"
	"medislot/services/notification"
	"medislot/utils"

	"go.uber.org/zap"
)

// AppointmentStore is the part of the appointment service payments rely on.
type AppointmentStore interface {
	Get(ctx context.Context, appointmentID string) (*models.Doctor, *models.Appointment, error)
	Mutate(ctx context.Context, appointmentID string, fn appointment.MutateFunc) (*models.Doctor, *models.Appointment, error)
}

// PaymentService collects consultation fees for confirmed appointments.
type PaymentService interface {
	CreateOrder(ctx context.Context, patientID, appointmentID string) (*models.PaymentOrder, error)
	Verify(ctx context.Context, patientID, appointmentID string, req models.VerifyPaymentRequest) error
	Status(ctx context.Context, patientID, appointmentID string) (*models.PaymentStatusView, error)
	Refund(ctx context.Context, callerID, appointmentID string) (*models.Appointment, error)
}

type DefaultPaymentService struct {
	Appointments AppointmentStore
	Gateway      Gateway
	Secret       string
	Currency     string
	Events       notification.Publisher
	Metrics      *utils.Metrics
	Logger       *zap.Logger
	Now          func() time.Time
}

func (s *DefaultPaymentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DefaultPaymentService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *DefaultPaymentService) count(outcome string) {
	if s.Metrics != nil {
		s.Metrics.Payments.WithLabelValues(outcome).Inc()
	}
}

func (s *DefaultPaymentService) configured() error {
	if s.Secret == "" || s.Gateway == nil {
		return utils.NewDependencyUnavailableError("payment gateway", nil)
	}
	return nil
}

func ownedByPatient(appt *models.Appointment, patientID string) error {
	if appt.PatientRef != patientID {
		return utils.NewForbiddenError("this appointment belongs to another patient")
	}
	return nil
}

func payable(appt *models.Appointment) error {
	if appt.Status != models.StatusConfirmed {
		return utils.NewValidationError("status", "appointment must be confirmed before payment")
	}
	if appt.PaymentStatus == models.PaymentPaid || appt.PaymentStatus == models.PaymentRefunded {
		return utils.NewValidationError("paymentStatus", "appointment is already paid")
	}
	return nil
}

// CreateOrder opens a gateway order for the appointment's fee and records its id.
// A previously failed payment goes back to Pending for the retry.
func (s *DefaultPaymentService) CreateOrder(ctx context.Context, patientID, appointmentID string) (*models.PaymentOrder, error) {
	if err := s.configured(); err != nil {
		return nil, err
	}
	_, appt, err := s.Appointments.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := ownedByPatient(appt, patientID); err != nil {
		return nil, err
	}
	if err := payable(appt); err != nil {
		return nil, err
	}

	order, err := s.Gateway.CreateOrder(ctx, models.OrderRequest{
		AppointmentID: appt.ID,
		Amount:        appt.Amount,
		Currency:      s.Currency,
		Receipt:       "receipt_" + appt.ID,
	})
	if err != nil {
		s.logger().Error("Gateway order creation failed", zap.String("appointmentID", appointmentID), zap.Error(err))
		return nil, utils.NewDependencyUnavailableError("payment gateway", err)
	}

	_, _, err = s.Appointments.Mutate(ctx, appointmentID, func(_ *models.Doctor, appt *models.Appointment) error {
		if err := payable(appt); err != nil {
			return err
		}
		if appt.PaymentStatus == models.PaymentFailed {
			if err := appointment.ApplyPayment(appt, models.PaymentPending, "", s.now()); err != nil {
				return err
			}
		}
		appt.OrderID = order.OrderID
		appt.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger().Info("Payment order created", zap.String("appointmentID", appointmentID), zap.String("orderID", order.OrderID))
	return order, nil
}

// Verify checks the checkout's signature. A match marks the appointment Paid; a
// mismatch marks it Failed and returns SignatureMismatch. Appointment status is never
// touched.
func (s *DefaultPaymentService) Verify(ctx context.Context, patientID, appointmentID string, req models.VerifyPaymentRequest) error {
	if err := s.configured(); err != nil {
		return err
	}

	var matched bool
	doc, appt, err := s.Appointments.Mutate(ctx, appointmentID, func(_ *models.Doctor, appt *models.Appointment) error {
		if err := ownedByPatient(appt, patientID); err != nil {
			return err
		}
		if appt.OrderID == "" || appt.OrderID != req.OrderID {
			return utils.NewValidationError("orderId", "orderId does not match this appointment's order")
		}
		matched = VerifySignature(s.Secret, req.OrderID, req.PaymentID, req.Signature)
		if matched {
			return appointment.ApplyPayment(appt, models.PaymentPaid, req.PaymentID, s.now())
		}
		return appointment.ApplyPayment(appt, models.PaymentFailed, "", s.now())
	})
	if err != nil {
		return err
	}

	if !matched {
		s.count("mismatch")
		s.logger().Warn("Payment signature mismatch", zap.String("appointmentID", appointmentID), zap.String("orderID", req.OrderID))
		return utils.NewSignatureMismatchError()
	}

	s.count("paid")
	s.logger().Info("Payment verified", zap.String("appointmentID", appointmentID), zap.String("paymentID", req.PaymentID))
	s.events().Publish(models.Notification{
		Type:   models.EventPaymentReceived,
		UserID: doc.UserRef,
		Data: map[string]any{
			"appointmentId": appt.ID,
			"patientName":   appt.PatientName,
			"amount":        appt.Amount,
			"paymentId":     appt.PaymentID,
			"message":       fmt.Sprintf("%s paid %.2f %s", appt.PatientName, appt.Amount, s.Currency),
		},
	})
	return nil
}

func (s *DefaultPaymentService) Status(ctx context.Context, patientID, appointmentID string) (*models.PaymentStatusView, error) {
	_, appt, err := s.Appointments.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := ownedByPatient(appt, patientID); err != nil {
		return nil, err
	}
	return &models.PaymentStatusView{
		AppointmentID: appt.ID,
		PaymentStatus: appt.PaymentStatus,
		PaymentID:     appt.PaymentID,
		OrderID:       appt.OrderID,
		Amount:        appt.Amount,
	}, nil
}

// Refund returns a Paid fee through the gateway, then marks the appointment Refunded.
// Only the owning doctor may refund.
func (s *DefaultPaymentService) Refund(ctx context.Context, callerID, appointmentID string) (*models.Appointment, error) {
	if err := s.configured(); err != nil {
		return nil, err
	}
	doc, appt, err := s.Appointments.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if doc.UserRef != callerID {
		return nil, utils.NewForbiddenError("only the doctor can refund this appointment")
	}
	if !appointment.CanTransitionPayment(appt.PaymentStatus, models.PaymentRefunded) {
		return nil, utils.NewInvalidTransitionError("payment "+string(appt.PaymentStatus), string(models.PaymentRefunded))
	}

	if err := s.Gateway.Refund(ctx, appt.OrderID); err != nil {
		s.logger().Error("Gateway refund failed", zap.String("appointmentID", appointmentID), zap.Error(err))
		return nil, utils.NewDependencyUnavailableError("payment gateway", err)
	}

	_, updated, err := s.Appointments.Mutate(ctx, appointmentID, func(_ *models.Doctor, appt *models.Appointment) error {
		return appointment.ApplyPayment(appt, models.PaymentRefunded, "", s.now())
	})
	if err != nil {
		s.logger().Error("Refund issued but not recorded", zap.String("appointmentID", appointmentID), zap.Error(err))
		return nil, err
	}
	s.count("refunded")
	return updated, nil
}

func (s *DefaultPaymentService) events() notification.Publisher {
	if s.Events == nil {
		return notification.NopPublisher{}
	}
	return s.Events
}
