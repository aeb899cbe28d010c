package appointment

import (
	"time"

	"medislot/models"
	"medislot/utils"
)

var statusTransitions = map[models.AppointmentStatus][]models.AppointmentStatus{
	models.StatusPending:   {models.StatusConfirmed, models.StatusRejected},
	models.StatusConfirmed: {models.StatusCancelled, models.StatusCompleted, models.StatusNoShow},
}

// Failed payments may be retried, so Failed is not terminal.
var paymentTransitions = map[models.PaymentStatus][]models.PaymentStatus{
	models.PaymentPending: {models.PaymentPaid, models.PaymentFailed},
	models.PaymentFailed:  {models.PaymentPending, models.PaymentPaid, models.PaymentFailed},
	models.PaymentPaid:    {models.PaymentRefunded},
}

var knownStatuses = map[models.AppointmentStatus]bool{
	models.StatusPending:   true,
	models.StatusConfirmed: true,
	models.StatusCancelled: true,
	models.StatusCompleted: true,
	models.StatusRejected:  true,
	models.StatusNoShow:    true,
}

func CanTransition(from, to models.AppointmentStatus) bool {
	for _, s := range statusTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s models.AppointmentStatus) bool {
	return len(statusTransitions[s]) == 0
}

func CanTransitionPayment(from, to models.PaymentStatus) bool {
	for _, s := range paymentTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ApplyStatus moves appt to status. Confirming copies fee onto the appointment so
// later fee changes leave it alone. Rejecting or cancelling always records a reason,
// possibly empty.
func ApplyStatus(appt *models.Appointment, to models.AppointmentStatus, reason *string, fee float64, now time.Time) error {
	if !knownStatuses[to] {
		return utils.NewValidationError("status", "unknown status "+string(to))
	}
	if !CanTransition(appt.Status, to) {
		return utils.NewInvalidTransitionError(string(appt.Status), string(to))
	}

	appt.Status = to
	switch to {
	case models.StatusConfirmed:
		appt.Amount = fee
	case models.StatusRejected, models.StatusCancelled:
		appt.RejectionReason = ""
		if reason != nil {
			appt.RejectionReason = *reason
		}
	}
	appt.UpdatedAt = now
	return nil
}

// ApplyPayment moves appt's payment status. Paid requires the gateway payment id.
func ApplyPayment(appt *models.Appointment, to models.PaymentStatus, paymentID string, now time.Time) error {
	if !CanTransitionPayment(appt.PaymentStatus, to) {
		return utils.NewInvalidTransitionError("payment "+string(appt.PaymentStatus), string(to))
	}
	if to == models.PaymentPaid {
		if paymentID == "" {
			return utils.NewValidationError("paymentId", "paymentId is required")
		}
		appt.PaymentID = paymentID
	}
	appt.PaymentStatus = to
	appt.UpdatedAt = now
	return nil
}
