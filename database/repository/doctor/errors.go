package doctorRepo

import (
	"errors"

	"medislot/utils"
)

// ToAppError maps repository sentinels onto typed service errors. Anything else is
// returned unchanged and surfaces as an internal error.
func ToAppError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrDoctorNotFound):
		return utils.NewNotFoundError("doctor not found")
	case errors.Is(err, ErrAppointmentNotFound):
		return utils.NewNotFoundError("appointment not found")
	case errors.Is(err, ErrDuplicateDoctor):
		return utils.NewValidationError("userRef", ErrDuplicateDoctor.Error())
	default:
		return err
	}
}
