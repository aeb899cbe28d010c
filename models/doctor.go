package models

import "time"

// Doctor is the scheduling aggregate: availability and appointments are owned by it
// and every write to either goes through the doctor document.
type Doctor struct {
	ID               string            `bson:"id" json:"id"`
	UserRef          string            `bson:"userRef" json:"userRef"` // account that manages this listing
	Name             string            `bson:"name" json:"name"`
	Specialty        string            `bson:"specialty" json:"specialty"`
	Description      string            `bson:"description" json:"description"`
	ConsultationFees float64           `bson:"consultationFees" json:"consultationFees"`
	Availability     []DayAvailability `bson:"availability" json:"availability"`
	Appointments     []Appointment     `bson:"appointments" json:"-"`
	Version          int               `bson:"version" json:"version"`
	CreatedAt        time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time         `bson:"updatedAt" json:"updatedAt"`
}

// FindAppointment returns a pointer into d.Appointments, or nil.
func (d *Doctor) FindAppointment(id string) *Appointment {
	for i := range d.Appointments {
		if d.Appointments[i].ID == id {
			return &d.Appointments[i]
		}
	}
	return nil
}

// DoctorListingInput is the payload for creating a doctor listing.
type DoctorListingInput struct {
	Name             string  `json:"name" binding:"required"`
	Specialty        string  `json:"specialty" binding:"required"`
	Description      string  `json:"description" binding:"required"`
	ConsultationFees float64 `json:"consultationFees"`
}

// DoctorFilter narrows doctor listings. Zero values are ignored.
type DoctorFilter struct {
	Name      string
	Specialty string
	MaxFee    float64
	Day       string
}
