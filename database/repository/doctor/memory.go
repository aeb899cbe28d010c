package doctorRepo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"medislot/models"
)

// MemoryDoctorRepo keeps doctors in process memory. Reads return copies, so callers
// see the same isolation they get from a database round trip.
type MemoryDoctorRepo struct {
	mu      sync.Mutex
	doctors map[string]*models.Doctor
	now     func() time.Time
}

var _ DoctorRepository = (*MemoryDoctorRepo)(nil)

func NewMemoryDoctorRepo() *MemoryDoctorRepo {
	return &MemoryDoctorRepo{doctors: make(map[string]*models.Doctor), now: time.Now}
}

func cloneDoctor(d *models.Doctor) *models.Doctor {
	out := *d
	out.Availability = make([]models.DayAvailability, len(d.Availability))
	for i, day := range d.Availability {
		out.Availability[i] = models.DayAvailability{
			Day:   day.Day,
			Slots: append([]models.SlotWindow(nil), day.Slots...),
		}
	}
	out.Appointments = append([]models.Appointment(nil), d.Appointments...)
	return &out
}

func (r *MemoryDoctorRepo) Create(_ context.Context, doc *models.Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.doctors {
		if existing.ID == doc.ID || (doc.UserRef != "" && existing.UserRef == doc.UserRef) {
			return ErrDuplicateDoctor
		}
	}
	r.doctors[doc.ID] = cloneDoctor(doc)
	return nil
}

func (r *MemoryDoctorRepo) GetByID(_ context.Context, id string) (*models.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	return cloneDoctor(d), nil
}

func (r *MemoryDoctorRepo) GetByUserRef(_ context.Context, userRef string) (*models.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.doctors {
		if d.UserRef == userRef {
			return cloneDoctor(d), nil
		}
	}
	return nil, ErrDoctorNotFound
}

func (r *MemoryDoctorRepo) GetByAppointmentID(_ context.Context, appointmentID string) (*models.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.doctors {
		if d.FindAppointment(appointmentID) != nil {
			return cloneDoctor(d), nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (r *MemoryDoctorRepo) List(_ context.Context, f models.DoctorFilter) ([]models.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Doctor
	for _, d := range r.doctors {
		if f.Name != "" && !strings.Contains(strings.ToLower(d.Name), strings.ToLower(f.Name)) {
			continue
		}
		if f.Specialty != "" && !strings.Contains(strings.ToLower(d.Specialty), strings.ToLower(f.Specialty)) {
			continue
		}
		if f.MaxFee > 0 && d.ConsultationFees > f.MaxFee {
			continue
		}
		if f.Day != "" && !hasDay(d, f.Day) {
			continue
		}
		c := cloneDoctor(d)
		c.Appointments = nil
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func hasDay(d *models.Doctor, day string) bool {
	for _, a := range d.Availability {
		if a.Day == day {
			return true
		}
	}
	return false
}

func (r *MemoryDoctorRepo) ListByPatient(_ context.Context, patientID string) ([]models.Doctor, error) {
	return r.collect(func(a models.Appointment) bool { return a.PatientRef == patientID }), nil
}

func (r *MemoryDoctorRepo) ListWithAppointmentsAfter(_ context.Context, t time.Time) ([]models.Doctor, error) {
	return r.collect(func(a models.Appointment) bool { return a.AppointmentTime.After(t) }), nil
}

// collect returns copies of every doctor holding at least one matching appointment.
func (r *MemoryDoctorRepo) collect(match func(models.Appointment) bool) []models.Doctor {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Doctor
	for _, d := range r.doctors {
		for _, a := range d.Appointments {
			if match(a) {
				out = append(out, *cloneDoctor(d))
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *MemoryDoctorRepo) ReplaceAvailability(_ context.Context, doctorID string, expectedVersion int, availability []models.DayAvailability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[doctorID]
	if !ok {
		return ErrDoctorNotFound
	}
	if d.Version != expectedVersion {
		return ErrVersionConflict
	}
	d.Availability = cloneDoctor(&models.Doctor{Availability: availability}).Availability
	r.touch(d)
	return nil
}

func (r *MemoryDoctorRepo) AppendAppointmentIfFree(_ context.Context, doctorID string, appt models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[doctorID]
	if !ok {
		return ErrDoctorNotFound
	}
	for _, a := range d.Appointments {
		if a.Status.Occupies() && a.AppointmentTime.Equal(appt.AppointmentTime) {
			return ErrSlotTaken
		}
	}
	d.Appointments = append(d.Appointments, appt)
	r.touch(d)
	return nil
}

func (r *MemoryDoctorRepo) ReplaceAppointment(_ context.Context, doctorID string, expectedVersion int, appt models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[doctorID]
	if !ok {
		return ErrDoctorNotFound
	}
	existing := d.FindAppointment(appt.ID)
	if existing == nil {
		return ErrAppointmentNotFound
	}
	if d.Version != expectedVersion {
		return ErrVersionConflict
	}
	*existing = appt
	r.touch(d)
	return nil
}

func (r *MemoryDoctorRepo) MarkReminded(_ context.Context, doctorID string, marks []models.ReminderMark) error {
	if len(marks) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[doctorID]
	if !ok {
		return ErrDoctorNotFound
	}
	for _, m := range marks {
		a := d.FindAppointment(m.AppointmentID)
		if a == nil {
			continue
		}
		if m.TwentyFourHours {
			a.NotifiedTwentyFourHours = true
		}
		if m.OneHour {
			a.NotifiedOneHour = true
		}
	}
	r.touch(d)
	return nil
}

func (r *MemoryDoctorRepo) touch(d *models.Doctor) {
	d.Version++
	d.UpdatedAt = r.now()
}
