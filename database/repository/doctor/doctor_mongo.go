package doctorRepo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"medislot/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDoctorRepo stores one document per doctor with appointments embedded.
type MongoDoctorRepo struct {
	coll *mongo.Collection
}

// NewMongoDoctorRepo constructs a repository over the "doctors" collection of db.
func NewMongoDoctorRepo(db *mongo.Database) *MongoDoctorRepo {
	return &MongoDoctorRepo{coll: db.Collection("doctors")}
}

func (r *MongoDoctorRepo) Create(ctx context.Context, doc *models.Doctor) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if doc.Availability == nil {
		doc.Availability = []models.DayAvailability{}
	}
	if doc.Appointments == nil {
		doc.Appointments = []models.Appointment{}
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateDoctor
		}
		return fmt.Errorf("error creating doctor: %w", err)
	}
	return nil
}

func (r *MongoDoctorRepo) findOne(ctx context.Context, filter bson.M) (*models.Doctor, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc models.Doctor
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("failed to fetch doctor: %w", err)
	}
	return &doc, nil
}

func (r *MongoDoctorRepo) GetByID(ctx context.Context, id string) (*models.Doctor, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

func (r *MongoDoctorRepo) GetByUserRef(ctx context.Context, userRef string) (*models.Doctor, error) {
	return r.findOne(ctx, bson.M{"userRef": userRef})
}

func (r *MongoDoctorRepo) GetByAppointmentID(ctx context.Context, appointmentID string) (*models.Doctor, error) {
	doc, err := r.findOne(ctx, bson.M{"appointments.id": appointmentID})
	if errors.Is(err, ErrDoctorNotFound) {
		return nil, ErrAppointmentNotFound
	}
	return doc, err
}

func (r *MongoDoctorRepo) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Doctor, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to query doctors: %w", err)
	}
	defer cursor.Close(ctx)

	var doctors []models.Doctor
	if err := cursor.All(ctx, &doctors); err != nil {
		return nil, fmt.Errorf("error decoding doctors: %w", err)
	}
	return doctors, nil
}

func (r *MongoDoctorRepo) List(ctx context.Context, f models.DoctorFilter) ([]models.Doctor, error) {
	filter := bson.M{}
	if f.Name != "" {
		filter["name"] = bson.M{"$regex": regexp.QuoteMeta(f.Name), "$options": "i"}
	}
	if f.Specialty != "" {
		filter["specialty"] = bson.M{"$regex": regexp.QuoteMeta(f.Specialty), "$options": "i"}
	}
	if f.MaxFee > 0 {
		filter["consultationFees"] = bson.M{"$lte": f.MaxFee}
	}
	if f.Day != "" {
		filter["availability.day"] = f.Day
	}
	// Listings never carry appointments.
	opts := options.Find().SetProjection(bson.M{"appointments": 0}).SetSort(bson.D{{Key: "name", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *MongoDoctorRepo) ListByPatient(ctx context.Context, patientID string) ([]models.Doctor, error) {
	return r.find(ctx, bson.M{"appointments.patientRef": patientID})
}

func (r *MongoDoctorRepo) ListWithAppointmentsAfter(ctx context.Context, t time.Time) ([]models.Doctor, error) {
	return r.find(ctx, bson.M{"appointments.appointmentTime": bson.M{"$gt": t}})
}

// notMatched explains a zero-match conditional update.
func (r *MongoDoctorRepo) notMatched(ctx context.Context, doctorID, appointmentID string, otherwise error) error {
	n, err := r.coll.CountDocuments(ctx, bson.M{"id": doctorID}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("failed to check doctor %s: %w", doctorID, err)
	}
	if n == 0 {
		return ErrDoctorNotFound
	}
	if appointmentID != "" {
		n, err = r.coll.CountDocuments(ctx, bson.M{"id": doctorID, "appointments.id": appointmentID}, options.Count().SetLimit(1))
		if err != nil {
			return fmt.Errorf("failed to check appointment %s: %w", appointmentID, err)
		}
		if n == 0 {
			return ErrAppointmentNotFound
		}
	}
	return otherwise
}

func (r *MongoDoctorRepo) ReplaceAvailability(ctx context.Context, doctorID string, expectedVersion int, availability []models.DayAvailability) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if availability == nil {
		availability = []models.DayAvailability{}
	}
	filter := bson.M{"id": doctorID, "version": expectedVersion}
	update := bson.M{
		"$set": bson.M{"availability": availability, "updatedAt": time.Now()},
		"$inc": bson.M{"version": 1},
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update availability: %w", err)
	}
	if res.MatchedCount == 0 {
		return r.notMatched(ctx, doctorID, "", ErrVersionConflict)
	}
	return nil
}

// appendIfFreeFilter is the conflict check: the document only matches while no
// occupying appointment sits at the instant, and the push happens in the same write.
func appendIfFreeFilter(doctorID string, at time.Time) bson.M {
	return bson.M{
		"id": doctorID,
		"appointments": bson.M{"$not": bson.M{"$elemMatch": bson.M{
			"appointmentTime": at,
			"status":          bson.M{"$nin": bson.A{models.StatusCancelled, models.StatusRejected}},
		}}},
	}
}

func (r *MongoDoctorRepo) AppendAppointmentIfFree(ctx context.Context, doctorID string, appt models.Appointment) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := appendIfFreeFilter(doctorID, appt.AppointmentTime)
	update := bson.M{
		"$push": bson.M{"appointments": appt},
		"$set":  bson.M{"updatedAt": time.Now()},
		"$inc":  bson.M{"version": 1},
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to append appointment: %w", err)
	}
	if res.MatchedCount == 0 {
		return r.notMatched(ctx, doctorID, "", ErrSlotTaken)
	}
	return nil
}

func (r *MongoDoctorRepo) ReplaceAppointment(ctx context.Context, doctorID string, expectedVersion int, appt models.Appointment) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": doctorID, "version": expectedVersion, "appointments.id": appt.ID}
	update := bson.M{
		"$set": bson.M{"appointments.$[a]": appt, "updatedAt": time.Now()},
		"$inc": bson.M{"version": 1},
	}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"a.id": appt.ID}},
	})
	res, err := r.coll.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to update appointment %s: %w", appt.ID, err)
	}
	if res.MatchedCount == 0 {
		return r.notMatched(ctx, doctorID, appt.ID, ErrVersionConflict)
	}
	return nil
}

func (r *MongoDoctorRepo) MarkReminded(ctx context.Context, doctorID string, marks []models.ReminderMark) error {
	if len(marks) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set := bson.M{"updatedAt": time.Now()}
	filters := make([]interface{}, 0, len(marks))
	for i, m := range marks {
		ident := fmt.Sprintf("a%d", i)
		if m.TwentyFourHours {
			set["appointments.$["+ident+"].notifiedTwentyFourHours"] = true
		}
		if m.OneHour {
			set["appointments.$["+ident+"].notifiedOneHour"] = true
		}
		filters = append(filters, bson.M{ident + ".id": m.AppointmentID})
	}

	update := bson.M{"$set": set, "$inc": bson.M{"version": 1}}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{Filters: filters})
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": doctorID}, update, opts)
	if err != nil {
		return fmt.Errorf("failed to mark reminders for doctor %s: %w", doctorID, err)
	}
	if res.MatchedCount == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

var _ DoctorRepository = (*MongoDoctorRepo)(nil)
