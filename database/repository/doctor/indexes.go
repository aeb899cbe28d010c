package doctorRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the doctors collection.
func (r *MongoDoctorRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// One listing per managing account
		{
			Keys:    bson.D{{Key: "userRef", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_user_ref"),
		},
		{
			Keys:    bson.D{{Key: "appointments.id", Value: 1}},
			Options: options.Index().SetName("appointment_id_idx"),
		},
		{
			Keys:    bson.D{{Key: "appointments.patientRef", Value: 1}},
			Options: options.Index().SetName("appointment_patient_idx"),
		},
		// Reminder sweep scans by upcoming appointment time
		{
			Keys:    bson.D{{Key: "appointments.appointmentTime", Value: 1}},
			Options: options.Index().SetName("appointment_time_idx"),
		},
		{
			Keys:    bson.D{{Key: "specialty", Value: 1}, {Key: "consultationFees", Value: 1}},
			Options: options.Index().SetName("specialty_fee_idx"),
		},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create doctor indexes: %w", err)
	}
	return nil
}
