package doctor

import (
	"context"
	"testing"

	doctorRepo "medislot/database/repository/doctor"
	"medislot/models"
	"medislot/utils"
)

func TestCreateListing(t *testing.T) {
	svc := &DefaultDoctorService{Repo: doctorRepo.NewMemoryDoctorRepo()}
	ctx := context.Background()

	doc, err := svc.CreateListing(ctx, "user-1", models.DoctorListingInput{Name: " Asha Rao ", Specialty: "Cardiology", Description: "Heart", ConsultationFees: 500})
	if err != nil {
		t.Fatal(err)
	}
	if doc.Name != "Asha Rao" || doc.UserRef != "user-1" || doc.ID == "" {
		t.Fatalf("unexpected doctor: %+v", doc)
	}

	if _, err := svc.CreateListing(ctx, "user-1", models.DoctorListingInput{Name: "Again", Specialty: "X"}); !utils.IsKind(err, utils.KindValidation) {
		t.Fatalf("second listing for the same account should fail, got %v", err)
	}
	if _, err := svc.CreateListing(ctx, "user-2", models.DoctorListingInput{Name: "Vikram", Specialty: "Derm", ConsultationFees: -1}); !utils.IsKind(err, utils.KindValidation) {
		t.Fatalf("negative fee should fail, got %v", err)
	}
	if _, err := svc.GetDoctor(ctx, "missing"); !utils.IsKind(err, utils.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListDoctors_NormalizesDay(t *testing.T) {
	repo := doctorRepo.NewMemoryDoctorRepo()
	_ = repo.Create(context.Background(), &models.Doctor{ID: "d1", UserRef: "u1", Name: "Asha", Availability: []models.DayAvailability{{Day: "Monday"}}})
	svc := &DefaultDoctorService{Repo: repo}

	got, err := svc.ListDoctors(context.Background(), models.DoctorFilter{Day: "mon"})
	if err != nil || len(got) != 1 {
		t.Fatalf("got %v, %v", got, err)
	}
	if _, err := svc.ListDoctors(context.Background(), models.DoctorFilter{Day: "someday"}); !utils.IsKind(err, utils.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	empty, _ := svc.ListDoctors(context.Background(), models.DoctorFilter{Name: "nobody"})
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected an empty non-nil list")
	}
}
