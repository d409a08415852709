//go:build integration

package patient

import (
	"context"
	"testing"

	"github.com/visualcare-health/treatment-service/internal/result"
	"github.com/visualcare-health/treatment-service/internal/testutil"
)

// TestRepositoryCreatePatient_Integration tests creating a patient with a real database
func TestRepositoryCreatePatient_Integration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	defer testutil.CleanupTestDB(t, db)

	tutorID := testutil.CreateTestTutor(t, db, "tutor@example.com")
	repo := NewRepository(db)

	res := repo.CreatePatient(context.Background(), CreatePatientRequest{
		FullName:    "Ada Martens",
		DateOfBirth: "2015-06-01",
	}, tutorID)

	if !res.Ok() {
		t.Fatalf("CreatePatient failed: %+v", res.Errors())
	}
	if res.Value().ID == "" {
		t.Error("Expected patient ID to be set")
	}

	listed := repo.GetPatientsByUser(context.Background(), tutorID)
	if !listed.Ok() {
		t.Fatalf("GetPatientsByUser failed: %+v", listed.Errors())
	}
	if len(listed.Value()) != 1 || listed.Value()[0].ID != res.Value().ID {
		t.Errorf("Expected the created patient in the tutor's list, got %+v", listed.Value())
	}
}

// TestRepositoryCreatePatient_CompensationRemovesPatient_Integration tests
// that a failed association insert leaves no patient row behind
func TestRepositoryCreatePatient_CompensationRemovesPatient_Integration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	defer testutil.CleanupTestDB(t, db)

	repo := NewRepository(db)

	// No such tutor; the patients_users foreign key rejects the association
	// after the patient row has already been inserted.
	res := repo.CreatePatient(context.Background(), CreatePatientRequest{
		FullName: "Compensated Patient",
	}, "999999999")

	if res.Ok() {
		t.Fatal("Expected CreatePatient to fail for a nonexistent tutor")
	}
	if !res.HasCode(result.CodeStoreError) {
		t.Errorf("Expected %s, got %+v", result.CodeStoreError, res.Errors())
	}

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM patients WHERE full_name = $1`, "Compensated Patient").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to count patients: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected the patient row to be compensated away, found %d", count)
	}

	listed := repo.GetPatientsByUser(context.Background(), "999999999")
	if !listed.Ok() {
		t.Fatalf("GetPatientsByUser failed: %+v", listed.Errors())
	}
	if len(listed.Value()) != 0 {
		t.Errorf("Expected no patients for the unknown tutor, got %+v", listed.Value())
	}
}
