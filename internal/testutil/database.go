package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	_ "github.com/lib/pq"
)

// SetupTestDB connects to the local test database. Tests that call it are
// skipped when TEST_DATABASE_URL is unset so the unit suite stays green on
// machines without PostgreSQL.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	connStr := os.Getenv("TEST_DATABASE_URL")
	if connStr == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	return db
}

// SetupTestTransaction begins a transaction that is rolled back when the test
// ends, so tests do not need per-table cleanup.
func SetupTestTransaction(t *testing.T) (*sql.DB, *sql.Tx) {
	t.Helper()

	db := SetupTestDB(t)

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		db.Close()
		t.Fatalf("Failed to begin transaction: %v", err)
	}

	t.Cleanup(func() {
		tx.Rollback()
		db.Close()
	})

	return db, tx
}

// CleanupTestDB truncates every table the service writes to. Use it from
// tests that cannot run inside a transaction, e.g. those exercising the
// stored procedures.
func CleanupTestDB(t *testing.T, db *sql.DB) {
	t.Helper()

	tables := []string{
		"notes",
		"shared_patient_action_patients",
		"shared_patient_action",
		"therapeutic_activities",
		"treatment_blocks",
		"treatments",
		"patients_users",
		"patients",
		"tutors",
	}
	for _, table := range tables {
		if _, err := db.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			t.Logf("Warning: Failed to clean up %s: %v", table, err)
		}
	}
}

// CreateTestTutor inserts a tutor row and returns its id.
func CreateTestTutor(t *testing.T, db *sql.DB, email string) string {
	t.Helper()

	var id string
	err := db.QueryRow(
		`INSERT INTO tutors (email, password_hash, created_at) VALUES ($1, 'x', NOW()) RETURNING id`,
		email,
	).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test tutor: %v", err)
	}
	return id
}

// CreateTestPatient inserts a patient owned by the given tutor and returns
// the patient id.
func CreateTestPatient(t *testing.T, db *sql.DB, tutorID, fullName string) string {
	t.Helper()

	var id string
	err := db.QueryRow(
		`INSERT INTO patients (full_name, created_by, created_at) VALUES ($1, $2, NOW()) RETURNING id`,
		fullName, tutorID,
	).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test patient: %v", err)
	}

	_, err = db.Exec(
		`INSERT INTO patients_users (patient_id, user_id, created_at) VALUES ($1, $2, NOW())`,
		id, tutorID,
	)
	if err != nil {
		t.Fatalf("Failed to associate test patient: %v", err)
	}
	return id
}
