package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Tutor is an account that owns patients. The password hash never leaves
// this package.
type Tutor struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
}

var ErrTutorNotFound = errors.New("tutor not found")

// TutorStore is the tutor account data-access contract.
type TutorStore interface {
	CreateTutor(ctx context.Context, email, passwordHash string) (Tutor, error)
	GetTutorByEmail(ctx context.Context, email string) (Tutor, error)
	GetTutorByID(ctx context.Context, id string) (Tutor, error)
}

// TutorRepository is the SQL-backed tutor store.
type TutorRepository struct {
	db *sql.DB
}

func NewTutorRepository(db *sql.DB) *TutorRepository {
	return &TutorRepository{db: db}
}

var _ TutorStore = (*TutorRepository)(nil)

func (r *TutorRepository) CreateTutor(ctx context.Context, email, passwordHash string) (Tutor, error) {
	query := `
		INSERT INTO tutors (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, email, password_hash, created_at
	`

	t, err := scanTutor(r.db.QueryRowContext(ctx, query, email, passwordHash))
	if err != nil {
		return Tutor{}, fmt.Errorf("failed to insert tutor: %w", err)
	}
	return t, nil
}

func (r *TutorRepository) GetTutorByEmail(ctx context.Context, email string) (Tutor, error) {
	query := `SELECT id, email, password_hash, created_at FROM tutors WHERE email = $1`

	t, err := scanTutor(r.db.QueryRowContext(ctx, query, email))
	if err == sql.ErrNoRows {
		return Tutor{}, ErrTutorNotFound
	}
	if err != nil {
		return Tutor{}, fmt.Errorf("failed to query tutor: %w", err)
	}
	return t, nil
}

func (r *TutorRepository) GetTutorByID(ctx context.Context, id string) (Tutor, error) {
	query := `SELECT id, email, password_hash, created_at FROM tutors WHERE id = $1`

	t, err := scanTutor(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return Tutor{}, ErrTutorNotFound
	}
	if err != nil {
		return Tutor{}, fmt.Errorf("failed to query tutor: %w", err)
	}
	return t, nil
}

func scanTutor(row *sql.Row) (Tutor, error) {
	var t Tutor
	var createdAt sql.NullTime

	if err := row.Scan(&t.ID, &t.Email, &t.PasswordHash, &createdAt); err != nil {
		return Tutor{}, err
	}
	if createdAt.Valid {
		t.CreatedAt = &createdAt.Time
	}
	return t, nil
}
