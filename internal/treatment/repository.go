package treatment

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/visualcare-health/treatment-service/internal/result"
)

// Repository is the SQL-backed treatment repository. Nested blocks and
// activities are not loaded here; composite reads go through the
// get_patients_list procedure on the patient side.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Add(ctx context.Context, t Treatment) result.Result[result.Unit] {
	query := `
		INSERT INTO treatments (patient_id, eye_condition, name, description)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := r.db.ExecContext(ctx, query, t.PatientID, t.EyeCondition, t.Name, t.Description); err != nil {
		return result.StoreErr[result.Unit](fmt.Errorf("failed to insert treatment: %w", err))
	}
	return result.Ok(result.Unit{})
}

func (r *Repository) ListByPatient(ctx context.Context, patientID string) result.Result[[]Treatment] {
	query := `
		SELECT id, patient_id, eye_condition, name, description, created_at
		FROM treatments
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, patientID)
	if err != nil {
		return result.StoreErr[[]Treatment](fmt.Errorf("failed to query treatments: %w", err))
	}
	defer rows.Close()

	treatments := []Treatment{}
	for rows.Next() {
		t, err := scanTreatment(rows)
		if err != nil {
			return result.StoreErr[[]Treatment](fmt.Errorf("failed to scan treatment: %w", err))
		}
		treatments = append(treatments, t)
	}
	if err := rows.Err(); err != nil {
		return result.StoreErr[[]Treatment](fmt.Errorf("error iterating treatments: %w", err))
	}

	return result.Ok(treatments)
}

func (r *Repository) GetByID(ctx context.Context, id string) result.Result[Treatment] {
	query := `
		SELECT id, patient_id, eye_condition, name, description, created_at
		FROM treatments
		WHERE id = $1
	`

	row := r.db.QueryRowContext(ctx, query, id)
	t, err := scanTreatment(row)
	if err == sql.ErrNoRows {
		return result.Errf[Treatment](result.CodeTreatmentNotFound, "treatment not found")
	}
	if err != nil {
		return result.StoreErr[Treatment](fmt.Errorf("failed to query treatment: %w", err))
	}

	return result.Ok(t)
}

func (r *Repository) Update(ctx context.Context, t Treatment) result.Result[result.Unit] {
	query := `
		UPDATE treatments
		SET patient_id = $1, eye_condition = $2, name = $3, description = $4
		WHERE id = $5
	`

	res, err := r.db.ExecContext(ctx, query, t.PatientID, t.EyeCondition, t.Name, t.Description, t.ID)
	if err != nil {
		return result.StoreErr[result.Unit](fmt.Errorf("failed to update treatment: %w", err))
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return result.Errf[result.Unit](result.CodeTreatmentNotFound, "treatment not found")
	}

	return result.Ok(result.Unit{})
}

func (r *Repository) Delete(ctx context.Context, id string) result.Result[result.Unit] {
	res, err := r.db.ExecContext(ctx, `DELETE FROM treatments WHERE id = $1`, id)
	if err != nil {
		return result.StoreErr[result.Unit](fmt.Errorf("failed to delete treatment: %w", err))
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return result.Errf[result.Unit](result.CodeTreatmentNotFound, "treatment not found")
	}

	return result.Ok(result.Unit{})
}

func (r *Repository) CreateTreatment(ctx context.Context, req CreateTreatmentRequest) result.Result[Treatment] {
	query := `
		INSERT INTO treatments (patient_id, eye_condition, name, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, patient_id, eye_condition, name, description, created_at
	`

	row := r.db.QueryRowContext(ctx, query, req.PatientID, req.EyeCondition, req.Name, req.Description)
	t, err := scanTreatment(row)
	if err != nil {
		return result.StoreErr[Treatment](fmt.Errorf("failed to insert treatment: %w", err))
	}

	return result.Ok(t)
}

func (r *Repository) UpdateTreatment(ctx context.Context, req UpdateTreatmentRequest) result.Result[Treatment] {
	existing := r.GetByID(ctx, req.ID)
	if !existing.Ok() {
		return existing
	}

	merged := mergeTreatment(existing.Value(), req)
	if upd := r.Update(ctx, merged); !upd.Ok() {
		return result.ErrFrom[Treatment](upd)
	}

	return result.Ok(merged)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTreatment(row rowScanner) (Treatment, error) {
	var t Treatment
	var description sql.NullString
	var createdAt sql.NullTime

	err := row.Scan(&t.ID, &t.PatientID, &t.EyeCondition, &t.Name, &description, &createdAt)
	if err != nil {
		return Treatment{}, err
	}

	if description.Valid {
		t.Description = description.String
	}
	if createdAt.Valid {
		t.CreatedAt = &createdAt.Time
	}
	t.TreatmentBlocks = []TreatmentBlock{}

	return t, nil
}
