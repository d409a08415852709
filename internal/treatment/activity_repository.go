package treatment

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/visualcare-health/treatment-service/internal/result"
)

// ActivityRepository is the SQL-backed therapeutic-activity repository. Hour
// columns are TIME in storage and travel as HH:mm strings.
type ActivityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

const activityColumns = `id, treatment_block_id, name, description, day_of_block,
		to_char(beginning_hour, 'HH24:MI'), to_char(end_hour, 'HH24:MI'), created_at`

func (r *ActivityRepository) Add(ctx context.Context, a TherapeuticActivity) result.Result[result.Unit] {
	query := `
		INSERT INTO therapeutic_activities (treatment_block_id, name, description, day_of_block, beginning_hour, end_hour)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query, a.TreatmentBlockID, a.Name, a.Description, a.DayOfBlock, a.BeginningHour, a.EndHour)
	if err != nil {
		return result.StoreErr[result.Unit](fmt.Errorf("failed to insert activity: %w", err))
	}
	return result.Ok(result.Unit{})
}

func (r *ActivityRepository) ListByTreatmentBlock(ctx context.Context, blockID string) result.Result[[]TherapeuticActivity] {
	query := fmt.Sprintf(`
		SELECT %s
		FROM therapeutic_activities
		WHERE treatment_block_id = $1
		ORDER BY day_of_block ASC, beginning_hour ASC
	`, activityColumns)

	rows, err := r.db.QueryContext(ctx, query, blockID)
	if err != nil {
		return result.StoreErr[[]TherapeuticActivity](fmt.Errorf("failed to query activities: %w", err))
	}
	defer rows.Close()

	activities := []TherapeuticActivity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return result.StoreErr[[]TherapeuticActivity](fmt.Errorf("failed to scan activity: %w", err))
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return result.StoreErr[[]TherapeuticActivity](fmt.Errorf("error iterating activities: %w", err))
	}

	return result.Ok(activities)
}

func (r *ActivityRepository) GetByID(ctx context.Context, id string) result.Result[TherapeuticActivity] {
	query := fmt.Sprintf(`
		SELECT %s
		FROM therapeutic_activities
		WHERE id = $1
	`, activityColumns)

	a, err := scanActivity(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return result.Errf[TherapeuticActivity](result.CodeActivityNotFound, "therapeutic activity not found")
	}
	if err != nil {
		return result.StoreErr[TherapeuticActivity](fmt.Errorf("failed to query activity: %w", err))
	}

	return result.Ok(a)
}

func (r *ActivityRepository) Update(ctx context.Context, a TherapeuticActivity) result.Result[result.Unit] {
	query := `
		UPDATE therapeutic_activities
		SET treatment_block_id = $1, name = $2, description = $3, day_of_block = $4, beginning_hour = $5, end_hour = $6
		WHERE id = $7
	`

	res, err := r.db.ExecContext(ctx, query, a.TreatmentBlockID, a.Name, a.Description, a.DayOfBlock, a.BeginningHour, a.EndHour, a.ID)
	if err != nil {
		return result.StoreErr[result.Unit](fmt.Errorf("failed to update activity: %w", err))
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return result.Errf[result.Unit](result.CodeActivityNotFound, "therapeutic activity not found")
	}

	return result.Ok(result.Unit{})
}

func (r *ActivityRepository) Delete(ctx context.Context, id string) result.Result[result.Unit] {
	res, err := r.db.ExecContext(ctx, `DELETE FROM therapeutic_activities WHERE id = $1`, id)
	if err != nil {
		return result.StoreErr[result.Unit](fmt.Errorf("failed to delete activity: %w", err))
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return result.Errf[result.Unit](result.CodeActivityNotFound, "therapeutic activity not found")
	}

	return result.Ok(result.Unit{})
}

func (r *ActivityRepository) CreateActivity(ctx context.Context, req CreateActivityRequest) result.Result[TherapeuticActivity] {
	query := fmt.Sprintf(`
		INSERT INTO therapeutic_activities (treatment_block_id, name, description, day_of_block, beginning_hour, end_hour)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s
	`, activityColumns)

	a, err := scanActivity(r.db.QueryRowContext(ctx, query,
		req.TreatmentBlockID, req.Name, req.Description, req.DayOfBlock, req.BeginningHour, req.EndHour))
	if err != nil {
		return result.StoreErr[TherapeuticActivity](fmt.Errorf("failed to insert activity: %w", err))
	}

	return result.Ok(a)
}

func (r *ActivityRepository) UpdateActivity(ctx context.Context, req UpdateActivityRequest) result.Result[TherapeuticActivity] {
	existing := r.GetByID(ctx, req.ID)
	if !existing.Ok() {
		return existing
	}

	merged := mergeActivity(existing.Value(), req)
	if upd := r.Update(ctx, merged); !upd.Ok() {
		return result.ErrFrom[TherapeuticActivity](upd)
	}

	return result.Ok(merged)
}

func scanActivity(row rowScanner) (TherapeuticActivity, error) {
	var a TherapeuticActivity
	var description sql.NullString
	var createdAt sql.NullTime

	err := row.Scan(&a.ID, &a.TreatmentBlockID, &a.Name, &description, &a.DayOfBlock, &a.BeginningHour, &a.EndHour, &createdAt)
	if err != nil {
		return TherapeuticActivity{}, err
	}

	if description.Valid {
		a.Description = description.String
	}
	if createdAt.Valid {
		a.CreatedAt = &createdAt.Time
	}

	return a, nil
}
