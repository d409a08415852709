package treatment

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/visualcare-health/treatment-service/internal/result"
)

// BlockRepository is the SQL-backed treatment-block repository.
type BlockRepository struct {
	db *sql.DB
}

func NewBlockRepository(db *sql.DB) *BlockRepository {
	return &BlockRepository{db: db}
}

func (r *BlockRepository) Add(ctx context.Context, b TreatmentBlock) result.Result[result.Unit] {
	query := `
		INSERT INTO treatment_blocks (treatment_id, beginning_date, duration_days, iterations)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := r.db.ExecContext(ctx, query, b.TreatmentID, b.BeginningDate, b.DurationDays, b.Iterations); err != nil {
		return result.StoreErr[result.Unit](fmt.Errorf("failed to insert treatment block: %w", err))
	}
	return result.Ok(result.Unit{})
}

func (r *BlockRepository) ListByTreatment(ctx context.Context, treatmentID string) result.Result[[]TreatmentBlock] {
	query := `
		SELECT id, treatment_id, to_char(beginning_date, 'YYYY-MM-DD'), duration_days, iterations, created_at
		FROM treatment_blocks
		WHERE treatment_id = $1
		ORDER BY beginning_date ASC
	`

	rows, err := r.db.QueryContext(ctx, query, treatmentID)
	if err != nil {
		return result.StoreErr[[]TreatmentBlock](fmt.Errorf("failed to query treatment blocks: %w", err))
	}
	defer rows.Close()

	blocks := []TreatmentBlock{}
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return result.StoreErr[[]TreatmentBlock](fmt.Errorf("failed to scan treatment block: %w", err))
		}
		blocks = append(blocks, b)
	}
	if err := rows.Err(); err != nil {
		return result.StoreErr[[]TreatmentBlock](fmt.Errorf("error iterating treatment blocks: %w", err))
	}

	return result.Ok(blocks)
}

func (r *BlockRepository) GetByID(ctx context.Context, id string) result.Result[TreatmentBlock] {
	query := `
		SELECT id, treatment_id, to_char(beginning_date, 'YYYY-MM-DD'), duration_days, iterations, created_at
		FROM treatment_blocks
		WHERE id = $1
	`

	b, err := scanBlock(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return result.Errf[TreatmentBlock](result.CodeBlockNotFound, "treatment block not found")
	}
	if err != nil {
		return result.StoreErr[TreatmentBlock](fmt.Errorf("failed to query treatment block: %w", err))
	}

	return result.Ok(b)
}

func (r *BlockRepository) Update(ctx context.Context, b TreatmentBlock) result.Result[result.Unit] {
	query := `
		UPDATE treatment_blocks
		SET treatment_id = $1, beginning_date = $2, duration_days = $3, iterations = $4
		WHERE id = $5
	`

	res, err := r.db.ExecContext(ctx, query, b.TreatmentID, b.BeginningDate, b.DurationDays, b.Iterations, b.ID)
	if err != nil {
		return result.StoreErr[result.Unit](fmt.Errorf("failed to update treatment block: %w", err))
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return result.Errf[result.Unit](result.CodeBlockNotFound, "treatment block not found")
	}

	return result.Ok(result.Unit{})
}

func (r *BlockRepository) Delete(ctx context.Context, id string) result.Result[result.Unit] {
	res, err := r.db.ExecContext(ctx, `DELETE FROM treatment_blocks WHERE id = $1`, id)
	if err != nil {
		return result.StoreErr[result.Unit](fmt.Errorf("failed to delete treatment block: %w", err))
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return result.Errf[result.Unit](result.CodeBlockNotFound, "treatment block not found")
	}

	return result.Ok(result.Unit{})
}

func (r *BlockRepository) CreateTreatmentBlock(ctx context.Context, req CreateTreatmentBlockRequest) result.Result[TreatmentBlock] {
	query := `
		INSERT INTO treatment_blocks (treatment_id, beginning_date, duration_days, iterations)
		VALUES ($1, $2, $3, $4)
		RETURNING id, treatment_id, to_char(beginning_date, 'YYYY-MM-DD'), duration_days, iterations, created_at
	`

	b, err := scanBlock(r.db.QueryRowContext(ctx, query, req.TreatmentID, req.BeginningDate, req.DurationDays, req.Iterations))
	if err != nil {
		return result.StoreErr[TreatmentBlock](fmt.Errorf("failed to insert treatment block: %w", err))
	}

	return result.Ok(b)
}

func (r *BlockRepository) UpdateTreatmentBlock(ctx context.Context, req UpdateTreatmentBlockRequest) result.Result[TreatmentBlock] {
	existing := r.GetByID(ctx, req.ID)
	if !existing.Ok() {
		return existing
	}

	merged := mergeBlock(existing.Value(), req)
	if upd := r.Update(ctx, merged); !upd.Ok() {
		return result.ErrFrom[TreatmentBlock](upd)
	}

	return result.Ok(merged)
}

func scanBlock(row rowScanner) (TreatmentBlock, error) {
	var b TreatmentBlock
	var createdAt sql.NullTime

	err := row.Scan(&b.ID, &b.TreatmentID, &b.BeginningDate, &b.DurationDays, &b.Iterations, &createdAt)
	if err != nil {
		return TreatmentBlock{}, err
	}

	if createdAt.Valid {
		b.CreatedAt = &createdAt.Time
	}
	b.TherapeuticActivities = []TherapeuticActivity{}

	return b, nil
}
