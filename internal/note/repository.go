package note

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/visualcare-health/treatment-service/internal/result"
)

const noteColumns = `id, user_patient_id, title, description, created_at`

// Repository is the SQL-backed note store.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Add(ctx context.Context, req CreateNoteRequest) result.Result[Note] {
	query := `
		INSERT INTO notes (user_patient_id, title, description)
		VALUES ($1, $2, NULLIF($3, ''))
		RETURNING ` + noteColumns

	n, err := scanNote(r.db.QueryRowContext(ctx, query, req.UserPatientID, req.Title, req.Description))
	if err != nil {
		return result.StoreErr[Note](fmt.Errorf("failed to insert note: %w", err))
	}

	return result.Ok(n)
}

func (r *Repository) ListByAssociation(ctx context.Context, userPatientID string) result.Result[[]Note] {
	query := `
		SELECT ` + noteColumns + `
		FROM notes
		WHERE user_patient_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userPatientID)
	if err != nil {
		return result.StoreErr[[]Note](fmt.Errorf("failed to query notes: %w", err))
	}
	defer rows.Close()

	notes := []Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return result.StoreErr[[]Note](fmt.Errorf("failed to scan note: %w", err))
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return result.StoreErr[[]Note](fmt.Errorf("error iterating notes: %w", err))
	}

	return result.Ok(notes)
}

func (r *Repository) GetByID(ctx context.Context, id string) result.Result[Note] {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = $1`

	n, err := scanNote(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return result.Errf[Note](result.CodeNoteNotFound, "note not found")
	}
	if err != nil {
		return result.StoreErr[Note](fmt.Errorf("failed to query note: %w", err))
	}

	return result.Ok(n)
}

func (r *Repository) Update(ctx context.Context, req UpdateNoteRequest) result.Result[Note] {
	var updates []string
	var args []interface{}
	argIndex := 1

	if req.Title != nil {
		updates = append(updates, fmt.Sprintf("title = $%d", argIndex))
		args = append(args, *req.Title)
		argIndex++
	}
	if req.Description != nil {
		updates = append(updates, fmt.Sprintf("description = NULLIF($%d, '')", argIndex))
		args = append(args, *req.Description)
		argIndex++
	}

	// An empty patch is a no-op that still returns the unchanged note.
	if len(updates) == 0 {
		return r.GetByID(ctx, req.ID)
	}

	args = append(args, req.ID)
	query := fmt.Sprintf(`
		UPDATE notes
		SET %s
		WHERE id = $%d
		RETURNING `+noteColumns, strings.Join(updates, ", "), argIndex)

	n, err := scanNote(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return result.Errf[Note](result.CodeNoteNotFound, "note not found")
	}
	if err != nil {
		return result.StoreErr[Note](fmt.Errorf("failed to update note: %w", err))
	}

	return result.Ok(n)
}

func (r *Repository) Delete(ctx context.Context, id string) result.Result[result.Unit] {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return result.StoreErr[result.Unit](fmt.Errorf("failed to delete note: %w", err))
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return result.Errf[result.Unit](result.CodeNoteNotFound, "note not found")
	}

	return result.Ok(result.Unit{})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (Note, error) {
	var n Note
	var description sql.NullString
	var createdAt sql.NullTime

	if err := row.Scan(&n.ID, &n.UserPatientID, &n.Title, &description, &createdAt); err != nil {
		return Note{}, err
	}

	if description.Valid {
		n.Description = description.String
	}
	if createdAt.Valid {
		n.CreatedAt = &createdAt.Time
	}

	return n, nil
}
