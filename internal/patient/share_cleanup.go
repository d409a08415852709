package patient

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultShareRetention is how long an unaccepted share code stays
// redeemable.
const DefaultShareRetention = 30 * 24 * time.Hour

// ShareCleanupService permanently deletes share codes older than the
// retention window, together with their patient links. Accepting a share
// does not delete the code, so redeemed codes age out the same way.
type ShareCleanupService struct {
	db        *sql.DB
	retention time.Duration
}

func NewShareCleanupService(db *sql.DB, retention time.Duration) *ShareCleanupService {
	if retention <= 0 {
		retention = DefaultShareRetention
	}
	return &ShareCleanupService{db: db, retention: retention}
}

// CountExpiredShares returns how many share codes are eligible for deletion.
func (s *ShareCleanupService) CountExpiredShares(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.retention)

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM shared_patient_action WHERE created_at < $1`,
		cutoff,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count expired shares: %w", err)
	}
	return count, nil
}

// CleanupExpiredShares deletes expired share codes and their patient links in
// one transaction and returns how many codes were removed.
func (s *ShareCleanupService) CleanupExpiredShares(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.retention)
	log.Info().Time("cutoff", cutoff).Msg("starting share code cleanup")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Link rows first; the schema has no ON DELETE CASCADE here.
	_, err = tx.ExecContext(ctx, `
		DELETE FROM shared_patient_action_patients
		WHERE shared_patient_action_id IN (
			SELECT id FROM shared_patient_action WHERE created_at < $1
		)`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete share patient links: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM shared_patient_action WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired shares: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info().Int64("deleted", deleted).Msg("share code cleanup finished")
	return int(deleted), nil
}
