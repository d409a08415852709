package note

import (
	"context"

	"github.com/visualcare-health/treatment-service/internal/di"
	"github.com/visualcare-health/treatment-service/internal/result"
)

// RepositoryInterface is the note data-access contract.
type RepositoryInterface interface {
	Add(ctx context.Context, req CreateNoteRequest) result.Result[Note]
	ListByAssociation(ctx context.Context, userPatientID string) result.Result[[]Note]
	GetByID(ctx context.Context, id string) result.Result[Note]
	Update(ctx context.Context, req UpdateNoteRequest) result.Result[Note]
	Delete(ctx context.Context, id string) result.Result[result.Unit]
}

var (
	RepositoryToken = di.NewToken[RepositoryInterface]("NoteRepository")
	ServiceToken    = di.NewToken[*Service]("NoteService")
)

// Ensure Repository implements RepositoryInterface
var _ RepositoryInterface = (*Repository)(nil)
