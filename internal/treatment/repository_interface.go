package treatment

import (
	"context"

	"github.com/visualcare-health/treatment-service/internal/di"
	"github.com/visualcare-health/treatment-service/internal/result"
)

// RepositoryInterface is the treatment data-access contract. Every method
// converts expected failures into an error Result; none returns a bare error.
type RepositoryInterface interface {
	Add(ctx context.Context, t Treatment) result.Result[result.Unit]
	ListByPatient(ctx context.Context, patientID string) result.Result[[]Treatment]
	Update(ctx context.Context, t Treatment) result.Result[result.Unit]
	Delete(ctx context.Context, id string) result.Result[result.Unit]
	GetByID(ctx context.Context, id string) result.Result[Treatment]

	// Convenience variants: CreateTreatment persists from a request,
	// UpdateTreatment does fetch -> merge partial -> persist.
	CreateTreatment(ctx context.Context, req CreateTreatmentRequest) result.Result[Treatment]
	UpdateTreatment(ctx context.Context, req UpdateTreatmentRequest) result.Result[Treatment]
}

// BlockRepositoryInterface mirrors the treatment CRUD shape for blocks.
type BlockRepositoryInterface interface {
	Add(ctx context.Context, b TreatmentBlock) result.Result[result.Unit]
	ListByTreatment(ctx context.Context, treatmentID string) result.Result[[]TreatmentBlock]
	Update(ctx context.Context, b TreatmentBlock) result.Result[result.Unit]
	Delete(ctx context.Context, id string) result.Result[result.Unit]
	GetByID(ctx context.Context, id string) result.Result[TreatmentBlock]

	CreateTreatmentBlock(ctx context.Context, req CreateTreatmentBlockRequest) result.Result[TreatmentBlock]
	UpdateTreatmentBlock(ctx context.Context, req UpdateTreatmentBlockRequest) result.Result[TreatmentBlock]
}

// ActivityRepositoryInterface mirrors the CRUD shape for activities.
type ActivityRepositoryInterface interface {
	Add(ctx context.Context, a TherapeuticActivity) result.Result[result.Unit]
	ListByTreatmentBlock(ctx context.Context, blockID string) result.Result[[]TherapeuticActivity]
	Update(ctx context.Context, a TherapeuticActivity) result.Result[result.Unit]
	Delete(ctx context.Context, id string) result.Result[result.Unit]
	GetByID(ctx context.Context, id string) result.Result[TherapeuticActivity]

	CreateActivity(ctx context.Context, req CreateActivityRequest) result.Result[TherapeuticActivity]
	UpdateActivity(ctx context.Context, req UpdateActivityRequest) result.Result[TherapeuticActivity]
}

// DI tokens. The token and the contract share a name on purpose: one is the
// identity key, the other the type.
var (
	RepositoryToken         = di.NewToken[RepositoryInterface]("TreatmentRepository")
	BlockRepositoryToken    = di.NewToken[BlockRepositoryInterface]("TreatmentBlockRepository")
	ActivityRepositoryToken = di.NewToken[ActivityRepositoryInterface]("TherapeuticActivityRepository")
	ServiceToken            = di.NewToken[*Service]("TreatmentService")
)

// Ensure the SQL repositories satisfy their contracts.
var (
	_ RepositoryInterface         = (*Repository)(nil)
	_ BlockRepositoryInterface    = (*BlockRepository)(nil)
	_ ActivityRepositoryInterface = (*ActivityRepository)(nil)
)
