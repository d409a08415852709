package patient

import (
	"context"

	"github.com/visualcare-health/treatment-service/internal/di"
	"github.com/visualcare-health/treatment-service/internal/result"
	"github.com/visualcare-health/treatment-service/internal/treatment"
)

// RepositoryInterface is the patient data-access contract, including tutor
// association management, the composite treatment writes and the code-based
// sharing flow. Every method converts expected failures into an error Result.
type RepositoryInterface interface {
	GetPatientByID(ctx context.Context, id string) result.Result[Patient]
	// GetPatientsList with no ids returns every patient visible to the
	// caller's authorization scope; with ids it filters to that set.
	GetPatientsList(ctx context.Context, ids []string) result.Result[[]Patient]
	GetPatientsByUser(ctx context.Context, userID string) result.Result[[]Patient]
	CreatePatient(ctx context.Context, req CreatePatientRequest, userID string) result.Result[Patient]
	UpdatePatient(ctx context.Context, req UpdatePatientRequest) result.Result[Patient]
	DeletePatient(ctx context.Context, id string) result.Result[result.Unit]

	AssociatePatientWithUser(ctx context.Context, patientID, userID string) result.Result[PatientUser]
	RemovePatientUserAssociation(ctx context.Context, patientID, userID string) result.Result[result.Unit]
	GetUserPatientsAssociations(ctx context.Context, userID string) result.Result[[]PatientUser]

	// Composite treatment writes: a single all-or-nothing remote procedure
	// call, never decomposed into client-side writes.
	AddTreatment(ctx context.Context, patientID string, t treatment.Treatment) result.Result[result.Unit]
	UpdateTreatment(ctx context.Context, patientID string, t treatment.Treatment) result.Result[result.Unit]
	DeleteTreatment(ctx context.Context, id string) result.Result[result.Unit]

	InitiatePatientShare(ctx context.Context, patientIDs []string) result.Result[string]
	AcceptPatientShare(ctx context.Context, shareCode string) result.Result[result.Unit]
}

var (
	RepositoryToken = di.NewToken[RepositoryInterface]("PatientRepository")
	ServiceToken    = di.NewToken[*Service]("PatientService")
)

// Ensure Repository implements RepositoryInterface
var _ RepositoryInterface = (*Repository)(nil)
