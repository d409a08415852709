package patient

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/visualcare-health/treatment-service/internal/result"
	"github.com/visualcare-health/treatment-service/internal/treatment"
)

// Repository is the SQL-backed patient repository. Composite reads and
// writes go through stored procedures; everything else is plain table access.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func parseIDs(ids []string) ([]int64, error) {
	parsed := make([]int64, 0, len(ids))
	for _, id := range ids {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("patient id %q is not numeric", id)
		}
		parsed = append(parsed, n)
	}
	return parsed, nil
}

func (r *Repository) GetPatientByID(ctx context.Context, id string) result.Result[Patient] {
	res := r.GetPatientsList(ctx, []string{id})
	if !res.Ok() {
		return result.ErrFrom[Patient](res)
	}
	if len(res.Value()) == 0 {
		return result.Errf[Patient](result.CodePatientNotFound, "patient not found")
	}
	return result.Ok(res.Value()[0])
}

func (r *Repository) GetPatientsList(ctx context.Context, ids []string) result.Result[[]Patient] {
	var arg interface{}
	if ids != nil {
		parsed, err := parseIDs(ids)
		if err != nil {
			return result.Errf[[]Patient](result.CodeValidationError, err.Error())
		}
		arg = pq.Array(parsed)
	}

	var raw []byte
	query := `SELECT COALESCE(get_patients_list($1), '[]'::jsonb)`
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&raw); err != nil {
		return result.StoreErr[[]Patient](fmt.Errorf("failed to call get_patients_list: %w", err))
	}

	var rows []PatientRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return result.Unexpected[[]Patient](fmt.Errorf("failed to decode composite patient rows: %w", err))
	}

	return result.Ok(MapPatientRows(rows))
}

func (r *Repository) GetPatientsByUser(ctx context.Context, userID string) result.Result[[]Patient] {
	query := `
		SELECT p.id, p.full_name, to_char(p.date_of_birth, 'YYYY-MM-DD'), p.description, p.created_at
		FROM patients p
		JOIN patients_users pu ON pu.patient_id = p.id
		WHERE pu.user_id = $1
		ORDER BY p.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return result.StoreErr[[]Patient](fmt.Errorf("failed to query patients by user: %w", err))
	}
	defer rows.Close()

	patients := []Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return result.StoreErr[[]Patient](fmt.Errorf("failed to scan patient: %w", err))
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return result.StoreErr[[]Patient](fmt.Errorf("error iterating patients: %w", err))
	}

	return result.Ok(patients)
}

// CreatePatient performs two dependent writes: the patient row, then the
// tutor association. If the association insert fails the patient row is
// deleted best-effort; a failed delete leaves the row orphaned and the error
// reports it.
func (r *Repository) CreatePatient(ctx context.Context, req CreatePatientRequest, userID string) result.Result[Patient] {
	query := `
		INSERT INTO patients (full_name, date_of_birth, description, created_by)
		VALUES ($1, NULLIF($2, '')::date, NULLIF($3, ''), $4)
		RETURNING id, full_name, to_char(date_of_birth, 'YYYY-MM-DD'), description, created_at
	`

	p, err := scanPatient(r.db.QueryRowContext(ctx, query, req.FullName, req.DateOfBirth, req.Description, userID))
	if err != nil {
		return result.StoreErr[Patient](fmt.Errorf("failed to insert patient: %w", err))
	}

	if err := associateOrCompensate(ctx, r.db, p.ID, userID); err != nil {
		return result.StoreErr[Patient](err)
	}

	return result.Ok(p)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// associateOrCompensate inserts the tutor association for a just-created
// patient. When the insert fails the patient row is deleted so the two writes
// stay all-or-nothing; when the delete fails too, the error names the
// orphaned row.
func associateOrCompensate(ctx context.Context, db execer, patientID, userID string) error {
	assocQuery := `INSERT INTO patients_users (patient_id, user_id) VALUES ($1, $2)`
	if _, err := db.ExecContext(ctx, assocQuery, patientID, userID); err != nil {
		assocErr := fmt.Errorf("failed to insert patient association: %w", err)
		if _, delErr := db.ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, patientID); delErr != nil {
			assocErr = fmt.Errorf("%w (patient %s left orphaned: %v)", assocErr, patientID, delErr)
		}
		return assocErr
	}
	return nil
}

func (r *Repository) UpdatePatient(ctx context.Context, req UpdatePatientRequest) result.Result[Patient] {
	var updates []string
	var args []interface{}
	argIndex := 1

	if req.FullName != nil {
		updates = append(updates, fmt.Sprintf("full_name = $%d", argIndex))
		args = append(args, *req.FullName)
		argIndex++
	}
	if req.DateOfBirth != nil {
		updates = append(updates, fmt.Sprintf("date_of_birth = NULLIF($%d, '')::date", argIndex))
		args = append(args, *req.DateOfBirth)
		argIndex++
	}
	if req.Description != nil {
		updates = append(updates, fmt.Sprintf("description = NULLIF($%d, '')", argIndex))
		args = append(args, *req.Description)
		argIndex++
	}

	// An empty patch is a no-op that still returns the unchanged patient.
	if len(updates) == 0 {
		return r.getPatientRow(ctx, req.ID)
	}

	args = append(args, req.ID)
	query := fmt.Sprintf(`
		UPDATE patients
		SET %s
		WHERE id = $%d
		RETURNING id, full_name, to_char(date_of_birth, 'YYYY-MM-DD'), description, created_at
	`, strings.Join(updates, ", "), argIndex)

	p, err := scanPatient(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return result.Errf[Patient](result.CodePatientNotFound, "patient not found")
	}
	if err != nil {
		return result.StoreErr[Patient](fmt.Errorf("failed to update patient: %w", err))
	}

	return result.Ok(p)
}

func (r *Repository) DeletePatient(ctx context.Context, id string) result.Result[result.Unit] {
	res, err := r.db.ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return result.StoreErr[result.Unit](fmt.Errorf("failed to delete patient: %w", err))
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return result.Errf[result.Unit](result.CodePatientNotFound, "patient not found")
	}

	return result.Ok(result.Unit{})
}

// AssociatePatientWithUser is check-then-insert: concurrent calls can both
// observe "absent" and insert duplicates unless the store enforces a
// uniqueness constraint.
func (r *Repository) AssociatePatientWithUser(ctx context.Context, patientID, userID string) result.Result[PatientUser] {
	selectQuery := `
		SELECT id, patient_id, user_id, created_at
		FROM patients_users
		WHERE patient_id = $1 AND user_id = $2
	`

	existing, err := scanPatientUser(r.db.QueryRowContext(ctx, selectQuery, patientID, userID))
	if err == nil {
		return result.Ok(existing)
	}
	if err != sql.ErrNoRows {
		return result.StoreErr[PatientUser](fmt.Errorf("failed to query patient association: %w", err))
	}

	insertQuery := `
		INSERT INTO patients_users (patient_id, user_id)
		VALUES ($1, $2)
		RETURNING id, patient_id, user_id, created_at
	`

	created, err := scanPatientUser(r.db.QueryRowContext(ctx, insertQuery, patientID, userID))
	if err != nil {
		return result.StoreErr[PatientUser](fmt.Errorf("failed to insert patient association: %w", err))
	}

	return result.Ok(created)
}

func (r *Repository) RemovePatientUserAssociation(ctx context.Context, patientID, userID string) result.Result[result.Unit] {
	query := `DELETE FROM patients_users WHERE patient_id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, patientID, userID)
	if err != nil {
		return result.StoreErr[result.Unit](fmt.Errorf("failed to remove patient association: %w", err))
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return result.Errf[result.Unit](result.CodeAssocNotFound, "patient association not found")
	}

	return result.Ok(result.Unit{})
}

func (r *Repository) GetUserPatientsAssociations(ctx context.Context, userID string) result.Result[[]PatientUser] {
	query := `
		SELECT id, patient_id, user_id, created_at
		FROM patients_users
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return result.StoreErr[[]PatientUser](fmt.Errorf("failed to query patient associations: %w", err))
	}
	defer rows.Close()

	associations := []PatientUser{}
	for rows.Next() {
		pu, err := scanPatientUser(rows)
		if err != nil {
			return result.StoreErr[[]PatientUser](fmt.Errorf("failed to scan patient association: %w", err))
		}
		associations = append(associations, pu)
	}
	if err := rows.Err(); err != nil {
		return result.StoreErr[[]PatientUser](fmt.Errorf("error iterating patient associations: %w", err))
	}

	return result.Ok(associations)
}

// Input shapes for the composite treatment procedures.
type blockInput struct {
	BeginningDate string          `json:"beginning_date"`
	DurationDays  int             `json:"duration_days"`
	Iterations    int             `json:"iterations"`
	Activities    []activityInput `json:"activities"`
}

type activityInput struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	DayOfBlock    int    `json:"day_of_block"`
	BeginningHour string `json:"beginning_hour"`
	EndHour       string `json:"end_hour"`
}

func blocksToInput(blocks []treatment.TreatmentBlock) []blockInput {
	inputs := make([]blockInput, 0, len(blocks))
	for _, b := range blocks {
		activities := make([]activityInput, 0, len(b.TherapeuticActivities))
		for _, a := range b.TherapeuticActivities {
			activities = append(activities, activityInput{
				Name:          a.Name,
				Description:   a.Description,
				DayOfBlock:    a.DayOfBlock,
				BeginningHour: a.BeginningHour,
				EndHour:       a.EndHour,
			})
		}
		inputs = append(inputs, blockInput{
			BeginningDate: b.BeginningDate,
			DurationDays:  b.DurationDays,
			Iterations:    b.Iterations,
			Activities:    activities,
		})
	}
	return inputs
}

// AddTreatment creates the treatment together with all of its blocks and
// activities through a single all-or-nothing procedure call.
func (r *Repository) AddTreatment(ctx context.Context, patientID string, t treatment.Treatment) result.Result[result.Unit] {
	blocks, err := json.Marshal(blocksToInput(t.TreatmentBlocks))
	if err != nil {
		return result.Unexpected[result.Unit](fmt.Errorf("failed to encode treatment blocks: %w", err))
	}

	query := `SELECT insert_full_treatment($1, $2, $3, $4, $5::jsonb)`
	var treatmentID int64
	if err := r.db.QueryRowContext(ctx, query, patientID, t.EyeCondition, t.Name, t.Description, blocks).Scan(&treatmentID); err != nil {
		return result.StoreErr[result.Unit](fmt.Errorf("failed to call insert_full_treatment: %w", err))
	}

	return result.Ok(result.Unit{})
}

// UpdateTreatment replaces the treatment and its nested structure through the
// update_full_treatment procedure.
func (r *Repository) UpdateTreatment(ctx context.Context, patientID string, t treatment.Treatment) result.Result[result.Unit] {
	blocks, err := json.Marshal(blocksToInput(t.TreatmentBlocks))
	if err != nil {
		return result.Unexpected[result.Unit](fmt.Errorf("failed to encode treatment blocks: %w", err))
	}

	query := `SELECT update_full_treatment($1, $2, $3, $4, $5::jsonb)`
	var treatmentID int64
	if err := r.db.QueryRowContext(ctx, query, t.ID, t.EyeCondition, t.Name, t.Description, blocks).Scan(&treatmentID); err != nil {
		return result.StoreErr[result.Unit](fmt.Errorf("failed to call update_full_treatment: %w", err))
	}

	return result.Ok(result.Unit{})
}

func (r *Repository) DeleteTreatment(ctx context.Context, id string) result.Result[result.Unit] {
	res, err := r.db.ExecContext(ctx, `DELETE FROM treatments WHERE id = $1`, id)
	if err != nil {
		return result.StoreErr[result.Unit](fmt.Errorf("failed to delete treatment: %w", err))
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return result.Errf[result.Unit](result.CodeTreatmentNotFound, "treatment not found")
	}

	return result.Ok(result.Unit{})
}

// InitiatePatientShare mints an opaque share code for the given patients.
// Matching and redemption live entirely in the stored procedures.
func (r *Repository) InitiatePatientShare(ctx context.Context, patientIDs []string) result.Result[string] {
	parsed, err := parseIDs(patientIDs)
	if err != nil {
		return result.Errf[string](result.CodeValidationError, err.Error())
	}

	var shareCode string
	query := `SELECT create_share_patients($1)`
	if err := r.db.QueryRowContext(ctx, query, pq.Array(parsed)).Scan(&shareCode); err != nil {
		return result.StoreErr[string](fmt.Errorf("failed to call create_share_patients: %w", err))
	}

	return result.Ok(shareCode)
}

func (r *Repository) AcceptPatientShare(ctx context.Context, shareCode string) result.Result[result.Unit] {
	if _, err := r.db.ExecContext(ctx, `SELECT accept_share_patients($1)`, shareCode); err != nil {
		return result.StoreErr[result.Unit](fmt.Errorf("failed to call accept_share_patients: %w", err))
	}
	return result.Ok(result.Unit{})
}

func (r *Repository) getPatientRow(ctx context.Context, id string) result.Result[Patient] {
	query := `
		SELECT id, full_name, to_char(date_of_birth, 'YYYY-MM-DD'), description, created_at
		FROM patients
		WHERE id = $1
	`

	p, err := scanPatient(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return result.Errf[Patient](result.CodePatientNotFound, "patient not found")
	}
	if err != nil {
		return result.StoreErr[Patient](fmt.Errorf("failed to query patient: %w", err))
	}

	return result.Ok(p)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPatient(row rowScanner) (Patient, error) {
	var p Patient
	var dob sql.NullString
	var description sql.NullString
	var createdAt sql.NullTime

	if err := row.Scan(&p.ID, &p.FullName, &dob, &description, &createdAt); err != nil {
		return Patient{}, err
	}

	if dob.Valid {
		p.DateOfBirth = dob.String
	}
	if description.Valid {
		p.Description = description.String
	}
	if createdAt.Valid {
		p.CreatedAt = &createdAt.Time
	}
	p.Treatments = []treatment.Treatment{}

	return p, nil
}

func scanPatientUser(row rowScanner) (PatientUser, error) {
	var pu PatientUser
	var createdAt sql.NullTime

	if err := row.Scan(&pu.ID, &pu.PatientID, &pu.UserID, &createdAt); err != nil {
		return PatientUser{}, err
	}
	if createdAt.Valid {
		pu.CreatedAt = &createdAt.Time
	}

	return pu, nil
}
