package patient

import (
	"strconv"

	"github.com/visualcare-health/treatment-service/internal/treatment"
)

// Row shapes returned by the get_patients_list procedure: snake_case JSON
// with every field nullable. The adapter maps them into the strict domain
// shape. The mapping is total: missing strings become "", missing numbers 0,
// missing hours "00:00" and missing arrays empty slices, never nil.

type PatientRow struct {
	ID          *int64         `json:"id"`
	FullName    *string        `json:"full_name"`
	DateOfBirth *string        `json:"date_of_birth"`
	Description *string        `json:"description"`
	Treatments  []TreatmentRow `json:"treatments"`
}

type TreatmentRow struct {
	ID              *int64              `json:"id"`
	EyeCondition    *string             `json:"eye_condition"`
	Name            *string             `json:"name"`
	Description     *string             `json:"description"`
	TreatmentBlocks []TreatmentBlockRow `json:"treatment_blocks"`
}

type TreatmentBlockRow struct {
	BeginningDate         *string       `json:"beginning_date"`
	DurationDays          *int          `json:"duration_days"`
	Iterations            *int          `json:"iterations"`
	TherapeuticActivities []ActivityRow `json:"therapeutic_activities"`
}

type ActivityRow struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	DayOfBlock    *int    `json:"day_of_block"`
	BeginningHour *string `json:"beginning_hour"`
	EndHour       *string `json:"end_hour"`
}

func strOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

func intOr(n *int, fallback int) int {
	if n == nil {
		return fallback
	}
	return *n
}

func idString(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

// MapPatientRow converts one composite row into a Patient.
func MapPatientRow(row PatientRow) Patient {
	patientID := idString(row.ID)

	treatments := make([]treatment.Treatment, 0, len(row.Treatments))
	for _, tr := range row.Treatments {
		treatments = append(treatments, mapTreatmentRow(patientID, tr))
	}

	return Patient{
		ID:          patientID,
		FullName:    strOr(row.FullName, ""),
		DateOfBirth: strOr(row.DateOfBirth, ""),
		Description: strOr(row.Description, ""),
		Treatments:  treatments,
	}
}

// MapPatientRows converts a whole result set, dropping no elements.
func MapPatientRows(rows []PatientRow) []Patient {
	patients := make([]Patient, 0, len(rows))
	for _, row := range rows {
		patients = append(patients, MapPatientRow(row))
	}
	return patients
}

func mapTreatmentRow(patientID string, row TreatmentRow) treatment.Treatment {
	treatmentID := idString(row.ID)

	blocks := make([]treatment.TreatmentBlock, 0, len(row.TreatmentBlocks))
	for _, b := range row.TreatmentBlocks {
		blocks = append(blocks, mapBlockRow(treatmentID, b))
	}

	return treatment.Treatment{
		ID:              treatmentID,
		PatientID:       patientID,
		EyeCondition:    strOr(row.EyeCondition, ""),
		Name:            strOr(row.Name, ""),
		Description:     strOr(row.Description, ""),
		TreatmentBlocks: blocks,
	}
}

func mapBlockRow(treatmentID string, row TreatmentBlockRow) treatment.TreatmentBlock {
	activities := make([]treatment.TherapeuticActivity, 0, len(row.TherapeuticActivities))
	for _, a := range row.TherapeuticActivities {
		activities = append(activities, treatment.TherapeuticActivity{
			Name:          strOr(a.Name, ""),
			Description:   strOr(a.Description, ""),
			DayOfBlock:    intOr(a.DayOfBlock, 0),
			BeginningHour: strOr(a.BeginningHour, "00:00"),
			EndHour:       strOr(a.EndHour, "00:00"),
		})
	}

	return treatment.TreatmentBlock{
		TreatmentID:           treatmentID,
		BeginningDate:         strOr(row.BeginningDate, ""),
		DurationDays:          intOr(row.DurationDays, 0),
		Iterations:            intOr(row.Iterations, 0),
		TherapeuticActivities: activities,
	}
}
