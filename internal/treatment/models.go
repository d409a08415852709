package treatment

import "time"

// Treatment belongs to exactly one patient. IDs are numeric in storage and
// serialized as strings everywhere above it.
type Treatment struct {
	ID              string           `json:"id"`
	PatientID       string           `json:"patientId"`
	EyeCondition    string           `json:"eyeCondition"`
	Name            string           `json:"name"`
	Description     string           `json:"description,omitempty"`
	CreatedAt       *time.Time       `json:"createdAt,omitempty"`
	TreatmentBlocks []TreatmentBlock `json:"treatmentBlocks"`
}

// TreatmentBlock is a repeatable schedule window: it repeats every
// DurationDays for Iterations repetitions starting at BeginningDate.
type TreatmentBlock struct {
	ID                    string                `json:"id"`
	TreatmentID           string                `json:"treatmentId"`
	BeginningDate         string                `json:"beginningDate"` // YYYY-MM-DD
	DurationDays          int                   `json:"durationDays"`
	Iterations            int                   `json:"iterations"`
	CreatedAt             *time.Time            `json:"createdAt,omitempty"`
	TherapeuticActivities []TherapeuticActivity `json:"therapeuticActivities"`
}

// TherapeuticActivity is a scheduled action within a block, bound to a day
// offset (1..DurationDays of the owning block) and a time-of-day range.
type TherapeuticActivity struct {
	ID               string     `json:"id"`
	TreatmentBlockID string     `json:"treatmentBlockId"`
	Name             string     `json:"name"`
	Description      string     `json:"description,omitempty"`
	DayOfBlock       int        `json:"dayOfBlock"`
	BeginningHour    string     `json:"beginningHour"` // HH:mm
	EndHour          string     `json:"endHour"`       // HH:mm
	CreatedAt        *time.Time `json:"createdAt,omitempty"`
}

// CreateTreatmentRequest creates a treatment without children.
type CreateTreatmentRequest struct {
	PatientID    string `json:"patientId"`
	EyeCondition string `json:"eyeCondition"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
}

// UpdateTreatmentRequest is a partial patch: a nil field means "leave
// unchanged", never "clear value".
type UpdateTreatmentRequest struct {
	ID           string  `json:"id"`
	PatientID    *string `json:"patientId,omitempty"`
	EyeCondition *string `json:"eyeCondition,omitempty"`
	Name         *string `json:"name,omitempty"`
	Description  *string `json:"description,omitempty"`
}

type CreateTreatmentBlockRequest struct {
	TreatmentID   string `json:"treatmentId"`
	BeginningDate string `json:"beginningDate"`
	DurationDays  int    `json:"durationDays"`
	Iterations    int    `json:"iterations"`
}

type UpdateTreatmentBlockRequest struct {
	ID            string  `json:"id"`
	TreatmentID   *string `json:"treatmentId,omitempty"`
	BeginningDate *string `json:"beginningDate,omitempty"`
	DurationDays  *int    `json:"durationDays,omitempty"`
	Iterations    *int    `json:"iterations,omitempty"`
}

type CreateActivityRequest struct {
	TreatmentBlockID string `json:"treatmentBlockId"`
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	DayOfBlock       int    `json:"dayOfBlock"`
	BeginningHour    string `json:"beginningHour"`
	EndHour          string `json:"endHour"`
}

type UpdateActivityRequest struct {
	ID               string  `json:"id"`
	TreatmentBlockID *string `json:"treatmentBlockId,omitempty"`
	Name             *string `json:"name,omitempty"`
	Description      *string `json:"description,omitempty"`
	DayOfBlock       *int    `json:"dayOfBlock,omitempty"`
	BeginningHour    *string `json:"beginningHour,omitempty"`
	EndHour          *string `json:"endHour,omitempty"`
}
