package patient

import (
	"time"

	"github.com/visualcare-health/treatment-service/internal/treatment"
)

// Patient is owned by one or more tutors through PatientUser associations.
// Treatments are populated only by the composite reads; flat reads return an
// empty slice.
type Patient struct {
	ID          string                `json:"id"`
	FullName    string                `json:"fullName"`
	DateOfBirth string                `json:"dateOfBirth,omitempty"` // YYYY-MM-DD
	Description string                `json:"description,omitempty"`
	CreatedAt   *time.Time            `json:"createdAt,omitempty"`
	Treatments  []treatment.Treatment `json:"treatments"`
}

// PatientUser is the tutor-patient association row.
type PatientUser struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	PatientID string     `json:"patientId"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

type CreatePatientRequest struct {
	FullName    string `json:"fullName"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Description string `json:"description,omitempty"`
}

// UpdatePatientRequest is a partial patch: nil means "leave unchanged".
type UpdatePatientRequest struct {
	ID          string  `json:"id"`
	FullName    *string `json:"fullName,omitempty"`
	DateOfBirth *string `json:"dateOfBirth,omitempty"`
	Description *string `json:"description,omitempty"`
}
