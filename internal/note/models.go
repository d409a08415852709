package note

import "time"

// Note hangs off a tutor-patient association, not off the patient directly:
// each tutor keeps their own notes about a shared patient.
type Note struct {
	ID            string     `json:"id"`
	UserPatientID string     `json:"userPatientId"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
}

type CreateNoteRequest struct {
	UserPatientID string `json:"userPatientId"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
}

// UpdateNoteRequest is a partial patch: nil means "leave unchanged".
type UpdateNoteRequest struct {
	ID          string  `json:"id"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}
