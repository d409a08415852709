package messaging

import (
	"time"

	"github.com/google/uuid"
)

// Event routing keys.
const (
	EventPatientCreated = "patient.created"
	EventPatientUpdated = "patient.updated"
	EventPatientDeleted = "patient.deleted"
	EventPatientShared  = "patient.shared"

	EventTreatmentCreated = "treatment.created"
	EventTreatmentUpdated = "treatment.updated"
	EventTreatmentDeleted = "treatment.deleted"

	EventNoteCreated = "note.created"

	EventTutorSignedUp = "tutor.signed_up"
)

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	EventType   string    `json:"event_type"`
	EventID     string    `json:"event_id"`
	Timestamp   time.Time `json:"timestamp"`
	ServiceName string    `json:"service_name"`
}

// NewBaseEvent stamps a fresh event envelope for the given routing key.
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventType:   eventType,
		EventID:     uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		ServiceName: "treatment-service",
	}
}

// PatientEvent covers the patient lifecycle routing keys.
type PatientEvent struct {
	BaseEvent
	Data PatientEventData `json:"data"`
}

type PatientEventData struct {
	PatientID string `json:"patient_id"`
	TutorID   string `json:"tutor_id,omitempty"`
	FullName  string `json:"full_name,omitempty"`
}

// PatientSharedEvent is published when a share code is redeemed.
type PatientSharedEvent struct {
	BaseEvent
	Data PatientSharedEventData `json:"data"`
}

type PatientSharedEventData struct {
	TutorID   string `json:"tutor_id"`
	ShareCode string `json:"share_code"`
}

// TreatmentEvent covers the treatment lifecycle routing keys.
type TreatmentEvent struct {
	BaseEvent
	Data TreatmentEventData `json:"data"`
}

type TreatmentEventData struct {
	TreatmentID  string `json:"treatment_id"`
	PatientID    string `json:"patient_id"`
	EyeCondition string `json:"eye_condition,omitempty"`
	Name         string `json:"name,omitempty"`
}

// NoteEvent is published when a note is created.
type NoteEvent struct {
	BaseEvent
	Data NoteEventData `json:"data"`
}

type NoteEventData struct {
	NoteID        string `json:"note_id"`
	UserPatientID string `json:"user_patient_id"`
}

// TutorEvent is published on signup.
type TutorEvent struct {
	BaseEvent
	Data TutorEventData `json:"data"`
}

type TutorEventData struct {
	TutorID string `json:"tutor_id"`
	Email   string `json:"email"`
}
