package patient

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/visualcare-health/treatment-service/internal/auth"
	"github.com/visualcare-health/treatment-service/internal/result"
	"github.com/visualcare-health/treatment-service/internal/treatment"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type ErrorResponse struct {
	Errors  []result.DomainError `json:"errors"`
	Message string               `json:"message"`
}

type SuccessResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Patient *Patient `json:"patient,omitempty"`
}

type ListResponse struct {
	Success  bool      `json:"success"`
	Patients []Patient `json:"patients"`
	Total    int       `json:"total"`
}

type AssociationResponse struct {
	Success     bool         `json:"success"`
	Association *PatientUser `json:"association,omitempty"`
}

type AssociationListResponse struct {
	Success      bool          `json:"success"`
	Associations []PatientUser `json:"associations"`
	Total        int           `json:"total"`
}

type ShareResponse struct {
	Success   bool   `json:"success"`
	ShareCode string `json:"shareCode,omitempty"`
	Message   string `json:"message,omitempty"`
}

type SharePatientsRequest struct {
	PatientIDs []string `json:"patientIds"`
}

type AcceptShareRequest struct {
	ShareCode string `json:"shareCode"`
}

type AssociateRequest struct {
	UserID string `json:"userId"`
}

func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	var ids []string
	if raw := r.URL.Query().Get("ids"); raw != "" {
		ids = strings.Split(raw, ",")
	}

	res := h.service.GetPatientsList(r.Context(), ids)
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	respondJSON(w, http.StatusOK, ListResponse{Success: true, Patients: res.Value(), Total: len(res.Value())})
}

func (h *Handler) GetPatient(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	res := h.service.GetPatientByID(r.Context(), id)
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	p := res.Value()
	respondJSON(w, http.StatusOK, SuccessResponse{Success: true, Patient: &p})
}

// ListMyPatients returns the patients associated with the calling tutor.
func (h *Handler) ListMyPatients(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondResultError(w, []result.DomainError{{Code: result.CodeUnauthorized, Message: "user not authenticated"}})
		return
	}

	res := h.service.GetPatientsByUser(r.Context(), principal.TutorID)
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	respondJSON(w, http.StatusOK, ListResponse{Success: true, Patients: res.Value(), Total: len(res.Value())})
}

func (h *Handler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondResultError(w, []result.DomainError{{Code: result.CodeUnauthorized, Message: "user not authenticated"}})
		return
	}

	var req CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
		return
	}

	res := h.service.CreatePatient(r.Context(), req, principal.TutorID)
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	p := res.Value()
	respondJSON(w, http.StatusCreated, SuccessResponse{Success: true, Message: "patient created", Patient: &p})
}

func (h *Handler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	var req UpdatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
		return
	}
	req.ID = mux.Vars(r)["id"]

	res := h.service.UpdatePatient(r.Context(), req)
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	p := res.Value()
	respondJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "patient updated", Patient: &p})
}

func (h *Handler) DeletePatient(w http.ResponseWriter, r *http.Request) {
	res := h.service.DeletePatient(r.Context(), mux.Vars(r)["id"])
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AssociatePatient(w http.ResponseWriter, r *http.Request) {
	patientID := mux.Vars(r)["id"]

	var req AssociateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
		return
	}

	userID := req.UserID
	if userID == "" {
		// Without an explicit target the association is for the caller.
		principal, ok := auth.FromContext(r.Context())
		if !ok {
			respondResultError(w, []result.DomainError{{Code: result.CodeUnauthorized, Message: "user not authenticated"}})
			return
		}
		userID = principal.TutorID
	}

	res := h.service.AssociatePatientWithUser(r.Context(), patientID, userID)
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	pu := res.Value()
	respondJSON(w, http.StatusCreated, AssociationResponse{Success: true, Association: &pu})
}

func (h *Handler) RemoveAssociation(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	res := h.service.RemovePatientUserAssociation(r.Context(), vars["id"], vars["userId"])
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListMyAssociations(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondResultError(w, []result.DomainError{{Code: result.CodeUnauthorized, Message: "user not authenticated"}})
		return
	}

	res := h.service.GetUserPatientsAssociations(r.Context(), principal.TutorID)
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	respondJSON(w, http.StatusOK, AssociationListResponse{Success: true, Associations: res.Value(), Total: len(res.Value())})
}

// AddFullTreatment accepts a treatment with nested blocks and activities and
// persists the whole structure atomically.
func (h *Handler) AddFullTreatment(w http.ResponseWriter, r *http.Request) {
	patientID := mux.Vars(r)["id"]

	var t treatment.Treatment
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
		return
	}

	res := h.service.AddFullTreatment(r.Context(), patientID, t)
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	respondJSON(w, http.StatusCreated, SuccessResponse{Success: true, Message: "treatment created"})
}

func (h *Handler) UpdateFullTreatment(w http.ResponseWriter, r *http.Request) {
	patientID := mux.Vars(r)["id"]

	var t treatment.Treatment
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
		return
	}

	res := h.service.UpdateFullTreatment(r.Context(), patientID, t)
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "treatment updated"})
}

func (h *Handler) DeleteTreatment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	res := h.service.DeleteTreatment(r.Context(), vars["id"], vars["treatmentId"])
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SharePatients(w http.ResponseWriter, r *http.Request) {
	var req SharePatientsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
		return
	}

	res := h.service.InitiatePatientShare(r.Context(), req.PatientIDs)
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	respondJSON(w, http.StatusCreated, ShareResponse{Success: true, ShareCode: res.Value()})
}

func (h *Handler) AcceptShare(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondResultError(w, []result.DomainError{{Code: result.CodeUnauthorized, Message: "user not authenticated"}})
		return
	}

	var req AcceptShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
		return
	}

	res := h.service.AcceptPatientShare(r.Context(), req.ShareCode, principal.TutorID)
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	respondJSON(w, http.StatusOK, ShareResponse{Success: true, Message: "shared patients accepted"})
}

func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{
		Errors:  []result.DomainError{{Code: result.CodeValidationError, Message: message}},
		Message: message,
	})
}

func respondResultError(w http.ResponseWriter, errs []result.DomainError) {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	respondJSON(w, statusForErrors(errs), ErrorResponse{Errors: errs, Message: strings.Join(msgs, "; ")})
}

// statusForErrors maps domain error codes onto HTTP status codes. The first
// matching code wins; validation beats the catch-all 500.
func statusForErrors(errs []result.DomainError) int {
	for _, e := range errs {
		switch e.Code {
		case result.CodePatientNotFound, result.CodeTreatmentNotFound, result.CodeBlockNotFound,
			result.CodeActivityNotFound, result.CodeNoteNotFound, result.CodeAssocNotFound:
			return http.StatusNotFound
		case result.CodeUnauthorized:
			return http.StatusUnauthorized
		case result.CodeValidationError:
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}
