package treatment

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/visualcare-health/treatment-service/internal/result"
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
	Success   bool       `json:"success"`
	Message   string     `json:"message,omitempty"`
	Treatment *Treatment `json:"treatment,omitempty"`
}

type ListResponse struct {
	Success    bool        `json:"success"`
	Treatments []Treatment `json:"treatments"`
	Total      int         `json:"total"`
}

type BlockResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Block   *TreatmentBlock `json:"block,omitempty"`
}

type BlockListResponse struct {
	Success bool             `json:"success"`
	Blocks  []TreatmentBlock `json:"blocks"`
	Total   int              `json:"total"`
}

type ActivityResponse struct {
	Success  bool                 `json:"success"`
	Message  string               `json:"message,omitempty"`
	Activity *TherapeuticActivity `json:"activity,omitempty"`
}

type ActivityListResponse struct {
	Success    bool                  `json:"success"`
	Activities []TherapeuticActivity `json:"activities"`
	Total      int                   `json:"total"`
}

func (h *Handler) CreateTreatment(w http.ResponseWriter, r *http.Request) {
	var req CreateTreatmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
		return
	}

	res := h.service.CreateTreatment(r.Context(), req)
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	tr := res.Value()
	respondJSON(w, http.StatusCreated, SuccessResponse{Success: true, Message: "treatment created", Treatment: &tr})
}

func (h *Handler) ListByPatient(w http.ResponseWriter, r *http.Request) {
	res := h.service.ListByPatient(r.Context(), mux.Vars(r)["patientId"])
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	respondJSON(w, http.StatusOK, ListResponse{Success: true, Treatments: res.Value(), Total: len(res.Value())})
}

func (h *Handler) GetTreatment(w http.ResponseWriter, r *http.Request) {
	res := h.service.GetByID(r.Context(), mux.Vars(r)["id"])
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	tr := res.Value()
	respondJSON(w, http.StatusOK, SuccessResponse{Success: true, Treatment: &tr})
}

func (h *Handler) UpdateTreatment(w http.ResponseWriter, r *http.Request) {
	var req UpdateTreatmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
		return
	}
	req.ID = mux.Vars(r)["id"]

	res := h.service.UpdateTreatment(r.Context(), req)
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	tr := res.Value()
	respondJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "treatment updated", Treatment: &tr})
}

func (h *Handler) DeleteTreatment(w http.ResponseWriter, r *http.Request) {
	res := h.service.DeleteTreatment(r.Context(), mux.Vars(r)["id"])
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateBlock(w http.ResponseWriter, r *http.Request) {
	var req CreateTreatmentBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
		return
	}
	req.TreatmentID = mux.Vars(r)["id"]

	res := h.service.CreateTreatmentBlock(r.Context(), req)
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	b := res.Value()
	respondJSON(w, http.StatusCreated, BlockResponse{Success: true, Message: "treatment block created", Block: &b})
}

func (h *Handler) ListBlocks(w http.ResponseWriter, r *http.Request) {
	res := h.service.ListBlocksByTreatment(r.Context(), mux.Vars(r)["id"])
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	respondJSON(w, http.StatusOK, BlockListResponse{Success: true, Blocks: res.Value(), Total: len(res.Value())})
}

func (h *Handler) GetBlock(w http.ResponseWriter, r *http.Request) {
	res := h.service.GetBlockByID(r.Context(), mux.Vars(r)["blockId"])
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	b := res.Value()
	respondJSON(w, http.StatusOK, BlockResponse{Success: true, Block: &b})
}

func (h *Handler) UpdateBlock(w http.ResponseWriter, r *http.Request) {
	var req UpdateTreatmentBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
		return
	}
	req.ID = mux.Vars(r)["blockId"]

	res := h.service.UpdateTreatmentBlock(r.Context(), req)
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	b := res.Value()
	respondJSON(w, http.StatusOK, BlockResponse{Success: true, Message: "treatment block updated", Block: &b})
}

func (h *Handler) DeleteBlock(w http.ResponseWriter, r *http.Request) {
	res := h.service.DeleteTreatmentBlock(r.Context(), mux.Vars(r)["blockId"])
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	var req CreateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
		return
	}
	req.TreatmentBlockID = mux.Vars(r)["blockId"]

	res := h.service.CreateActivity(r.Context(), req)
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	a := res.Value()
	respondJSON(w, http.StatusCreated, ActivityResponse{Success: true, Message: "activity created", Activity: &a})
}

func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	res := h.service.ListActivitiesByBlock(r.Context(), mux.Vars(r)["blockId"])
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	respondJSON(w, http.StatusOK, ActivityListResponse{Success: true, Activities: res.Value(), Total: len(res.Value())})
}

func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	res := h.service.GetActivityByID(r.Context(), mux.Vars(r)["activityId"])
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	a := res.Value()
	respondJSON(w, http.StatusOK, ActivityResponse{Success: true, Activity: &a})
}

func (h *Handler) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	var req UpdateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
		return
	}
	req.ID = mux.Vars(r)["activityId"]

	res := h.service.UpdateActivity(r.Context(), req)
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	a := res.Value()
	respondJSON(w, http.StatusOK, ActivityResponse{Success: true, Message: "activity updated", Activity: &a})
}

func (h *Handler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	res := h.service.DeleteActivity(r.Context(), mux.Vars(r)["activityId"])
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	w.WriteHeader(http.StatusNoContent)
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

func statusForErrors(errs []result.DomainError) int {
	for _, e := range errs {
		switch e.Code {
		case result.CodeTreatmentNotFound, result.CodeBlockNotFound, result.CodeActivityNotFound:
			return http.StatusNotFound
		case result.CodeUnauthorized:
			return http.StatusUnauthorized
		case result.CodeValidationError:
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}
