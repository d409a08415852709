package note

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/visualcare-health/treatment-service/internal/pagination"
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
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Note    *Note  `json:"note,omitempty"`
}

type ListResponse struct {
	Success    bool            `json:"success"`
	Notes      []Note          `json:"notes"`
	Pagination pagination.Meta `json:"pagination"`
}

func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
		return
	}

	res := h.service.CreateNote(r.Context(), req)
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	n := res.Value()
	respondJSON(w, http.StatusCreated, SuccessResponse{Success: true, Message: "note created", Note: &n})
}

func (h *Handler) ListByAssociation(w http.ResponseWriter, r *http.Request) {
	params := pagination.ParseParams(r)

	res := h.service.ListByAssociation(r.Context(), mux.Vars(r)["associationId"], params)
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	respondJSON(w, http.StatusOK, ListResponse{
		Success:    true,
		Notes:      res.Value().Notes,
		Pagination: res.Value().Pagination,
	})
}

func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	res := h.service.GetNoteByID(r.Context(), mux.Vars(r)["id"])
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	n := res.Value()
	respondJSON(w, http.StatusOK, SuccessResponse{Success: true, Note: &n})
}

func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
		return
	}
	req.ID = mux.Vars(r)["id"]

	res := h.service.UpdateNote(r.Context(), req)
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	n := res.Value()
	respondJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "note updated", Note: &n})
}

func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	res := h.service.DeleteNote(r.Context(), mux.Vars(r)["id"])
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
		case result.CodeNoteNotFound, result.CodeAssocNotFound:
			return http.StatusNotFound
		case result.CodeUnauthorized:
			return http.StatusUnauthorized
		case result.CodeValidationError:
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}
