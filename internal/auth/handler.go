package auth

import (
	"encoding/json"
	"net/http"
	"strings"

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

type SessionResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	Tutor   Tutor  `json:"tutor"`
}

type TutorResponse struct {
	Success bool  `json:"success"`
	Tutor   Tutor `json:"tutor"`
}

type LogoutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
		return
	}

	res := h.service.Signup(r.Context(), req)
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	respondJSON(w, http.StatusCreated, SessionResponse{
		Success: true,
		Token:   res.Value().Token,
		Tutor:   res.Value().Tutor,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
		return
	}

	res := h.service.Login(r.Context(), req)
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	respondJSON(w, http.StatusOK, SessionResponse{
		Success: true,
		Token:   res.Value().Token,
		Tutor:   res.Value().Tutor,
	})
}

// Me returns the account of the calling tutor.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := FromContext(r.Context())
	if !ok {
		respondResultError(w, []result.DomainError{{Code: result.CodeUnauthorized, Message: "user not authenticated"}})
		return
	}

	res := h.service.GetTutor(r.Context(), principal.TutorID)
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	respondJSON(w, http.StatusOK, TutorResponse{Success: true, Tutor: res.Value()})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	res := h.service.Logout(r.Context())
	if !res.Ok() {
		respondResultError(w, res.Errors())
		return
	}

	respondJSON(w, http.StatusOK, LogoutResponse{Success: true, Message: "logged out"})
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
		case result.CodeUnauthorized:
			return http.StatusUnauthorized
		case result.CodeValidationError:
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}
