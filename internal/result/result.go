package result

import "strings"

// Error codes shared by every repository and service.
const (
	CodeStoreError        = "STORE_ERROR"
	CodeUnexpectedError   = "UNEXPECTED_ERROR"
	CodeValidationError   = "VALIDATION_ERROR"
	CodePatientNotFound   = "PATIENT_NOT_FOUND"
	CodeTreatmentNotFound = "TREATMENT_NOT_FOUND"
	CodeBlockNotFound     = "TREATMENT_BLOCK_NOT_FOUND"
	CodeActivityNotFound  = "ACTIVITY_NOT_FOUND"
	CodeNoteNotFound      = "NOTE_NOT_FOUND"
	CodeAssocNotFound     = "ASSOCIATION_NOT_FOUND"
	CodeUnauthorized      = "UNAUTHORIZED"
)

// DomainError describes one expected failure. Field is set only for
// request-level validation failures.
type DomainError struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Unit is the value type for operations that return nothing on success.
type Unit struct{}

// Result is a success/error envelope. Repositories and services return a
// Result instead of a bare error for every expected failure mode; callers
// must check Ok before reading Value.
type Result[T any] struct {
	ok     bool
	value  T
	errors []DomainError
}

// Ok wraps a successful value.
func Ok[T any](value T) Result[T] {
	return Result[T]{ok: true, value: value}
}

// Err wraps one or more domain errors.
func Err[T any](errors ...DomainError) Result[T] {
	return Result[T]{errors: errors}
}

// Errf builds a single-error result from a code and message.
func Errf[T any](code, message string) Result[T] {
	return Err[T](DomainError{Code: code, Message: message})
}

// StoreErr converts a failed remote operation into a STORE_ERROR result.
func StoreErr[T any](err error) Result[T] {
	return Errf[T](CodeStoreError, err.Error())
}

// Unexpected converts an error caught at the repository boundary into an
// UNEXPECTED_ERROR result. No repository method lets such errors escape.
func Unexpected[T any](err error) Result[T] {
	return Errf[T](CodeUnexpectedError, err.Error())
}

// ErrFrom carries the errors of a failed result into a result of another
// value type.
func ErrFrom[T, U any](r Result[U]) Result[T] {
	return Err[T](r.errors...)
}

func (r Result[T]) Ok() bool { return r.ok }

// Value returns the wrapped value; the zero value when the result is an error.
func (r Result[T]) Value() T { return r.value }

func (r Result[T]) Errors() []DomainError { return r.errors }

// HasCode reports whether any of the errors carries the given code.
func (r Result[T]) HasCode(code string) bool {
	for _, e := range r.errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

// ErrMessage aggregates every error message with a separator, the form in
// which failures are surfaced to clients.
func (r Result[T]) ErrMessage() string {
	msgs := make([]string, 0, len(r.errors))
	for _, e := range r.errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}
