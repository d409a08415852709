package auth

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/visualcare-health/treatment-service/internal/di"
	"github.com/visualcare-health/treatment-service/internal/messaging"
	"github.com/visualcare-health/treatment-service/internal/result"
	"golang.org/x/crypto/bcrypt"
)

// TutorRole is the only role self-signup grants.
const TutorRole = "TUTOR"

// Session is the login payload: a bearer token plus the tutor it identifies.
type Session struct {
	Token string `json:"token"`
	Tutor Tutor  `json:"tutor"`
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Service handles tutor signup and session management.
type Service struct {
	store    TutorStore
	verifier *Verifier
	events   messaging.PublisherInterface
}

func NewService(store TutorStore, verifier *Verifier, events messaging.PublisherInterface) *Service {
	return &Service{store: store, verifier: verifier, events: events}
}

// ServiceToken is the DI token for the auth service.
var ServiceToken = di.NewToken[*Service]("AuthService")

func validationError(field, message string) result.DomainError {
	return result.DomainError{Code: result.CodeValidationError, Field: field, Message: message}
}

// Signup registers a tutor account and opens a session for it.
func (s *Service) Signup(ctx context.Context, req SignupRequest) result.Result[Session] {
	var errs []result.DomainError
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		errs = append(errs, validationError("email", "a valid email is required"))
	}
	if len(req.Password) < 8 {
		errs = append(errs, validationError("password", "password must be at least 8 characters"))
	}
	if len(errs) > 0 {
		return result.Err[Session](errs...)
	}

	if _, err := s.store.GetTutorByEmail(ctx, email); err == nil {
		return result.Err[Session](validationError("email", "an account with this email already exists"))
	} else if err != ErrTutorNotFound {
		return result.StoreErr[Session](err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return result.Unexpected[Session](err)
	}

	tutor, err := s.store.CreateTutor(ctx, email, string(hash))
	if err != nil {
		return result.StoreErr[Session](err)
	}

	s.publishSignup(ctx, tutor)

	return s.openSession(tutor)
}

// Login checks credentials and opens a session. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req LoginRequest) result.Result[Session] {
	email := strings.TrimSpace(strings.ToLower(req.Email))

	tutor, err := s.store.GetTutorByEmail(ctx, email)
	if err == ErrTutorNotFound {
		return result.Errf[Session](result.CodeUnauthorized, "invalid credentials")
	}
	if err != nil {
		return result.StoreErr[Session](err)
	}

	if bcrypt.CompareHashAndPassword([]byte(tutor.PasswordHash), []byte(req.Password)) != nil {
		return result.Errf[Session](result.CodeUnauthorized, "invalid credentials")
	}

	return s.openSession(tutor)
}

// GetTutor returns the account behind a principal.
func (s *Service) GetTutor(ctx context.Context, tutorID string) result.Result[Tutor] {
	tutor, err := s.store.GetTutorByID(ctx, tutorID)
	if err == ErrTutorNotFound {
		return result.Errf[Tutor](result.CodeUnauthorized, "unknown account")
	}
	if err != nil {
		return result.StoreErr[Tutor](err)
	}
	return result.Ok(tutor)
}

// Logout is client-side token disposal; the server holds no session state.
func (s *Service) Logout(ctx context.Context) result.Result[result.Unit] {
	return result.Ok(result.Unit{})
}

func (s *Service) openSession(tutor Tutor) result.Result[Session] {
	token, err := s.verifier.IssueToken(tutor.ID, tutor.Email, []string{TutorRole})
	if err != nil {
		return result.Unexpected[Session](err)
	}
	return result.Ok(Session{Token: token, Tutor: tutor})
}

func (s *Service) publishSignup(ctx context.Context, tutor Tutor) {
	if s.events == nil {
		return
	}
	event := messaging.TutorEvent{
		BaseEvent: messaging.NewBaseEvent(messaging.EventTutorSignedUp),
		Data:      messaging.TutorEventData{TutorID: tutor.ID, Email: tutor.Email},
	}
	if err := s.events.Publish(ctx, messaging.EventTutorSignedUp, event); err != nil {
		log.Warn().Err(err).Str("routing_key", messaging.EventTutorSignedUp).Msg("failed to publish signup event")
	}
}
