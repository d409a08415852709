package patient

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/visualcare-health/treatment-service/internal/messaging"
	"github.com/visualcare-health/treatment-service/internal/querycache"
	"github.com/visualcare-health/treatment-service/internal/result"
	"github.com/visualcare-health/treatment-service/internal/treatment"
)

// MetricsRecorder counts successful domain operations.
type MetricsRecorder interface {
	RecordPatientOperation(ctx context.Context, operation string)
	RecordTreatmentOperation(ctx context.Context, operation string)
	RecordShareOperation(ctx context.Context, operation string)
}

// Service validates patient requests, keeps the query cache consistent and
// publishes lifecycle events. All reads are cache read-through keyed by the
// querycache hierarchy.
type Service struct {
	repo    RepositoryInterface
	cache   *querycache.Cache
	events  messaging.PublisherInterface
	metrics MetricsRecorder
}

func NewService(repo RepositoryInterface, cache *querycache.Cache, events messaging.PublisherInterface) *Service {
	return &Service{repo: repo, cache: cache, events: events}
}

// WithMetrics attaches a recorder for the patient, treatment and share
// counters.
func (s *Service) WithMetrics(metrics MetricsRecorder) *Service {
	s.metrics = metrics
	return s
}

func validationError(field, message string) result.DomainError {
	return result.DomainError{Code: result.CodeValidationError, Field: field, Message: message}
}

func validDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func (s *Service) GetPatientByID(ctx context.Context, id string) result.Result[Patient] {
	key := querycache.PatientByID(id)
	if cached, ok := querycache.Lookup[Patient](s.cache, key); ok {
		return result.Ok(cached)
	}

	res := s.repo.GetPatientByID(ctx, id)
	if res.Ok() {
		s.cache.Set(key, res.Value())
	}
	return res
}

func (s *Service) GetPatientsList(ctx context.Context, ids []string) result.Result[[]Patient] {
	// Only the unfiltered listing is cached; filtered lookups are ad hoc.
	if ids == nil {
		key := querycache.PatientsAll()
		if cached, ok := querycache.Lookup[[]Patient](s.cache, key); ok {
			return result.Ok(cached)
		}
		res := s.repo.GetPatientsList(ctx, nil)
		if res.Ok() {
			s.cache.Set(key, res.Value())
		}
		return res
	}

	return s.repo.GetPatientsList(ctx, ids)
}

func (s *Service) GetPatientsByUser(ctx context.Context, userID string) result.Result[[]Patient] {
	key := querycache.PatientsByUser(userID)
	if cached, ok := querycache.Lookup[[]Patient](s.cache, key); ok {
		return result.Ok(cached)
	}

	res := s.repo.GetPatientsByUser(ctx, userID)
	if res.Ok() {
		s.cache.Set(key, res.Value())
	}
	return res
}

func (s *Service) CreatePatient(ctx context.Context, req CreatePatientRequest, userID string) result.Result[Patient] {
	var errs []result.DomainError
	if req.FullName == "" {
		errs = append(errs, validationError("fullName", "full name is required"))
	}
	if req.DateOfBirth != "" && !validDate(req.DateOfBirth) {
		errs = append(errs, validationError("dateOfBirth", "date of birth must be YYYY-MM-DD"))
	}
	if len(errs) > 0 {
		return result.Err[Patient](errs...)
	}

	res := s.repo.CreatePatient(ctx, req, userID)
	if !res.Ok() {
		return res
	}

	s.invalidatePatientQueries()
	s.recordPatientOp(ctx, "create")
	s.publishPatient(ctx, messaging.EventPatientCreated, messaging.PatientEventData{
		PatientID: res.Value().ID,
		TutorID:   userID,
		FullName:  res.Value().FullName,
	})

	return res
}

func (s *Service) UpdatePatient(ctx context.Context, req UpdatePatientRequest) result.Result[Patient] {
	var errs []result.DomainError
	if req.ID == "" {
		errs = append(errs, validationError("id", "patient id is required"))
	}
	if req.DateOfBirth != nil && *req.DateOfBirth != "" && !validDate(*req.DateOfBirth) {
		errs = append(errs, validationError("dateOfBirth", "date of birth must be YYYY-MM-DD"))
	}
	if len(errs) > 0 {
		return result.Err[Patient](errs...)
	}

	res := s.repo.UpdatePatient(ctx, req)
	if !res.Ok() {
		return res
	}

	s.invalidatePatientQueries()
	s.recordPatientOp(ctx, "update")
	s.publishPatient(ctx, messaging.EventPatientUpdated, messaging.PatientEventData{
		PatientID: res.Value().ID,
		FullName:  res.Value().FullName,
	})

	return res
}

func (s *Service) DeletePatient(ctx context.Context, id string) result.Result[result.Unit] {
	res := s.repo.DeletePatient(ctx, id)
	if !res.Ok() {
		return res
	}

	s.invalidatePatientQueries()
	// Composite reads embed treatments, and the deleted patient's cascade
	// removes them too.
	s.cache.Invalidate("treatments")
	s.recordPatientOp(ctx, "delete")
	s.publishPatient(ctx, messaging.EventPatientDeleted, messaging.PatientEventData{PatientID: id})

	return res
}

func (s *Service) AssociatePatientWithUser(ctx context.Context, patientID, userID string) result.Result[PatientUser] {
	res := s.repo.AssociatePatientWithUser(ctx, patientID, userID)
	if res.Ok() {
		s.invalidatePatientQueries()
	}
	return res
}

func (s *Service) RemovePatientUserAssociation(ctx context.Context, patientID, userID string) result.Result[result.Unit] {
	res := s.repo.RemovePatientUserAssociation(ctx, patientID, userID)
	if res.Ok() {
		s.invalidatePatientQueries()
	}
	return res
}

func (s *Service) GetUserPatientsAssociations(ctx context.Context, userID string) result.Result[[]PatientUser] {
	return s.repo.GetUserPatientsAssociations(ctx, userID)
}

// AddFullTreatment persists a treatment with its whole nested structure in a
// single remote call and invalidates every query it could affect.
func (s *Service) AddFullTreatment(ctx context.Context, patientID string, t treatment.Treatment) result.Result[result.Unit] {
	if errs := validateFullTreatment(patientID, t, false); len(errs) > 0 {
		return result.Err[result.Unit](errs...)
	}

	res := s.repo.AddTreatment(ctx, patientID, t)
	if !res.Ok() {
		return res
	}

	s.invalidateTreatmentQueries(patientID)
	s.recordTreatmentOp(ctx, "create")
	s.publishTreatment(ctx, messaging.EventTreatmentCreated, messaging.TreatmentEventData{
		PatientID:    patientID,
		EyeCondition: t.EyeCondition,
		Name:         t.Name,
	})

	return res
}

// UpdateFullTreatment replaces a treatment and its nested structure.
func (s *Service) UpdateFullTreatment(ctx context.Context, patientID string, t treatment.Treatment) result.Result[result.Unit] {
	if errs := validateFullTreatment(patientID, t, true); len(errs) > 0 {
		return result.Err[result.Unit](errs...)
	}

	res := s.repo.UpdateTreatment(ctx, patientID, t)
	if !res.Ok() {
		return res
	}

	s.invalidateTreatmentQueries(patientID)
	s.recordTreatmentOp(ctx, "update")
	s.publishTreatment(ctx, messaging.EventTreatmentUpdated, messaging.TreatmentEventData{
		TreatmentID:  t.ID,
		PatientID:    patientID,
		EyeCondition: t.EyeCondition,
		Name:         t.Name,
	})

	return res
}

func (s *Service) DeleteTreatment(ctx context.Context, patientID, treatmentID string) result.Result[result.Unit] {
	res := s.repo.DeleteTreatment(ctx, treatmentID)
	if !res.Ok() {
		return res
	}

	s.invalidateTreatmentQueries(patientID)
	s.recordTreatmentOp(ctx, "delete")
	s.publishTreatment(ctx, messaging.EventTreatmentDeleted, messaging.TreatmentEventData{
		TreatmentID: treatmentID,
		PatientID:   patientID,
	})

	return res
}

// InitiatePatientShare mints a share code covering the given patients.
func (s *Service) InitiatePatientShare(ctx context.Context, patientIDs []string) result.Result[string] {
	if len(patientIDs) == 0 {
		return result.Err[string](validationError("patientIds", "at least one patient id is required"))
	}

	res := s.repo.InitiatePatientShare(ctx, patientIDs)
	if res.Ok() {
		s.recordShareOp(ctx, "initiate")
	}
	return res
}

// AcceptPatientShare redeems a share code on behalf of the calling tutor. The
// redeemed set is unknown to the client, so the whole cache is dropped.
func (s *Service) AcceptPatientShare(ctx context.Context, shareCode, userID string) result.Result[result.Unit] {
	if shareCode == "" {
		return result.Err[result.Unit](validationError("shareCode", "share code is required"))
	}

	res := s.repo.AcceptPatientShare(ctx, shareCode)
	if !res.Ok() {
		return res
	}

	s.cache.InvalidateAll()
	s.recordShareOp(ctx, "accept")
	s.publishShared(ctx, messaging.PatientSharedEventData{TutorID: userID, ShareCode: shareCode})

	return res
}

func validateFullTreatment(patientID string, t treatment.Treatment, forUpdate bool) []result.DomainError {
	var errs []result.DomainError
	if patientID == "" {
		errs = append(errs, validationError("patientId", "patient id is required"))
	}
	if forUpdate && t.ID == "" {
		errs = append(errs, validationError("id", "treatment id is required"))
	}
	if t.EyeCondition == "" {
		errs = append(errs, validationError("eyeCondition", "eye condition is required"))
	}
	if t.Name == "" {
		errs = append(errs, validationError("name", "name is required"))
	}
	for _, b := range t.TreatmentBlocks {
		if !validDate(b.BeginningDate) {
			errs = append(errs, validationError("beginningDate", "beginning date must be YYYY-MM-DD"))
		}
		if b.DurationDays < 1 {
			errs = append(errs, validationError("durationDays", "duration must be at least 1 day"))
		}
		if b.Iterations < 1 {
			errs = append(errs, validationError("iterations", "iterations must be at least 1"))
		}
		for _, a := range b.TherapeuticActivities {
			if a.Name == "" {
				errs = append(errs, validationError("name", "activity name is required"))
			}
			if a.DayOfBlock < 1 || a.DayOfBlock > b.DurationDays {
				errs = append(errs, validationError("dayOfBlock", "day of block must fall inside the block duration"))
			}
		}
	}
	return errs
}

func (s *Service) invalidatePatientQueries() {
	s.cache.Invalidate("patients")
}

func (s *Service) invalidateTreatmentQueries(patientID string) {
	s.cache.Invalidate(querycache.TreatmentsByPatient(patientID))
	s.cache.Invalidate("patients")
}

func (s *Service) recordPatientOp(ctx context.Context, operation string) {
	if s.metrics != nil {
		s.metrics.RecordPatientOperation(ctx, operation)
	}
}

func (s *Service) recordTreatmentOp(ctx context.Context, operation string) {
	if s.metrics != nil {
		s.metrics.RecordTreatmentOperation(ctx, operation)
	}
}

func (s *Service) recordShareOp(ctx context.Context, operation string) {
	if s.metrics != nil {
		s.metrics.RecordShareOperation(ctx, operation)
	}
}

func (s *Service) publishPatient(ctx context.Context, routingKey string, data messaging.PatientEventData) {
	if s.events == nil {
		return
	}
	event := messaging.PatientEvent{BaseEvent: messaging.NewBaseEvent(routingKey), Data: data}
	if err := s.events.Publish(ctx, routingKey, event); err != nil {
		log.Warn().Err(err).Str("routing_key", routingKey).Msg("failed to publish patient event")
	}
}

func (s *Service) publishTreatment(ctx context.Context, routingKey string, data messaging.TreatmentEventData) {
	if s.events == nil {
		return
	}
	event := messaging.TreatmentEvent{BaseEvent: messaging.NewBaseEvent(routingKey), Data: data}
	if err := s.events.Publish(ctx, routingKey, event); err != nil {
		log.Warn().Err(err).Str("routing_key", routingKey).Msg("failed to publish treatment event")
	}
}

func (s *Service) publishShared(ctx context.Context, data messaging.PatientSharedEventData) {
	if s.events == nil {
		return
	}
	event := messaging.PatientSharedEvent{BaseEvent: messaging.NewBaseEvent(messaging.EventPatientShared), Data: data}
	if err := s.events.Publish(ctx, messaging.EventPatientShared, event); err != nil {
		log.Warn().Err(err).Str("routing_key", messaging.EventPatientShared).Msg("failed to publish share event")
	}
}
