package treatment

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/visualcare-health/treatment-service/internal/messaging"
	"github.com/visualcare-health/treatment-service/internal/querycache"
	"github.com/visualcare-health/treatment-service/internal/result"
)

// MetricsRecorder counts successful treatment operations.
type MetricsRecorder interface {
	RecordTreatmentOperation(ctx context.Context, operation string)
}

// Service validates requests, delegates to the repositories and keeps the
// query cache and event stream in sync. Cache invalidation is
// discard-and-refetch; events are fire-and-forget.
type Service struct {
	repo       RepositoryInterface
	blocks     BlockRepositoryInterface
	activities ActivityRepositoryInterface
	cache      *querycache.Cache
	events     messaging.PublisherInterface
	metrics    MetricsRecorder
}

func NewService(
	repo RepositoryInterface,
	blocks BlockRepositoryInterface,
	activities ActivityRepositoryInterface,
	cache *querycache.Cache,
	events messaging.PublisherInterface,
) *Service {
	return &Service{
		repo:       repo,
		blocks:     blocks,
		activities: activities,
		cache:      cache,
		events:     events,
	}
}

// WithMetrics attaches a recorder for the treatment counter.
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

func validHour(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

func (s *Service) CreateTreatment(ctx context.Context, req CreateTreatmentRequest) result.Result[Treatment] {
	var errs []result.DomainError
	if req.PatientID == "" {
		errs = append(errs, validationError("patientId", "patient id is required"))
	}
	if req.EyeCondition == "" {
		errs = append(errs, validationError("eyeCondition", "eye condition is required"))
	}
	if req.Name == "" {
		errs = append(errs, validationError("name", "name is required"))
	}
	if len(errs) > 0 {
		return result.Err[Treatment](errs...)
	}

	res := s.repo.CreateTreatment(ctx, req)
	if !res.Ok() {
		return res
	}

	s.invalidateTreatmentQueries(req.PatientID)
	s.recordOp(ctx, "create")
	s.publish(ctx, messaging.EventTreatmentCreated, messaging.TreatmentEventData{
		TreatmentID:  res.Value().ID,
		PatientID:    res.Value().PatientID,
		EyeCondition: res.Value().EyeCondition,
		Name:         res.Value().Name,
	})

	return res
}

func (s *Service) ListByPatient(ctx context.Context, patientID string) result.Result[[]Treatment] {
	key := querycache.TreatmentsByPatient(patientID)
	if cached, ok := querycache.Lookup[[]Treatment](s.cache, key); ok {
		return result.Ok(cached)
	}

	res := s.repo.ListByPatient(ctx, patientID)
	if res.Ok() {
		s.cache.Set(key, res.Value())
	}
	return res
}

func (s *Service) GetByID(ctx context.Context, id string) result.Result[Treatment] {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateTreatment(ctx context.Context, req UpdateTreatmentRequest) result.Result[Treatment] {
	if req.ID == "" {
		return result.Err[Treatment](validationError("id", "treatment id is required"))
	}

	res := s.repo.UpdateTreatment(ctx, req)
	if !res.Ok() {
		return res
	}

	s.invalidateTreatmentQueries(res.Value().PatientID)
	s.recordOp(ctx, "update")
	s.publish(ctx, messaging.EventTreatmentUpdated, messaging.TreatmentEventData{
		TreatmentID:  res.Value().ID,
		PatientID:    res.Value().PatientID,
		EyeCondition: res.Value().EyeCondition,
		Name:         res.Value().Name,
	})

	return res
}

func (s *Service) DeleteTreatment(ctx context.Context, id string) result.Result[result.Unit] {
	existing := s.repo.GetByID(ctx, id)
	if !existing.Ok() {
		return result.ErrFrom[result.Unit](existing)
	}

	res := s.repo.Delete(ctx, id)
	if !res.Ok() {
		return res
	}

	s.invalidateTreatmentQueries(existing.Value().PatientID)
	s.recordOp(ctx, "delete")
	s.publish(ctx, messaging.EventTreatmentDeleted, messaging.TreatmentEventData{
		TreatmentID: id,
		PatientID:   existing.Value().PatientID,
	})

	return res
}

func (s *Service) CreateTreatmentBlock(ctx context.Context, req CreateTreatmentBlockRequest) result.Result[TreatmentBlock] {
	var errs []result.DomainError
	if req.TreatmentID == "" {
		errs = append(errs, validationError("treatmentId", "treatment id is required"))
	}
	if !validDate(req.BeginningDate) {
		errs = append(errs, validationError("beginningDate", "beginning date must be YYYY-MM-DD"))
	}
	if req.DurationDays < 1 {
		errs = append(errs, validationError("durationDays", "duration must be at least 1 day"))
	}
	if req.Iterations < 1 {
		errs = append(errs, validationError("iterations", "iterations must be at least 1"))
	}
	if len(errs) > 0 {
		return result.Err[TreatmentBlock](errs...)
	}

	res := s.blocks.CreateTreatmentBlock(ctx, req)
	if res.Ok() {
		s.cache.Invalidate("treatments")
		s.cache.Invalidate("patients")
	}
	return res
}

func (s *Service) ListBlocksByTreatment(ctx context.Context, treatmentID string) result.Result[[]TreatmentBlock] {
	return s.blocks.ListByTreatment(ctx, treatmentID)
}

func (s *Service) GetBlockByID(ctx context.Context, id string) result.Result[TreatmentBlock] {
	return s.blocks.GetByID(ctx, id)
}

func (s *Service) UpdateTreatmentBlock(ctx context.Context, req UpdateTreatmentBlockRequest) result.Result[TreatmentBlock] {
	var errs []result.DomainError
	if req.ID == "" {
		errs = append(errs, validationError("id", "treatment block id is required"))
	}
	if req.BeginningDate != nil && !validDate(*req.BeginningDate) {
		errs = append(errs, validationError("beginningDate", "beginning date must be YYYY-MM-DD"))
	}
	if req.DurationDays != nil && *req.DurationDays < 1 {
		errs = append(errs, validationError("durationDays", "duration must be at least 1 day"))
	}
	if req.Iterations != nil && *req.Iterations < 1 {
		errs = append(errs, validationError("iterations", "iterations must be at least 1"))
	}
	if len(errs) > 0 {
		return result.Err[TreatmentBlock](errs...)
	}

	res := s.blocks.UpdateTreatmentBlock(ctx, req)
	if res.Ok() {
		s.cache.Invalidate("treatments")
		s.cache.Invalidate("patients")
	}
	return res
}

func (s *Service) DeleteTreatmentBlock(ctx context.Context, id string) result.Result[result.Unit] {
	res := s.blocks.Delete(ctx, id)
	if res.Ok() {
		s.cache.Invalidate("treatments")
		s.cache.Invalidate("patients")
	}
	return res
}

func (s *Service) CreateActivity(ctx context.Context, req CreateActivityRequest) result.Result[TherapeuticActivity] {
	var errs []result.DomainError
	if req.TreatmentBlockID == "" {
		errs = append(errs, validationError("treatmentBlockId", "treatment block id is required"))
	}
	if req.Name == "" {
		errs = append(errs, validationError("name", "name is required"))
	}
	if req.DayOfBlock < 1 {
		errs = append(errs, validationError("dayOfBlock", "day of block must be at least 1"))
	}
	if !validHour(req.BeginningHour) {
		errs = append(errs, validationError("beginningHour", "beginning hour must be HH:mm"))
	}
	if !validHour(req.EndHour) {
		errs = append(errs, validationError("endHour", "end hour must be HH:mm"))
	}
	if len(errs) > 0 {
		return result.Err[TherapeuticActivity](errs...)
	}

	// The day offset must fit inside the owning block's window. This check
	// mirrors form validation; the store itself does not enforce it.
	if block := s.blocks.GetByID(ctx, req.TreatmentBlockID); block.Ok() && req.DayOfBlock > block.Value().DurationDays {
		return result.Err[TherapeuticActivity](
			validationError("dayOfBlock", "day of block exceeds the block duration"))
	}

	res := s.activities.CreateActivity(ctx, req)
	if res.Ok() {
		s.cache.Invalidate("treatments")
		s.cache.Invalidate("patients")
	}
	return res
}

func (s *Service) ListActivitiesByBlock(ctx context.Context, blockID string) result.Result[[]TherapeuticActivity] {
	return s.activities.ListByTreatmentBlock(ctx, blockID)
}

func (s *Service) GetActivityByID(ctx context.Context, id string) result.Result[TherapeuticActivity] {
	return s.activities.GetByID(ctx, id)
}

func (s *Service) UpdateActivity(ctx context.Context, req UpdateActivityRequest) result.Result[TherapeuticActivity] {
	var errs []result.DomainError
	if req.ID == "" {
		errs = append(errs, validationError("id", "activity id is required"))
	}
	if req.DayOfBlock != nil && *req.DayOfBlock < 1 {
		errs = append(errs, validationError("dayOfBlock", "day of block must be at least 1"))
	}
	if req.BeginningHour != nil && !validHour(*req.BeginningHour) {
		errs = append(errs, validationError("beginningHour", "beginning hour must be HH:mm"))
	}
	if req.EndHour != nil && !validHour(*req.EndHour) {
		errs = append(errs, validationError("endHour", "end hour must be HH:mm"))
	}
	if len(errs) > 0 {
		return result.Err[TherapeuticActivity](errs...)
	}

	res := s.activities.UpdateActivity(ctx, req)
	if res.Ok() {
		s.cache.Invalidate("treatments")
		s.cache.Invalidate("patients")
	}
	return res
}

func (s *Service) DeleteActivity(ctx context.Context, id string) result.Result[result.Unit] {
	res := s.activities.Delete(ctx, id)
	if res.Ok() {
		s.cache.Invalidate("treatments")
		s.cache.Invalidate("patients")
	}
	return res
}

func (s *Service) invalidateTreatmentQueries(patientID string) {
	s.cache.Invalidate(querycache.TreatmentsByPatient(patientID))
	// Composite patient reads embed treatments, so the patient group goes too.
	s.cache.Invalidate("patients")
}

func (s *Service) recordOp(ctx context.Context, operation string) {
	if s.metrics != nil {
		s.metrics.RecordTreatmentOperation(ctx, operation)
	}
}

func (s *Service) publish(ctx context.Context, routingKey string, data messaging.TreatmentEventData) {
	if s.events == nil {
		return
	}
	event := messaging.TreatmentEvent{
		BaseEvent: messaging.NewBaseEvent(routingKey),
		Data:      data,
	}
	if err := s.events.Publish(ctx, routingKey, event); err != nil {
		log.Warn().Err(err).Str("routing_key", routingKey).Msg("failed to publish treatment event")
	}
}
