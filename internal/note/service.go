package note

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/visualcare-health/treatment-service/internal/messaging"
	"github.com/visualcare-health/treatment-service/internal/pagination"
	"github.com/visualcare-health/treatment-service/internal/querycache"
	"github.com/visualcare-health/treatment-service/internal/result"
)

// MetricsRecorder counts successful note operations.
type MetricsRecorder interface {
	RecordNoteOperation(ctx context.Context, operation string)
}

// Service validates note requests and keeps the per-association query cache
// in sync.
type Service struct {
	repo    RepositoryInterface
	cache   *querycache.Cache
	events  messaging.PublisherInterface
	metrics MetricsRecorder
}

func NewService(repo RepositoryInterface, cache *querycache.Cache, events messaging.PublisherInterface) *Service {
	return &Service{repo: repo, cache: cache, events: events}
}

// WithMetrics attaches a recorder for the note counter.
func (s *Service) WithMetrics(metrics MetricsRecorder) *Service {
	s.metrics = metrics
	return s
}

func validationError(field, message string) result.DomainError {
	return result.DomainError{Code: result.CodeValidationError, Field: field, Message: message}
}

func (s *Service) CreateNote(ctx context.Context, req CreateNoteRequest) result.Result[Note] {
	var errs []result.DomainError
	if req.UserPatientID == "" {
		errs = append(errs, validationError("userPatientId", "association id is required"))
	}
	if req.Title == "" {
		errs = append(errs, validationError("title", "title is required"))
	}
	if len(errs) > 0 {
		return result.Err[Note](errs...)
	}

	res := s.repo.Add(ctx, req)
	if !res.Ok() {
		return res
	}

	s.cache.Invalidate(querycache.NotesByAssociation(req.UserPatientID))
	s.recordOp(ctx, "create")
	s.publish(ctx, messaging.NoteEventData{
		NoteID:        res.Value().ID,
		UserPatientID: res.Value().UserPatientID,
	})

	return res
}

// ListByAssociation returns one page of an association's notes, newest first.
func (s *Service) ListByAssociation(ctx context.Context, userPatientID string, params pagination.Params) result.Result[PagedNotes] {
	params.Validate()

	key := querycache.NotesByAssociation(userPatientID)
	notes, ok := querycache.Lookup[[]Note](s.cache, key)
	if !ok {
		res := s.repo.ListByAssociation(ctx, userPatientID)
		if !res.Ok() {
			return result.ErrFrom[PagedNotes](res)
		}
		notes = res.Value()
		s.cache.Set(key, notes)
	}

	page, meta := pagination.Apply(notes, params)
	return result.Ok(PagedNotes{Notes: page, Pagination: meta})
}

func (s *Service) GetNoteByID(ctx context.Context, id string) result.Result[Note] {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateNote(ctx context.Context, req UpdateNoteRequest) result.Result[Note] {
	var errs []result.DomainError
	if req.ID == "" {
		errs = append(errs, validationError("id", "note id is required"))
	}
	if req.Title != nil && *req.Title == "" {
		errs = append(errs, validationError("title", "title cannot be empty"))
	}
	if len(errs) > 0 {
		return result.Err[Note](errs...)
	}

	res := s.repo.Update(ctx, req)
	if res.Ok() {
		s.cache.Invalidate(querycache.NotesByAssociation(res.Value().UserPatientID))
		s.recordOp(ctx, "update")
	}
	return res
}

func (s *Service) DeleteNote(ctx context.Context, id string) result.Result[result.Unit] {
	existing := s.repo.GetByID(ctx, id)
	if !existing.Ok() {
		return result.ErrFrom[result.Unit](existing)
	}

	res := s.repo.Delete(ctx, id)
	if res.Ok() {
		s.cache.Invalidate(querycache.NotesByAssociation(existing.Value().UserPatientID))
		s.recordOp(ctx, "delete")
	}
	return res
}

// PagedNotes is one page of an association's notes.
type PagedNotes struct {
	Notes      []Note          `json:"notes"`
	Pagination pagination.Meta `json:"pagination"`
}

func (s *Service) recordOp(ctx context.Context, operation string) {
	if s.metrics != nil {
		s.metrics.RecordNoteOperation(ctx, operation)
	}
}

func (s *Service) publish(ctx context.Context, data messaging.NoteEventData) {
	if s.events == nil {
		return
	}
	event := messaging.NoteEvent{BaseEvent: messaging.NewBaseEvent(messaging.EventNoteCreated), Data: data}
	if err := s.events.Publish(ctx, messaging.EventNoteCreated, event); err != nil {
		log.Warn().Err(err).Str("routing_key", messaging.EventNoteCreated).Msg("failed to publish note event")
	}
}
