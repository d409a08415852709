package treatment

import (
	"context"
	"errors"
	"testing"

	"github.com/visualcare-health/treatment-service/internal/querycache"
	"github.com/visualcare-health/treatment-service/internal/result"
)

// TestCreateTreatment_Success tests creation with cache and event side effects
func TestCreateTreatment_Success(t *testing.T) {
	mockRepo := &mockRepository{
		createTreatmentFunc: func(req CreateTreatmentRequest) result.Result[Treatment] {
			return result.Ok(Treatment{
				ID:           "7",
				PatientID:    req.PatientID,
				EyeCondition: req.EyeCondition,
				Name:         req.Name,
			})
		},
	}
	publisher := &mockPublisher{}
	cache := querycache.New()
	cache.Set(querycache.TreatmentsByPatient("42"), []Treatment{})
	cache.Set(querycache.PatientByID("42"), struct{}{})

	service := NewService(mockRepo, &mockBlockRepository{}, &mockActivityRepository{}, cache, publisher)

	res := service.CreateTreatment(context.Background(), CreateTreatmentRequest{
		PatientID:    "42",
		EyeCondition: "amblyopia",
		Name:         "Patching",
	})

	if !res.Ok() {
		t.Fatalf("Expected success, got: %v", res.Errors())
	}
	if res.Value().ID != "7" {
		t.Errorf("Expected treatment id '7', got '%s'", res.Value().ID)
	}
	if cache.Len() != 0 {
		t.Errorf("Expected treatment and patient queries invalidated, %d entries remain", cache.Len())
	}
	if len(publisher.published) != 1 || publisher.published[0] != "treatment.created" {
		t.Errorf("Expected treatment.created event, got %v", publisher.published)
	}
}

// TestCreateTreatment_CollectsAllValidationErrors tests multi-field validation
func TestCreateTreatment_CollectsAllValidationErrors(t *testing.T) {
	service := NewService(&mockRepository{}, &mockBlockRepository{}, &mockActivityRepository{}, querycache.New(), nil)

	res := service.CreateTreatment(context.Background(), CreateTreatmentRequest{})

	if res.Ok() {
		t.Fatal("Expected validation errors, got success")
	}
	if len(res.Errors()) != 3 {
		t.Errorf("Expected 3 validation errors, got %d: %v", len(res.Errors()), res.Errors())
	}
}

// TestListByPatient_CachesResult tests the read-through path
func TestListByPatient_CachesResult(t *testing.T) {
	calls := 0
	mockRepo := &mockRepository{
		listByPatientFunc: func(patientID string) result.Result[[]Treatment] {
			calls++
			return result.Ok([]Treatment{{ID: "7", PatientID: patientID}})
		},
	}

	service := NewService(mockRepo, &mockBlockRepository{}, &mockActivityRepository{}, querycache.New(), nil)

	for i := 0; i < 3; i++ {
		res := service.ListByPatient(context.Background(), "42")
		if !res.Ok() {
			t.Fatalf("Expected success, got: %v", res.Errors())
		}
		if len(res.Value()) != 1 {
			t.Fatalf("Expected 1 treatment, got %d", len(res.Value()))
		}
	}

	if calls != 1 {
		t.Errorf("Expected 1 repository call, got %d", calls)
	}
}

// TestUpdateTreatment_RequiresID tests the id guard
func TestUpdateTreatment_RequiresID(t *testing.T) {
	service := NewService(&mockRepository{}, &mockBlockRepository{}, &mockActivityRepository{}, querycache.New(), nil)

	res := service.UpdateTreatment(context.Background(), UpdateTreatmentRequest{})

	if res.Ok() {
		t.Fatal("Expected validation error, got success")
	}
	if !res.HasCode(result.CodeValidationError) {
		t.Errorf("Expected VALIDATION_ERROR, got %v", res.Errors())
	}
}

// TestUpdateTreatment_NotFound tests that a missing treatment surfaces untouched
func TestUpdateTreatment_NotFound(t *testing.T) {
	mockRepo := &mockRepository{
		updateTreatmentFunc: func(req UpdateTreatmentRequest) result.Result[Treatment] {
			return result.Errf[Treatment](result.CodeTreatmentNotFound, "treatment not found")
		},
	}
	publisher := &mockPublisher{}

	service := NewService(mockRepo, &mockBlockRepository{}, &mockActivityRepository{}, querycache.New(), publisher)

	res := service.UpdateTreatment(context.Background(), UpdateTreatmentRequest{ID: "7"})

	if res.Ok() {
		t.Fatal("Expected error result")
	}
	if !res.HasCode(result.CodeTreatmentNotFound) {
		t.Errorf("Expected TREATMENT_NOT_FOUND, got %v", res.Errors())
	}
	if len(publisher.published) != 0 {
		t.Errorf("Expected no events on failure, got %v", publisher.published)
	}
}

// TestDeleteTreatment_PublishesWithPatientID tests the fetch-before-delete path
func TestDeleteTreatment_PublishesWithPatientID(t *testing.T) {
	mockRepo := &mockRepository{
		getByIDFunc: func(id string) result.Result[Treatment] {
			return result.Ok(Treatment{ID: id, PatientID: "42"})
		},
		deleteFunc: func(id string) result.Result[result.Unit] {
			return result.Ok(result.Unit{})
		},
	}
	publisher := &mockPublisher{}
	cache := querycache.New()
	cache.Set(querycache.TreatmentsByPatient("42"), []Treatment{})

	service := NewService(mockRepo, &mockBlockRepository{}, &mockActivityRepository{}, cache, publisher)

	res := service.DeleteTreatment(context.Background(), "7")

	if !res.Ok() {
		t.Fatalf("Expected success, got: %v", res.Errors())
	}
	if cache.Len() != 0 {
		t.Errorf("Expected treatment queries invalidated, %d entries remain", cache.Len())
	}
	if len(publisher.published) != 1 || publisher.published[0] != "treatment.deleted" {
		t.Errorf("Expected treatment.deleted event, got %v", publisher.published)
	}
}

// TestCreateTreatmentBlock_Validation tests date and bound checks
func TestCreateTreatmentBlock_Validation(t *testing.T) {
	service := NewService(&mockRepository{}, &mockBlockRepository{}, &mockActivityRepository{}, querycache.New(), nil)

	testCases := []struct {
		name string
		req  CreateTreatmentBlockRequest
	}{
		{
			name: "Bad date format",
			req:  CreateTreatmentBlockRequest{TreatmentID: "7", BeginningDate: "05-01-2026", DurationDays: 7, Iterations: 4},
		},
		{
			name: "Zero duration",
			req:  CreateTreatmentBlockRequest{TreatmentID: "7", BeginningDate: "2026-01-05", DurationDays: 0, Iterations: 4},
		},
		{
			name: "Zero iterations",
			req:  CreateTreatmentBlockRequest{TreatmentID: "7", BeginningDate: "2026-01-05", DurationDays: 7, Iterations: 0},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := service.CreateTreatmentBlock(context.Background(), tc.req)

			if res.Ok() {
				t.Fatal("Expected validation error, got success")
			}
			if !res.HasCode(result.CodeValidationError) {
				t.Errorf("Expected VALIDATION_ERROR, got %v", res.Errors())
			}
		})
	}
}

// TestCreateTreatmentBlock_WeeklyForAYear tests the common 7-day/365-iteration schedule
func TestCreateTreatmentBlock_WeeklyForAYear(t *testing.T) {
	mockBlocks := &mockBlockRepository{
		createBlockFunc: func(req CreateTreatmentBlockRequest) result.Result[TreatmentBlock] {
			return result.Ok(TreatmentBlock{
				ID:            "3",
				TreatmentID:   req.TreatmentID,
				BeginningDate: req.BeginningDate,
				DurationDays:  req.DurationDays,
				Iterations:    req.Iterations,
			})
		},
	}

	service := NewService(&mockRepository{}, mockBlocks, &mockActivityRepository{}, querycache.New(), nil)

	res := service.CreateTreatmentBlock(context.Background(), CreateTreatmentBlockRequest{
		TreatmentID:   "7",
		BeginningDate: "2026-01-05",
		DurationDays:  7,
		Iterations:    365,
	})

	if !res.Ok() {
		t.Fatalf("Expected success, got: %v", res.Errors())
	}
	if res.Value().DurationDays != 7 || res.Value().Iterations != 365 {
		t.Errorf("Expected 7/365 schedule preserved, got %d/%d", res.Value().DurationDays, res.Value().Iterations)
	}
}

// TestCreateActivity_DayBeyondBlockDuration tests the cross-entity bound check
func TestCreateActivity_DayBeyondBlockDuration(t *testing.T) {
	mockBlocks := &mockBlockRepository{
		getByIDFunc: func(id string) result.Result[TreatmentBlock] {
			return result.Ok(TreatmentBlock{ID: id, DurationDays: 7})
		},
	}

	service := NewService(&mockRepository{}, mockBlocks, &mockActivityRepository{}, querycache.New(), nil)

	res := service.CreateActivity(context.Background(), CreateActivityRequest{
		TreatmentBlockID: "3",
		Name:             "Eye patch",
		DayOfBlock:       9,
		BeginningHour:    "10:00",
		EndHour:          "11:00",
	})

	if res.Ok() {
		t.Fatal("Expected validation error for day beyond block duration")
	}
	if !res.HasCode(result.CodeValidationError) {
		t.Errorf("Expected VALIDATION_ERROR, got %v", res.Errors())
	}
}

// TestCreateActivity_Success tests creation inside the block window
func TestCreateActivity_Success(t *testing.T) {
	mockBlocks := &mockBlockRepository{
		getByIDFunc: func(id string) result.Result[TreatmentBlock] {
			return result.Ok(TreatmentBlock{ID: id, DurationDays: 7})
		},
	}
	mockActivities := &mockActivityRepository{
		createActivityFunc: func(req CreateActivityRequest) result.Result[TherapeuticActivity] {
			return result.Ok(TherapeuticActivity{
				ID:               "9",
				TreatmentBlockID: req.TreatmentBlockID,
				Name:             req.Name,
				DayOfBlock:       req.DayOfBlock,
				BeginningHour:    req.BeginningHour,
				EndHour:          req.EndHour,
			})
		},
	}
	cache := querycache.New()
	cache.Set(querycache.TreatmentsByPatient("42"), []Treatment{})

	service := NewService(&mockRepository{}, mockBlocks, mockActivities, cache, nil)

	res := service.CreateActivity(context.Background(), CreateActivityRequest{
		TreatmentBlockID: "3",
		Name:             "Eye patch",
		DayOfBlock:       3,
		BeginningHour:    "10:00",
		EndHour:          "11:00",
	})

	if !res.Ok() {
		t.Fatalf("Expected success, got: %v", res.Errors())
	}
	if res.Value().ID != "9" {
		t.Errorf("Expected activity id '9', got '%s'", res.Value().ID)
	}
	if cache.Len() != 0 {
		t.Errorf("Expected treatment queries invalidated, %d entries remain", cache.Len())
	}
}

// TestUpdateActivity_HourFormat tests the HH:mm guard on partial patches
func TestUpdateActivity_HourFormat(t *testing.T) {
	service := NewService(&mockRepository{}, &mockBlockRepository{}, &mockActivityRepository{}, querycache.New(), nil)

	badHour := "25:70"
	res := service.UpdateActivity(context.Background(), UpdateActivityRequest{ID: "9", BeginningHour: &badHour})

	if res.Ok() {
		t.Fatal("Expected validation error, got success")
	}
	if !res.HasCode(result.CodeValidationError) {
		t.Errorf("Expected VALIDATION_ERROR, got %v", res.Errors())
	}
}

// Mock implementations

type mockRepository struct {
	addFunc             func(t Treatment) result.Result[result.Unit]
	listByPatientFunc   func(patientID string) result.Result[[]Treatment]
	updateFunc          func(t Treatment) result.Result[result.Unit]
	deleteFunc          func(id string) result.Result[result.Unit]
	getByIDFunc         func(id string) result.Result[Treatment]
	createTreatmentFunc func(req CreateTreatmentRequest) result.Result[Treatment]
	updateTreatmentFunc func(req UpdateTreatmentRequest) result.Result[Treatment]
}

func notImplemented[T any]() result.Result[T] {
	return result.Unexpected[T](errors.New("not implemented"))
}

func (m *mockRepository) Add(ctx context.Context, t Treatment) result.Result[result.Unit] {
	if m.addFunc != nil {
		return m.addFunc(t)
	}
	return notImplemented[result.Unit]()
}

func (m *mockRepository) ListByPatient(ctx context.Context, patientID string) result.Result[[]Treatment] {
	if m.listByPatientFunc != nil {
		return m.listByPatientFunc(patientID)
	}
	return notImplemented[[]Treatment]()
}

func (m *mockRepository) Update(ctx context.Context, t Treatment) result.Result[result.Unit] {
	if m.updateFunc != nil {
		return m.updateFunc(t)
	}
	return notImplemented[result.Unit]()
}

func (m *mockRepository) Delete(ctx context.Context, id string) result.Result[result.Unit] {
	if m.deleteFunc != nil {
		return m.deleteFunc(id)
	}
	return notImplemented[result.Unit]()
}

func (m *mockRepository) GetByID(ctx context.Context, id string) result.Result[Treatment] {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(id)
	}
	return notImplemented[Treatment]()
}

func (m *mockRepository) CreateTreatment(ctx context.Context, req CreateTreatmentRequest) result.Result[Treatment] {
	if m.createTreatmentFunc != nil {
		return m.createTreatmentFunc(req)
	}
	return notImplemented[Treatment]()
}

func (m *mockRepository) UpdateTreatment(ctx context.Context, req UpdateTreatmentRequest) result.Result[Treatment] {
	if m.updateTreatmentFunc != nil {
		return m.updateTreatmentFunc(req)
	}
	return notImplemented[Treatment]()
}

type mockBlockRepository struct {
	addFunc             func(b TreatmentBlock) result.Result[result.Unit]
	listByTreatmentFunc func(treatmentID string) result.Result[[]TreatmentBlock]
	updateFunc          func(b TreatmentBlock) result.Result[result.Unit]
	deleteFunc          func(id string) result.Result[result.Unit]
	getByIDFunc         func(id string) result.Result[TreatmentBlock]
	createBlockFunc     func(req CreateTreatmentBlockRequest) result.Result[TreatmentBlock]
	updateBlockFunc     func(req UpdateTreatmentBlockRequest) result.Result[TreatmentBlock]
}

func (m *mockBlockRepository) Add(ctx context.Context, b TreatmentBlock) result.Result[result.Unit] {
	if m.addFunc != nil {
		return m.addFunc(b)
	}
	return notImplemented[result.Unit]()
}

func (m *mockBlockRepository) ListByTreatment(ctx context.Context, treatmentID string) result.Result[[]TreatmentBlock] {
	if m.listByTreatmentFunc != nil {
		return m.listByTreatmentFunc(treatmentID)
	}
	return notImplemented[[]TreatmentBlock]()
}

func (m *mockBlockRepository) Update(ctx context.Context, b TreatmentBlock) result.Result[result.Unit] {
	if m.updateFunc != nil {
		return m.updateFunc(b)
	}
	return notImplemented[result.Unit]()
}

func (m *mockBlockRepository) Delete(ctx context.Context, id string) result.Result[result.Unit] {
	if m.deleteFunc != nil {
		return m.deleteFunc(id)
	}
	return notImplemented[result.Unit]()
}

func (m *mockBlockRepository) GetByID(ctx context.Context, id string) result.Result[TreatmentBlock] {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(id)
	}
	return notImplemented[TreatmentBlock]()
}

func (m *mockBlockRepository) CreateTreatmentBlock(ctx context.Context, req CreateTreatmentBlockRequest) result.Result[TreatmentBlock] {
	if m.createBlockFunc != nil {
		return m.createBlockFunc(req)
	}
	return notImplemented[TreatmentBlock]()
}

func (m *mockBlockRepository) UpdateTreatmentBlock(ctx context.Context, req UpdateTreatmentBlockRequest) result.Result[TreatmentBlock] {
	if m.updateBlockFunc != nil {
		return m.updateBlockFunc(req)
	}
	return notImplemented[TreatmentBlock]()
}

type mockActivityRepository struct {
	addFunc            func(a TherapeuticActivity) result.Result[result.Unit]
	listByBlockFunc    func(blockID string) result.Result[[]TherapeuticActivity]
	updateFunc         func(a TherapeuticActivity) result.Result[result.Unit]
	deleteFunc         func(id string) result.Result[result.Unit]
	getByIDFunc        func(id string) result.Result[TherapeuticActivity]
	createActivityFunc func(req CreateActivityRequest) result.Result[TherapeuticActivity]
	updateActivityFunc func(req UpdateActivityRequest) result.Result[TherapeuticActivity]
}

func (m *mockActivityRepository) Add(ctx context.Context, a TherapeuticActivity) result.Result[result.Unit] {
	if m.addFunc != nil {
		return m.addFunc(a)
	}
	return notImplemented[result.Unit]()
}

func (m *mockActivityRepository) ListByTreatmentBlock(ctx context.Context, blockID string) result.Result[[]TherapeuticActivity] {
	if m.listByBlockFunc != nil {
		return m.listByBlockFunc(blockID)
	}
	return notImplemented[[]TherapeuticActivity]()
}

func (m *mockActivityRepository) Update(ctx context.Context, a TherapeuticActivity) result.Result[result.Unit] {
	if m.updateFunc != nil {
		return m.updateFunc(a)
	}
	return notImplemented[result.Unit]()
}

func (m *mockActivityRepository) Delete(ctx context.Context, id string) result.Result[result.Unit] {
	if m.deleteFunc != nil {
		return m.deleteFunc(id)
	}
	return notImplemented[result.Unit]()
}

func (m *mockActivityRepository) GetByID(ctx context.Context, id string) result.Result[TherapeuticActivity] {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(id)
	}
	return notImplemented[TherapeuticActivity]()
}

func (m *mockActivityRepository) CreateActivity(ctx context.Context, req CreateActivityRequest) result.Result[TherapeuticActivity] {
	if m.createActivityFunc != nil {
		return m.createActivityFunc(req)
	}
	return notImplemented[TherapeuticActivity]()
}

func (m *mockActivityRepository) UpdateActivity(ctx context.Context, req UpdateActivityRequest) result.Result[TherapeuticActivity] {
	if m.updateActivityFunc != nil {
		return m.updateActivityFunc(req)
	}
	return notImplemented[TherapeuticActivity]()
}

type mockPublisher struct {
	published []string
}

func (m *mockPublisher) Publish(ctx context.Context, routingKey string, eventData interface{}) error {
	m.published = append(m.published, routingKey)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

// TestWithMetrics_CountsTreatmentOperations tests the wired treatment counter
func TestWithMetrics_CountsTreatmentOperations(t *testing.T) {
	mockRepo := &mockRepository{
		createTreatmentFunc: func(req CreateTreatmentRequest) result.Result[Treatment] {
			return result.Ok(Treatment{ID: "7", PatientID: req.PatientID})
		},
		deleteFunc: func(id string) result.Result[result.Unit] {
			return result.Errf[result.Unit](result.CodeTreatmentNotFound, "treatment not found")
		},
		getByIDFunc: func(id string) result.Result[Treatment] {
			return result.Ok(Treatment{ID: id, PatientID: "42"})
		},
	}
	metrics := &mockMetrics{}
	service := NewService(mockRepo, &mockBlockRepository{}, &mockActivityRepository{}, querycache.New(), nil).WithMetrics(metrics)

	service.CreateTreatment(context.Background(), CreateTreatmentRequest{
		PatientID:    "42",
		EyeCondition: "amblyopia",
		Name:         "Patching",
	})
	service.DeleteTreatment(context.Background(), "404")

	if len(metrics.ops) != 1 || metrics.ops[0] != "create" {
		t.Errorf("Expected only the successful create counted, got %v", metrics.ops)
	}
}

type mockMetrics struct {
	ops []string
}

func (m *mockMetrics) RecordTreatmentOperation(ctx context.Context, operation string) {
	m.ops = append(m.ops, operation)
}
