package patient

import (
	"context"
	"errors"
	"testing"

	"github.com/visualcare-health/treatment-service/internal/querycache"
	"github.com/visualcare-health/treatment-service/internal/result"
	"github.com/visualcare-health/treatment-service/internal/treatment"
)

// TestCreatePatient_Success tests patient creation with event and cache side effects
func TestCreatePatient_Success(t *testing.T) {
	mockRepo := &mockRepository{
		createPatientFunc: func(req CreatePatientRequest, userID string) result.Result[Patient] {
			return result.Ok(Patient{ID: "1", FullName: req.FullName, DateOfBirth: req.DateOfBirth})
		},
	}
	publisher := &mockPublisher{}
	cache := querycache.New()
	cache.Set(querycache.PatientsAll(), []Patient{})

	service := NewService(mockRepo, cache, publisher)

	res := service.CreatePatient(context.Background(), CreatePatientRequest{
		FullName:    "Ana Garcia",
		DateOfBirth: "2015-06-01",
	}, "tutor-7")

	if !res.Ok() {
		t.Fatalf("Expected success, got: %v", res.Errors())
	}
	if res.Value().FullName != "Ana Garcia" {
		t.Errorf("Expected full name 'Ana Garcia', got '%s'", res.Value().FullName)
	}
	if cache.Len() != 0 {
		t.Errorf("Expected patient queries invalidated, %d entries remain", cache.Len())
	}
	if len(publisher.published) != 1 || publisher.published[0] != "patient.created" {
		t.Errorf("Expected patient.created event, got %v", publisher.published)
	}
}

// TestCreatePatient_ValidationErrors tests required and format validation
func TestCreatePatient_ValidationErrors(t *testing.T) {
	service := NewService(&mockRepository{}, querycache.New(), nil)

	testCases := []struct {
		name  string
		req   CreatePatientRequest
		field string
	}{
		{name: "Missing full name", req: CreatePatientRequest{DateOfBirth: "2015-06-01"}, field: "fullName"},
		{name: "Bad date of birth", req: CreatePatientRequest{FullName: "Ana", DateOfBirth: "01/06/2015"}, field: "dateOfBirth"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := service.CreatePatient(context.Background(), tc.req, "tutor-7")

			if res.Ok() {
				t.Fatal("Expected validation error, got success")
			}
			if !res.HasCode(result.CodeValidationError) {
				t.Errorf("Expected VALIDATION_ERROR, got %v", res.Errors())
			}
			if res.Errors()[0].Field != tc.field {
				t.Errorf("Expected field '%s', got '%s'", tc.field, res.Errors()[0].Field)
			}
		})
	}
}

// TestGetPatientByID_CachesResult tests the read-through path
func TestGetPatientByID_CachesResult(t *testing.T) {
	calls := 0
	mockRepo := &mockRepository{
		getPatientByIDFunc: func(id string) result.Result[Patient] {
			calls++
			return result.Ok(Patient{ID: id, FullName: "Ana Garcia", Treatments: []treatment.Treatment{}})
		},
	}

	service := NewService(mockRepo, querycache.New(), nil)

	for i := 0; i < 3; i++ {
		res := service.GetPatientByID(context.Background(), "42")
		if !res.Ok() {
			t.Fatalf("Expected success, got: %v", res.Errors())
		}
	}

	if calls != 1 {
		t.Errorf("Expected 1 repository call, got %d", calls)
	}
}

// TestGetPatientByID_ErrorNotCached tests that failures are never cached
func TestGetPatientByID_ErrorNotCached(t *testing.T) {
	calls := 0
	mockRepo := &mockRepository{
		getPatientByIDFunc: func(id string) result.Result[Patient] {
			calls++
			return result.Errf[Patient](result.CodePatientNotFound, "patient not found")
		},
	}

	service := NewService(mockRepo, querycache.New(), nil)

	service.GetPatientByID(context.Background(), "42")
	res := service.GetPatientByID(context.Background(), "42")

	if res.Ok() {
		t.Fatal("Expected error result")
	}
	if calls != 2 {
		t.Errorf("Expected 2 repository calls, got %d", calls)
	}
}

// TestGetPatientsList_FilteredBypassesCache tests that only the full listing is cached
func TestGetPatientsList_FilteredBypassesCache(t *testing.T) {
	calls := 0
	mockRepo := &mockRepository{
		getPatientsListFunc: func(ids []string) result.Result[[]Patient] {
			calls++
			return result.Ok([]Patient{})
		},
	}

	service := NewService(mockRepo, querycache.New(), nil)

	service.GetPatientsList(context.Background(), []string{"1", "2"})
	service.GetPatientsList(context.Background(), []string{"1", "2"})
	if calls != 2 {
		t.Errorf("Expected filtered reads to bypass the cache, got %d calls", calls)
	}

	service.GetPatientsList(context.Background(), nil)
	service.GetPatientsList(context.Background(), nil)
	if calls != 3 {
		t.Errorf("Expected the unfiltered listing to be cached, got %d calls", calls)
	}
}

// TestUpdatePatient_InvalidatesPatientQueries tests invalidation of the patients group
func TestUpdatePatient_InvalidatesPatientQueries(t *testing.T) {
	name := "Ana Garcia"
	mockRepo := &mockRepository{
		updatePatientFunc: func(req UpdatePatientRequest) result.Result[Patient] {
			return result.Ok(Patient{ID: req.ID, FullName: *req.FullName})
		},
	}
	cache := querycache.New()
	cache.Set(querycache.PatientByID("42"), Patient{ID: "42"})
	cache.Set(querycache.TreatmentsByPatient("42"), []treatment.Treatment{})

	service := NewService(mockRepo, cache, nil)

	res := service.UpdatePatient(context.Background(), UpdatePatientRequest{ID: "42", FullName: &name})

	if !res.Ok() {
		t.Fatalf("Expected success, got: %v", res.Errors())
	}
	if _, ok := cache.Get(querycache.PatientByID("42")); ok {
		t.Error("Expected patient entry to be invalidated")
	}
	if _, ok := cache.Get(querycache.TreatmentsByPatient("42")); !ok {
		t.Error("Expected treatment entry to survive a patient-only update")
	}
}

// TestDeletePatient_NotFound tests that a missing patient surfaces as PATIENT_NOT_FOUND
func TestDeletePatient_NotFound(t *testing.T) {
	mockRepo := &mockRepository{
		deletePatientFunc: func(id string) result.Result[result.Unit] {
			return result.Errf[result.Unit](result.CodePatientNotFound, "patient not found")
		},
	}
	publisher := &mockPublisher{}

	service := NewService(mockRepo, querycache.New(), publisher)

	res := service.DeletePatient(context.Background(), "42")

	if res.Ok() {
		t.Fatal("Expected error result")
	}
	if !res.HasCode(result.CodePatientNotFound) {
		t.Errorf("Expected PATIENT_NOT_FOUND, got %v", res.Errors())
	}
	if len(publisher.published) != 0 {
		t.Errorf("Expected no events on failure, got %v", publisher.published)
	}
}

// TestDeletePatient_Success tests event and cascade cache invalidation
func TestDeletePatient_Success(t *testing.T) {
	mockRepo := &mockRepository{
		deletePatientFunc: func(id string) result.Result[result.Unit] {
			return result.Ok(result.Unit{})
		},
	}
	publisher := &mockPublisher{}
	cache := querycache.New()
	cache.Set(querycache.PatientsAll(), []Patient{})
	cache.Set(querycache.TreatmentsByPatient("42"), []treatment.Treatment{})

	service := NewService(mockRepo, cache, publisher)

	res := service.DeletePatient(context.Background(), "42")

	if !res.Ok() {
		t.Fatalf("Expected success, got: %v", res.Errors())
	}
	if cache.Len() != 0 {
		t.Errorf("Expected patient and treatment queries invalidated, %d entries remain", cache.Len())
	}
	if len(publisher.published) != 1 || publisher.published[0] != "patient.deleted" {
		t.Errorf("Expected patient.deleted event, got %v", publisher.published)
	}
}

// TestAddFullTreatment_ValidatesNestedStructure tests block and activity validation
func TestAddFullTreatment_ValidatesNestedStructure(t *testing.T) {
	service := NewService(&mockRepository{}, querycache.New(), nil)

	tr := treatment.Treatment{
		EyeCondition: "amblyopia",
		Name:         "Patching",
		TreatmentBlocks: []treatment.TreatmentBlock{
			{
				BeginningDate: "2026-01-05",
				DurationDays:  7,
				Iterations:    4,
				TherapeuticActivities: []treatment.TherapeuticActivity{
					{Name: "Eye patch", DayOfBlock: 9, BeginningHour: "10:00", EndHour: "11:00"},
				},
			},
		},
	}

	res := service.AddFullTreatment(context.Background(), "42", tr)

	if res.Ok() {
		t.Fatal("Expected validation error for dayOfBlock beyond duration")
	}
	if !res.HasCode(result.CodeValidationError) {
		t.Errorf("Expected VALIDATION_ERROR, got %v", res.Errors())
	}
}

// TestAddFullTreatment_Success tests the composite write path
func TestAddFullTreatment_Success(t *testing.T) {
	var gotPatientID string
	mockRepo := &mockRepository{
		addTreatmentFunc: func(patientID string, tr treatment.Treatment) result.Result[result.Unit] {
			gotPatientID = patientID
			return result.Ok(result.Unit{})
		},
	}
	publisher := &mockPublisher{}
	cache := querycache.New()
	cache.Set(querycache.TreatmentsByPatient("42"), []treatment.Treatment{})
	cache.Set(querycache.PatientByID("42"), Patient{ID: "42"})

	service := NewService(mockRepo, cache, publisher)

	tr := treatment.Treatment{
		EyeCondition: "amblyopia",
		Name:         "Patching",
		TreatmentBlocks: []treatment.TreatmentBlock{
			{
				BeginningDate: "2026-01-05",
				DurationDays:  7,
				Iterations:    365,
				TherapeuticActivities: []treatment.TherapeuticActivity{
					{Name: "Eye patch", DayOfBlock: 3, BeginningHour: "10:00", EndHour: "11:00"},
				},
			},
		},
	}

	res := service.AddFullTreatment(context.Background(), "42", tr)

	if !res.Ok() {
		t.Fatalf("Expected success, got: %v", res.Errors())
	}
	if gotPatientID != "42" {
		t.Errorf("Expected patient id '42', got '%s'", gotPatientID)
	}
	if cache.Len() != 0 {
		t.Errorf("Expected treatment and patient queries invalidated, %d entries remain", cache.Len())
	}
	if len(publisher.published) != 1 || publisher.published[0] != "treatment.created" {
		t.Errorf("Expected treatment.created event, got %v", publisher.published)
	}
}

// TestAcceptPatientShare_InvalidatesEverything tests the share redemption path
func TestAcceptPatientShare_InvalidatesEverything(t *testing.T) {
	mockRepo := &mockRepository{
		acceptPatientShareFunc: func(shareCode string) result.Result[result.Unit] {
			return result.Ok(result.Unit{})
		},
	}
	publisher := &mockPublisher{}
	cache := querycache.New()
	cache.Set(querycache.PatientsAll(), []Patient{})
	cache.Set(querycache.PatientsByUser("tutor-7"), []Patient{})
	cache.Set(querycache.TreatmentsByPatient("42"), []treatment.Treatment{})

	service := NewService(mockRepo, cache, publisher)

	res := service.AcceptPatientShare(context.Background(), "SHARE-CODE", "tutor-7")

	if !res.Ok() {
		t.Fatalf("Expected success, got: %v", res.Errors())
	}
	if cache.Len() != 0 {
		t.Errorf("Expected the whole cache dropped, %d entries remain", cache.Len())
	}
	if len(publisher.published) != 1 || publisher.published[0] != "patient.shared" {
		t.Errorf("Expected patient.shared event, got %v", publisher.published)
	}
}

// TestAcceptPatientShare_EmptyCode tests validation before the remote call
func TestAcceptPatientShare_EmptyCode(t *testing.T) {
	service := NewService(&mockRepository{}, querycache.New(), nil)

	res := service.AcceptPatientShare(context.Background(), "", "tutor-7")

	if res.Ok() {
		t.Fatal("Expected validation error, got success")
	}
	if !res.HasCode(result.CodeValidationError) {
		t.Errorf("Expected VALIDATION_ERROR, got %v", res.Errors())
	}
}

// TestInitiatePatientShare_RequiresPatients tests the empty-set guard
func TestInitiatePatientShare_RequiresPatients(t *testing.T) {
	service := NewService(&mockRepository{}, querycache.New(), nil)

	res := service.InitiatePatientShare(context.Background(), nil)

	if res.Ok() {
		t.Fatal("Expected validation error, got success")
	}
}

// TestInitiatePatientShare_Success tests that the code is returned untouched
func TestInitiatePatientShare_Success(t *testing.T) {
	mockRepo := &mockRepository{
		initiatePatientShareFunc: func(patientIDs []string) result.Result[string] {
			return result.Ok("SHARE-CODE")
		},
	}

	service := NewService(mockRepo, querycache.New(), nil)

	res := service.InitiatePatientShare(context.Background(), []string{"42", "43"})

	if !res.Ok() {
		t.Fatalf("Expected success, got: %v", res.Errors())
	}
	if res.Value() != "SHARE-CODE" {
		t.Errorf("Expected share code 'SHARE-CODE', got '%s'", res.Value())
	}
}

// Mock implementations

type mockRepository struct {
	getPatientByIDFunc       func(id string) result.Result[Patient]
	getPatientsListFunc      func(ids []string) result.Result[[]Patient]
	getPatientsByUserFunc    func(userID string) result.Result[[]Patient]
	createPatientFunc        func(req CreatePatientRequest, userID string) result.Result[Patient]
	updatePatientFunc        func(req UpdatePatientRequest) result.Result[Patient]
	deletePatientFunc        func(id string) result.Result[result.Unit]
	associateFunc            func(patientID, userID string) result.Result[PatientUser]
	removeAssociationFunc    func(patientID, userID string) result.Result[result.Unit]
	getUserAssociationsFunc  func(userID string) result.Result[[]PatientUser]
	addTreatmentFunc         func(patientID string, t treatment.Treatment) result.Result[result.Unit]
	updateTreatmentFunc      func(patientID string, t treatment.Treatment) result.Result[result.Unit]
	deleteTreatmentFunc      func(id string) result.Result[result.Unit]
	initiatePatientShareFunc func(patientIDs []string) result.Result[string]
	acceptPatientShareFunc   func(shareCode string) result.Result[result.Unit]
}

func notImplemented[T any]() result.Result[T] {
	return result.Unexpected[T](errors.New("not implemented"))
}

func (m *mockRepository) GetPatientByID(ctx context.Context, id string) result.Result[Patient] {
	if m.getPatientByIDFunc != nil {
		return m.getPatientByIDFunc(id)
	}
	return notImplemented[Patient]()
}

func (m *mockRepository) GetPatientsList(ctx context.Context, ids []string) result.Result[[]Patient] {
	if m.getPatientsListFunc != nil {
		return m.getPatientsListFunc(ids)
	}
	return notImplemented[[]Patient]()
}

func (m *mockRepository) GetPatientsByUser(ctx context.Context, userID string) result.Result[[]Patient] {
	if m.getPatientsByUserFunc != nil {
		return m.getPatientsByUserFunc(userID)
	}
	return notImplemented[[]Patient]()
}

func (m *mockRepository) CreatePatient(ctx context.Context, req CreatePatientRequest, userID string) result.Result[Patient] {
	if m.createPatientFunc != nil {
		return m.createPatientFunc(req, userID)
	}
	return notImplemented[Patient]()
}

func (m *mockRepository) UpdatePatient(ctx context.Context, req UpdatePatientRequest) result.Result[Patient] {
	if m.updatePatientFunc != nil {
		return m.updatePatientFunc(req)
	}
	return notImplemented[Patient]()
}

func (m *mockRepository) DeletePatient(ctx context.Context, id string) result.Result[result.Unit] {
	if m.deletePatientFunc != nil {
		return m.deletePatientFunc(id)
	}
	return notImplemented[result.Unit]()
}

func (m *mockRepository) AssociatePatientWithUser(ctx context.Context, patientID, userID string) result.Result[PatientUser] {
	if m.associateFunc != nil {
		return m.associateFunc(patientID, userID)
	}
	return notImplemented[PatientUser]()
}

func (m *mockRepository) RemovePatientUserAssociation(ctx context.Context, patientID, userID string) result.Result[result.Unit] {
	if m.removeAssociationFunc != nil {
		return m.removeAssociationFunc(patientID, userID)
	}
	return notImplemented[result.Unit]()
}

func (m *mockRepository) GetUserPatientsAssociations(ctx context.Context, userID string) result.Result[[]PatientUser] {
	if m.getUserAssociationsFunc != nil {
		return m.getUserAssociationsFunc(userID)
	}
	return notImplemented[[]PatientUser]()
}

func (m *mockRepository) AddTreatment(ctx context.Context, patientID string, t treatment.Treatment) result.Result[result.Unit] {
	if m.addTreatmentFunc != nil {
		return m.addTreatmentFunc(patientID, t)
	}
	return notImplemented[result.Unit]()
}

func (m *mockRepository) UpdateTreatment(ctx context.Context, patientID string, t treatment.Treatment) result.Result[result.Unit] {
	if m.updateTreatmentFunc != nil {
		return m.updateTreatmentFunc(patientID, t)
	}
	return notImplemented[result.Unit]()
}

func (m *mockRepository) DeleteTreatment(ctx context.Context, id string) result.Result[result.Unit] {
	if m.deleteTreatmentFunc != nil {
		return m.deleteTreatmentFunc(id)
	}
	return notImplemented[result.Unit]()
}

func (m *mockRepository) InitiatePatientShare(ctx context.Context, patientIDs []string) result.Result[string] {
	if m.initiatePatientShareFunc != nil {
		return m.initiatePatientShareFunc(patientIDs)
	}
	return notImplemented[string]()
}

func (m *mockRepository) AcceptPatientShare(ctx context.Context, shareCode string) result.Result[result.Unit] {
	if m.acceptPatientShareFunc != nil {
		return m.acceptPatientShareFunc(shareCode)
	}
	return notImplemented[result.Unit]()
}

type mockPublisher struct {
	published []string
	err       error
}

func (m *mockPublisher) Publish(ctx context.Context, routingKey string, eventData interface{}) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, routingKey)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

// TestWithMetrics_CountsSuccessfulOperations tests the wired business counters
func TestWithMetrics_CountsSuccessfulOperations(t *testing.T) {
	mockRepo := &mockRepository{
		createPatientFunc: func(req CreatePatientRequest, userID string) result.Result[Patient] {
			return result.Ok(Patient{ID: "1", FullName: req.FullName})
		},
		addTreatmentFunc: func(patientID string, tr treatment.Treatment) result.Result[result.Unit] {
			return result.Ok(result.Unit{})
		},
		acceptPatientShareFunc: func(shareCode string) result.Result[result.Unit] {
			return result.Ok(result.Unit{})
		},
	}
	metrics := &mockMetrics{}
	service := NewService(mockRepo, querycache.New(), nil).WithMetrics(metrics)

	service.CreatePatient(context.Background(), CreatePatientRequest{FullName: "Ana"}, "tutor-7")
	service.AddFullTreatment(context.Background(), "42", treatment.Treatment{
		EyeCondition: "amblyopia",
		Name:         "Patching",
	})
	service.AcceptPatientShare(context.Background(), "SHARE-CODE", "tutor-7")

	if len(metrics.patientOps) != 1 || metrics.patientOps[0] != "create" {
		t.Errorf("Expected patient op 'create', got %v", metrics.patientOps)
	}
	if len(metrics.treatmentOps) != 1 || metrics.treatmentOps[0] != "create" {
		t.Errorf("Expected treatment op 'create', got %v", metrics.treatmentOps)
	}
	if len(metrics.shareOps) != 1 || metrics.shareOps[0] != "accept" {
		t.Errorf("Expected share op 'accept', got %v", metrics.shareOps)
	}
}

// TestWithMetrics_FailedOperationNotCounted tests that failures leave the counters alone
func TestWithMetrics_FailedOperationNotCounted(t *testing.T) {
	mockRepo := &mockRepository{
		deletePatientFunc: func(id string) result.Result[result.Unit] {
			return result.Errf[result.Unit](result.CodePatientNotFound, "patient not found")
		},
	}
	metrics := &mockMetrics{}
	service := NewService(mockRepo, querycache.New(), nil).WithMetrics(metrics)

	service.DeletePatient(context.Background(), "404")

	if len(metrics.patientOps) != 0 {
		t.Errorf("Expected no patient ops, got %v", metrics.patientOps)
	}
}

type mockMetrics struct {
	patientOps   []string
	treatmentOps []string
	shareOps     []string
}

func (m *mockMetrics) RecordPatientOperation(ctx context.Context, operation string) {
	m.patientOps = append(m.patientOps, operation)
}

func (m *mockMetrics) RecordTreatmentOperation(ctx context.Context, operation string) {
	m.treatmentOps = append(m.treatmentOps, operation)
}

func (m *mockMetrics) RecordShareOperation(ctx context.Context, operation string) {
	m.shareOps = append(m.shareOps, operation)
}
