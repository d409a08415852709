package http

import (
	"database/sql"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/visualcare-health/treatment-service/internal/auth"
	"github.com/visualcare-health/treatment-service/internal/di"
	"github.com/visualcare-health/treatment-service/internal/messaging"
	"github.com/visualcare-health/treatment-service/internal/note"
	"github.com/visualcare-health/treatment-service/internal/patient"
	"github.com/visualcare-health/treatment-service/internal/querycache"
	"github.com/visualcare-health/treatment-service/internal/telemetry"
	"github.com/visualcare-health/treatment-service/internal/treatment"
)

// BuildContainer wires repositories and services into a DI container so that
// handlers and tests resolve the same contracts. A nil metrics recorder
// leaves the services without business counters.
func BuildContainer(db *sql.DB, verifier *auth.Verifier, cache *querycache.Cache, publisher messaging.PublisherInterface, metrics *telemetry.Metrics) *di.Container {
	c := di.NewContainer()

	patientRepo := patient.NewRepository(db)
	patientService := patient.NewService(patientRepo, cache, publisher)
	c = di.Register(c, patient.RepositoryToken, patient.RepositoryInterface(patientRepo))

	treatmentRepo := treatment.NewRepository(db)
	blockRepo := treatment.NewBlockRepository(db)
	activityRepo := treatment.NewActivityRepository(db)
	treatmentService := treatment.NewService(treatmentRepo, blockRepo, activityRepo, cache, publisher)
	c = di.Register(c, treatment.RepositoryToken, treatment.RepositoryInterface(treatmentRepo))
	c = di.Register(c, treatment.BlockRepositoryToken, treatment.BlockRepositoryInterface(blockRepo))
	c = di.Register(c, treatment.ActivityRepositoryToken, treatment.ActivityRepositoryInterface(activityRepo))

	noteRepo := note.NewRepository(db)
	noteService := note.NewService(noteRepo, cache, publisher)
	c = di.Register(c, note.RepositoryToken, note.RepositoryInterface(noteRepo))

	if metrics != nil {
		patientService = patientService.WithMetrics(metrics)
		treatmentService = treatmentService.WithMetrics(metrics)
		noteService = noteService.WithMetrics(metrics)
	}
	c = di.Register(c, patient.ServiceToken, patientService)
	c = di.Register(c, treatment.ServiceToken, treatmentService)
	c = di.Register(c, note.ServiceToken, noteService)

	c = di.Register(c, auth.ServiceToken, auth.NewService(auth.NewTutorRepository(db), verifier, publisher))

	return c
}

// SetupRouter initializes all routes for the application. The wired container
// is registered under the manager's default key; swapping the default is how
// tests and future composition roots substitute implementations wholesale.
func SetupRouter(db *sql.DB, verifier *auth.Verifier, perms auth.Permissions, cache *querycache.Cache, publisher messaging.PublisherInterface, metrics *telemetry.Metrics) *mux.Router {
	manager := di.NewManager()
	if err := manager.RegisterContainer(BuildContainer(db, verifier, cache, publisher, metrics), di.DefaultKey); err != nil {
		log.Fatal().Err(err).Msg("failed to register service container")
	}
	container, err := manager.GetContainer("")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve service container")
	}

	patientHandler := patient.NewHandler(di.MustResolve(container, patient.ServiceToken))
	treatmentHandler := treatment.NewHandler(di.MustResolve(container, treatment.ServiceToken))
	noteHandler := note.NewHandler(di.MustResolve(container, note.ServiceToken))
	authHandler := auth.NewHandler(di.MustResolve(container, auth.ServiceToken))

	// A nil *telemetry.Metrics must not reach the middleware as a non-nil
	// interface value.
	authenticate := auth.Middleware(verifier)
	require := func(perm string) func(http.Handler) http.Handler {
		return auth.RequirePermission(perm, perms)
	}
	if metrics != nil {
		authenticate = auth.MiddlewareWithMetrics(verifier, metrics)
		require = func(perm string) func(http.Handler) http.Handler {
			return auth.RequirePermissionWithMetrics(perm, perms, metrics)
		}
	}

	protect := func(perm string, h http.HandlerFunc) http.Handler {
		return authenticate(require(perm)(h))
	}

	r := mux.NewRouter()
	r.Use(otelmux.Middleware("treatment-service"))

	// Public health endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"treatment-service"}`))
	}).Methods("GET")

	// Session routes; signup and login are the only unauthenticated writes
	r.HandleFunc("/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	r.Handle("/auth/me", authenticate(http.HandlerFunc(authHandler.Me))).Methods("GET")
	r.Handle("/auth/logout", authenticate(http.HandlerFunc(authHandler.Logout))).Methods("POST")

	// Patient routes
	r.Handle("/patients", protect("patient:create", patientHandler.CreatePatient)).Methods("POST")
	r.Handle("/patients", protect("patient:read", patientHandler.ListPatients)).Methods("GET")
	r.Handle("/patients/mine", protect("patient:read", patientHandler.ListMyPatients)).Methods("GET")
	r.Handle("/patients/share", protect("patient:share", patientHandler.SharePatients)).Methods("POST")
	r.Handle("/patients/share/accept", protect("patient:share", patientHandler.AcceptShare)).Methods("POST")
	r.Handle("/patients/{id}", protect("patient:read", patientHandler.GetPatient)).Methods("GET")
	r.Handle("/patients/{id}", protect("patient:update", patientHandler.UpdatePatient)).Methods("PUT")
	r.Handle("/patients/{id}", protect("patient:delete", patientHandler.DeletePatient)).Methods("DELETE")

	// Patient-tutor association routes
	r.Handle("/patients/{id}/associations", protect("patient:update", patientHandler.AssociatePatient)).Methods("POST")
	r.Handle("/patients/{id}/associations/{userId}", protect("patient:update", patientHandler.RemoveAssociation)).Methods("DELETE")
	r.Handle("/associations", protect("patient:read", patientHandler.ListMyAssociations)).Methods("GET")

	// Composite treatment routes; the whole block/activity tree is written in
	// a single call
	r.Handle("/patients/{id}/treatments/full", protect("treatment:create", patientHandler.AddFullTreatment)).Methods("POST")
	r.Handle("/patients/{id}/treatments/full", protect("treatment:update", patientHandler.UpdateFullTreatment)).Methods("PUT")
	r.Handle("/patients/{id}/treatments/{treatmentId}", protect("treatment:delete", patientHandler.DeleteTreatment)).Methods("DELETE")
	r.Handle("/patients/{patientId}/treatments", protect("treatment:read", treatmentHandler.ListByPatient)).Methods("GET")

	// Treatment routes
	r.Handle("/treatments", protect("treatment:create", treatmentHandler.CreateTreatment)).Methods("POST")
	r.Handle("/treatments/{id}", protect("treatment:read", treatmentHandler.GetTreatment)).Methods("GET")
	r.Handle("/treatments/{id}", protect("treatment:update", treatmentHandler.UpdateTreatment)).Methods("PUT")
	r.Handle("/treatments/{id}", protect("treatment:delete", treatmentHandler.DeleteTreatment)).Methods("DELETE")

	// Treatment block routes
	r.Handle("/treatments/{id}/blocks", protect("treatment:update", treatmentHandler.CreateBlock)).Methods("POST")
	r.Handle("/treatments/{id}/blocks", protect("treatment:read", treatmentHandler.ListBlocks)).Methods("GET")
	r.Handle("/blocks/{blockId}", protect("treatment:read", treatmentHandler.GetBlock)).Methods("GET")
	r.Handle("/blocks/{blockId}", protect("treatment:update", treatmentHandler.UpdateBlock)).Methods("PUT")
	r.Handle("/blocks/{blockId}", protect("treatment:update", treatmentHandler.DeleteBlock)).Methods("DELETE")

	// Therapeutic activity routes
	r.Handle("/blocks/{blockId}/activities", protect("treatment:update", treatmentHandler.CreateActivity)).Methods("POST")
	r.Handle("/blocks/{blockId}/activities", protect("treatment:read", treatmentHandler.ListActivities)).Methods("GET")
	r.Handle("/activities/{activityId}", protect("treatment:read", treatmentHandler.GetActivity)).Methods("GET")
	r.Handle("/activities/{activityId}", protect("treatment:update", treatmentHandler.UpdateActivity)).Methods("PUT")
	r.Handle("/activities/{activityId}", protect("treatment:update", treatmentHandler.DeleteActivity)).Methods("DELETE")

	// Note routes
	r.Handle("/notes", protect("note:create", noteHandler.CreateNote)).Methods("POST")
	r.Handle("/associations/{associationId}/notes", protect("note:read", noteHandler.ListByAssociation)).Methods("GET")
	r.Handle("/notes/{id}", protect("note:read", noteHandler.GetNote)).Methods("GET")
	r.Handle("/notes/{id}", protect("note:update", noteHandler.UpdateNote)).Methods("PUT")
	r.Handle("/notes/{id}", protect("note:delete", noteHandler.DeleteNote)).Methods("DELETE")

	return r
}
