//go:build integration

package e2e

import (
	"database/sql"
	"net/http/httptest"
	"testing"

	"github.com/visualcare-health/treatment-service/internal/auth"
	httpserver "github.com/visualcare-health/treatment-service/internal/http"
	"github.com/visualcare-health/treatment-service/internal/querycache"
	"github.com/visualcare-health/treatment-service/internal/testutil"
)

// TestServer bundles everything an end-to-end test needs: a real database,
// the full router and an in-memory event publisher.
type TestServer struct {
	Server        *httptest.Server
	DB            *sql.DB
	MockPublisher *testutil.MockPublisher
	Verifier      *auth.Verifier
	Cache         *querycache.Cache
}

// SetupE2ETest boots the whole stack against the test database. Requests go
// HTTP -> auth middleware -> handler -> service -> repository -> PostgreSQL;
// only the broker is mocked.
func SetupE2ETest(t *testing.T) *TestServer {
	t.Helper()

	db := testutil.SetupTestDB(t)

	mockPublisher := testutil.NewMockPublisher()
	verifier := testutil.CreateTestVerifier(t)
	cache := querycache.New()

	router := httpserver.SetupRouter(db, verifier, testutil.TutorPermissions(), cache, mockPublisher, nil)

	server := httptest.NewServer(router)

	return &TestServer{
		Server:        server,
		DB:            db,
		MockPublisher: mockPublisher,
		Verifier:      verifier,
		Cache:         cache,
	}
}

// Cleanup tears down the server and truncates the test tables.
func (ts *TestServer) Cleanup(t *testing.T) {
	t.Helper()

	ts.Server.Close()
	testutil.CleanupTestDB(t, ts.DB)
	ts.DB.Close()
}

// NewTutor inserts a tutor row and returns the id and an authenticated
// client acting as that tutor.
func (ts *TestServer) NewTutor(t *testing.T, email string) (string, *testutil.HTTPTestClient) {
	t.Helper()

	tutorID := testutil.CreateTestTutor(t, ts.DB, email)
	token := testutil.IssueTutorToken(t, ts.Verifier, tutorID)
	return tutorID, ts.NewClient(token)
}

// NewClient creates an HTTP test client for this server with the given token.
func (ts *TestServer) NewClient(token string) *testutil.HTTPTestClient {
	return testutil.NewHTTPTestClient(ts.Server.URL, token)
}
