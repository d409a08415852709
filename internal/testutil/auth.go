package testutil

import (
	"testing"
	"time"

	"github.com/visualcare-health/treatment-service/internal/auth"
)

// TestSecret signs every token minted by the helpers below.
var TestSecret = []byte("testing-secret-do-not-deploy")

// CreateTestVerifier returns a verifier wired with a fixed secret so tests
// can both issue and validate tokens.
func CreateTestVerifier(t *testing.T) *auth.Verifier {
	t.Helper()

	return auth.NewVerifier(auth.Config{
		Secret:   TestSecret,
		Issuer:   auth.DefaultIssuer,
		TokenTTL: time.Hour,
	})
}

// IssueTutorToken mints a TUTOR token for the given tutor id.
func IssueTutorToken(t *testing.T, v *auth.Verifier, tutorID string) string {
	t.Helper()

	token, err := v.IssueToken(tutorID, tutorID+"@example.com", []string{auth.TutorRole})
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return token
}

// TutorPermissions grants the full permission set the router protects
// endpoints with.
func TutorPermissions() auth.Permissions {
	return auth.Permissions{
		auth.TutorRole: {
			"patient:read", "patient:create", "patient:update", "patient:delete", "patient:share",
			"treatment:read", "treatment:create", "treatment:update", "treatment:delete",
			"note:read", "note:create", "note:update", "note:delete",
		},
	}
}
