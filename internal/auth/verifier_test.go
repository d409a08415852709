package auth

import (
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		Secret:   []byte("test-secret"),
		Issuer:   DefaultIssuer,
		TokenTTL: time.Hour,
	}
}

// TestIssueAndVerify_RoundTrip tests that a minted token verifies to the same principal
func TestIssueAndVerify_RoundTrip(t *testing.T) {
	v := NewVerifier(testConfig())

	token, err := v.IssueToken("tutor-7", "tutor@example.com", []string{TutorRole})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	pr, err := v.ParseAndVerifyToken(token)
	if err != nil {
		t.Fatalf("Expected valid token, got: %v", err)
	}
	if pr.TutorID != "tutor-7" {
		t.Errorf("Expected tutor id 'tutor-7', got '%s'", pr.TutorID)
	}
	if pr.Email != "tutor@example.com" {
		t.Errorf("Expected email 'tutor@example.com', got '%s'", pr.Email)
	}
	if len(pr.Roles) != 1 || pr.Roles[0] != TutorRole {
		t.Errorf("Expected roles [TUTOR], got %v", pr.Roles)
	}
}

// TestParseAndVerifyToken_WrongSecret tests signature enforcement
func TestParseAndVerifyToken_WrongSecret(t *testing.T) {
	issuer := NewVerifier(testConfig())
	token, err := issuer.IssueToken("tutor-7", "tutor@example.com", nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	cfg := testConfig()
	cfg.Secret = []byte("other-secret")
	verifier := NewVerifier(cfg)

	if _, err := verifier.ParseAndVerifyToken(token); err != ErrInvalidToken {
		t.Errorf("Expected ErrInvalidToken, got: %v", err)
	}
}

// TestParseAndVerifyToken_WrongIssuer tests issuer enforcement
func TestParseAndVerifyToken_WrongIssuer(t *testing.T) {
	cfg := testConfig()
	cfg.Issuer = "someone-else"
	issuer := NewVerifier(cfg)

	token, err := issuer.IssueToken("tutor-7", "tutor@example.com", nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	verifier := NewVerifier(testConfig())
	if _, err := verifier.ParseAndVerifyToken(token); err != ErrInvalidIssuer {
		t.Errorf("Expected ErrInvalidIssuer, got: %v", err)
	}
}

// TestParseAndVerifyToken_Expired tests expiry enforcement
func TestParseAndVerifyToken_Expired(t *testing.T) {
	cfg := testConfig()
	cfg.TokenTTL = -time.Minute
	issuer := NewVerifier(cfg)

	token, err := issuer.IssueToken("tutor-7", "tutor@example.com", nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	verifier := NewVerifier(testConfig())
	if _, err := verifier.ParseAndVerifyToken(token); err != ErrInvalidToken {
		t.Errorf("Expected ErrInvalidToken, got: %v", err)
	}
}

// TestParseAndVerifyToken_Empty tests the no-token guard
func TestParseAndVerifyToken_Empty(t *testing.T) {
	v := NewVerifier(testConfig())

	if _, err := v.ParseAndVerifyToken(""); err != ErrNoToken {
		t.Errorf("Expected ErrNoToken, got: %v", err)
	}
}
