package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Principal holds the identity extracted from a validated token.
type Principal struct {
	TutorID string
	Email   string
	Roles   []string
	Claims  jwt.MapClaims
}

var (
	ErrNoToken       = errors.New("no token provided")
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidIssuer = errors.New("invalid issuer")
	ErrMissingSub    = errors.New("missing sub claim")
)

// Verifier mints and validates HS256 tokens for tutors.
type Verifier struct {
	cfg Config
}

func NewVerifier(cfg Config) *Verifier {
	return &Verifier{cfg: cfg}
}

// IssueToken mints a signed token for the given tutor.
func (v *Verifier) IssueToken(tutorID, email string, roles []string) (string, error) {
	now := jwt.TimeFunc()
	claims := jwt.MapClaims{
		"sub":   tutorID,
		"email": email,
		"roles": roles,
		"iss":   v.cfg.Issuer,
		"iat":   now.Unix(),
		"exp":   now.Add(v.cfg.TokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.cfg.Secret)
}

// ParseAndVerifyToken validates signature, issuer and expiry and returns the
// embedded Principal.
func (v *Verifier) ParseAndVerifyToken(tokenString string) (*Principal, error) {
	if tokenString == "" {
		return nil, ErrNoToken
	}
	tokenString = strings.TrimSpace(tokenString)

	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		// enforce HS256
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.cfg.Secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	if iss, _ := claims["iss"].(string); iss != v.cfg.Issuer {
		return nil, ErrInvalidIssuer
	}
	if !claims.VerifyExpiresAt(jwt.TimeFunc().Unix(), true) {
		return nil, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrMissingSub
	}

	email, _ := claims["email"].(string)

	var roles []string
	if rr, ok := claims["roles"].([]interface{}); ok {
		for _, r := range rr {
			if s, ok := r.(string); ok {
				roles = append(roles, s)
			}
		}
	}

	return &Principal{
		TutorID: sub,
		Email:   email,
		Roles:   roles,
		Claims:  claims,
	}, nil
}

// TokenTTL exposes the configured lifetime, used for session expiry info.
func (v *Verifier) TokenTTL() time.Duration {
	return v.cfg.TokenTTL
}
