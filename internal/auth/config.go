package auth

import (
	"os"
	"time"
)

// Config holds token signing configuration. Tokens are self-issued: the
// service both mints and verifies them with a shared secret.
type Config struct {
	Secret   []byte
	Issuer   string
	TokenTTL time.Duration
}

const (
	DefaultIssuer   = "visualcare-treatment-service"
	DefaultTokenTTL = 24 * time.Hour
)

// LoadConfig reads config from env. JWT_SECRET is required in production;
// the fallback only exists so local runs work out of the box.
func LoadConfig() Config {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-only-secret"
	}

	ttl := DefaultTokenTTL
	if raw := os.Getenv("TOKEN_TTL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			ttl = parsed
		}
	}

	return Config{
		Secret:   []byte(secret),
		Issuer:   DefaultIssuer,
		TokenTTL: ttl,
	}
}
