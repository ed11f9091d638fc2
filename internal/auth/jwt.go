// Package auth validates identity tokens minted by the external identity
// provider. Tokens are consulted only for naming: a valid token pins the
// stable user id and display name a join carries. They never authorize relay
// events — room keys are capability tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotConfigured is returned when a token arrives but no signing secret is
// configured. Fails only the request that needed it.
var ErrNotConfigured = errors.New("identity secret not configured")

// Claims carried by an identity token.
type Claims struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	jwt.RegisteredClaims
}

// Config holds identity token verification settings.
type Config struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration
}

// Verifier validates identity tokens.
type Verifier struct {
	cfg *Config
}

// NewVerifier builds a verifier. A nil or secretless config yields a
// verifier that rejects every token with ErrNotConfigured.
func NewVerifier(cfg *Config) *Verifier {
	return &Verifier{cfg: cfg}
}

// Verify parses and validates a token, returning its claims.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	if v.cfg == nil || len(v.cfg.Secret) == 0 {
		return nil, ErrNotConfigured
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.cfg.Secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	if v.cfg.Issuer != "" && claims.Issuer != v.cfg.Issuer {
		return nil, errors.New("invalid issuer")
	}
	if v.cfg.Audience != "" {
		valid := false
		for _, aud := range claims.Audience {
			if aud == v.cfg.Audience {
				valid = true
				break
			}
		}
		if !valid {
			return nil, errors.New("invalid audience")
		}
	}

	return claims, nil
}

// GenerateToken mints an identity token. Used by tests and by deployments
// where the relay doubles as its own identity provider.
func GenerateToken(cfg *Config, userID, displayName string) (string, error) {
	now := time.Now()
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	claims := Claims{
		UserID:      userID,
		DisplayName: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(cfg.Secret)
}
