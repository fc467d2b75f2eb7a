// token/service.go
package token

import (
	"crypto/ed25519"
	std_errors "errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	gk_errors "github.com/kaizen-platform/gatekeeper/errors"
)

// ScopedClaims are the claims carried by a scoped token: exactly one actor,
// exactly one capability scope, short lived.
type ScopedClaims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope"`
}

// Service mints and validates short-lived, single-scope tokens.
type Service struct {
	signer   Signer
	issuer   string
	audience string
}

func NewService(signer Signer, issuer, audience string) *Service {
	return &Service{
		signer:   signer,
		issuer:   issuer,
		audience: audience,
	}
}

// VerifySignature checks an Ed25519 signature over message. It never panics
// on malformed input; any defect in key, signature, or message yields false.
func VerifySignature(message, publicKey, signature []byte) bool {
	if len(publicKey) != ed25519.PublicKeySize {
		return false
	}
	if len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), message, signature)
}

// MintScopedToken produces a credential binding actorDID to a single scope
// for ttl. Claims: {sub, scope, iat, exp, iss, aud}.
func (s *Service) MintScopedToken(actorDID, scope string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := ScopedClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actorDID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
		},
		Scope: scope,
	}

	signed, err := jwt.NewWithClaims(s.signer.Method(), claims).SignedString(s.signer.SignKey())
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// RequireScope verifies the token and checks that its scope matches exactly.
// Expiry or a bad signature is an authentication failure; a valid token with
// the wrong scope is an authorization failure. Never a fallback.
func (s *Service) RequireScope(tokenString, scope string) error {
	parsed, err := jwt.ParseWithClaims(tokenString, &ScopedClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != s.signer.Method().Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signer.VerifyKey(), nil
	}, jwt.WithAudience(s.audience), jwt.WithIssuer(s.issuer))

	if err != nil {
		if std_errors.Is(err, jwt.ErrTokenExpired) {
			return gk_errors.ErrTokenExpired
		}
		return gk_errors.ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*ScopedClaims)
	if !ok || !parsed.Valid {
		return gk_errors.ErrTokenInvalid
	}

	if claims.Scope != scope {
		return gk_errors.ErrScopeMismatch
	}
	return nil
}
