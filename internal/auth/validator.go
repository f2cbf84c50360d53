package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenValidator validates JWT tokens
type TokenValidator interface {
	Validate(tokenString string) (*CustomClaims, error)
}

// HS256Validator validates HS256 JWT tokens against a single shared secret
type HS256Validator struct {
	secret    []byte
	issuer    string
	audience  string
	clockSkew time.Duration
}

// NewHS256Validator creates a new HS256 validator. secretB64 is the
// Base64-encoded HMAC secret; raw secrets are accepted as a fallback.
func NewHS256Validator(secretB64, issuer, audience string, clockSkew time.Duration) (*HS256Validator, error) {
	if secretB64 == "" {
		return nil, fmt.Errorf("HS256 secret is required")
	}

	secret, err := base64.StdEncoding.DecodeString(secretB64)
	if err != nil {
		secret = []byte(secretB64)
	}

	return &HS256Validator{
		secret:    secret,
		issuer:    issuer,
		audience:  audience,
		clockSkew: clockSkew,
	}, nil
}

// Validate validates an HS256 JWT token
func (v *HS256Validator) Validate(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	},
		jwt.WithLeeway(v.clockSkew),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
	)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, NewAuthError(AuthFailureTokenExpired, "token expired", err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, NewAuthError(AuthFailureInvalidSignature, "invalid signature", err)
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return nil, NewAuthError(AuthFailureInvalidIssuer, "invalid issuer", err)
		case errors.Is(err, jwt.ErrTokenInvalidAudience):
			return nil, NewAuthError(AuthFailureInvalidAudience, "invalid audience", err)
		}
		return nil, NewAuthError(AuthFailureUnknown, "failed to parse token", err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, NewAuthError(AuthFailureUnknown, fmt.Sprintf("invalid token: valid=%v", token.Valid), nil)
	}

	// Validate custom claims
	if err := claims.Validate(); err != nil {
		return nil, NewAuthError(AuthFailureUnknown, "invalid claims", err)
	}

	return claims, nil
}
