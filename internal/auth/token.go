package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rongwang/property-rental-server/internal/policy"
)

const issuer = "property-rental-server"

// ErrTokenInvalid is returned for any token that cannot be trusted.
var ErrTokenInvalid = errors.New("invalid jwt token")

// sessionClaims is the principal carried by a session token: the
// username as subject plus the role and numeric user id.
type sessionClaims struct {
	Role   string `json:"role"`
	UserID int64  `json:"uid"`
	jwt.RegisteredClaims
}

// TokenService issues and parses HS256 session tokens.
type TokenService struct {
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

// NewTokenService creates a TokenService. The key must not be empty.
func NewTokenService(signingKey string, ttl time.Duration) (*TokenService, error) {
	if signingKey == "" {
		return nil, fmt.Errorf("JWT signing key cannot be empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	return &TokenService{signingKey: []byte(signingKey), ttl: ttl, now: time.Now}, nil
}

// TTL returns the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token for the given user.
func (s *TokenService) Issue(userID int64, username string, role policy.Role) (string, error) {
	now := s.now()
	claims := &sessionClaims{
		Role:   role.String(),
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Resolve turns a raw token into an Actor. It fails closed: any missing
// or malformed claim yields Anonymous together with ErrTokenInvalid.
func (s *TokenService) Resolve(tokenString string) (policy.Actor, error) {
	if tokenString == "" {
		return policy.Anonymous, ErrTokenInvalid
	}

	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return policy.Anonymous, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || claims.Subject == "" || claims.UserID <= 0 {
		return policy.Anonymous, ErrTokenInvalid
	}
	role, err := policy.ParseRole(claims.Role)
	if err != nil {
		return policy.Anonymous, ErrTokenInvalid
	}

	return policy.Actor{ID: claims.UserID, Username: claims.Subject, Role: role}, nil
}
