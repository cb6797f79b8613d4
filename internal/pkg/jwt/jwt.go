// Package jwt verifies the HS256 access tokens presented to the booking API.
// Tokens are issued by the login service; Issue exists for local seeding and
// tests that need a token signed with the same secret.
package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenInvalid  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrClaimsMissing = errors.New("token lacks user id or role")
)

const signingMethod = "HS256"

// Claims carried by an access token.
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwtlib.RegisteredClaims
}

type Service struct {
	secret []byte
	ttl    time.Duration
	parser *jwtlib.Parser
}

// New returns a service for secret. ttl only affects Issue.
func New(secret string, ttl time.Duration) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
		parser: jwtlib.NewParser(
			jwtlib.WithValidMethods([]string{signingMethod}),
			jwtlib.WithExpirationRequired(),
			jwtlib.WithIssuedAt(),
			jwtlib.WithLeeway(5*time.Second),
		),
	}
}

// Verify checks signature, algorithm and expiry and returns the claims.
func (s *Service) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := s.parser.ParseWithClaims(tokenStr, claims, func(*jwtlib.Token) (any, error) {
		return s.secret, nil
	})
	switch {
	case errors.Is(err, jwtlib.ErrTokenExpired):
		return nil, ErrTokenExpired
	case err != nil:
		return nil, ErrTokenInvalid
	}

	if claims.UserID <= 0 || claims.Role == "" {
		return nil, ErrClaimsMissing
	}
	return claims, nil
}

// Issue signs a token for userID valid for the configured ttl.
func (s *Service) Issue(userID int64, role string) (string, error) {
	return s.issueAt(userID, role, time.Now())
}

func (s *Service) issueAt(userID int64, role string, now time.Time) (string, error) {
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.secret)
}
