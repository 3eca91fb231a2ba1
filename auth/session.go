package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultIssuer = "community-server"

var (
	// ErrInvalidToken indicates a bad signature or a malformed payload.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken indicates a correctly signed token past its expiry.
	ErrExpiredToken = errors.New("token expired")
)

// Claims binds a session to a user id carried in the subject.
type Claims struct {
	jwt.RegisteredClaims
}

// Sessions issues and verifies stateless HS256 session tokens.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

type SessionOption func(*Sessions)

// WithClock overrides the time source.
func WithClock(fn func() time.Time) SessionOption {
	return func(s *Sessions) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithIssuer overrides the issuer claim.
func WithIssuer(issuer string) SessionOption {
	return func(s *Sessions) {
		if issuer = strings.TrimSpace(issuer); issuer != "" {
			s.issuer = issuer
		}
	}
}

func NewSessions(secret []byte, ttl time.Duration, opts ...SessionOption) (*Sessions, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: session secret is empty")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: ttl must be greater than zero")
	}
	s := &Sessions{secret: secret, ttl: ttl, issuer: defaultIssuer, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL is the lifetime of tokens produced by Issue.
func (s *Sessions) TTL() time.Duration { return s.ttl }

// Issue signs a token for userID that expires after the configured TTL.
func (s *Sessions) Issue(userID string) (string, time.Time, error) {
	exp := s.now().UTC().Add(s.ttl)
	token, err := s.IssueWithExpiry(userID, exp)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// IssueWithExpiry signs a token for userID with an explicit expiry.
func (s *Sessions) IssueWithExpiry(userID string, expiresAt time.Time) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", errors.New("auth: userID is required")
	}
	now := s.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of token and returns the bound
// user id. Callers handle a missing token before calling Verify.
func (s *Sessions) Verify(token string) (string, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", fmt.Errorf("%w: subject missing", ErrInvalidToken)
	}
	return claims.Subject, nil
}
