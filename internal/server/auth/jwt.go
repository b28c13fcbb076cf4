package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/shopkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the account id in "sub" and the role as a private claim.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Identity is what a verified token asserts.
type Identity struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
}

// TokenManager signs and verifies HS256 bearer tokens.
type TokenManager struct {
	key        []byte
	defaultTTL time.Duration
	now        func() time.Time
}

func NewTokenManager(signingKey []byte, defaultTTL time.Duration) *TokenManager {
	k := make([]byte, len(signingKey))
	copy(k, signingKey)
	return &TokenManager{key: k, defaultTTL: defaultTTL, now: time.Now}
}

// WithClock replaces the time source used for iat/exp and validation.
func (m *TokenManager) WithClock(now func() time.Time) *TokenManager {
	m.now = now
	return m
}

func (m *TokenManager) DefaultTTL() time.Duration {
	return m.defaultTTL
}

func (m *TokenManager) IssueDefault(subject, role string) (string, error) {
	return m.Issue(subject, role, m.defaultTTL)
}

func (m *TokenManager) Issue(subject, role string, ttl time.Duration) (string, error) {
	if subject == "" || role == "" {
		return "", fmt.Errorf("%w: subject and role are required", common.ErrValidation)
	}

	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	})

	tokenString, err := token.SignedString(m.key)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify returns common.ErrInvalidToken for any token that is expired,
// malformed, signed with another key or algorithm, or missing claims.
func (m *TokenManager) Verify(tokenString string) (*Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: expired", common.ErrInvalidToken)
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" || claims.Role == "" {
		return nil, common.ErrInvalidToken
	}

	return &Identity{
		Subject:   claims.Subject,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
