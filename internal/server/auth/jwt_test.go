package auth

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/shopkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newManager(t *testing.T) (*TokenManager, *fakeClock) {
	t.Helper()
	clk := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewTokenManager(testKey, 15*time.Minute).WithClock(clk.Now), clk
}

func TestIssueAndVerify_Success(t *testing.T) {
	t.Parallel()
	m, clk := newManager(t)

	tok, err := m.IssueDefault("user-123", "customer")
	require.NoError(t, err)

	id, err := m.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-123", id.Subject)
	assert.Equal(t, "customer", id.Role)
	assert.True(t, id.ExpiresAt.Equal(clk.Now().Add(15*time.Minute)))
}

func TestVerify_ExpiresAfterTTL(t *testing.T) {
	t.Parallel()
	m, clk := newManager(t)

	tok, err := m.Issue("u1", "admin", time.Minute)
	require.NoError(t, err)

	clk.Advance(30 * time.Second)
	_, err = m.Verify(tok)
	require.NoError(t, err)

	clk.Advance(31 * time.Second)
	_, err = m.Verify(tok)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_WrongKey(t *testing.T) {
	t.Parallel()
	m, _ := newManager(t)
	other := NewTokenManager([]byte("ffffffffffffffffffffffffffffffff"), time.Hour)

	tok, err := other.IssueDefault("u2", "customer")
	require.NoError(t, err)

	_, err = m.Verify(tok)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()
	m, _ := newManager(t)

	for _, s := range []string{"", "not.a.jwt", "abc", "a.b.c.d"} {
		_, err := m.Verify(s)
		assert.ErrorIs(t, err, common.ErrInvalidToken, s)
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()
	m, clk := newManager(t)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u3",
			ExpiresAt: jwt.NewNumericDate(clk.Now().Add(time.Hour)),
		},
		Role: "admin",
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(testKey)
	require.NoError(t, err)
	_, err = m.Verify(hs512)
	require.ErrorIs(t, err, common.ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Verify(none)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_MissingClaims(t *testing.T) {
	t.Parallel()
	m, clk := newManager(t)

	cases := map[string]Claims{
		"no exp": {
			RegisteredClaims: jwt.RegisteredClaims{Subject: "u4"},
			Role:             "customer",
		},
		"no subject": {
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(clk.Now().Add(time.Hour))},
			Role:             "customer",
		},
		"no role": {
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "u4",
				ExpiresAt: jwt.NewNumericDate(clk.Now().Add(time.Hour)),
			},
		},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(testKey)
			require.NoError(t, err)
			_, err = m.Verify(tok)
			require.ErrorIs(t, err, common.ErrInvalidToken)
		})
	}
}

func TestIssue_RequiresSubjectAndRole(t *testing.T) {
	t.Parallel()
	m, _ := newManager(t)

	_, err := m.Issue("", "customer", time.Minute)
	require.ErrorIs(t, err, common.ErrValidation)
	_, err = m.Issue("u5", "", time.Minute)
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestNewTokenManager_CopiesKey(t *testing.T) {
	t.Parallel()
	key := append([]byte(nil), testKey...)
	m := NewTokenManager(key, time.Minute)

	tok, err := m.IssueDefault("u6", "customer")
	require.NoError(t, err)

	key[0] ^= 0xff
	_, err = m.Verify(tok)
	require.NoError(t, err)
}
