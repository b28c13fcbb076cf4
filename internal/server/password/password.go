// Package password hashes and verifies account passwords with
// PBKDF2-HMAC-SHA256.
//
// A stored handle is the byte string
//
//	pbkdf2_sha256$<iterations>$<base64 salt>$<base64 key>
//
// and is persisted next to the Algorithm tag so the scheme can be migrated
// later.
package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/shopkeeper/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

// Algorithm is the tag stored in password_algo.
const Algorithm = "pbkdf2_sha256"

const (
	DefaultIterations = 600_000
	DefaultMinLength  = 8

	saltLength = 16
	keyLength  = 32

	// handles claiming more work than this are treated as corrupt
	maxIterations = 10_000_000
)

var encoding = base64.RawStdEncoding

// Hasher is safe for concurrent use.
type Hasher struct {
	iterations int
	minLength  int
}

// Option configures a Hasher.
type Option func(*Hasher)

// WithIterations overrides the PBKDF2 work factor. Tests use a low value.
func WithIterations(n int) Option {
	return func(h *Hasher) {
		if n > 0 {
			h.iterations = n
		}
	}
}

// WithMinLength overrides the minimum accepted password length in characters.
func WithMinLength(n int) Option {
	return func(h *Hasher) {
		if n > 0 {
			h.minLength = n
		}
	}
}

func NewHasher(opts ...Option) *Hasher {
	h := &Hasher{iterations: DefaultIterations, minLength: DefaultMinLength}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Validate rejects passwords shorter than the configured minimum.
func (h *Hasher) Validate(password string) error {
	if utf8.RuneCountInString(password) < h.minLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, h.minLength)
	}
	return nil
}

// Hash returns a fresh salted handle for password.
func (h *Hasher) Hash(password string) ([]byte, error) {
	if err := h.Validate(password); err != nil {
		return nil, err
	}

	salt := common.GenerateRandByteArray(saltLength)
	key := pbkdf2.Key([]byte(password), salt, h.iterations, keyLength, sha256.New)

	handle := fmt.Sprintf("%s$%d$%s$%s", Algorithm, h.iterations, encoding.EncodeToString(salt), encoding.EncodeToString(key))
	return []byte(handle), nil
}

// Verify reports whether password matches handle. Malformed handles yield
// false rather than an error.
func (h *Hasher) Verify(password string, handle []byte) bool {
	iterations, salt, want, ok := parse(handle)
	if !ok {
		return false
	}

	got := pbkdf2.Key([]byte(password), salt, iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}

func parse(handle []byte) (iterations int, salt, key []byte, ok bool) {
	parts := strings.Split(string(handle), "$")
	if len(parts) != 4 || parts[0] != Algorithm {
		return 0, nil, nil, false
	}

	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 || iterations > maxIterations {
		return 0, nil, nil, false
	}

	salt, err = encoding.DecodeString(parts[2])
	if err != nil || len(salt) == 0 {
		return 0, nil, nil, false
	}

	key, err = encoding.DecodeString(parts[3])
	if err != nil || len(key) == 0 {
		return 0, nil, nil, false
	}

	return iterations, salt, key, true
}
