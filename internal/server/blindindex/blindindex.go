// Package blindindex computes the searchable stand-in for an email address.
//
// The index is SHA-256(normalized email || pepper). It is deterministic on
// purpose so equality lookups work, which also means there is no per-record
// salt: the pepper is the only protection against dictionary precomputation
// and must be guarded like the token signing key.
package blindindex

import (
	"crypto/sha256"
	"strings"
)

// Size is the length of an index in bytes.
const Size = sha256.Size

// Indexer hashes emails with a fixed pepper.
type Indexer struct {
	pepper []byte
}

// New returns an Indexer bound to pepper. The slice is copied.
func New(pepper []byte) *Indexer {
	return &Indexer{pepper: append([]byte(nil), pepper...)}
}

// Normalize trims surrounding whitespace and lowercases ASCII letters.
func Normalize(email string) string {
	return asciiLower(strings.TrimSpace(email))
}

// Index returns the raw digest bytes for email.
func (x *Indexer) Index(email string) []byte {
	h := sha256.New()
	h.Write([]byte(Normalize(email)))
	h.Write(x.pepper)
	return h.Sum(nil)
}

// asciiLower folds A-Z only, so the result does not depend on locale or
// Unicode case tables.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
