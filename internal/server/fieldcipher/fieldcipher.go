// Package fieldcipher encrypts PII columns at rest with AES-256-GCM.
//
// The configured secret is stretched to a 32-byte key with SHA-256, so
// operators may supply any human-chosen string. Each ciphertext is
// nonce || sealed data and needs nothing else to be opened.
//
// A nil plaintext encrypts to nil and a nil ciphertext decrypts to nil, so
// "not provided" stays distinguishable from "provided but empty".
package fieldcipher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"fmt"

	"github.com/dmitrijs2005/shopkeeper/internal/common"
)

// Cipher is safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
}

// New derives the key from secret and prepares the AEAD.
func New(secret []byte) (*Cipher, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: empty encryption key", common.ErrConfiguration)
	}

	key := sha256.Sum256(secret)
	defer common.WipeByteArray(key[:])

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}

	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext. A nil plaintext returns nil.
func (c *Cipher) Encrypt(plaintext *string) ([]byte, error) {
	if plaintext == nil {
		return nil, nil
	}
	return c.EncryptString(*plaintext)
}

// EncryptString seals a value that is always present.
func (c *Cipher) EncryptString(plaintext string) ([]byte, error) {
	nonce := common.GenerateRandByteArray(c.aead.NonceSize())
	return c.aead.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

// Decrypt opens ciphertext. It returns nil for a nil ciphertext and for
// anything that fails authentication: callers treat that as "unknown".
func (c *Cipher) Decrypt(ciphertext []byte) *string {
	if ciphertext == nil {
		return nil
	}

	ns := c.aead.NonceSize()
	if len(ciphertext) < ns+c.aead.Overhead() {
		return nil
	}

	plaintext, err := c.aead.Open(nil, ciphertext[:ns], ciphertext[ns:], nil)
	if err != nil {
		return nil
	}

	s := string(plaintext)
	return &s
}

// DecryptString is Decrypt for values that are always present. ok is false
// when the ciphertext cannot be opened.
func (c *Cipher) DecryptString(ciphertext []byte) (plaintext string, ok bool) {
	p := c.Decrypt(ciphertext)
	if p == nil {
		return "", false
	}
	return *p, true
}
