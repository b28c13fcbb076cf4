// Package secrets loads the process-wide secret material: the email pepper,
// the field-encryption secret and the token signing key. Material is loaded
// once at startup and handed to component constructors; nothing here is
// mutable after Load returns.
package secrets

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/shopkeeper/internal/common"
)

// AlgorithmHS256 is the only supported token signing algorithm.
const AlgorithmHS256 = "HS256"

// Minimum lengths in bytes. The pepper and the cipher secret only need to
// exist: the cipher secret is stretched to a full key internally.
const (
	MinPepperLength       = 1
	MinCipherSecretLength = 1
	MinSigningKeyLength   = 32
)

// Material is the validated secret set.
type Material struct {
	Pepper       []byte
	CipherSecret []byte
	SigningKey   []byte
	Algorithm    string
}

// Source produces raw, not yet validated, secret material.
type Source interface {
	Load(ctx context.Context) (*Material, error)
}

// Load reads material from src and validates it. Every failure wraps
// common.ErrConfiguration and is fatal for the caller.
func Load(ctx context.Context, src Source) (*Material, error) {
	m, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrConfiguration, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: no secret material", common.ErrConfiguration)
	}

	out := m.clone()
	if out.Algorithm == "" {
		out.Algorithm = AlgorithmHS256
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate checks the algorithm, presence and minimum lengths. It does not
// modify m.
func (m *Material) Validate() error {
	if m.Algorithm != AlgorithmHS256 {
		return fmt.Errorf("%w: unsupported signing algorithm %q", common.ErrConfiguration, m.Algorithm)
	}
	checks := []struct {
		name  string
		value []byte
		min   int
	}{
		{"email pepper", m.Pepper, MinPepperLength},
		{"encryption key", m.CipherSecret, MinCipherSecretLength},
		{"jwt secret key", m.SigningKey, MinSigningKeyLength},
	}
	for _, c := range checks {
		if len(c.value) == 0 {
			return fmt.Errorf("%w: %s is not set", common.ErrConfiguration, c.name)
		}
		if len(c.value) < c.min {
			return fmt.Errorf("%w: %s must be at least %d bytes", common.ErrConfiguration, c.name, c.min)
		}
	}
	return nil
}

func (m *Material) clone() *Material {
	return &Material{
		Pepper:       append([]byte(nil), m.Pepper...),
		CipherSecret: append([]byte(nil), m.CipherSecret...),
		SigningKey:   append([]byte(nil), m.SigningKey...),
		Algorithm:    m.Algorithm,
	}
}

// StaticSource serves material already present in memory, usually the
// values from config.Config.
type StaticSource struct {
	Pepper       string
	CipherSecret string
	SigningKey   string
}

func (s StaticSource) Load(context.Context) (*Material, error) {
	return &Material{
		Pepper:       []byte(s.Pepper),
		CipherSecret: []byte(s.CipherSecret),
		SigningKey:   []byte(s.SigningKey),
		Algorithm:    AlgorithmHS256,
	}, nil
}
