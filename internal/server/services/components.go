package services

import (
	"fmt"

	"github.com/dmitrijs2005/shopkeeper/internal/common"
	"github.com/dmitrijs2005/shopkeeper/internal/server/auth"
	"github.com/dmitrijs2005/shopkeeper/internal/server/blindindex"
	"github.com/dmitrijs2005/shopkeeper/internal/server/config"
	"github.com/dmitrijs2005/shopkeeper/internal/server/fieldcipher"
	"github.com/dmitrijs2005/shopkeeper/internal/server/lockout"
	"github.com/dmitrijs2005/shopkeeper/internal/server/password"
	"github.com/dmitrijs2005/shopkeeper/internal/server/secrets"
)

// Components are the credential primitives built from the secret material.
type Components struct {
	Indexer *blindindex.Indexer
	Hasher  *password.Hasher
	Cipher  *fieldcipher.Cipher
	Tokens  *auth.TokenManager
	Lockout *lockout.Tracker

	// DummyHandle is verified against on unknown emails so that path costs
	// one full hash like a real login.
	DummyHandle []byte
}

// BuildComponents wires the primitives from validated secrets and the policy
// values in cfg.
func BuildComponents(m *secrets.Material, cfg *config.Config, opts ...password.Option) (*Components, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c, err := fieldcipher.New(m.CipherSecret)
	if err != nil {
		return nil, fmt.Errorf("field cipher: %w", err)
	}

	hasherOpts := append([]password.Option{password.WithMinLength(cfg.MinPasswordLength)}, opts...)
	hasher := password.NewHasher(hasherOpts...)

	dummy, err := dummyHandle(hasher, cfg.MinPasswordLength)
	if err != nil {
		return nil, fmt.Errorf("dummy password handle: %w", err)
	}

	return &Components{
		Indexer:     blindindex.New(m.Pepper),
		Hasher:      hasher,
		Cipher:      c,
		DummyHandle: dummy,
		Tokens:      auth.NewTokenManager(m.SigningKey, cfg.AccessTokenValidityDuration),
		Lockout:     lockout.NewTracker(lockout.Policy{
			MaxAttempts: cfg.MaxFailedAttempts,
			Duration:    cfg.LockoutDuration,
		}),
	}, nil
}

func dummyHandle(h *password.Hasher, minLength int) ([]byte, error) {
	pw, err := common.MakeRandHexString(max(32, minLength))
	if err != nil {
		return nil, err
	}
	return h.Hash(pw)
}
