package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/shopkeeper/internal/common"
	"github.com/dmitrijs2005/shopkeeper/internal/dbx"
	"github.com/dmitrijs2005/shopkeeper/internal/logging"
	"github.com/dmitrijs2005/shopkeeper/internal/server/config"
	"github.com/dmitrijs2005/shopkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/shopkeeper/internal/server/models"
	"github.com/dmitrijs2005/shopkeeper/internal/server/password"
	"github.com/dmitrijs2005/shopkeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/shopkeeper/internal/server/secrets"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory account store with the same uniqueness rules as
// the email_index table.
type memStore struct {
	mu       sync.Mutex
	reserved map[string]models.Kind
	accounts map[string]*models.Account

	findErr   error
	insertErr error
	updateErr error
	updates   int
}

func newMemStore() *memStore {
	return &memStore{
		reserved: map[string]models.Kind{},
		accounts: map[string]*models.Account{},
	}
}

func (m *memStore) get(id string) *models.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil
	}
	cp := *a
	return &cp
}

type memRepo struct{ s *memStore }

var _ accounts.Repository = (*memRepo)(nil)

func (r *memRepo) FindByEmailHash(ctx context.Context, hash []byte) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.findErr != nil {
		return nil, r.s.findErr
	}
	for _, kind := range []models.Kind{models.KindCustomer, models.KindStaff} {
		for _, a := range r.s.accounts {
			if a.Kind == kind && string(a.EmailHash) == string(hash) {
				cp := *a
				return &cp, nil
			}
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memRepo) FindByID(ctx context.Context, kind models.Kind, id string) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.findErr != nil {
		return nil, r.s.findErr
	}
	a, ok := r.s.accounts[id]
	if !ok || a.Kind != kind {
		return nil, common.ErrorNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memRepo) ReserveEmail(ctx context.Context, hash []byte, kind models.Kind) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.reserved[string(hash)]; ok {
		return common.ErrDuplicateEmail
	}
	r.s.reserved[string(hash)] = kind
	return nil
}

func (r *memRepo) Insert(ctx context.Context, a *models.Account) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.insertErr != nil {
		return nil, r.s.insertErr
	}
	cp := *a
	cp.Version = 1
	cp.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cp.UpdatedAt = cp.CreatedAt
	r.s.accounts[a.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memRepo) UpdateLockoutFields(ctx context.Context, kind models.Kind, id string, count int, until *time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.updateErr != nil {
		return r.s.updateErr
	}
	a, ok := r.s.accounts[id]
	if !ok || a.Kind != kind {
		return common.ErrorNotFound
	}
	a.FailedLoginCount = count
	a.LockedUntil = until
	a.Version++
	r.s.updates++
	return nil
}

type fakeRepoManager struct{ s *memStore }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Accounts(dbx.DBTX) accounts.Repository      { return &memRepo{s: m.s} }

// passthroughRunner runs the unit of work without a transaction.
type passthroughRunner struct{}

func (passthroughRunner) InTx(ctx context.Context, fn dbx.TxFunc) error { return fn(ctx, nil) }

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	svc     *CredentialService
	store   *memStore
	clock   *fakeClock
	metrics *metrics.Auth
	c       *Components
}

func testMaterial() *secrets.Material {
	return &secrets.Material{
		Pepper:       []byte("pepper-for-tests"),
		CipherSecret: []byte("cipher-secret-for-tests"),
		SigningKey:   []byte("0123456789abcdef0123456789abcdef"),
		Algorithm:    secrets.AlgorithmHS256,
	}
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return cfg
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	c, err := BuildComponents(testMaterial(), testConfig(), password.WithIterations(1000))
	require.NoError(t, err)

	clk := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	c.Tokens.WithClock(clk.Now)

	store := newMemStore()
	m := metrics.New()
	svc := NewCredentialService(nil, passthroughRunner{}, &fakeRepoManager{s: store}, c, logging.Nop(), m).
		WithClock(clk.Now)

	return &fixture{svc: svc, store: store, clock: clk, metrics: m, c: c}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, outcome string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "outcome" && l.GetValue() == outcome {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func ptr(s string) *string { return &s }
