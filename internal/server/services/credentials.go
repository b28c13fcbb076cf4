// Package services contains server-side business logic. This file implements
// CredentialService: registration, login with lockout bookkeeping, bearer
// token verification and staff provisioning.
package services

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/shopkeeper/internal/common"
	"github.com/dmitrijs2005/shopkeeper/internal/dbx"
	"github.com/dmitrijs2005/shopkeeper/internal/logging"
	"github.com/dmitrijs2005/shopkeeper/internal/server/auth"
	"github.com/dmitrijs2005/shopkeeper/internal/server/blindindex"
	"github.com/dmitrijs2005/shopkeeper/internal/server/lockout"
	"github.com/dmitrijs2005/shopkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/shopkeeper/internal/server/models"
	"github.com/dmitrijs2005/shopkeeper/internal/server/password"
	"github.com/dmitrijs2005/shopkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const TokenTypeBearer = "bearer"

// TokenResult is returned by Register and Login.
type TokenResult struct {
	Token     string
	TokenType string
	Subject   string
}

// RegisterInput carries a customer registration. Nil PII means "not provided".
type RegisterInput struct {
	Email    string
	Password string
	FullName *string
	Phone    *string
	Address  *string
}

// StaffInput carries a staff account to provision.
type StaffInput struct {
	Email    string
	Password string
	Role     string
	FullName *string
}

// Profile is the decrypted view of the authenticated account. PII that
// cannot be decrypted is nil.
type Profile struct {
	ID         string
	Kind       models.Kind
	Role       string
	FullName   *string
	Phone      *string
	Address    *string
	IsActive   bool
	IsVerified bool
	CreatedAt  time.Time
}

// CredentialService orchestrates the credential primitives over the account store.
type CredentialService struct {
	db          dbx.DBTX
	tx          dbx.Runner
	repomanager repomanager.RepositoryManager
	c           *Components
	metrics     *metrics.Auth
	logger      logging.Logger

	now   func() time.Time
	newID func() string
}

// NewCredentialService constructs the service. db serves single-statement
// reads and writes; tx runs the multi-statement registration.
func NewCredentialService(db dbx.DBTX, tx dbx.Runner, m repomanager.RepositoryManager, c *Components, logger logging.Logger, mt *metrics.Auth) *CredentialService {
	return &CredentialService{
		db:          db,
		tx:          tx,
		repomanager: m,
		c:           c,
		metrics:     mt,
		logger:      logger.With("module", "credentials"),
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// WithClock replaces the time source for lockout decisions.
func (s *CredentialService) WithClock(now func() time.Time) *CredentialService {
	s.now = now
	return s
}

// Register creates a customer account and returns a token for it.
func (s *CredentialService) Register(ctx context.Context, in RegisterInput) (*TokenResult, error) {
	acc, err := s.createAccount(ctx, in.Email, in.Password, models.KindCustomer, "", in.FullName, in.Phone, in.Address)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrDuplicateEmail):
			s.metrics.Register(metrics.OutcomeDuplicate)
		case errors.Is(err, common.ErrValidation):
			s.metrics.Register(metrics.OutcomeInvalid)
		}
		return nil, err
	}

	res, err := s.issue(acc)
	if err != nil {
		s.logger.Error(ctx, "token issue failed", "account_id", acc.ID, "error", err)
		return nil, common.ErrorInternal
	}

	s.metrics.Register(metrics.OutcomeSuccess)
	s.logger.Info(ctx, "customer registered", "account_id", acc.ID)
	return res, nil
}

// CreateStaff provisions a support or admin account.
func (s *CredentialService) CreateStaff(ctx context.Context, in StaffInput) (*models.Account, error) {
	if !models.IsStaffRole(in.Role) {
		return nil, fmt.Errorf("%w: unknown staff role %q", common.ErrValidation, in.Role)
	}

	acc, err := s.createAccount(ctx, in.Email, in.Password, models.KindStaff, in.Role, in.FullName, nil, nil)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "staff account created", "account_id", acc.ID, "role", acc.StaffRole)
	return acc, nil
}

// Login checks the password and returns a token. Every failure is
// common.ErrorUnauthorized.
func (s *CredentialService) Login(ctx context.Context, email, pw string) (*TokenResult, error) {
	emailHash := s.c.Indexer.Index(email)
	log := s.logger.With("email_ref", emailRef(emailHash))

	repo := s.repomanager.Accounts(s.db)
	acc, err := repo.FindByEmailHash(ctx, emailHash)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.c.Hasher.Verify(pw, s.c.DummyHandle)
			s.metrics.Login(metrics.OutcomeFailed)
			log.Info(ctx, "login failed: unknown email")
			return nil, common.ErrorUnauthorized
		}
		log.Error(ctx, "account lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	log = log.With("account_id", acc.ID)

	if !acc.IsActive {
		s.metrics.Login(metrics.OutcomeFailed)
		log.Info(ctx, "login failed: inactive account")
		return nil, common.ErrorUnauthorized
	}

	now := s.now()
	state := lockout.State{FailedCount: acc.FailedLoginCount, LockedUntil: acc.LockedUntil}
	if s.c.Lockout.Locked(state, now) {
		s.metrics.Login(metrics.OutcomeLocked)
		log.Warn(ctx, "login rejected: account locked", "locked_until", *acc.LockedUntil)
		return nil, common.ErrorUnauthorized
	}

	ok := s.c.Hasher.Verify(pw, acc.PasswordHash)

	next := s.c.Lockout.Succeed()
	if !ok {
		next = s.c.Lockout.Fail(state, now)
	}

	if lockout.Dirty(state, next) {
		if err := repo.UpdateLockoutFields(ctx, acc.Kind, acc.ID, next.FailedCount, next.LockedUntil); err != nil {
			log.Error(ctx, "lockout update failed", "error", err)
			return nil, common.ErrorInternal
		}
	}

	if !ok {
		s.metrics.Login(metrics.OutcomeFailed)
		if next.LockedUntil != nil {
			log.Warn(ctx, "account locked after repeated failures", "locked_until", *next.LockedUntil)
		} else {
			log.Info(ctx, "login failed: wrong password", "failed_count", next.FailedCount)
		}
		return nil, common.ErrorUnauthorized
	}

	res, err := s.issue(acc)
	if err != nil {
		log.Error(ctx, "token issue failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.metrics.Login(metrics.OutcomeSuccess)
	log.Info(ctx, "login succeeded", "role", acc.Role())
	return res, nil
}

// VerifyToken returns the identity asserted by token or common.ErrInvalidToken.
func (s *CredentialService) VerifyToken(ctx context.Context, token string) (*auth.Identity, error) {
	id, err := s.c.Tokens.Verify(token)
	if err != nil {
		s.metrics.TokenVerify(metrics.OutcomeInvalid)
		s.logger.Debug(ctx, "token rejected", "error", err)
		return nil, common.ErrInvalidToken
	}

	s.metrics.TokenVerify(metrics.OutcomeValid)
	return id, nil
}

// CurrentAccount resolves token to the stored account and decrypts its PII.
// A subject that no longer exists, or whose role changed, is an invalid token.
func (s *CredentialService) CurrentAccount(ctx context.Context, token string) (*Profile, error) {
	id, err := s.VerifyToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.Profile(ctx, id)
}

// Profile loads the account behind an already verified identity.
func (s *CredentialService) Profile(ctx context.Context, id *auth.Identity) (*Profile, error) {
	repo := s.repomanager.Accounts(s.db)
	acc, err := repo.FindByID(ctx, models.KindForRole(id.Role), id.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		s.logger.Error(ctx, "account lookup failed", "account_id", id.Subject, "error", err)
		return nil, common.ErrorInternal
	}

	if acc.Role() != id.Role {
		return nil, common.ErrInvalidToken
	}

	return &Profile{
		ID:         acc.ID,
		Kind:       acc.Kind,
		Role:       acc.Role(),
		FullName:   s.c.Cipher.Decrypt(acc.FullNameEnc),
		Phone:      s.c.Cipher.Decrypt(acc.PhoneEnc),
		Address:    s.c.Cipher.Decrypt(acc.AddressEnc),
		IsActive:   acc.IsActive,
		IsVerified: acc.IsVerified,
		CreatedAt:  acc.CreatedAt,
	}, nil
}

// --- helpers below ---

func (s *CredentialService) createAccount(ctx context.Context, email, pw string, kind models.Kind, role string, fullName, phone, address *string) (*models.Account, error) {
	if blindindex.Normalize(email) == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: email is required", common.ErrValidation)
	}
	if err := s.c.Hasher.Validate(pw); err != nil {
		return nil, err
	}

	emailHash := s.c.Indexer.Index(email)
	log := s.logger.With("email_ref", emailRef(emailHash), "kind", string(kind))

	if _, err := s.repomanager.Accounts(s.db).FindByEmailHash(ctx, emailHash); err == nil {
		log.Info(ctx, "registration declined: email taken")
		return nil, common.ErrDuplicateEmail
	} else if !errors.Is(err, common.ErrorNotFound) {
		log.Error(ctx, "account lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	pwHash, err := s.c.Hasher.Hash(pw)
	if err != nil {
		return nil, err
	}

	acc := &models.Account{
		ID:           s.newID(),
		Kind:         kind,
		StaffRole:    role,
		EmailHash:    emailHash,
		PasswordHash: pwHash,
		PasswordAlgo: password.Algorithm,
		IsActive:     true,
	}

	for _, f := range []struct {
		dst   *[]byte
		plain *string
	}{
		{&acc.FullNameEnc, fullName},
		{&acc.PhoneEnc, phone},
		{&acc.AddressEnc, address},
	} {
		if *f.dst, err = s.c.Cipher.Encrypt(f.plain); err != nil {
			log.Error(ctx, "pii encryption failed", "error", err)
			return nil, common.ErrorInternal
		}
	}

	err = s.tx.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)
		if err := repo.ReserveEmail(ctx, emailHash, kind); err != nil {
			return err
		}
		created, err := repo.Insert(ctx, acc)
		if err != nil {
			return err
		}
		acc = created
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			log.Info(ctx, "registration declined: email taken concurrently")
			return nil, common.ErrDuplicateEmail
		}
		log.Error(ctx, "account insert failed", "error", err)
		return nil, common.ErrorInternal
	}

	return acc, nil
}

func (s *CredentialService) issue(acc *models.Account) (*TokenResult, error) {
	token, err := s.c.Tokens.IssueDefault(acc.ID, acc.Role())
	if err != nil {
		return nil, err
	}
	return &TokenResult{Token: token, TokenType: TokenTypeBearer, Subject: acc.ID}, nil
}

// emailRef is a short, non-reversible reference for log correlation.
func emailRef(hash []byte) string {
	if len(hash) > 4 {
		hash = hash[:4]
	}
	return hex.EncodeToString(hash)
}
