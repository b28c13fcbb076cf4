package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/shopkeeper/internal/common"
	"github.com/dmitrijs2005/shopkeeper/internal/dbx"
	"github.com/dmitrijs2005/shopkeeper/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

const customerColumns = `id, email_hash, password_hash, password_algo,
		 full_name_enc, phone_enc, address_enc,
		 is_active, is_verified, failed_login_count, locked_until,
		 version, created_at, updated_at`

const staffColumns = `id, email_hash, password_hash, password_algo, role,
		 full_name_enc,
		 is_active, is_verified, failed_login_count, locked_until,
		 version, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByEmailHash(ctx context.Context, emailHash []byte) (*models.Account, error) {
	query := `SELECT ` + customerColumns + ` FROM customers
		 WHERE email_hash = $1 AND deleted_at IS NULL`

	acc, err := scanCustomer(r.db.QueryRowContext(ctx, query, emailHash))
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	query = `SELECT ` + staffColumns + ` FROM support_staff
		 WHERE email_hash = $1 AND deleted_at IS NULL`

	return scanStaff(r.db.QueryRowContext(ctx, query, emailHash))
}

func (r *PostgresRepository) FindByID(ctx context.Context, kind models.Kind, id string) (*models.Account, error) {
	switch kind {
	case models.KindCustomer:
		query := `SELECT ` + customerColumns + ` FROM customers
		 WHERE id = $1 AND deleted_at IS NULL`
		return scanCustomer(r.db.QueryRowContext(ctx, query, id))
	case models.KindStaff:
		query := `SELECT ` + staffColumns + ` FROM support_staff
		 WHERE id = $1 AND deleted_at IS NULL`
		return scanStaff(r.db.QueryRowContext(ctx, query, id))
	default:
		return nil, fmt.Errorf("unknown account kind %q", kind)
	}
}

func (r *PostgresRepository) ReserveEmail(ctx context.Context, emailHash []byte, kind models.Kind) error {
	query :=
		`INSERT INTO email_index (email_hash, account_kind)
		 VALUES ($1, $2)`

	if _, err := r.db.ExecContext(ctx, query, emailHash, string(kind)); err != nil {
		return mapWriteError(err)
	}

	return nil
}

func (r *PostgresRepository) Insert(ctx context.Context, a *models.Account) (*models.Account, error) {
	var row *sql.Row

	switch a.Kind {
	case models.KindCustomer:
		query :=
			`INSERT INTO customers (id, email_hash, password_hash, password_algo,
		 full_name_enc, phone_enc, address_enc, is_active, is_verified)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING version, created_at, updated_at`
		row = r.db.QueryRowContext(ctx, query,
			a.ID, a.EmailHash, a.PasswordHash, a.PasswordAlgo,
			nullBytes(a.FullNameEnc), nullBytes(a.PhoneEnc), nullBytes(a.AddressEnc),
			a.IsActive, a.IsVerified)
	case models.KindStaff:
		query :=
			`INSERT INTO support_staff (id, email_hash, password_hash, password_algo,
		 role, full_name_enc, is_active, is_verified)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING version, created_at, updated_at`
		row = r.db.QueryRowContext(ctx, query,
			a.ID, a.EmailHash, a.PasswordHash, a.PasswordAlgo,
			a.StaffRole, nullBytes(a.FullNameEnc), a.IsActive, a.IsVerified)
	default:
		return nil, fmt.Errorf("unknown account kind %q", a.Kind)
	}

	if err := row.Scan(&a.Version, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, mapWriteError(err)
	}

	return a, nil
}

func (r *PostgresRepository) UpdateLockoutFields(ctx context.Context, kind models.Kind, id string, failedCount int, lockedUntil *time.Time) error {
	var query string
	switch kind {
	case models.KindCustomer:
		query =
			`UPDATE customers SET failed_login_count = $2, locked_until = $3,
		 version = version + 1, updated_at = now()
		 WHERE id = $1 AND deleted_at IS NULL`
	case models.KindStaff:
		query =
			`UPDATE support_staff SET failed_login_count = $2, locked_until = $3,
		 version = version + 1, updated_at = now()
		 WHERE id = $1 AND deleted_at IS NULL`
	default:
		return fmt.Errorf("unknown account kind %q", kind)
	}

	var until sql.NullTime
	if lockedUntil != nil {
		until = sql.NullTime{Time: *lockedUntil, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, query, id, failedCount, until)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func scanCustomer(row *sql.Row) (*models.Account, error) {
	a := &models.Account{Kind: models.KindCustomer}
	var lockedUntil sql.NullTime

	err := row.Scan(&a.ID, &a.EmailHash, &a.PasswordHash, &a.PasswordAlgo,
		&a.FullNameEnc, &a.PhoneEnc, &a.AddressEnc,
		&a.IsActive, &a.IsVerified, &a.FailedLoginCount, &lockedUntil,
		&a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	a.LockedUntil = timePtr(lockedUntil)
	return a, nil
}

func scanStaff(row *sql.Row) (*models.Account, error) {
	a := &models.Account{Kind: models.KindStaff}
	var lockedUntil sql.NullTime

	err := row.Scan(&a.ID, &a.EmailHash, &a.PasswordHash, &a.PasswordAlgo, &a.StaffRole,
		&a.FullNameEnc,
		&a.IsActive, &a.IsVerified, &a.FailedLoginCount, &lockedUntil,
		&a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	a.LockedUntil = timePtr(lockedUntil)
	return a, nil
}

// mapWriteError turns a unique violation into common.ErrDuplicateEmail.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return common.ErrDuplicateEmail
	}
	return fmt.Errorf("db error: %w", err)
}

func nullBytes(b []byte) any {
	if b == nil {
		return nil
	}
	return b
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
