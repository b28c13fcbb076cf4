// Package accounts persists customer and staff accounts.
package accounts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/shopkeeper/internal/server/models"
)

// Repository is the account store. Lookups return common.ErrorNotFound on a
// miss; writes that collide on the email hash return common.ErrDuplicateEmail.
type Repository interface {
	// FindByEmailHash searches customers first, then staff.
	FindByEmailHash(ctx context.Context, emailHash []byte) (*models.Account, error)
	FindByID(ctx context.Context, kind models.Kind, id string) (*models.Account, error)
	// ReserveEmail claims the hash across both account kinds.
	ReserveEmail(ctx context.Context, emailHash []byte, kind models.Kind) error
	Insert(ctx context.Context, account *models.Account) (*models.Account, error)
	UpdateLockoutFields(ctx context.Context, kind models.Kind, id string, failedCount int, lockedUntil *time.Time) error
}
