// Package models defines server-side data models persisted in the database.
package models

import "time"

// Kind selects which identity table an account lives in.
type Kind string

const (
	KindCustomer Kind = "customer"
	KindStaff    Kind = "staff"
)

const (
	RoleCustomer = "customer"
	RoleSupport  = "support"
	RoleAdmin    = "admin"
)

// IsStaffRole reports whether role may be stored on a staff account.
func IsStaffRole(role string) bool {
	return role == RoleSupport || role == RoleAdmin
}

// KindForRole maps a token role back to the table that holds the subject.
func KindForRole(role string) Kind {
	if role == RoleCustomer {
		return KindCustomer
	}
	return KindStaff
}

// Account is either a customer or a staff member. Plaintext email is never
// stored; EmailHash is the blind index. PII fields hold ciphertext and nil
// means "not provided".
type Account struct {
	ID        string
	Kind      Kind
	StaffRole string

	EmailHash    []byte
	PasswordHash []byte
	PasswordAlgo string

	FullNameEnc []byte
	PhoneEnc    []byte
	AddressEnc  []byte

	IsActive   bool
	IsVerified bool

	FailedLoginCount int
	LockedUntil      *time.Time

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Role is "customer" for customers and the stored role for staff.
func (a *Account) Role() string {
	if a.Kind == KindStaff {
		return a.StaffRole
	}
	return RoleCustomer
}
