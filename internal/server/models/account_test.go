package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccountRole(t *testing.T) {
	tests := []struct {
		name string
		acc  Account
		want string
	}{
		{"customer", Account{Kind: KindCustomer}, RoleCustomer},
		{"customer ignores staff role", Account{Kind: KindCustomer, StaffRole: RoleAdmin}, RoleCustomer},
		{"support", Account{Kind: KindStaff, StaffRole: RoleSupport}, RoleSupport},
		{"admin", Account{Kind: KindStaff, StaffRole: RoleAdmin}, RoleAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.acc.Role())
		})
	}
}

func TestKindForRole(t *testing.T) {
	assert.Equal(t, KindCustomer, KindForRole(RoleCustomer))
	assert.Equal(t, KindStaff, KindForRole(RoleSupport))
	assert.Equal(t, KindStaff, KindForRole(RoleAdmin))
}

func TestIsStaffRole(t *testing.T) {
	assert.True(t, IsStaffRole(RoleSupport))
	assert.True(t, IsStaffRole(RoleAdmin))
	assert.False(t, IsStaffRole(RoleCustomer))
	assert.False(t, IsStaffRole(""))
}
