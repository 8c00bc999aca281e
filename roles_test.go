package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trailhead-api/auth"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		input string
		want  auth.UserRole
		ok    bool
	}{
		{"member", auth.RoleMember, true},
		{"staff", auth.RoleStaff, true},
		{"admin", auth.RoleAdmin, true},
		{"superuser", auth.UserRole("superuser"), false},
		{"", auth.UserRole(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			role, ok := auth.ParseRole(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, role)
		})
	}
}

func TestRoleSet(t *testing.T) {
	set := auth.NewRoleSet(auth.RoleAdmin, auth.RoleStaff)

	assert.True(t, set.Contains(auth.RoleAdmin))
	assert.True(t, set.Contains(auth.RoleStaff))
	assert.False(t, set.Contains(auth.RoleMember))
	assert.False(t, set.Contains(auth.UserRole("superuser")))
}

func TestGetAllRolesAreValid(t *testing.T) {
	for _, role := range auth.GetAllRoles() {
		assert.True(t, role.IsValid(), "role %s", role)
	}
}
