package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleValid(t *testing.T) {
	for _, role := range []Role{RoleViewer, RolePremium, RoleAdmin} {
		assert.True(t, role.Valid(), "role %q", role)
	}
	for _, role := range []Role{"", "editor", "Premium", "ADMIN"} {
		assert.False(t, role.Valid(), "role %q", role)
	}
}
