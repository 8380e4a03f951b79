package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowedRole(t *testing.T) {
	assert.True(t, AllowedRole(Donate, Donor))
	assert.True(t, AllowedRole(ManageProjects, Admin))
	assert.False(t, AllowedRole(ManageProjects, Donor))
	assert.False(t, AllowedRole(ViewLedger, Donor))
	assert.False(t, AllowedRole("unknown", Admin))
}

func TestEveryPermissionHasRoles(t *testing.T) {
	for perm, roles := range PermissionRoles {
		assert.NotEmpty(t, roles, perm)
		for _, r := range roles {
			assert.True(t, IsValidRole(r), "%s: %s", perm, r)
		}
	}
}
