package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowedRole(t *testing.T) {
	assert.True(t, AllowedRole(BuyProject, "investor"))
	assert.True(t, AllowedRole(BuyProject, "admin"))
	assert.False(t, AllowedRole(CreateProject, "investor"))
	assert.True(t, AllowedRole(CreateProject, "founder"))
	assert.True(t, AllowedRole(FinalizeProject, "admin"))
	assert.False(t, AllowedRole("unknown-action", "admin"))
	assert.False(t, AllowedRole(BuyProject, "viewer"))
}
