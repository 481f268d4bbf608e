package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminCredentialVerify(t *testing.T) {
	cred, err := NewAdminCredential("hunter2-but-longer")
	require.NoError(t, err)

	assert.True(t, cred.Verify("hunter2-but-longer"))
	assert.False(t, cred.Verify("hunter2-but-wrong"))
	assert.False(t, cred.Verify(""))
	// Repeated verification works; the enclave survives each open.
	assert.True(t, cred.Verify("hunter2-but-longer"))
}

func TestAdminCredentialRejectsEmptyPassword(t *testing.T) {
	_, err := NewAdminCredential("")
	assert.Error(t, err)
}
