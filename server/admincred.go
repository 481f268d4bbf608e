package server

import (
	"crypto/subtle"
	"fmt"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/argon2"

	"github.com/jmcleod/cvdrop/internal/util"
)

// Argon2id parameters for the admin credential verifier.
const (
	argonTime        = 1
	argonMemoryKiB   = 64 * 1024
	argonParallelism = 4
	argonKeyLen      = 32
	argonSaltLen     = 16
)

// AdminCredential holds the verifier for the single shared admin secret.
// The configured plaintext is expanded into an argon2id-derived key at
// startup; the key lives in a memguard enclave and submissions are checked
// with a constant-time compare.
type AdminCredential struct {
	salt    []byte
	enclave *memguard.Enclave
}

// NewAdminCredential derives the verifier from the configured password.
func NewAdminCredential(password string) (*AdminCredential, error) {
	if password == "" {
		return nil, fmt.Errorf("admin password must not be empty")
	}
	salt, err := util.RandomBytes(argonSaltLen)
	if err != nil {
		return nil, fmt.Errorf("generating verifier salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemoryKiB, argonParallelism, argonKeyLen)
	// NewEnclave wipes the source buffer.
	return &AdminCredential{salt: salt, enclave: memguard.NewEnclave(key)}, nil
}

// Verify reports whether the submitted password matches. It never returns
// early on a mismatch: the argon2id derivation dominates the timing and the
// final compare is constant-time.
func (c *AdminCredential) Verify(candidate string) bool {
	derived := argon2.IDKey([]byte(candidate), c.salt, argonTime, argonMemoryKiB, argonParallelism, argonKeyLen)
	buf, err := c.enclave.Open()
	if err != nil {
		return false
	}
	defer buf.Destroy()
	return subtle.ConstantTimeCompare(derived, buf.Bytes()) == 1
}
