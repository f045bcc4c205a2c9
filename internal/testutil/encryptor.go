package testutil

import (
	"songs-history/internal/encryption"
)

// NewTestEncryptor creates a deterministic header-only encryptor for testing.
func NewTestEncryptor() *encryption.TestEncryptor {
	return encryption.NewTestEncryptor()
}
