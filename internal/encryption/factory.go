package encryption

import (
	"fmt"

	"songs-history/internal/changelog"
	"songs-history/internal/config"
)

// NewEncryptorFromConfig creates an Encryptor based on the configuration type.
// Archived reports stay in plaintext for type "none", signalled by a nil
// Encryptor.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (changelog.Encryptor, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "age":
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
