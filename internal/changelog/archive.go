package changelog

import "io"

// Archive stores rendered reports (and ledger snapshots) under slash-separated
// keys such as "reports/<run-id>.md". All operations stream through
// io.Reader/io.Writer.
type Archive interface {
	// Put stores an object, replacing any previous one under key.
	// size is the number of bytes that will be read from r.
	Put(key string, r io.Reader, size int64) error

	// Get writes the object stored under key to w. Returns an error wrapping
	// ErrRunNotFound if there is no such object.
	Get(key string, w io.Writer) error

	// ValidateSetup verifies that the archive is accessible and properly configured.
	ValidateSetup() error

	// Name identifies the archive in logs and error messages.
	Name() string
}

// Encryptor encrypts archived reports. Encryption uses the public key only;
// decryption requires unlocking the private key with a passphrase.
type Encryptor interface {
	// Setup generates a key pair, stores the public key in plaintext and
	// encrypts the private key with the passphrase.
	Setup(passphrase string) error

	// Encrypt encrypts data read from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock decrypts the private key and returns a DecryptionContext.
	// Returns an error if the passphrase is incorrect.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured returns true if both key files exist.
	IsConfigured() bool

	// Extension is appended to archive keys of encrypted reports.
	Extension() string
}

// DecryptionContext holds an unlocked private key in memory.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}
