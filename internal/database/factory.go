package database

import (
	"fmt"
	"os"
	"path/filepath"

	"songs-history/internal/config"
)

// LedgerFileName is the SQLite file created inside DatabaseConfig.DataDir.
const LedgerFileName = "songs-history.db"

// NewStoreFromConfig creates the run ledger for the database config type.
// Type "none" (or empty) disables the ledger and returns a nil store.
func NewStoreFromConfig(cfg config.DatabaseConfig) (*SQLiteStore, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		return NewSQLiteStore(filepath.Join(cfg.DataDir, LedgerFileName))
	case "memory":
		return NewSQLiteStore(":memory:")
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
