package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("uses env vars when set", func(t *testing.T) {
		t.Setenv("SONGS_HISTORY_CONFIG", "/custom/config.toml")
		t.Setenv("SONGS_HISTORY_HOME", "/custom/songs")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		if defaults["config_path"] != "/custom/config.toml" {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], "/custom/config.toml")
		}
		if defaults["base_dir"] != "/custom/songs" {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], "/custom/songs")
		}
		if defaults["log_dir"] != "/custom/songs/log" {
			t.Errorf("log_dir = %q, want %q", defaults["log_dir"], "/custom/songs/log")
		}
	})

	t.Run("falls back to home dir defaults", func(t *testing.T) {
		t.Setenv("SONGS_HISTORY_CONFIG", "")
		t.Setenv("SONGS_HISTORY_HOME", "")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		homeDir, _ := os.UserHomeDir()

		wantConfig := filepath.Join(homeDir, ".config", "songs-history.toml")
		if defaults["config_path"] != wantConfig {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], wantConfig)
		}

		wantBase := filepath.Join(homeDir, ".local", "share", "songs-history")
		if defaults["base_dir"] != wantBase {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], wantBase)
		}
	})
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
			t.Errorf("LoadDotEnv() error = %v", err)
		}
	})

	t.Run("sets unset variables only", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		content := "SONGS_HISTORY_HOME=/from/dotenv\nSONGS_HISTORY_CONFIG=/from/dotenv.toml\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		// t.Setenv restores both variables after the test, including the one
		// godotenv sets.
		t.Setenv("SONGS_HISTORY_HOME", "")
		os.Unsetenv("SONGS_HISTORY_HOME")
		t.Setenv("SONGS_HISTORY_CONFIG", "/from/env.toml")

		if err := LoadDotEnv(path); err != nil {
			t.Fatalf("LoadDotEnv() error = %v", err)
		}

		if got := os.Getenv("SONGS_HISTORY_HOME"); got != "/from/dotenv" {
			t.Errorf("SONGS_HISTORY_HOME = %q, want %q", got, "/from/dotenv")
		}
		if got := os.Getenv("SONGS_HISTORY_CONFIG"); got != "/from/env.toml" {
			t.Errorf("SONGS_HISTORY_CONFIG = %q, want %q", got, "/from/env.toml")
		}
	})
}
