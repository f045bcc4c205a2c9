package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"songs-history/internal/archive"
	"songs-history/internal/changelog"
	"songs-history/internal/config"
	"songs-history/internal/database"
	"songs-history/internal/encryption"
	"songs-history/internal/gitrepo"
)

// ErrEncryptionDisabled is returned by InitKeys when [encryption] type is "none".
var ErrEncryptionDisabled = errors.New("encryption is disabled (set [encryption] type = \"age\")")

// ledgerSnapshotKey is the archive key the ledger copy is uploaded under.
const ledgerSnapshotKey = "ledger/" + database.LedgerFileName

// SongsApp is the application layer between the CLI and ChangelogService.
// It constructs all dependencies from config and manages the ledger and log
// file lifecycle on Close.
type SongsApp struct {
	cfg       *config.Config
	repoPath  string
	store     *database.SQLiteStore
	archive   changelog.Archive
	encryptor changelog.Encryptor
	service   *changelog.ChangelogService
	logger    *slog.Logger
	logFile   *os.File
	recorded  bool
}

// NewSongsApp creates a fully wired SongsApp from the given config.
// repoPath may be empty for commands that only read the ledger or the archive.
// The caller must call Close when done.
func NewSongsApp(cfg *config.Config, repoPath string) (*SongsApp, error) {
	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	a := &SongsApp{cfg: cfg, logger: logger, logFile: logFile}
	if err := a.wire(repoPath); err != nil {
		a.closeResources()
		return nil, err
	}
	return a, nil
}

func (a *SongsApp) wire(repoPath string) error {
	var history changelog.History
	if repoPath != "" {
		abs, err := filepath.Abs(repoPath)
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}
		h, err := gitrepo.Open(abs)
		if err != nil {
			return err
		}
		a.repoPath = abs
		history = h
	}

	store, err := database.NewStoreFromConfig(a.cfg.Database)
	if err != nil {
		return fmt.Errorf("creating ledger: %w", err)
	}
	var ledger changelog.Store
	if store != nil {
		a.logger.Debug("ledger opened", "path", store.Path())
		a.store = store
		ledger = store
	}

	arc, err := archive.NewArchiveFromConfig(a.cfg.Archive)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	if arc != nil {
		if err := arc.ValidateSetup(); err != nil {
			return fmt.Errorf("validating archive %s: %w", arc.Name(), err)
		}
		a.archive = arc
	}

	enc, err := encryption.NewEncryptorFromConfig(a.cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	a.encryptor = enc

	opts := changelog.Options{
		TrackedDir:   a.cfg.TrackedDir,
		SummaryPath:  a.cfg.SummaryPath,
		Title:        a.cfg.Title,
		LinkTemplate: a.cfg.LinkTemplate,
	}
	a.service = changelog.NewChangelogService(history, ledger, a.archive, a.encryptor, opts,
		&slogAdapter{l: a.logger}, changelog.RealClock{}, changelog.UUIDGenerator{})
	return nil
}

// Generate builds the report for the opened repository and writes it to
// outputPath. Without force an existing file is an OutputExistsError and is
// left untouched. The report is built in memory first, and the output file is
// removed again if writing or recording fails, so a failed run leaves no
// output behind. Failed runs are recorded in the ledger when one is configured.
func (a *SongsApp) Generate(outputPath string, force bool) (*changelog.Run, error) {
	if a.repoPath == "" {
		return nil, fmt.Errorf("no repository opened")
	}
	if err := a.service.CheckReady(); err != nil {
		return nil, err
	}
	if err := checkOutput(outputPath, force); err != nil {
		return nil, err
	}

	gen := a.service.NewGeneration()
	run, err := a.generate(gen, outputPath, force)
	if err != nil {
		a.recordFailure(gen, err)
		return nil, err
	}
	a.recorded = true

	a.logger.Info("report written", "path", outputPath, "run", run.ID, "sections", run.SectionCount, "events", run.EventCount)
	return run, nil
}

func (a *SongsApp) generate(gen *changelog.Generation, outputPath string, force bool) (*changelog.Run, error) {
	if err := a.service.Populate(gen); err != nil {
		return nil, err
	}

	f, err := openOutput(outputPath, force)
	if err != nil {
		return nil, err
	}
	if err := a.service.Write(gen, f); err != nil {
		f.Close()
		a.removeOutput(outputPath)
		return nil, fmt.Errorf("writing %s: %w", outputPath, err)
	}
	if err := f.Close(); err != nil {
		a.removeOutput(outputPath)
		return nil, fmt.Errorf("closing %s: %w", outputPath, err)
	}

	run, err := a.service.Record(gen, a.repoPath)
	if err != nil {
		a.removeOutput(outputPath)
		return nil, err
	}
	return run, nil
}

func (a *SongsApp) removeOutput(path string) {
	if err := os.Remove(path); err != nil {
		a.logger.Warn("could not remove output of failed run", "path", path, "error", err)
	}
}

// recordFailure stores a failed run. The original error is what the caller
// sees, so a ledger error here is only logged.
func (a *SongsApp) recordFailure(gen *changelog.Generation, cause error) {
	a.logger.Info("run failed", "run", gen.RunID, "error", cause)
	if a.store == nil {
		return
	}
	if _, err := a.service.RecordFailure(gen, a.repoPath, cause); err != nil {
		a.logger.Warn("could not record failed run", "run", gen.RunID, "error", err)
		return
	}
	a.recorded = true
}

// GetRuns returns the most recent runs from the ledger.
func (a *SongsApp) GetRuns(limit int) ([]*changelog.Run, error) {
	return a.service.GetRuns(limit)
}

// GetVideoLog returns the events recorded for videoID in the given run, or in
// the latest run when runID is empty.
func (a *SongsApp) GetVideoLog(videoID, runID string) (*changelog.Run, []*changelog.Event, error) {
	return a.service.GetVideoLog(videoID, runID)
}

// NeedsPassphrase reports whether ShowReport needs the key passphrase.
func (a *SongsApp) NeedsPassphrase() bool {
	return a.service.NeedsPassphrase()
}

// ShowReport writes the archived report of runID to w.
func (a *SongsApp) ShowReport(runID, passphrase string, w io.Writer) error {
	return a.service.ShowReport(runID, passphrase, w)
}

// InitKeys generates the key pair used to encrypt archived reports.
func (a *SongsApp) InitKeys(passphrase string) error {
	if a.encryptor == nil {
		return ErrEncryptionDisabled
	}
	if err := a.encryptor.Setup(passphrase); err != nil {
		return fmt.Errorf("setting up keys: %w", err)
	}
	a.logger.Info("encryption keys created", "public_key", a.cfg.Encryption.PublicKeyPath)
	return nil
}

// Close releases all resources. After a recorded run, a snapshot of the
// ledger is uploaded to the archive when both are configured.
func (a *SongsApp) Close() error {
	var firstErr error

	if a.recorded && a.store != nil && a.archive != nil {
		if err := a.snapshotLedger(); err != nil {
			a.logger.Warn("ledger snapshot failed", "error", err)
			firstErr = err
		}
	}

	if err := a.closeResources(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (a *SongsApp) closeResources() error {
	var firstErr error
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			firstErr = fmt.Errorf("closing ledger: %w", err)
		}
		a.store = nil
	}
	if a.logFile != nil {
		a.logFile.Close()
		a.logFile = nil
	}
	return firstErr
}

// snapshotLedger copies the ledger to a temp file and uploads it.
func (a *SongsApp) snapshotLedger() error {
	tmpDir, err := os.MkdirTemp("", "songs-history-ledger-*")
	if err != nil {
		return fmt.Errorf("creating temp dir for ledger snapshot: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	// VACUUM INTO refuses to overwrite, so the target must not exist yet.
	tmpPath := filepath.Join(tmpDir, database.LedgerFileName)
	if err := a.store.BackupTo(tmpPath); err != nil {
		return err
	}

	f, err := os.Open(tmpPath)
	if err != nil {
		return fmt.Errorf("opening ledger snapshot: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat ledger snapshot: %w", err)
	}

	if err := a.archive.Put(ledgerSnapshotKey, f, info.Size()); err != nil {
		return fmt.Errorf("uploading ledger snapshot to %s: %w", a.archive.Name(), err)
	}
	a.logger.Debug("ledger snapshot uploaded", "key", ledgerSnapshotKey, "size", info.Size())
	return nil
}
