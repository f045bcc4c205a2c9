package changelog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"
)

const (
	DefaultTrackedDir  = "output/songs"
	DefaultSummaryPath = "output/summary.json"
)

// ErrLedgerDisabled is returned by ledger queries when no Store is configured.
var ErrLedgerDisabled = errors.New("run ledger is disabled")

// ErrArchiveDisabled is returned by archive queries when no Archive is configured.
var ErrArchiveDisabled = errors.New("report archive is disabled")

// ErrKeysNotConfigured is returned by CheckReady when reports would be
// encrypted but no key pair exists yet.
var ErrKeysNotConfigured = errors.New("encryption keys are not configured (run `songs-history keys init`)")

// Options controls where the pipeline looks and how the report is rendered.
type Options struct {
	TrackedDir   string
	SummaryPath  string
	Title        string
	LinkTemplate string
}

func (o Options) withDefaults() Options {
	if o.TrackedDir == "" {
		o.TrackedDir = DefaultTrackedDir
	}
	if o.SummaryPath == "" {
		o.SummaryPath = DefaultSummaryPath
	}
	if o.Title == "" {
		o.Title = DefaultTitle
	}
	if o.LinkTemplate == "" {
		o.LinkTemplate = DefaultLinkTemplate
	}
	return o
}

// Generation is the in-memory result of one pass over the history.
type Generation struct {
	RunID     string
	Head      string
	StartedAt time.Time
	Report    *Report
}

// ChangelogService coordinates the history backend, the event filter and the
// optional run ledger and report archive. store, archive and encryptor may be nil.
type ChangelogService struct {
	history   History
	store     Store
	archive   Archive
	encryptor Encryptor
	opts      Options
	renderer  *Renderer
	logger    Logger
	clock     Clock
	idgen     IDGenerator
}

// NewChangelogService creates a ChangelogService with the provided dependencies.
func NewChangelogService(history History, store Store, archive Archive, encryptor Encryptor, opts Options, logger Logger, clock Clock, idgen IDGenerator) *ChangelogService {
	opts = opts.withDefaults()
	return &ChangelogService{
		history:   history,
		store:     store,
		archive:   archive,
		encryptor: encryptor,
		opts:      opts,
		renderer:  NewRenderer(opts.LinkTemplate),
		logger:    logger,
		clock:     clock,
		idgen:     idgen,
	}
}

// CheckReady verifies the preconditions of Record that can be checked before
// any work is done.
func (s *ChangelogService) CheckReady() error {
	if s.archive != nil && s.encryptor != nil && !s.encryptor.IsConfigured() {
		return ErrKeysNotConfigured
	}
	return nil
}

// Build walks the history from head, oldest commit first, and assembles the
// filtered report.
func (s *ChangelogService) Build() (*Generation, error) {
	gen := s.NewGeneration()
	if err := s.Populate(gen); err != nil {
		return nil, err
	}
	return gen, nil
}

// NewGeneration starts a run: it assigns the run ID and start time.
func (s *ChangelogService) NewGeneration() *Generation {
	return &Generation{
		RunID:     s.idgen.New(),
		StartedAt: s.clock.Now(),
		Report:    &Report{Title: s.opts.Title},
	}
}

// Populate fills gen with the report for the current head. The current-id
// snapshot is loaded once up front; a fresh Tracker is used for every call.
// On error gen keeps whatever was resolved so far.
func (s *ChangelogService) Populate(gen *Generation) error {
	head, err := s.history.Head()
	if err != nil {
		return fmt.Errorf("resolving head: %w", err)
	}
	gen.Head = head

	current, err := LoadCurrentIDs(s.history, head, s.opts.SummaryPath)
	if err != nil {
		return fmt.Errorf("loading current ids: %w", err)
	}
	s.logger.Debug("current ids loaded", "count", len(current), "path", s.opts.SummaryPath)

	steps, err := Walk(s.history, head)
	if err != nil {
		return err
	}

	tracker := NewTracker(current)
	for _, step := range steps {
		deltas, err := s.history.Diff(step.Parent, step.Commit.ID, s.opts.TrackedDir)
		if err != nil {
			return fmt.Errorf("diffing %s against %s: %w", step.Commit.ID, step.Parent, err)
		}

		added, deleted := Classify(deltas, s.opts.TrackedDir)
		keptAdded, keptRemoved := tracker.Filter(added, deleted)

		section := &Section{
			CommitID: step.Commit.ID,
			Time:     step.Commit.Time,
			Added:    keptAdded,
			Removed:  keptRemoved,
		}
		if !gen.Report.Append(section) && len(added)+len(deleted) > 0 {
			s.logger.Debug("commit filtered out", "commit", step.Commit.ID, "added", len(added), "deleted", len(deleted))
		}
	}

	s.logger.Info("history walked", "head", head, "commits", len(steps), "sections", len(gen.Report.Sections), "events", gen.Report.EventCount())
	return nil
}

// Write renders the generated report to w.
func (s *ChangelogService) Write(gen *Generation, w io.Writer) error {
	return s.renderer.Render(w, gen.Report)
}

// Record archives the rendered report and stores the run in the ledger, when
// those are configured. The returned Run is filled in either way.
func (s *ChangelogService) Record(gen *Generation, repoPath string) (*Run, error) {
	run := &Run{
		ID:           gen.RunID,
		RepoPath:     repoPath,
		HeadCommit:   gen.Head,
		StartedAt:    gen.StartedAt,
		FinishedAt:   s.clock.Now(),
		Status:       RunStatusSuccess,
		SectionCount: len(gen.Report.Sections),
		EventCount:   gen.Report.EventCount(),
	}

	if s.archive != nil {
		if err := s.archiveReport(gen); err != nil {
			return nil, err
		}
	}

	if s.store != nil {
		if err := s.store.RecordRun(run, EventsFromReport(run.ID, gen.Report)); err != nil {
			return nil, fmt.Errorf("recording run: %w", err)
		}
		s.logger.Debug("run recorded", "run", run.ID)
	}

	return run, nil
}

// RecordFailure stores a failed run in the ledger, when one is configured.
// gen may be partially populated; the report is neither archived nor
// flattened into events.
func (s *ChangelogService) RecordFailure(gen *Generation, repoPath string, cause error) (*Run, error) {
	run := &Run{
		ID:         gen.RunID,
		RepoPath:   repoPath,
		HeadCommit: gen.Head,
		StartedAt:  gen.StartedAt,
		FinishedAt: s.clock.Now(),
		Status:     RunStatusError,
		Error:      cause.Error(),
	}

	if s.store != nil {
		if err := s.store.RecordRun(run, nil); err != nil {
			return nil, fmt.Errorf("recording failed run: %w", err)
		}
		s.logger.Debug("failed run recorded", "run", run.ID)
	}
	return run, nil
}

func (s *ChangelogService) archiveReport(gen *Generation) error {
	var plain bytes.Buffer
	if err := s.renderer.Render(&plain, gen.Report); err != nil {
		return err
	}

	payload := &plain
	if s.encryptor != nil {
		var enc bytes.Buffer
		if err := s.encryptor.Encrypt(&plain, &enc); err != nil {
			return fmt.Errorf("encrypting report: %w", err)
		}
		payload = &enc
	}

	key := s.reportKey(gen.RunID)
	size := int64(payload.Len())
	if err := s.archive.Put(key, payload, size); err != nil {
		return fmt.Errorf("archiving report to %s: %w", s.archive.Name(), err)
	}
	s.logger.Info("report archived", "archive", s.archive.Name(), "key", key, "size", size)
	return nil
}

func (s *ChangelogService) reportKey(runID string) string {
	key := "reports/" + runID + ".md"
	if s.encryptor != nil {
		key += s.encryptor.Extension()
	}
	return key
}

// NeedsPassphrase reports whether ShowReport has to unlock a private key.
func (s *ChangelogService) NeedsPassphrase() bool {
	return s.encryptor != nil
}

// ShowReport writes an archived report to w, decrypting it if encryption is
// configured.
func (s *ChangelogService) ShowReport(runID, passphrase string, w io.Writer) error {
	if s.archive == nil {
		return ErrArchiveDisabled
	}

	if s.encryptor == nil {
		return s.archive.Get(s.reportKey(runID), w)
	}

	dc, err := s.encryptor.Unlock(passphrase)
	if err != nil {
		return fmt.Errorf("unlocking private key: %w", err)
	}

	var ciphertext bytes.Buffer
	if err := s.archive.Get(s.reportKey(runID), &ciphertext); err != nil {
		return err
	}
	if err := dc.Decrypt(&ciphertext, w); err != nil {
		return fmt.Errorf("decrypting report: %w", err)
	}
	return nil
}

// GetRuns returns the most recent runs, newest first.
func (s *ChangelogService) GetRuns(limit int) ([]*Run, error) {
	if s.store == nil {
		return nil, ErrLedgerDisabled
	}
	runs, err := s.store.ListRuns(limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// GetVideoLog returns the events recorded for one video in the given run, or
// in the latest run when runID is empty.
func (s *ChangelogService) GetVideoLog(videoID, runID string) (*Run, []*Event, error) {
	if s.store == nil {
		return nil, nil, ErrLedgerDisabled
	}

	var run *Run
	var err error
	if runID == "" {
		run, err = s.store.LatestRun()
	} else {
		run, err = s.store.FindRun(runID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("finding run: %w", err)
	}
	if run == nil {
		if runID == "" {
			return nil, nil, fmt.Errorf("no runs recorded: %w", ErrRunNotFound)
		}
		return nil, nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}

	events, err := s.store.FindEventsForVideo(run.ID, videoID)
	if err != nil {
		return nil, nil, fmt.Errorf("finding events: %w", err)
	}
	return run, events, nil
}
