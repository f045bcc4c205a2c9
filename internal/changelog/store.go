package changelog

import (
	"errors"
	"time"
)

// ErrRunNotFound is returned when a run ID is not known to the ledger or archive.
var ErrRunNotFound = errors.New("run not found")

// Run statuses.
const (
	RunStatusSuccess = "success"
	RunStatusError   = "error"
)

// Event actions as recorded in the ledger.
const (
	ActionAdded   = "added"
	ActionRemoved = "removed"
)

// Run describes one generation of the changelog.
type Run struct {
	ID           string
	RepoPath     string
	HeadCommit   string
	StartedAt    time.Time
	FinishedAt   time.Time
	Status       string
	SectionCount int
	EventCount   int
	Error        string // set for failed runs
}

// Event is one reported line of a run, in report order.
type Event struct {
	RunID    string
	Seq      int
	CommitID string
	Time     CommitTime
	Action   string
	VideoID  string
}

// EventsFromReport flattens a report into ledger events for the given run.
func EventsFromReport(runID string, r *Report) []*Event {
	var events []*Event
	for _, s := range r.Sections {
		for _, id := range s.Added {
			events = append(events, &Event{RunID: runID, Seq: len(events) + 1, CommitID: s.CommitID, Time: s.Time, Action: ActionAdded, VideoID: id})
		}
		for _, id := range s.Removed {
			events = append(events, &Event{RunID: runID, Seq: len(events) + 1, CommitID: s.CommitID, Time: s.Time, Action: ActionRemoved, VideoID: id})
		}
	}
	return events
}

// Store is the ledger of past runs. It is write-only from the pipeline's point
// of view: nothing recorded here influences how a later run filters events.
type Store interface {
	// RecordRun stores a finished run together with its events atomically.
	RecordRun(run *Run, events []*Event) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(limit int) ([]*Run, error)

	// LatestRun returns the newest successful run, or nil if there is none.
	LatestRun() (*Run, error)

	// FindRun returns the run with the given ID, or nil if there is none.
	FindRun(id string) (*Run, error)

	// FindEventsForVideo returns a run's events for one video, in report order.
	FindEventsForVideo(runID, videoID string) ([]*Event, error)

	// Close closes the underlying storage.
	Close() error
}
