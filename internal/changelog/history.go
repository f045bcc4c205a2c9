package changelog

import "time"

// History is the read-only view of a version-controlled repository that the
// changelog pipeline needs. Implementations never mutate history.
type History interface {
	// Head resolves the commit ID the repository's HEAD points at.
	Head() (string, error)

	// Walk lists the IDs of all commits reachable from the given commit,
	// newest first. The order must be deterministic for a fixed history.
	Walk(from string) ([]string, error)

	// Commit returns the commit with the given ID.
	Commit(id string) (*Commit, error)

	// Diff compares the trees of two commits and returns one Delta per changed
	// entry, restricted to paths under prefix. An empty prefix means the whole tree.
	Diff(fromID, toID, prefix string) ([]Delta, error)

	// ReadFile returns the content of the file at path in the given commit's tree.
	ReadFile(commitID, path string) ([]byte, error)
}

// CommitTime is a commit timestamp as recorded by git: seconds since the
// epoch plus the committer's UTC offset in minutes.
type CommitTime struct {
	Seconds       int64
	OffsetMinutes int
}

// NewCommitTime converts a time.Time, keeping its zone offset.
func NewCommitTime(t time.Time) CommitTime {
	_, offset := t.Zone()
	return CommitTime{Seconds: t.Unix(), OffsetMinutes: offset / 60}
}

// Time returns the commit time in the committer's own zone.
func (c CommitTime) Time() time.Time {
	return time.Unix(c.Seconds, 0).In(time.FixedZone("", c.OffsetMinutes*60))
}

// Commit is a single commit object.
type Commit struct {
	ID      string
	Parents []string
	Time    CommitTime
}

// FirstParent returns the commit's first parent. ok is false for root commits.
func (c *Commit) FirstParent() (id string, ok bool) {
	if len(c.Parents) == 0 {
		return "", false
	}
	return c.Parents[0], true
}

// DeltaStatus classifies a single tree entry change.
type DeltaStatus int

const (
	DeltaUnmodified DeltaStatus = iota
	DeltaAdded
	DeltaDeleted
	DeltaModified
	DeltaRenamed
	DeltaTypeChanged
)

func (s DeltaStatus) String() string {
	switch s {
	case DeltaAdded:
		return "added"
	case DeltaDeleted:
		return "deleted"
	case DeltaModified:
		return "modified"
	case DeltaRenamed:
		return "renamed"
	case DeltaTypeChanged:
		return "typechange"
	default:
		return "unmodified"
	}
}

// Delta is one file-level difference between two trees. Path is the path of
// the affected entry; for deletions it is the path the entry had before removal.
type Delta struct {
	Status DeltaStatus
	Path   string
}
