package gitrepo

import (
	"fmt"
	"maps"
	"sort"
	"strings"
	"time"

	"songs-history/internal/changelog"
)

// MemoryHistory is an in-memory implementation of changelog.History.
// Each commit stores its complete tree as a path -> content map, which makes
// it useful for exercising the pipeline without a repository on disk.
type MemoryHistory struct {
	commits map[string]*memoryCommit
	head    string
	seq     int
}

type memoryCommit struct {
	commit changelog.Commit
	files  map[string]string
	seq    int
}

var _ changelog.History = (*MemoryHistory)(nil)

// NewMemoryHistory creates an empty history with no HEAD.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{commits: make(map[string]*memoryCommit)}
}

// AddCommit records a commit whose tree is exactly files and moves HEAD to it.
func (m *MemoryHistory) AddCommit(id string, parents []string, when time.Time, files map[string]string) {
	m.seq++
	m.commits[id] = &memoryCommit{
		commit: changelog.Commit{
			ID:      id,
			Parents: append([]string(nil), parents...),
			Time:    changelog.NewCommitTime(when),
		},
		files: maps.Clone(files),
		seq:   m.seq,
	}
	m.head = id
}

// CommitChange commits on top of HEAD: the new tree is HEAD's tree with add applied and the
// paths in remove deleted. Returns the generated commit ID.
func (m *MemoryHistory) CommitChange(when time.Time, add map[string]string, remove ...string) string {
	files := make(map[string]string)
	var parents []string
	if head, ok := m.commits[m.head]; ok {
		maps.Copy(files, head.files)
		parents = []string{m.head}
	}
	for p, content := range add {
		files[p] = content
	}
	for _, p := range remove {
		delete(files, p)
	}

	id := fmt.Sprintf("c%03d", m.seq+1)
	m.AddCommit(id, parents, when, files)
	return id
}

// SetHead points HEAD at an existing commit.
func (m *MemoryHistory) SetHead(id string) {
	m.head = id
}

func (m *MemoryHistory) Head() (string, error) {
	if m.head == "" {
		return "", fmt.Errorf("reference not found: HEAD")
	}
	return m.head, nil
}

// Walk returns reachable commits ordered by commit time, newest first; ties
// go to the commit recorded last.
func (m *MemoryHistory) Walk(from string) ([]string, error) {
	seen := make(map[string]bool)
	stack := []string{from}
	var reached []*memoryCommit
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true

		c, ok := m.commits[id]
		if !ok {
			return nil, fmt.Errorf("object not found: %s", id)
		}
		reached = append(reached, c)
		stack = append(stack, c.commit.Parents...)
	}

	sort.Slice(reached, func(i, j int) bool {
		a, b := reached[i], reached[j]
		if a.commit.Time.Seconds != b.commit.Time.Seconds {
			return a.commit.Time.Seconds > b.commit.Time.Seconds
		}
		return a.seq > b.seq
	})

	ids := make([]string, len(reached))
	for i, c := range reached {
		ids[i] = c.commit.ID
	}
	return ids, nil
}

func (m *MemoryHistory) Commit(id string) (*changelog.Commit, error) {
	c, ok := m.commits[id]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", id)
	}
	commit := c.commit
	commit.Parents = append([]string(nil), c.commit.Parents...)
	return &commit, nil
}

// Diff reports changes in path order, like a tree diff would.
func (m *MemoryHistory) Diff(fromID, toID, prefix string) ([]changelog.Delta, error) {
	from, ok := m.commits[fromID]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", fromID)
	}
	to, ok := m.commits[toID]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", toID)
	}

	paths := make(map[string]struct{})
	for p := range from.files {
		paths[p] = struct{}{}
	}
	for p := range to.files {
		paths[p] = struct{}{}
	}
	sorted := make([]string, 0, len(paths))
	for p := range paths {
		if changelog.UnderDir(p, strings.Trim(prefix, "/")) {
			sorted = append(sorted, p)
		}
	}
	sort.Strings(sorted)

	var deltas []changelog.Delta
	for _, p := range sorted {
		before, inFrom := from.files[p]
		after, inTo := to.files[p]
		switch {
		case !inFrom:
			deltas = append(deltas, changelog.Delta{Status: changelog.DeltaAdded, Path: p})
		case !inTo:
			deltas = append(deltas, changelog.Delta{Status: changelog.DeltaDeleted, Path: p})
		case before != after:
			deltas = append(deltas, changelog.Delta{Status: changelog.DeltaModified, Path: p})
		}
	}
	return deltas, nil
}

func (m *MemoryHistory) ReadFile(commitID, path string) ([]byte, error) {
	c, ok := m.commits[commitID]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", commitID)
	}
	content, ok := c.files[path]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	return []byte(content), nil
}
