package gitrepo

import (
	"errors"
	"fmt"
	"path"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	"songs-history/internal/changelog"
)

// GitHistory implements changelog.History on top of an on-disk git repository.
// Both regular and bare repositories are supported.
type GitHistory struct {
	repo *gogit.Repository
}

var _ changelog.History = (*GitHistory)(nil)

// Open opens the git repository at path.
func Open(path string) (*GitHistory, error) {
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository %s: %w", path, err)
	}
	return &GitHistory{repo: repo}, nil
}

// Head resolves HEAD to a commit hash.
func (g *GitHistory) Head() (string, error) {
	ref, err := g.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

// Walk lists every commit reachable from the given one in committer-time
// order, newest first, the same order `git log` uses by default.
func (g *GitHistory) Walk(from string) ([]string, error) {
	iter, err := g.repo.Log(&gogit.LogOptions{
		From:  plumbing.NewHash(from),
		Order: gogit.LogOrderCommitterTime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get commit log: %w", err)
	}
	defer iter.Close()

	var ids []string
	err = iter.ForEach(func(c *object.Commit) error {
		ids = append(ids, c.Hash.String())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate commits: %w", err)
	}
	return ids, nil
}

// Commit loads a commit object. The commit time is the committer's.
func (g *GitHistory) Commit(id string) (*changelog.Commit, error) {
	c, err := g.repo.CommitObject(plumbing.NewHash(id))
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", id, err)
	}

	parents := make([]string, len(c.ParentHashes))
	for i, h := range c.ParentHashes {
		parents[i] = h.String()
	}

	return &changelog.Commit{
		ID:      c.Hash.String(),
		Parents: parents,
		Time:    changelog.NewCommitTime(c.Committer.When),
	}, nil
}

// Diff compares the subtrees at prefix of two commits. A subtree missing on
// one side diffs as empty, so its whole content shows up as added or deleted.
// Renames are not detected: they appear as a deletion plus an addition.
func (g *GitHistory) Diff(fromID, toID, prefix string) ([]changelog.Delta, error) {
	prefix = strings.Trim(prefix, "/")

	fromTree, err := g.subtree(fromID, prefix)
	if err != nil {
		return nil, err
	}
	toTree, err := g.subtree(toID, prefix)
	if err != nil {
		return nil, err
	}
	if fromTree == nil && toTree == nil {
		return nil, nil
	}

	changes, err := object.DiffTree(fromTree, toTree)
	if err != nil {
		return nil, fmt.Errorf("failed to diff trees: %w", err)
	}

	deltas := make([]changelog.Delta, 0, len(changes))
	for _, change := range changes {
		action, err := change.Action()
		if err != nil {
			return nil, fmt.Errorf("failed to classify change: %w", err)
		}

		var d changelog.Delta
		switch action {
		case merkletrie.Insert:
			d = changelog.Delta{Status: changelog.DeltaAdded, Path: change.To.Name}
		case merkletrie.Delete:
			d = changelog.Delta{Status: changelog.DeltaDeleted, Path: change.From.Name}
		case merkletrie.Modify:
			d = changelog.Delta{Status: changelog.DeltaModified, Path: change.To.Name}
		default:
			continue
		}
		if prefix != "" {
			d.Path = path.Join(prefix, d.Path)
		}
		deltas = append(deltas, d)
	}
	return deltas, nil
}

// subtree returns the tree at prefix in the given commit, or nil if the
// commit has no such directory.
func (g *GitHistory) subtree(commitID, prefix string) (*object.Tree, error) {
	c, err := g.repo.CommitObject(plumbing.NewHash(commitID))
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", commitID, err)
	}
	tree, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree of %s: %w", commitID, err)
	}
	if prefix == "" {
		return tree, nil
	}

	sub, err := tree.Tree(prefix)
	if err != nil {
		if errors.Is(err, object.ErrDirectoryNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get %s in %s: %w", prefix, commitID, err)
	}
	return sub, nil
}

// ReadFile returns the content of the blob at path in the commit's tree.
func (g *GitHistory) ReadFile(commitID, path string) ([]byte, error) {
	c, err := g.repo.CommitObject(plumbing.NewHash(commitID))
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", commitID, err)
	}
	tree, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree of %s: %w", commitID, err)
	}
	f, err := tree.File(path)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s: %w", path, err)
	}
	contents, err := f.Contents()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return []byte(contents), nil
}
