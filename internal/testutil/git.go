package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitRepo is a throwaway on-disk git repository for tests.
type GitRepo struct {
	t    *testing.T
	Path string
	repo *gogit.Repository
	wt   *gogit.Worktree
}

// NewGitRepo initializes an empty repository in a temp directory.
func NewGitRepo(t *testing.T) *GitRepo {
	t.Helper()

	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init repository: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	return &GitRepo{t: t, Path: dir, repo: repo, wt: wt}
}

// Commit writes the files in add, deletes the paths in remove and commits the
// result at the given time. Paths are slash-separated and relative to the
// repository root. Returns the commit hash.
func (r *GitRepo) Commit(when time.Time, add map[string]string, remove ...string) string {
	r.t.Helper()
	r.stage(add, remove)
	return r.commit(when, nil)
}

// Merge commits the staged changes in add on top of HEAD with other as the
// second parent.
func (r *GitRepo) Merge(when time.Time, other string, add map[string]string) string {
	r.t.Helper()

	head, err := r.repo.Head()
	if err != nil {
		r.t.Fatalf("failed to get HEAD: %v", err)
	}
	r.stage(add, nil)
	return r.commit(when, []plumbing.Hash{head.Hash(), plumbing.NewHash(other)})
}

// Checkout detaches HEAD at the given commit and resets the worktree to it.
func (r *GitRepo) Checkout(id string) {
	r.t.Helper()

	err := r.wt.Checkout(&gogit.CheckoutOptions{Hash: plumbing.NewHash(id), Force: true})
	if err != nil {
		r.t.Fatalf("failed to checkout %s: %v", id, err)
	}
}

func (r *GitRepo) stage(add map[string]string, remove []string) {
	r.t.Helper()

	paths := make([]string, 0, len(add))
	for p := range add {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		full := filepath.Join(r.Path, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			r.t.Fatalf("failed to create directory for %s: %v", p, err)
		}
		if err := os.WriteFile(full, []byte(add[p]), 0644); err != nil {
			r.t.Fatalf("failed to write %s: %v", p, err)
		}
		if _, err := r.wt.Add(p); err != nil {
			r.t.Fatalf("failed to add %s: %v", p, err)
		}
	}

	for _, p := range remove {
		if _, err := r.wt.Remove(p); err != nil {
			r.t.Fatalf("failed to remove %s: %v", p, err)
		}
	}
}

func (r *GitRepo) commit(when time.Time, parents []plumbing.Hash) string {
	r.t.Helper()

	sig := &object.Signature{Name: "backup", Email: "backup@example.com", When: when}
	hash, err := r.wt.Commit("backup "+when.Format(time.RFC3339), &gogit.CommitOptions{
		Author:            sig,
		Committer:         sig,
		Parents:           parents,
		AllowEmptyCommits: true,
	})
	if err != nil {
		r.t.Fatalf("failed to commit: %v", err)
	}
	return hash.String()
}
