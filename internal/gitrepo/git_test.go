package gitrepo_test

import (
	"bytes"
	"reflect"
	"testing"
	"time"

	"songs-history/internal/changelog"
	"songs-history/internal/gitrepo"
	"songs-history/internal/testutil"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }

func openRepo(t *testing.T, r *testutil.GitRepo) *gitrepo.GitHistory {
	t.Helper()
	g, err := gitrepo.Open(r.Path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return g
}

func TestOpen_NotARepository(t *testing.T) {
	if _, err := gitrepo.Open(t.TempDir()); err == nil {
		t.Error("Open() expected error for a plain directory")
	}
}

func TestGitHistory_HeadWalkCommit(t *testing.T) {
	r := testutil.NewGitRepo(t)
	c0 := r.Commit(at(0), map[string]string{"output/summary.json": `{"items":[]}`})
	c1 := r.Commit(at(1), map[string]string{"output/songs/a.ext": "a"})
	cet := time.FixedZone("CET", 3600)
	c2 := r.Commit(at(2).In(cet), map[string]string{"output/songs/b.ext": "b"})

	g := openRepo(t, r)

	head, err := g.Head()
	if err != nil {
		t.Fatalf("Head() error = %v", err)
	}
	if head != c2 {
		t.Errorf("Head() = %s, want %s", head, c2)
	}

	ids, err := g.Walk(head)
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if want := []string{c2, c1, c0}; !reflect.DeepEqual(ids, want) {
		t.Errorf("Walk() = %v, want %v", ids, want)
	}

	commit, err := g.Commit(c2)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if !reflect.DeepEqual(commit.Parents, []string{c1}) {
		t.Errorf("Parents = %v, want [%s]", commit.Parents, c1)
	}
	if commit.Time.Seconds != at(2).Unix() || commit.Time.OffsetMinutes != 60 {
		t.Errorf("Time = %+v, want {%d 60}", commit.Time, at(2).Unix())
	}

	root, err := g.Commit(c0)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if _, ok := root.FirstParent(); ok {
		t.Error("root commit reports a parent")
	}
}

func TestGitHistory_Diff(t *testing.T) {
	r := testutil.NewGitRepo(t)
	c0 := r.Commit(at(0), map[string]string{"README.md": "hi"})
	c1 := r.Commit(at(1), map[string]string{
		"output/songs/b.ext":  "b",
		"output/songs/a.ext":  "a",
		"output/summary.json": `{"items":[]}`,
	})
	c2 := r.Commit(at(2), map[string]string{
		"output/songs/c.ext": "c",
		"output/songs/a.ext": "a2",
		"README.md":          "changed",
	}, "output/songs/b.ext")
	c3 := r.Commit(at(3), map[string]string{"README.md": "again"})

	g := openRepo(t, r)

	tests := []struct {
		name     string
		from, to string
		prefix   string
		want     []changelog.Delta
	}{
		{
			name: "directory appears",
			from: c0, to: c1, prefix: "output/songs",
			want: []changelog.Delta{
				{Status: changelog.DeltaAdded, Path: "output/songs/a.ext"},
				{Status: changelog.DeltaAdded, Path: "output/songs/b.ext"},
			},
		},
		{
			name: "add delete modify",
			from: c1, to: c2, prefix: "output/songs",
			want: []changelog.Delta{
				{Status: changelog.DeltaModified, Path: "output/songs/a.ext"},
				{Status: changelog.DeltaDeleted, Path: "output/songs/b.ext"},
				{Status: changelog.DeltaAdded, Path: "output/songs/c.ext"},
			},
		},
		{
			name: "changes outside prefix",
			from: c2, to: c3, prefix: "output/songs",
			want: []changelog.Delta{},
		},
		{
			name: "directory missing on both sides",
			from: c0, to: c0, prefix: "output/songs",
			want: []changelog.Delta{},
		},
		{
			name: "whole tree",
			from: c2, to: c3, prefix: "",
			want: []changelog.Delta{
				{Status: changelog.DeltaModified, Path: "README.md"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.Diff(tt.from, tt.to, tt.prefix)
			if err != nil {
				t.Fatalf("Diff() error = %v", err)
			}
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Diff() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGitHistory_ReadFile(t *testing.T) {
	r := testutil.NewGitRepo(t)
	c0 := r.Commit(at(0), map[string]string{"output/summary.json": `{"items":[{"id":"a"}]}`})
	r.Commit(at(1), map[string]string{"output/summary.json": `{"items":[{"id":"b"}]}`})

	g := openRepo(t, r)

	data, err := g.ReadFile(c0, "output/summary.json")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != `{"items":[{"id":"a"}]}` {
		t.Errorf("ReadFile() = %q, want the first version", data)
	}

	if _, err := g.ReadFile(c0, "output/missing.json"); err == nil {
		t.Error("ReadFile() expected error for missing file")
	}
}

func TestGitHistory_Changelog(t *testing.T) {
	r := testutil.NewGitRepo(t)
	r.Commit(at(0), map[string]string{"output/summary.json": `{"items":[{"id":"abc123"}]}`})
	r.Commit(at(1), map[string]string{"output/songs/abc123.ext": "a"})
	r.Commit(at(2), map[string]string{"output/songs/xyz789.ext": "x"}, "output/songs/abc123.ext")

	svc := changelog.NewChangelogService(openRepo(t, r), nil, nil, nil, changelog.Options{},
		changelog.NewNopLogger(), testutil.FixedClock(), testutil.NewStubIDGenerator())

	gen, err := svc.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	var buf bytes.Buffer
	if err := svc.Write(gen, &buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	want := "# songs-history\n" +
		"## Mon Jan  1 01:00:00 2024 +0000\n" +
		"Added [abc123](https://youtu.be/abc123)  \n" +
		"## Mon Jan  1 02:00:00 2024 +0000\n" +
		"Added [xyz789](https://youtu.be/xyz789)  \n"
	if got := buf.String(); got != want {
		t.Errorf("report =\n%q\nwant:\n%q", got, want)
	}
}

func TestGitHistory_MergeFirstParent(t *testing.T) {
	r := testutil.NewGitRepo(t)
	root := r.Commit(at(0), map[string]string{"output/summary.json": `{"items":[{"id":"a"},{"id":"b"}]}`})
	main := r.Commit(at(1), map[string]string{"output/songs/a.ext": "a"})
	r.Checkout(root)
	side := r.Commit(at(2), map[string]string{"output/songs/b.ext": "b"})
	r.Checkout(main)
	merge := r.Merge(at(3), side, map[string]string{"output/songs/b.ext": "b"})

	g := openRepo(t, r)
	c, err := g.Commit(merge)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if !reflect.DeepEqual(c.Parents, []string{main, side}) {
		t.Fatalf("merge parents = %v, want [%s %s]", c.Parents, main, side)
	}

	svc := changelog.NewChangelogService(g, nil, nil, nil, changelog.Options{},
		changelog.NewNopLogger(), testutil.FixedClock(), testutil.NewStubIDGenerator())
	gen, err := svc.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	var commits []string
	for _, s := range gen.Report.Sections {
		commits = append(commits, s.CommitID)
	}
	if want := []string{main, side}; !reflect.DeepEqual(commits, want) {
		t.Errorf("sections from %v, want %v", commits, want)
	}
}
