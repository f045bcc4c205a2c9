package changelog

import (
	"reflect"
	"testing"
)

func TestVideoID(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"output/songs/abc123.ext", "abc123"},
		{"output/songs/abc123.info.json", "abc123.info"},
		{"output/songs/noext", "noext"},
		{"output/songs/sub/dQw4w9WgXcQ.webm", "dQw4w9WgXcQ"},
		{"output/songs/.hidden", ".hidden"},
		{"output/songs/.hidden.ext", ".hidden"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := VideoID(tt.path); got != tt.want {
				t.Errorf("VideoID(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestUnderDir(t *testing.T) {
	tests := []struct {
		path string
		dir  string
		want bool
	}{
		{"output/songs/a.ext", "output/songs", true},
		{"output/songs/sub/a.ext", "output/songs", true},
		{"output/songs", "output/songs", true},
		{"output/songsX/a.ext", "output/songs", false},
		{"output/summary.json", "output/songs", false},
		{"README.md", "output/songs", false},
		{"output/songs/a.ext", "/output/songs/", true},
		{"anything", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path+"|"+tt.dir, func(t *testing.T) {
			if got := UnderDir(tt.path, tt.dir); got != tt.want {
				t.Errorf("UnderDir(%q, %q) = %v, want %v", tt.path, tt.dir, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	deltas := []Delta{
		{Status: DeltaAdded, Path: "output/songs/a.ext"},
		{Status: DeltaDeleted, Path: "output/songs/b.ext"},
		{Status: DeltaModified, Path: "output/songs/c.ext"},
		{Status: DeltaRenamed, Path: "output/songs/d.ext"},
		{Status: DeltaTypeChanged, Path: "output/songs/e.ext"},
		{Status: DeltaAdded, Path: "output/summary.json"},
		{Status: DeltaDeleted, Path: "other/f.ext"},
		{Status: DeltaAdded, Path: "output/songs/g.ext"},
	}

	added, deleted := Classify(deltas, "output/songs")

	if want := []string{"a", "g"}; !reflect.DeepEqual(added, want) {
		t.Errorf("added = %v, want %v", added, want)
	}
	if want := []string{"b"}; !reflect.DeepEqual(deleted, want) {
		t.Errorf("deleted = %v, want %v", deleted, want)
	}
}

func TestClassify_Empty(t *testing.T) {
	added, deleted := Classify(nil, "output/songs")
	if len(added) != 0 || len(deleted) != 0 {
		t.Errorf("Classify(nil) = %v, %v, want nothing", added, deleted)
	}
}
