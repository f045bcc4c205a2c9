package changelog

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestFormatCommitTime(t *testing.T) {
	tests := []struct {
		name string
		ct   CommitTime
		want string
	}{
		{
			name: "utc",
			ct:   CommitTime{Seconds: 1704067200, OffsetMinutes: 0},
			want: "Mon Jan  1 00:00:00 2024 +0000",
		},
		{
			name: "positive offset shifts wall clock",
			ct:   CommitTime{Seconds: 1709647629, OffsetMinutes: 60},
			want: "Tue Mar  5 15:07:09 2024 +0100",
		},
		{
			name: "negative offset crosses midnight",
			ct:   CommitTime{Seconds: 1704067200, OffsetMinutes: -300},
			want: "Sun Dec 31 19:00:00 2023 -0500",
		},
		{
			name: "half hour offset",
			ct:   CommitTime{Seconds: 1704067200, OffsetMinutes: 330},
			want: "Mon Jan  1 05:30:00 2024 +0530",
		},
		{
			name: "two digit day",
			ct:   CommitTime{Seconds: 1705314600, OffsetMinutes: 0},
			want: "Mon Jan 15 10:30:00 2024 +0000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCommitTime(tt.ct); got != tt.want {
				t.Errorf("FormatCommitTime() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewCommitTime(t *testing.T) {
	when := time.Date(2024, 3, 5, 15, 7, 9, 0, time.FixedZone("CET", 3600))
	ct := NewCommitTime(when)

	if ct.Seconds != when.Unix() || ct.OffsetMinutes != 60 {
		t.Errorf("NewCommitTime() = %+v, want {%d 60}", ct, when.Unix())
	}
	if !ct.Time().Equal(when) {
		t.Errorf("Time() = %v, want %v", ct.Time(), when)
	}
}

func TestRenderer_FormatVideo(t *testing.T) {
	tests := []struct {
		template string
		want     string
	}{
		{"", "[abc123](https://youtu.be/abc123)"},
		{"https://www.youtube.com/watch?v={id}", "[abc123](https://www.youtube.com/watch?v=abc123)"},
		{"https://example.com/{id}/{id}", "[abc123](https://example.com/abc123/abc123)"},
	}

	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			if got := NewRenderer(tt.template).FormatVideo("abc123"); got != tt.want {
				t.Errorf("FormatVideo() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderer_Render(t *testing.T) {
	report := &Report{Title: DefaultTitle}
	report.Append(&Section{
		CommitID: "c1",
		Time:     CommitTime{Seconds: 1704067200},
		Added:    []string{"abc123"},
	})
	report.Append(&Section{CommitID: "c2", Time: CommitTime{Seconds: 1704070800}})
	report.Append(&Section{
		CommitID: "c3",
		Time:     CommitTime{Seconds: 1704074400, OffsetMinutes: 120},
		Added:    []string{"xyz789"},
		Removed:  []string{"old1", "old2"},
	})

	var buf bytes.Buffer
	if err := NewRenderer("").Render(&buf, report); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	want := "# songs-history\n" +
		"## Mon Jan  1 00:00:00 2024 +0000\n" +
		"Added [abc123](https://youtu.be/abc123)  \n" +
		"## Mon Jan  1 04:00:00 2024 +0200\n" +
		"Added [xyz789](https://youtu.be/xyz789)  \n" +
		"Removed [old1](https://youtu.be/old1)  \n" +
		"Removed [old2](https://youtu.be/old2)  \n"
	if got := buf.String(); got != want {
		t.Errorf("Render() =\n%q\nwant:\n%q", got, want)
	}
	if report.EventCount() != 4 || len(report.Sections) != 2 {
		t.Errorf("sections=%d events=%d, want 2 and 4", len(report.Sections), report.EventCount())
	}
}

func TestRenderer_Render_TitleOnly(t *testing.T) {
	var buf bytes.Buffer
	if err := NewRenderer("").Render(&buf, &Report{}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got := buf.String(); got != "# songs-history\n" {
		t.Errorf("Render() = %q, want title line only", got)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRenderer_Render_WriteError(t *testing.T) {
	if err := NewRenderer("").Render(failingWriter{}, &Report{}); err == nil {
		t.Error("Render() expected error from failing writer")
	}
}

func TestEventsFromReport(t *testing.T) {
	report := &Report{}
	report.Append(&Section{CommitID: "c1", Added: []string{"a"}, Removed: []string{"b"}})
	report.Append(&Section{CommitID: "c2", Added: []string{"c"}})

	events := EventsFromReport("run-1", report)
	want := []struct {
		seq    int
		commit string
		action string
		video  string
	}{
		{1, "c1", ActionAdded, "a"},
		{2, "c1", ActionRemoved, "b"},
		{3, "c2", ActionAdded, "c"},
	}

	if len(events) != len(want) {
		t.Fatalf("len(events) = %d, want %d", len(events), len(want))
	}
	for i, w := range want {
		e := events[i]
		if e.RunID != "run-1" || e.Seq != w.seq || e.CommitID != w.commit || e.Action != w.action || e.VideoID != w.video {
			t.Errorf("events[%d] = %+v, want %+v", i, e, w)
		}
	}
}
