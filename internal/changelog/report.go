package changelog

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	DefaultTitle        = "# songs-history"
	DefaultLinkTemplate = "https://youtu.be/{id}"

	// commitTimeLayout matches strftime "%a %b %e %T %Y".
	commitTimeLayout = "Mon Jan _2 15:04:05 2006"
)

// Section is the part of a report contributed by one commit.
type Section struct {
	CommitID string
	Time     CommitTime
	Added    []string
	Removed  []string
}

// Len returns the number of event lines in the section.
func (s *Section) Len() int {
	return len(s.Added) + len(s.Removed)
}

// Report is the ordered changelog, oldest commit first.
type Report struct {
	Title    string
	Sections []*Section
}

// Append adds a section unless it has no events.
func (r *Report) Append(s *Section) bool {
	if s.Len() == 0 {
		return false
	}
	r.Sections = append(r.Sections, s)
	return true
}

// EventCount returns the number of event lines across all sections.
func (r *Report) EventCount() int {
	n := 0
	for _, s := range r.Sections {
		n += s.Len()
	}
	return n
}

// FormatCommitTime renders a commit time on the committer's wall clock,
// followed by the signed offset, e.g. "Tue Mar  5 14:07:09 2024 +0100".
func FormatCommitTime(t CommitTime) string {
	sign := '+'
	offset := t.OffsetMinutes
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	local := time.Unix(t.Seconds+int64(t.OffsetMinutes)*60, 0).UTC()
	return fmt.Sprintf("%s %c%02d%02d", local.Format(commitTimeLayout), sign, offset/60, offset%60)
}

// Renderer writes a Report as markdown text.
type Renderer struct {
	linkTemplate string
}

// NewRenderer creates a Renderer. linkTemplate is a URL in which every "{id}"
// is replaced by the video identifier; empty means DefaultLinkTemplate.
func NewRenderer(linkTemplate string) *Renderer {
	if linkTemplate == "" {
		linkTemplate = DefaultLinkTemplate
	}
	return &Renderer{linkTemplate: linkTemplate}
}

// FormatVideo renders an identifier as a markdown link.
func (r *Renderer) FormatVideo(id string) string {
	return fmt.Sprintf("[%s](%s)", id, strings.ReplaceAll(r.linkTemplate, "{id}", id))
}

// Render writes the title line followed by one section per commit. Event
// lines end in two spaces so markdown keeps them on separate lines.
func (r *Renderer) Render(w io.Writer, report *Report) error {
	bw := bufio.NewWriter(w)

	title := report.Title
	if title == "" {
		title = DefaultTitle
	}
	fmt.Fprintln(bw, title)

	for _, s := range report.Sections {
		if s.Len() == 0 {
			continue
		}
		fmt.Fprintf(bw, "## %s\n", FormatCommitTime(s.Time))
		for _, id := range s.Added {
			fmt.Fprintf(bw, "Added %s  \n", r.FormatVideo(id))
		}
		for _, id := range s.Removed {
			fmt.Fprintf(bw, "Removed %s  \n", r.FormatVideo(id))
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
