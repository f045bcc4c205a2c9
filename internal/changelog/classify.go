package changelog

import (
	"path"
	"strings"
)

// VideoID returns the identifier a tracked file stands for: its base name
// without the extension. A leading dot does not start an extension.
func VideoID(p string) string {
	base := path.Base(p)
	i := strings.LastIndexByte(base, '.')
	if i <= 0 {
		return base
	}
	return base[:i]
}

// UnderDir reports whether p lies inside dir, comparing whole path components.
func UnderDir(p, dir string) bool {
	dir = strings.Trim(dir, "/")
	if dir == "" {
		return true
	}
	p = strings.TrimPrefix(p, "/")
	return p == dir || strings.HasPrefix(p, dir+"/")
}

// Classify reduces a commit's deltas to the identifiers added and deleted
// under trackedDir, in delta order. Statuses other than added and deleted are
// ignored.
func Classify(deltas []Delta, trackedDir string) (added, deleted []string) {
	for _, d := range deltas {
		if d.Status != DeltaAdded && d.Status != DeltaDeleted {
			continue
		}
		if !UnderDir(d.Path, trackedDir) {
			continue
		}
		id := VideoID(d.Path)
		if d.Status == DeltaAdded {
			added = append(added, id)
		} else {
			deleted = append(deleted, id)
		}
	}
	return added, deleted
}
