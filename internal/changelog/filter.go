package changelog

// Tracker holds the state the event filter threads through one walk: the
// identifiers already reported as added, and the identifiers present at head.
// A Tracker belongs to a single run and is not safe for concurrent use.
type Tracker struct {
	current      IDSet
	alreadyAdded IDSet
}

// NewTracker creates a Tracker. current is only read, never modified.
func NewTracker(current IDSet) *Tracker {
	if current == nil {
		current = NewIDSet()
	}
	return &Tracker{
		current:      current,
		alreadyAdded: NewIDSet(),
	}
}

// Filter drops added identifiers that were reported earlier in the walk and
// deleted identifiers that still exist at head. Adds are processed before
// deletes; deletes never touch the set of added identifiers.
func (t *Tracker) Filter(added, deleted []string) (keptAdded, keptRemoved []string) {
	for _, id := range added {
		if t.alreadyAdded.Contains(id) {
			continue
		}
		t.alreadyAdded.Add(id)
		keptAdded = append(keptAdded, id)
	}
	for _, id := range deleted {
		if t.current.Contains(id) {
			continue
		}
		keptRemoved = append(keptRemoved, id)
	}
	return keptAdded, keptRemoved
}
