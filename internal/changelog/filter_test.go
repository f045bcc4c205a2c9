package changelog

import (
	"reflect"
	"testing"
)

func TestTracker_Filter(t *testing.T) {
	type step struct {
		added, deleted         []string
		wantAdded, wantRemoved []string
	}

	tests := []struct {
		name    string
		current IDSet
		steps   []step
	}{
		{
			name:    "first add is kept, later adds are dropped",
			current: NewIDSet(),
			steps: []step{
				{added: []string{"v"}, wantAdded: []string{"v"}},
				{deleted: []string{"v"}, wantRemoved: []string{"v"}},
				{added: []string{"v"}},
			},
		},
		{
			name:    "deletions of current ids are suppressed",
			current: NewIDSet("abc123"),
			steps: []step{
				{added: []string{"abc123"}, wantAdded: []string{"abc123"}},
				{added: []string{"xyz789"}, deleted: []string{"abc123"}, wantAdded: []string{"xyz789"}},
			},
		},
		{
			name:    "deletion before any add is still reported",
			current: NewIDSet(),
			steps: []step{
				{deleted: []string{"old"}, wantRemoved: []string{"old"}},
			},
		},
		{
			name:    "same id added twice in one commit",
			current: NewIDSet(),
			steps: []step{
				{added: []string{"v", "v", "w"}, wantAdded: []string{"v", "w"}},
			},
		},
		{
			name:    "deletes do not reset the added set",
			current: NewIDSet(),
			steps: []step{
				{added: []string{"v"}, deleted: []string{"v"}, wantAdded: []string{"v"}, wantRemoved: []string{"v"}},
				{added: []string{"v"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker(tt.current)
			for i, s := range tt.steps {
				gotAdded, gotRemoved := tr.Filter(s.added, s.deleted)
				if !reflect.DeepEqual(gotAdded, s.wantAdded) {
					t.Errorf("step %d: added = %v, want %v", i, gotAdded, s.wantAdded)
				}
				if !reflect.DeepEqual(gotRemoved, s.wantRemoved) {
					t.Errorf("step %d: removed = %v, want %v", i, gotRemoved, s.wantRemoved)
				}
			}
		})
	}
}

func TestTracker_DoesNotModifyCurrent(t *testing.T) {
	current := NewIDSet("a")
	tr := NewTracker(current)
	tr.Filter([]string{"b"}, []string{"a", "c"})

	if !reflect.DeepEqual(current, NewIDSet("a")) {
		t.Errorf("current = %v, want [a]", current)
	}
	if added, _ := tr.Filter([]string{"b", "c"}, nil); !reflect.DeepEqual(added, []string{"c"}) {
		t.Errorf("second Filter() added = %v, want [c]", added)
	}
}

func TestNewTracker_NilCurrent(t *testing.T) {
	tr := NewTracker(nil)
	_, removed := tr.Filter(nil, []string{"x"})
	if !reflect.DeepEqual(removed, []string{"x"}) {
		t.Errorf("removed = %v, want [x]", removed)
	}
}
