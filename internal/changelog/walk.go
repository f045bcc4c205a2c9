package changelog

import "fmt"

// Step is one commit in the walk paired with the first parent it is diffed against.
type Step struct {
	Commit *Commit
	Parent string
}

// Walk returns the diffable steps of the history reachable from head, oldest
// first. Root commits have nothing to diff against and are left out; merge
// commits are paired with their first parent only.
func Walk(h History, head string) ([]Step, error) {
	ids, err := h.Walk(head)
	if err != nil {
		return nil, fmt.Errorf("walking history from %s: %w", head, err)
	}

	steps := make([]Step, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		c, err := h.Commit(ids[i])
		if err != nil {
			return nil, fmt.Errorf("loading commit %s: %w", ids[i], err)
		}
		parent, ok := c.FirstParent()
		if !ok {
			continue
		}
		steps = append(steps, Step{Commit: c, Parent: parent})
	}
	return steps, nil
}
