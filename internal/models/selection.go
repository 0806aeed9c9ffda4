package models

// Selection maps a group id to the ordered set of selected option ids.
type Selection map[string][]string

// SelectionFromGroups builds a Selection from its flattened form.
func SelectionFromGroups(groups []GroupSelection) Selection {
	sel := make(Selection, len(groups))
	for _, g := range groups {
		sel[g.GroupID] = cloneStrings(g.OptionIDs)
	}
	return sel
}

// Flatten lists the selection in the given group order. Every group in order gets an
// entry, including empty ones; groups not in order are dropped.
func (s Selection) Flatten(order []string) []GroupSelection {
	out := make([]GroupSelection, 0, len(order))
	for _, id := range order {
		ids := s[id]
		if ids == nil {
			ids = []string{}
		}
		out = append(out, GroupSelection{GroupID: id, OptionIDs: cloneStrings(ids)})
	}
	return out
}

// Clone deep-copies the selection.
func (s Selection) Clone() Selection {
	c := make(Selection, len(s))
	for k, v := range s {
		c[k] = cloneStrings(v)
	}
	return c
}

// Contains reports whether optionID is selected in groupID.
func (s Selection) Contains(groupID, optionID string) bool {
	for _, id := range s[groupID] {
		if id == optionID {
			return true
		}
	}
	return false
}
