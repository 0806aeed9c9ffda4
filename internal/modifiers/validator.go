package modifiers

import "github.com/chrisdamba/menusync/internal/models"

// Toggle applies one tap on optionID to a group's current selection. It returns the
// new selection and true, or the unchanged selection and false when the tap would break
// the group's rules. A rejection is an ordinary outcome, not an error.
func Toggle(group models.ModifierGroup, current []string, optionID string) ([]string, bool) {
	if _, ok := group.Option(optionID); !ok {
		return current, false
	}
	selected := indexOf(current, optionID)

	if !group.Multi {
		if selected >= 0 {
			if group.Required {
				return current, false
			}
			return []string{}, true
		}
		return []string{optionID}, true
	}

	if selected >= 0 {
		if group.Required && len(current)-1 < group.Min {
			return current, false
		}
		next := make([]string, 0, len(current)-1)
		next = append(next, current[:selected]...)
		return append(next, current[selected+1:]...), true
	}
	if len(current)+1 > group.EffectiveMax() {
		return current, false
	}
	next := make([]string, 0, len(current)+1)
	next = append(next, current...)
	return append(next, optionID), true
}

// ToggleIn is Toggle applied to one group inside a selection map. The map is not
// modified; a new map is returned on success.
func ToggleIn(group models.ModifierGroup, sel models.Selection, optionID string) (models.Selection, bool) {
	next, ok := Toggle(group, sel[group.ID], optionID)
	if !ok {
		return sel, false
	}
	out := sel.Clone()
	out[group.ID] = next
	return out, true
}

// GroupSatisfied checks one group's count bounds.
func GroupSatisfied(group models.ModifierGroup, selected []string) bool {
	n := len(selected)
	if n > group.EffectiveMax() {
		return false
	}
	if group.Required && n < group.Min {
		return false
	}
	return true
}

// CanSubmit is the admission gate for committing a customization: required groups must
// satisfy min <= n <= max and every other group n <= max.
func CanSubmit(groups []models.EffectiveGroup, sel models.Selection) bool {
	for _, g := range groups {
		if !GroupSatisfied(g.ModifierGroup, sel[g.ID]) {
			return false
		}
	}
	return true
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
