package models

import "github.com/shopspring/decimal"

// MaxNoteLength caps the free-text note attached to a cart line, in runes.
const MaxNoteLength = 200

// GroupSelection is one group's entry in a flattened selection map.
type GroupSelection struct {
	GroupID   string   `json:"groupId"`
	OptionIDs []string `json:"optionIds"`
}

type SelectedOptionDetail struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	PriceDelta decimal.Decimal `json:"priceDelta"`
}

// SelectionDetail is a denormalized, display-only snapshot of one group's selection.
type SelectionDetail struct {
	GroupID   string                 `json:"groupId"`
	GroupName string                 `json:"groupName"`
	Options   []SelectedOptionDetail `json:"options"`
}

// CartLine is one configured item at a quantity. Lines are addressed by position in
// the cart; the same item may appear on several lines.
type CartLine struct {
	ItemID           string            `json:"id"`
	Name             string            `json:"name"`
	ImageRef         string            `json:"img,omitempty"`
	ModifierGroupIDs []string          `json:"modifierGroupIds,omitempty"`
	BasePrice        decimal.Decimal   `json:"basePrice"`
	Quantity         int               `json:"quantity"`
	Selections       []GroupSelection  `json:"selections"`
	UnitPrice        decimal.Decimal   `json:"unitPrice"`
	Note             string            `json:"note,omitempty"`
	SelectionDetails []SelectionDetail `json:"selectionDetails,omitempty"`
}

// LineTotal is UnitPrice x Quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Selection rebuilds the selection map from the flattened form.
func (l CartLine) Selection() Selection {
	return SelectionFromGroups(l.Selections)
}

// Clone returns a deep copy so callers cannot alias engine-owned slices.
func (l CartLine) Clone() CartLine {
	c := l
	c.ModifierGroupIDs = cloneStrings(l.ModifierGroupIDs)
	if l.Selections != nil {
		c.Selections = make([]GroupSelection, len(l.Selections))
		for i, s := range l.Selections {
			c.Selections[i] = GroupSelection{GroupID: s.GroupID, OptionIDs: cloneStrings(s.OptionIDs)}
		}
	}
	if l.SelectionDetails != nil {
		c.SelectionDetails = make([]SelectionDetail, len(l.SelectionDetails))
		for i, d := range l.SelectionDetails {
			c.SelectionDetails[i] = d
			if d.Options != nil {
				c.SelectionDetails[i].Options = append([]SelectedOptionDetail(nil), d.Options...)
			}
		}
	}
	return c
}

// Canonical is Clone with empty modifierGroupIds and selectionDetails set to nil. Both
// are omitted from JSON when empty, so this is the form a line has after a round trip
// through storage.
func (l CartLine) Canonical() CartLine {
	c := l.Clone()
	if len(c.ModifierGroupIDs) == 0 {
		c.ModifierGroupIDs = nil
	}
	if len(c.SelectionDetails) == 0 {
		c.SelectionDetails = nil
	}
	return c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
