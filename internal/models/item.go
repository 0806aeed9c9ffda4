package models

import "github.com/shopspring/decimal"

// Item is a menu item as read from the catalog, including its per-item modifier
// overrides.
type Item struct {
	ID                string                      `json:"id"`
	CategoryID        string                      `json:"categoryId"`
	Name              string                      `json:"name"`
	Description       string                      `json:"description,omitempty"`
	ImageRef          string                      `json:"imageUrl,omitempty"`
	BasePrice         decimal.Decimal             `json:"basePrice"`
	Active            bool                        `json:"active"`
	DisplayOrder      int                         `json:"displayOrder"`
	ModifierGroupIDs  []string                    `json:"modifierGroupIds,omitempty"`
	DefaultSelections map[string][]string         `json:"defaultSelections,omitempty"`
	HiddenOptions     map[string][]string         `json:"hiddenOptions,omitempty"`
	ExtraOptions      map[string][]ModifierOption `json:"extraOptions,omitempty"`
	Customizable      *bool                       `json:"customizable,omitempty"`
}

// ItemOverrides is the part of an Item that reshapes catalog groups for that item.
type ItemOverrides struct {
	DefaultSelections map[string][]string
	HiddenOptions     map[string][]string
	ExtraOptions      map[string][]ModifierOption
}

func (i Item) Overrides() ItemOverrides {
	return ItemOverrides{
		DefaultSelections: i.DefaultSelections,
		HiddenOptions:     i.HiddenOptions,
		ExtraOptions:      i.ExtraOptions,
	}
}

// IsCustomizable reports whether the item allows modifier customization. Items
// without the flag are customizable.
func (i Item) IsCustomizable() bool {
	return i.Customizable == nil || *i.Customizable
}

// DefaultDisplayOrder sorts items without an explicit position last.
const DefaultDisplayOrder = 9999
