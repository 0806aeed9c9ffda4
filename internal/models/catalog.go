package models

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Catalog is a complete menu for one store, as loaded by seeding.
type Catalog struct {
	Store      *Store
	Categories []*Category
	Groups     []*ModifierGroup
	Items      []*Item
}

// catalogFile is the on-disk shape. Groups are keyed by id and may omit rule fields.
type catalogFile struct {
	Store          *Store                      `json:"store"`
	Categories     map[string]CategoryDoc      `json:"categories"`
	ModifierGroups map[string]ModifierGroupDoc `json:"modifierGroups"`
	Items          []*Item                     `json:"items"`
}

// ParseCatalog decodes a catalog file, applying category and group defaults and giving
// items without a display order the default one.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if f.Store == nil || f.Store.ID == "" {
		return nil, fmt.Errorf("catalog has no store id")
	}

	c := &Catalog{Store: f.Store, Items: f.Items}
	for _, id := range sortedKeys(f.Categories) {
		cat := f.Categories[id].ToCategory(id)
		c.Categories = append(c.Categories, &cat)
	}
	for _, id := range sortedKeys(f.ModifierGroups) {
		g := f.ModifierGroups[id].ToGroup(id)
		c.Groups = append(c.Groups, &g)
	}
	for i, item := range c.Items {
		if item == nil || item.ID == "" {
			return nil, fmt.Errorf("catalog item %d has no id", i)
		}
		if item.DisplayOrder == 0 {
			item.DisplayOrder = DefaultDisplayOrder
		}
	}
	return c, nil
}

// Size is the number of records a load writes.
func (c *Catalog) Size() int {
	return 1 + len(c.Categories) + len(c.Groups) + len(c.Items)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
