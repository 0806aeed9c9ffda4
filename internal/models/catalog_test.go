package models

import "testing"

const catalogJSON = `{
  "store": {"id": "MAIN", "name": "Main St", "timezone": "UTC", "online": true},
  "categories": {
    "mains": {"name": "Mains", "displayOrder": 1},
    "archive": {"name": "Archive", "active": false}
  },
  "modifierGroups": {
    "size": {"name": "Size", "required": true, "min": 1, "options": [{"id": "s", "name": "Small", "priceDelta": 0}]},
    "extras": {"name": "Extras", "multi": true, "options": [{"id": "cheese", "name": "Cheese", "priceDelta": 1.25}]}
  },
  "items": [
    {"id": "burger", "name": "Burger", "basePrice": 9.5, "active": true, "displayOrder": 2, "modifierGroupIds": ["size", "extras"]},
    {"id": "fries", "name": "Fries", "basePrice": 3, "active": true}
  ]
}`

func TestParseCatalog(t *testing.T) {
	c, err := ParseCatalog([]byte(catalogJSON))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Size() != 7 {
		t.Fatalf("expected 7 records, got %d", c.Size())
	}
	if c.Categories[0].ID != "archive" || c.Categories[0].Active || c.Categories[0].DisplayOrder != DefaultDisplayOrder {
		t.Fatalf("unexpected archive category %+v", c.Categories[0])
	}
	if c.Categories[1].ID != "mains" || !c.Categories[1].Active || c.Categories[1].DisplayOrder != 1 {
		t.Fatalf("unexpected mains category %+v", c.Categories[1])
	}
	if c.Groups[0].ID != "extras" || c.Groups[1].ID != "size" {
		t.Fatalf("expected groups sorted by id, got %s, %s", c.Groups[0].ID, c.Groups[1].ID)
	}
	if c.Groups[0].Max != DefaultMultiMax {
		t.Fatalf("multi group without max should default to %d, got %d", DefaultMultiMax, c.Groups[0].Max)
	}
	if c.Groups[1].Max != 1 || !c.Groups[1].Required {
		t.Fatalf("unexpected size group %+v", c.Groups[1])
	}
	if !c.Groups[0].Options[0].PriceDelta.Equal(Money("1.25")) {
		t.Fatalf("unexpected price delta %s", c.Groups[0].Options[0].PriceDelta)
	}
	if c.Items[0].DisplayOrder != 2 || c.Items[1].DisplayOrder != DefaultDisplayOrder {
		t.Fatalf("unexpected display orders %d, %d", c.Items[0].DisplayOrder, c.Items[1].DisplayOrder)
	}
}

func TestParseCatalog_Errors(t *testing.T) {
	tests := map[string]string{
		"malformed":  `{"store":`,
		"no store":   `{"items": []}`,
		"no item id": `{"store": {"id": "MAIN"}, "items": [{"name": "Nameless"}]}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseCatalog([]byte(doc)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestModifierGroupDoc_ToGroupDefaults(t *testing.T) {
	g := ModifierGroupDoc{Name: "Sauce"}.ToGroup("sauce")
	if g.Required || g.Min != 0 || g.Max != 1 || g.Multi {
		t.Fatalf("unexpected defaults %+v", g)
	}
	if g.Options == nil {
		t.Fatal("options should never be nil")
	}
	if g.EffectiveMax() != 1 {
		t.Fatalf("expected effective max 1, got %d", g.EffectiveMax())
	}

	stored := 5
	single := ModifierGroupDoc{Max: &stored}.ToGroup("x")
	if single.Max != 5 || single.EffectiveMax() != 1 {
		t.Fatalf("single-select group should enforce one option, got max=%d effective=%d", single.Max, single.EffectiveMax())
	}
	if single.ID != "x" {
		t.Fatalf("unexpected id %q", single.ID)
	}
}

func TestCategoryDoc_ToCategoryDefaults(t *testing.T) {
	c := CategoryDoc{Name: "Wraps"}.ToCategory("wraps")
	if !c.Active || c.DisplayOrder != DefaultDisplayOrder || c.ID != "wraps" {
		t.Fatalf("unexpected defaults %+v", c)
	}
	zero, off := 0, false
	c = CategoryDoc{Name: "Drinks", DisplayOrder: &zero, Active: &off}.ToCategory("drinks")
	if c.Active || c.DisplayOrder != 0 {
		t.Fatalf("explicit values should win, got %+v", c)
	}
}
