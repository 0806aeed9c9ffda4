package factories

import (
	"fmt"

	"github.com/chrisdamba/menusync/internal/models"
	"github.com/lucsky/cuid"
)

var menuNames = map[string][]string{
	"burgers": {"Classic Cheeseburger", "Veggie Burger", "BBQ Bacon Burger", "Mushroom Swiss Burger"},
	"grill":   {"Grilled Chicken", "BBQ Ribs", "Grilled Salmon", "Mixed Grill Platter"},
	"salads":  {"Caesar Salad", "Greek Salad", "Cobb Salad", "Quinoa Salad"},
	"shakes":  {"Chocolate Shake", "Vanilla Shake", "Strawberry Shake", "Oreo Shake"},
	"pizza":   {"Margherita", "Pepperoni", "Hawaiian", "Veggie Supreme"},
}

var categories = []string{"burgers", "grill", "salads", "shakes", "pizza"}

// CreateMenuItem builds an active item in a random category wired to a random subset
// of groups. Some items hide a group option or add one of their own.
func (f *Factory) CreateMenuItem(groups []*models.ModifierGroup, displayOrder int) *models.Item {
	category := f.pick(categories)
	item := &models.Item{
		ID:           cuid.New(),
		CategoryID:   category,
		Name:         fmt.Sprintf("%s %s", f.pick(menuNames[category]), f.fake.Lorem().Word()),
		Description:  f.fake.Lorem().Sentence(10),
		ImageRef:     f.fake.Internet().URL(),
		BasePrice:    f.price(4, 18),
		Active:       true,
		DisplayOrder: displayOrder,
	}

	for _, g := range groups {
		if g.Required || f.fake.Bool() {
			item.ModifierGroupIDs = append(item.ModifierGroupIDs, g.ID)
		}
	}

	for _, g := range groups {
		if !contains(item.ModifierGroupIDs, g.ID) || len(g.Options) < 3 {
			continue
		}
		switch f.rng.Intn(4) {
		case 0:
			item.HiddenOptions = map[string][]string{g.ID: {g.Options[len(g.Options)-1].ID}}
		case 1:
			item.ExtraOptions = map[string][]models.ModifierOption{g.ID: {{
				ID:         g.ID + "-house",
				Name:       "House special",
				PriceDelta: f.price(1, 4),
			}}}
		case 2:
			item.DefaultSelections = map[string][]string{g.ID: {g.Options[1].ID}}
		}
		break
	}
	return item
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
