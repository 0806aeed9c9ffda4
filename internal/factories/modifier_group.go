package factories

import (
	"github.com/chrisdamba/menusync/internal/models"
	"github.com/shopspring/decimal"
)

// CreateModifierGroups returns a fixed set of group shapes covering the rule
// combinations: required single-select, optional single-select, bounded multi-select
// and required multi-select with a minimum.
func (f *Factory) CreateModifierGroups() []*models.ModifierGroup {
	return []*models.ModifierGroup{
		{
			ID:             "size",
			Name:           "Size",
			Required:       true,
			Min:            1,
			Max:            1,
			IsVariantGroup: true,
			Options: []models.ModifierOption{
				{ID: "size-regular", Name: "Regular", PriceDelta: decimal.Zero, DefaultSelected: true},
				{ID: "size-large", Name: "Large", PriceDelta: f.price(1, 3)},
			},
		},
		{
			ID:   "sauce",
			Name: "Sauce",
			Max:  1,
			Options: []models.ModifierOption{
				{ID: "sauce-garlic", Name: "Garlic", PriceDelta: decimal.Zero},
				{ID: "sauce-chilli", Name: "Chilli", PriceDelta: decimal.Zero},
				{ID: "sauce-bbq", Name: "BBQ", PriceDelta: f.price(0, 1)},
			},
		},
		{
			ID:    "extras",
			Name:  "Extras",
			Multi: true,
			Max:   3,
			Options: []models.ModifierOption{
				{ID: "extra-cheese", Name: "Cheese", PriceDelta: f.price(1, 2)},
				{ID: "extra-bacon", Name: "Bacon", PriceDelta: f.price(1, 3)},
				{ID: "extra-egg", Name: "Egg", PriceDelta: f.price(1, 2)},
				{ID: "extra-avocado", Name: "Avocado", PriceDelta: f.price(1, 3)},
			},
		},
		{
			ID:       "sides",
			Name:     "Choose two sides",
			Required: true,
			Multi:    true,
			Min:      2,
			Max:      2,
			Options: []models.ModifierOption{
				{ID: "side-fries", Name: "Fries", PriceDelta: decimal.Zero},
				{ID: "side-salad", Name: "Salad", PriceDelta: decimal.Zero},
				{ID: "side-slaw", Name: "Slaw", PriceDelta: decimal.Zero},
				{ID: "side-rice", Name: "Rice", PriceDelta: decimal.Zero},
			},
		},
		{
			ID:    "discounts",
			Name:  "Offers",
			Multi: true,
			Max:   1,
			Options: []models.ModifierOption{
				{ID: "offer-student", Name: "Student discount", PriceDelta: decimal.RequireFromString("-1.50")},
			},
		},
	}
}
