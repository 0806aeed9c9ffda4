package pricing

import (
	"testing"

	"github.com/chrisdamba/menusync/internal/models"
	"github.com/shopspring/decimal"
)

func addOnGroups() []models.EffectiveGroup {
	return []models.EffectiveGroup{
		{ModifierGroup: models.ModifierGroup{
			ID: "add_ons", Multi: true, Max: 3,
			Options: []models.ModifierOption{
				{ID: "cheese", PriceDelta: models.Money("1.00")},
				{ID: "bacon", PriceDelta: models.Money("2.25")},
			},
		}},
		{ModifierGroup: models.ModifierGroup{
			ID: "sides", Multi: true, Max: 2,
			Options: []models.ModifierOption{{ID: "fries", PriceDelta: models.Money("3.00")}},
		}},
	}
}

func TestPricing_SingleAddOn(t *testing.T) {
	groups := addOnGroups()
	sel := models.Selection{"add_ons": {"cheese"}, "sides": {}}

	unit := UnitPrice(models.Money("16.00"), PriceDelta(groups, sel))
	if Display(unit) != "17.00" {
		t.Fatalf("expected unit price 17.00, got %s", Display(unit))
	}
	line := LineTotal(unit, 2)
	if Display(line) != "34.00" {
		t.Fatalf("expected line total 34.00, got %s", Display(line))
	}

	lines := []models.CartLine{{ItemID: "burger", UnitPrice: unit, Quantity: 2}}
	if total := CartTotal(lines); !total.Equal(models.Money("34")) {
		t.Fatalf("expected cart total 34, got %s", total)
	}
	if n := TotalCount(lines); n != 2 {
		t.Fatalf("expected count 2, got %d", n)
	}
}

func TestPriceDelta_SelectAndDeselectRestores(t *testing.T) {
	groups := addOnGroups()
	before := PriceDelta(groups, models.Selection{"add_ons": {"cheese"}})
	with := PriceDelta(groups, models.Selection{"add_ons": {"cheese", "bacon"}})
	if !with.Sub(before).Equal(models.Money("2.25")) {
		t.Fatalf("selecting bacon should add 2.25, got %s -> %s", before, with)
	}
	after := PriceDelta(groups, models.Selection{"add_ons": {"cheese"}})
	if !after.Equal(before) {
		t.Fatalf("deselecting should restore %s, got %s", before, after)
	}
}

func TestPriceDelta_NegativeDeltaNotClamped(t *testing.T) {
	groups := []models.EffectiveGroup{{ModifierGroup: models.ModifierGroup{
		ID:      "discounts",
		Options: []models.ModifierOption{{ID: "staff", PriceDelta: models.Money("-1.50")}},
	}}}
	unit := UnitPrice(models.Money("1.00"), PriceDelta(groups, models.Selection{"discounts": {"staff"}}))
	if !unit.Equal(models.Money("-0.50")) {
		t.Fatalf("expected -0.50, got %s", unit)
	}
}

func TestPriceDelta_IgnoresUnknownIDs(t *testing.T) {
	sel := models.Selection{"add_ons": {"ghost"}, "missing_group": {"cheese"}}
	if d := PriceDelta(addOnGroups(), sel); !d.IsZero() {
		t.Fatalf("expected zero delta, got %s", d)
	}
}

func TestCartTotal_NoDrift(t *testing.T) {
	lines := make([]models.CartLine, 1000)
	for i := range lines {
		lines[i] = models.CartLine{UnitPrice: models.Money("0.10"), Quantity: 1}
	}
	if total := CartTotal(lines); !total.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected exactly 100, got %s", total)
	}
}
