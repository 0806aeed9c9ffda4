// Package pricing derives unit, line and cart amounts. All arithmetic is done on
// decimals; negative deltas are legal and are never clamped.
package pricing

import (
	"github.com/chrisdamba/menusync/internal/models"
	"github.com/shopspring/decimal"
)

// PriceDelta sums the price deltas of every selected option across groups. Selected
// ids that are not options of their group contribute nothing.
func PriceDelta(groups []models.EffectiveGroup, sel models.Selection) decimal.Decimal {
	delta := decimal.Zero
	for _, g := range groups {
		for _, id := range sel[g.ID] {
			if o, ok := g.Option(id); ok {
				delta = delta.Add(o.PriceDelta)
			}
		}
	}
	return delta
}

func UnitPrice(basePrice, priceDelta decimal.Decimal) decimal.Decimal {
	return basePrice.Add(priceDelta)
}

func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// CartTotal is the sum of unitPrice x quantity over lines.
func CartTotal(lines []models.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(LineTotal(l.UnitPrice, l.Quantity))
	}
	return total
}

// TotalCount is the sum of quantities over lines.
func TotalCount(lines []models.CartLine) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

// Display rounds an amount to cents for presentation.
func Display(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
