package models

import "github.com/shopspring/decimal"

// DefaultMultiMax is the ceiling applied to multi-select groups stored without a max.
const DefaultMultiMax = 99

type ModifierOption struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	PriceDelta      decimal.Decimal `json:"priceDelta"`
	DefaultSelected bool            `json:"defaultSelected,omitempty"`
}

// ModifierGroup is a catalog group definition. Multi=false groups never admit more
// than one option regardless of the stored Max.
type ModifierGroup struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Required       bool             `json:"required"`
	Min            int              `json:"min"`
	Max            int              `json:"max"`
	Multi          bool             `json:"multi"`
	IsVariantGroup bool             `json:"isVariantGroup,omitempty"`
	Options        []ModifierOption `json:"options"`
}

// ModifierGroupDoc mirrors the stored shape where every rule field is optional.
type ModifierGroupDoc struct {
	Name           string           `json:"name"`
	Required       *bool            `json:"required,omitempty"`
	Min            *int             `json:"min,omitempty"`
	Max            *int             `json:"max,omitempty"`
	Multi          *bool            `json:"multi,omitempty"`
	IsVariantGroup bool             `json:"isVariantGroup,omitempty"`
	Options        []ModifierOption `json:"options"`
}

// ToGroup applies the catalog defaults: required=false, min=0, max=99 for
// multi-select groups and 1 otherwise.
func (d ModifierGroupDoc) ToGroup(id string) ModifierGroup {
	g := ModifierGroup{
		ID:             id,
		Name:           d.Name,
		IsVariantGroup: d.IsVariantGroup,
		Options:        d.Options,
	}
	if d.Required != nil {
		g.Required = *d.Required
	}
	if d.Multi != nil {
		g.Multi = *d.Multi
	}
	if d.Min != nil {
		g.Min = *d.Min
	}
	switch {
	case d.Max != nil:
		g.Max = *d.Max
	case g.Multi:
		g.Max = DefaultMultiMax
	default:
		g.Max = 1
	}
	if g.Options == nil {
		g.Options = []ModifierOption{}
	}
	return g
}

// EffectiveMax is the selection ceiling actually enforced for the group.
func (g ModifierGroup) EffectiveMax() int {
	if !g.Multi {
		return 1
	}
	if g.Max < 1 {
		return 1
	}
	return g.Max
}

// Option looks an option up by id.
func (g ModifierGroup) Option(id string) (ModifierOption, bool) {
	for _, o := range g.Options {
		if o.ID == id {
			return o, true
		}
	}
	return ModifierOption{}, false
}

// EffectiveGroup is a ModifierGroup after one item's overrides were applied, together
// with the selection the customization screen starts from.
type EffectiveGroup struct {
	ModifierGroup
	InitialSelection []string `json:"initialSelection"`
}
