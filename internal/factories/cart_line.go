package factories

import (
	"github.com/chrisdamba/menusync/internal/customize"
	"github.com/chrisdamba/menusync/internal/models"
	"github.com/chrisdamba/menusync/internal/modifiers"
)

// CreateDraft starts a draft for item and taps a few random options, the way a
// customer fiddles with the customization screen, then fills any group still short of
// its minimum. Rejected taps are ignored.
func (f *Factory) CreateDraft(item *models.Item, groups []models.EffectiveGroup) *customize.Draft {
	d := customize.New(*item, groups)
	for i := 0; i < len(groups)*2; i++ {
		g := groups[f.rng.Intn(len(groups))]
		if len(g.Options) == 0 {
			continue
		}
		d.Toggle(g.ID, g.Options[f.rng.Intn(len(g.Options))].ID)
	}
	// top up groups still short of their minimum
	for _, g := range groups {
		for _, o := range g.Options {
			sel := d.Selection()
			if modifiers.GroupSatisfied(g.ModifierGroup, sel[g.ID]) {
				break
			}
			if !sel.Contains(g.ID, o.ID) {
				d.Toggle(g.ID, o.ID)
			}
		}
	}
	_ = d.SetQuantity(1 + f.rng.Intn(3))
	if f.rng.Intn(5) == 0 {
		_ = d.SetNote(f.fake.Lorem().Sentence(5))
	}
	return d
}
