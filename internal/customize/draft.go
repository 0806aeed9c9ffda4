// Package customize holds a cart line while it is being configured, before it is
// committed to the cart or saved as a favorite.
package customize

import (
	"errors"
	"unicode/utf8"

	"github.com/chrisdamba/menusync/internal/models"
	"github.com/chrisdamba/menusync/internal/modifiers"
	"github.com/chrisdamba/menusync/internal/pricing"
	"github.com/shopspring/decimal"
)

var (
	ErrIncomplete      = errors.New("selection does not satisfy modifier rules")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrNoteTooLong     = errors.New("note exceeds 200 characters")
)

type Draft struct {
	item      models.Item
	groups    []models.EffectiveGroup
	selection models.Selection
	quantity  int
	note      string
}

// New starts a draft from each group's initial selection with quantity 1.
func New(item models.Item, groups []models.EffectiveGroup) *Draft {
	return &Draft{
		item:      item,
		groups:    groups,
		selection: modifiers.InitialSelections(groups),
		quantity:  1,
	}
}

// FromLine reopens a committed line for editing. Selected ids that no longer exist in
// the effective groups are dropped; groups the line has no entry for start from their
// initial selection.
func FromLine(item models.Item, groups []models.EffectiveGroup, line models.CartLine) *Draft {
	d := New(item, groups)
	d.restore(line.Selection())
	if line.Quantity >= 1 {
		d.quantity = line.Quantity
	}
	d.note = line.Note
	return d
}

// FromFavorite reopens a saved favorite configuration.
func FromFavorite(item models.Item, groups []models.EffectiveGroup, fav models.FavoriteEntry) *Draft {
	d := New(item, groups)
	d.restore(models.SelectionFromGroups(fav.Selections))
	return d
}

func (d *Draft) restore(saved models.Selection) {
	for _, g := range d.groups {
		ids, ok := saved[g.ID]
		if !ok {
			continue
		}
		kept := make([]string, 0, len(ids))
		for _, id := range ids {
			if _, exists := g.Option(id); exists && len(kept) < g.EffectiveMax() {
				kept = append(kept, id)
			}
		}
		d.selection[g.ID] = kept
	}
}

func (d *Draft) Item() models.Item { return d.item }

func (d *Draft) Groups() []models.EffectiveGroup { return d.groups }

func (d *Draft) Quantity() int { return d.quantity }

func (d *Draft) Note() string { return d.note }

// Selection returns a copy of the current selection.
func (d *Draft) Selection() models.Selection { return d.selection.Clone() }

// Toggle taps optionID in groupID. It reports false when the group rules reject the
// tap or the group is unknown; the selection is then unchanged.
func (d *Draft) Toggle(groupID, optionID string) bool {
	g, ok := d.group(groupID)
	if !ok {
		return false
	}
	next, ok := modifiers.ToggleIn(g.ModifierGroup, d.selection, optionID)
	if ok {
		d.selection = next
	}
	return ok
}

func (d *Draft) SetQuantity(q int) error {
	if q < 1 {
		return ErrInvalidQuantity
	}
	d.quantity = q
	return nil
}

func (d *Draft) SetNote(note string) error {
	if utf8.RuneCountInString(note) > models.MaxNoteLength {
		return ErrNoteTooLong
	}
	d.note = note
	return nil
}

// CanSubmit gates the confirm action.
func (d *Draft) CanSubmit() bool {
	return modifiers.CanSubmit(d.groups, d.selection)
}

func (d *Draft) PriceDelta() decimal.Decimal {
	return pricing.PriceDelta(d.groups, d.selection)
}

func (d *Draft) UnitPrice() decimal.Decimal {
	return pricing.UnitPrice(d.item.BasePrice, d.PriceDelta())
}

func (d *Draft) LineTotal() decimal.Decimal {
	return pricing.LineTotal(d.UnitPrice(), d.quantity)
}

// Line commits the draft into a cart line with a display snapshot of the selection.
func (d *Draft) Line() (models.CartLine, error) {
	if !d.CanSubmit() {
		return models.CartLine{}, ErrIncomplete
	}
	line := models.CartLine{
		ItemID:           d.item.ID,
		Name:             d.item.Name,
		ImageRef:         d.item.ImageRef,
		ModifierGroupIDs: append([]string(nil), d.item.ModifierGroupIDs...),
		BasePrice:        d.item.BasePrice,
		Quantity:         d.quantity,
		Selections:       d.selection.Flatten(d.groupOrder()),
		UnitPrice:        d.UnitPrice(),
		Note:             d.note,
		SelectionDetails: d.details(),
	}
	if len(line.ModifierGroupIDs) == 0 {
		line.ModifierGroupIDs = nil
	}
	return line, nil
}

// Favorite snapshots the draft as a favorite entry for its item.
func (d *Draft) Favorite() models.FavoriteEntry {
	fav := models.FavoriteEntry{
		ItemID:   d.item.ID,
		Name:     d.item.Name,
		ImageRef: d.item.ImageRef,
	}
	if len(d.groups) > 0 {
		fav.Selections = d.selection.Flatten(d.groupOrder())
	}
	return fav
}

func (d *Draft) details() []models.SelectionDetail {
	var out []models.SelectionDetail
	for _, g := range d.groups {
		ids := d.selection[g.ID]
		if len(ids) == 0 {
			continue
		}
		detail := models.SelectionDetail{GroupID: g.ID, GroupName: g.Name}
		for _, id := range ids {
			if o, ok := g.Option(id); ok {
				detail.Options = append(detail.Options, models.SelectedOptionDetail{
					ID:         o.ID,
					Name:       o.Name,
					PriceDelta: o.PriceDelta,
				})
			}
		}
		out = append(out, detail)
	}
	return out
}

func (d *Draft) groupOrder() []string {
	order := make([]string, len(d.groups))
	for i, g := range d.groups {
		order[i] = g.ID
	}
	return order
}

func (d *Draft) group(id string) (models.EffectiveGroup, bool) {
	for _, g := range d.groups {
		if g.ID == id {
			return g, true
		}
	}
	return models.EffectiveGroup{}, false
}
