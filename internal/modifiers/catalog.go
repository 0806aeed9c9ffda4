package modifiers

import (
	"context"
	"fmt"

	"github.com/chrisdamba/menusync/internal/models"
	"github.com/chrisdamba/menusync/internal/repositories"
	"golang.org/x/sync/errgroup"
)

// Accessor resolves the modifier groups an item exposes, with that item's overrides
// applied. It does no caching of its own.
type Accessor struct {
	repo repositories.CatalogRepository
}

func NewAccessor(repo repositories.CatalogRepository) *Accessor {
	return &Accessor{repo: repo}
}

// EffectiveGroups fetches groupIDs concurrently and returns the effective groups in
// request order. Duplicate and empty ids are skipped; ids with no catalog group are
// dropped without error.
func (a *Accessor) EffectiveGroups(ctx context.Context, storeID string, overrides models.ItemOverrides, groupIDs []string) ([]models.EffectiveGroup, error) {
	ids := uniqueIDs(groupIDs)
	fetched := make([]*models.ModifierGroup, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			group, err := a.repo.GetModifierGroup(gctx, storeID, id)
			if err != nil {
				return fmt.Errorf("get modifier group %s: %w", id, err)
			}
			fetched[i] = group
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	groups := make([]models.EffectiveGroup, 0, len(ids))
	for _, base := range fetched {
		if base == nil {
			continue
		}
		groups = append(groups, Apply(*base, overrides))
	}
	return groups, nil
}

// ItemGroups is EffectiveGroups for an item's own group list and overrides.
func (a *Accessor) ItemGroups(ctx context.Context, storeID string, item models.Item) ([]models.EffectiveGroup, error) {
	return a.EffectiveGroups(ctx, storeID, item.Overrides(), item.ModifierGroupIDs)
}

// Apply merges one item's overrides onto a base group: extra options replace base
// options with the same id in place and are otherwise appended, then hidden ids are
// removed.
func Apply(base models.ModifierGroup, overrides models.ItemOverrides) models.EffectiveGroup {
	group := base
	group.Options = mergeOptions(base.Options, overrides.ExtraOptions[base.ID])

	if hidden := overrides.HiddenOptions[base.ID]; len(hidden) > 0 {
		hide := make(map[string]struct{}, len(hidden))
		for _, id := range hidden {
			hide[id] = struct{}{}
		}
		kept := group.Options[:0]
		for _, o := range group.Options {
			if _, ok := hide[o.ID]; !ok {
				kept = append(kept, o)
			}
		}
		group.Options = kept
	}

	return models.EffectiveGroup{
		ModifierGroup:    group,
		InitialSelection: InitialSelection(group, overrides.DefaultSelections[base.ID]),
	}
}

func mergeOptions(base, extra []models.ModifierOption) []models.ModifierOption {
	merged := make([]models.ModifierOption, 0, len(base)+len(extra))
	index := make(map[string]int, len(base)+len(extra))
	add := func(o models.ModifierOption) {
		if i, ok := index[o.ID]; ok {
			merged[i] = o
			return
		}
		index[o.ID] = len(merged)
		merged = append(merged, o)
	}
	for _, o := range base {
		add(o)
	}
	for _, o := range extra {
		add(o)
	}
	return merged
}

// InitialSelection picks the starting selection for a group. Item-level defaults win
// over option flags; a required group with min>0 and no defaults starts on its first
// option. The result never exceeds the group's effective max.
func InitialSelection(group models.ModifierGroup, itemDefaults []string) []string {
	sel := make([]string, 0)
	seen := make(map[string]struct{})
	pick := func(id string) {
		if _, dup := seen[id]; dup || len(sel) >= group.EffectiveMax() {
			return
		}
		seen[id] = struct{}{}
		sel = append(sel, id)
	}

	for _, id := range itemDefaults {
		if _, ok := group.Option(id); ok {
			pick(id)
		}
	}
	if len(sel) == 0 {
		for _, o := range group.Options {
			if o.DefaultSelected {
				pick(o.ID)
			}
		}
	}
	if len(sel) == 0 && group.Required && group.Min > 0 && len(group.Options) > 0 {
		pick(group.Options[0].ID)
	}
	return sel
}

// InitialSelections collects every group's initial selection into a Selection map.
func InitialSelections(groups []models.EffectiveGroup) models.Selection {
	sel := make(models.Selection, len(groups))
	for _, g := range groups {
		sel[g.ID] = append([]string{}, g.InitialSelection...)
	}
	return sel
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
