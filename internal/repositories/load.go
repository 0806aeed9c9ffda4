package repositories

import (
	"context"
	"fmt"

	"github.com/chrisdamba/menusync/internal/models"
)

// LoadCatalog writes the store, then categories, groups and items in that order. progress, when set, is called
// after every record.
func LoadCatalog(ctx context.Context, w CatalogWriter, c *models.Catalog, progress func()) error {
	tick := func() {
		if progress != nil {
			progress()
		}
	}
	if err := w.UpsertStore(ctx, c.Store); err != nil {
		return fmt.Errorf("store %s: %w", c.Store.ID, err)
	}
	tick()
	for _, cat := range c.Categories {
		if err := w.UpsertCategory(ctx, c.Store.ID, cat); err != nil {
			return fmt.Errorf("category %s: %w", cat.ID, err)
		}
		tick()
	}
	for _, g := range c.Groups {
		if err := w.UpsertModifierGroup(ctx, c.Store.ID, g); err != nil {
			return fmt.Errorf("modifier group %s: %w", g.ID, err)
		}
		tick()
	}
	for _, item := range c.Items {
		if err := w.UpsertItem(ctx, c.Store.ID, item); err != nil {
			return fmt.Errorf("item %s: %w", item.ID, err)
		}
		tick()
	}
	return nil
}
