// Package menu assembles the browsable menu for a store.
package menu

import (
	"context"
	"fmt"
	"strings"

	"github.com/chrisdamba/menusync/internal/models"
	"github.com/chrisdamba/menusync/internal/repositories"
	"golang.org/x/sync/errgroup"
)

// Section is one category with the items listed under it.
type Section struct {
	Category models.Category `json:"category"`
	Items    []*models.Item  `json:"items"`
}

// Build places items under their categories, keeping both in the order given. Items
// of a category not in categories are left out. When there are no categories at all,
// each category id the items use becomes a placeholder category. query, when not
// blank, keeps only items whose name contains it, ignoring case. Sections left
// without items are dropped.
func Build(categories []*models.Category, items []*models.Item, query string) []Section {
	if len(categories) == 0 {
		seen := make(map[string]bool)
		for _, item := range items {
			if seen[item.CategoryID] {
				continue
			}
			seen[item.CategoryID] = true
			c := models.PlaceholderCategory(item.CategoryID)
			categories = append(categories, &c)
		}
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	byCategory := make(map[string][]*models.Item)
	for _, item := range items {
		if needle != "" && !strings.Contains(strings.ToLower(item.Name), needle) {
			continue
		}
		byCategory[item.CategoryID] = append(byCategory[item.CategoryID], item)
	}

	sections := []Section{}
	for _, c := range categories {
		if list := byCategory[c.ID]; len(list) > 0 {
			sections = append(sections, Section{Category: *c, Items: list})
		}
	}
	return sections
}

// Load reads the store's active categories and items together and builds the menu.
func Load(ctx context.Context, catalog repositories.CatalogRepository, storeID, query string) ([]Section, error) {
	var (
		categories []*models.Category
		items      []*models.Item
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		categories, err = catalog.GetCategories(gctx, storeID)
		if err != nil {
			return fmt.Errorf("categories: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		items, err = catalog.GetItems(gctx, storeID)
		if err != nil {
			return fmt.Errorf("items: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Build(categories, items, query), nil
}
