package factories

import (
	"strings"

	"github.com/chrisdamba/menusync/internal/models"
)

// CreateCatalog generates a store, its categories, the standard groups and n items.
func (f *Factory) CreateCatalog(storeID string, n int, alwaysOpen bool) *models.Catalog {
	c := &models.Catalog{
		Store:      f.CreateStore(storeID, alwaysOpen),
		Categories: f.CreateCategories(),
		Groups:     f.CreateModifierGroups(),
	}
	for i := 0; i < n; i++ {
		c.Items = append(c.Items, f.CreateMenuItem(c.Groups, i+1))
	}
	return c
}

// CreateCategories returns one active category per menu section, in menu order.
func (f *Factory) CreateCategories() []*models.Category {
	out := make([]*models.Category, 0, len(categories))
	for i, id := range categories {
		out = append(out, &models.Category{
			ID:           id,
			Name:         strings.ToUpper(id[:1]) + id[1:],
			DisplayOrder: i + 1,
			Active:       true,
		})
	}
	return out
}
