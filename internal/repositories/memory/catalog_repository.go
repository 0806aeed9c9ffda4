package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/chrisdamba/menusync/internal/models"
)

// CatalogRepository keeps catalog records as JSON so every read hands out an
// independent copy.
type CatalogRepository struct {
	mu         sync.RWMutex
	stores     map[string][]byte
	categories map[string][]byte
	groups     map[string][]byte
	items      map[string][]byte
}

func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{
		stores:     make(map[string][]byte),
		categories: make(map[string][]byte),
		groups:     make(map[string][]byte),
		items:      make(map[string][]byte),
	}
}

func scoped(storeID, id string) string {
	return storeID + "/" + id
}

func (r *CatalogRepository) UpsertStore(_ context.Context, store *models.Store) error {
	return r.put(r.stores, store.ID, store)
}

func (r *CatalogRepository) UpsertCategory(_ context.Context, storeID string, category *models.Category) error {
	return r.put(r.categories, scoped(storeID, category.ID), category)
}

func (r *CatalogRepository) UpsertModifierGroup(_ context.Context, storeID string, group *models.ModifierGroup) error {
	return r.put(r.groups, scoped(storeID, group.ID), group)
}

func (r *CatalogRepository) UpsertItem(_ context.Context, storeID string, item *models.Item) error {
	return r.put(r.items, scoped(storeID, item.ID), item)
}

func (r *CatalogRepository) GetStore(ctx context.Context, storeID string) (*models.Store, error) {
	var store models.Store
	ok, err := r.get(ctx, r.stores, storeID, &store)
	if !ok || err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *CatalogRepository) GetModifierGroup(ctx context.Context, storeID, groupID string) (*models.ModifierGroup, error) {
	var group models.ModifierGroup
	ok, err := r.get(ctx, r.groups, scoped(storeID, groupID), &group)
	if !ok || err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *CatalogRepository) GetItem(ctx context.Context, storeID, itemID string) (*models.Item, error) {
	var item models.Item
	ok, err := r.get(ctx, r.items, scoped(storeID, itemID), &item)
	if !ok || err != nil {
		return nil, err
	}
	return &item, nil
}

// GetItems returns the store's active items by display order, then name.
func (r *CatalogRepository) GetItems(ctx context.Context, storeID string) ([]*models.Item, error) {
	items, err := scan[models.Item](ctx, r, r.items, storeID)
	if err != nil {
		return nil, err
	}
	active := items[:0]
	for _, item := range items {
		if item.Active {
			active = append(active, item)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].DisplayOrder != active[j].DisplayOrder {
			return active[i].DisplayOrder < active[j].DisplayOrder
		}
		return active[i].Name < active[j].Name
	})
	return active, nil
}

// GetCategories returns the store's active categories by display order, then name.
func (r *CatalogRepository) GetCategories(ctx context.Context, storeID string) ([]*models.Category, error) {
	categories, err := scan[models.Category](ctx, r, r.categories, storeID)
	if err != nil {
		return nil, err
	}
	active := categories[:0]
	for _, c := range categories {
		if c.Active {
			active = append(active, c)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].DisplayOrder != active[j].DisplayOrder {
			return active[i].DisplayOrder < active[j].DisplayOrder
		}
		return active[i].Name < active[j].Name
	})
	return active, nil
}

// scan decodes every record of m that belongs to storeID.
func scan[T any](ctx context.Context, r *CatalogRepository, m map[string][]byte, storeID string) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	prefix := scoped(storeID, "")
	var out []*T
	for key, raw := range m {
		if !strings.HasPrefix(key, prefix) || len(key) == len(prefix) {
			continue
		}
		v := new(T)
		if err := json.Unmarshal(raw, v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (r *CatalogRepository) put(m map[string][]byte, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	r.mu.Lock()
	m[key] = raw
	r.mu.Unlock()
	return nil
}

func (r *CatalogRepository) get(ctx context.Context, m map[string][]byte, key string, v interface{}) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	raw, ok := m[key]
	r.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}
