package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chrisdamba/menusync/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type CatalogRepository struct {
	pool *pgxpool.Pool
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

func (r *CatalogRepository) GetStore(ctx context.Context, storeID string) (*models.Store, error) {
	var body []byte
	err := r.pool.QueryRow(ctx, `SELECT body FROM stores WHERE id = $1`, storeID).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get store %s: %w", storeID, err)
	}
	store := &models.Store{}
	if err := json.Unmarshal(body, store); err != nil {
		return nil, fmt.Errorf("decode store %s: %w", storeID, err)
	}
	return store, nil
}

func (r *CatalogRepository) UpsertStore(ctx context.Context, store *models.Store) error {
	body, err := json.Marshal(store)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO stores (id, body, updated_at) VALUES ($1, $2::jsonb, now())
		ON CONFLICT (id) DO UPDATE SET body = excluded.body, updated_at = now()
	`, store.ID, string(body))
	return err
}

func (r *CatalogRepository) GetModifierGroup(ctx context.Context, storeID, groupID string) (*models.ModifierGroup, error) {
	query := `
        SELECT id, name, required, min_select, max_select, multi, is_variant_group, options
        FROM modifier_groups
        WHERE store_id = $1 AND id = $2
    `
	group := &models.ModifierGroup{}
	var options []byte
	err := r.pool.QueryRow(ctx, query, storeID, groupID).Scan(
		&group.ID,
		&group.Name,
		&group.Required,
		&group.Min,
		&group.Max,
		&group.Multi,
		&group.IsVariantGroup,
		&options,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get modifier group %s: %w", groupID, err)
	}
	if err := json.Unmarshal(options, &group.Options); err != nil {
		return nil, fmt.Errorf("decode options of group %s: %w", groupID, err)
	}
	return group, nil
}

func (r *CatalogRepository) UpsertModifierGroup(ctx context.Context, storeID string, group *models.ModifierGroup) error {
	options := group.Options
	if options == nil {
		options = []models.ModifierOption{}
	}
	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO modifier_groups (
            store_id, id, name, required, min_select, max_select, multi,
            is_variant_group, options, updated_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, now()
        )
        ON CONFLICT (store_id, id) DO UPDATE SET
            name = excluded.name,
            required = excluded.required,
            min_select = excluded.min_select,
            max_select = excluded.max_select,
            multi = excluded.multi,
            is_variant_group = excluded.is_variant_group,
            options = excluded.options,
            updated_at = now()
    `
	_, err = r.pool.Exec(ctx, query,
		storeID,
		group.ID,
		group.Name,
		group.Required,
		group.Min,
		group.Max,
		group.Multi,
		group.IsVariantGroup,
		string(optionsJSON),
	)
	return err
}

const itemColumns = `
            id,
            category_id,
            name,
            description,
            image_url,
            base_price::text,
            active,
            display_order,
            modifier_group_ids,
            default_selections,
            hidden_options,
            extra_options,
            customizable`

func scanItem(row pgx.Row) (*models.Item, error) {
	item := &models.Item{}
	var (
		basePrice                string
		defaults, hidden, extras []byte
	)
	err := row.Scan(
		&item.ID,
		&item.CategoryID,
		&item.Name,
		&item.Description,
		&item.ImageRef,
		&basePrice,
		&item.Active,
		&item.DisplayOrder,
		&item.ModifierGroupIDs,
		&defaults,
		&hidden,
		&extras,
		&item.Customizable,
	)
	if err != nil {
		return nil, err
	}
	if item.BasePrice, err = decimal.NewFromString(basePrice); err != nil {
		return nil, fmt.Errorf("base price of item %s: %w", item.ID, err)
	}
	for _, f := range []struct {
		raw []byte
		dst interface{}
	}{
		{defaults, &item.DefaultSelections},
		{hidden, &item.HiddenOptions},
		{extras, &item.ExtraOptions},
	} {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, fmt.Errorf("decode overrides of item %s: %w", item.ID, err)
		}
	}
	return item, nil
}

func (r *CatalogRepository) GetItem(ctx context.Context, storeID, itemID string) (*models.Item, error) {
	query := `SELECT` + itemColumns + `
        FROM items
        WHERE store_id = $1 AND id = $2
    `
	item, err := scanItem(r.pool.QueryRow(ctx, query, storeID, itemID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", itemID, err)
	}
	return item, nil
}

// GetItems returns the store's active items by display order, then name.
func (r *CatalogRepository) GetItems(ctx context.Context, storeID string) ([]*models.Item, error) {
	query := `SELECT` + itemColumns + `
        FROM items
        WHERE store_id = $1 AND active
        ORDER BY display_order, name
    `
	rows, err := r.pool.Query(ctx, query, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetCategories returns the store's active categories by display order, then name.
func (r *CatalogRepository) GetCategories(ctx context.Context, storeID string) ([]*models.Category, error) {
	query := `
        SELECT id, name, display_order, active, icon, group_id, group_name
        FROM categories
        WHERE store_id = $1 AND active
        ORDER BY display_order, name
    `
	rows, err := r.pool.Query(ctx, query, storeID)
	if err != nil {
		return nil, fmt.Errorf("get categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		c := &models.Category{}
		if err := rows.Scan(&c.ID, &c.Name, &c.DisplayOrder, &c.Active, &c.Icon, &c.GroupID, &c.GroupName); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *CatalogRepository) UpsertCategory(ctx context.Context, storeID string, category *models.Category) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO categories (store_id, id, name, display_order, active, icon, group_id, group_name, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
        ON CONFLICT (store_id, id) DO UPDATE SET
            name = excluded.name,
            display_order = excluded.display_order,
            active = excluded.active,
            icon = excluded.icon,
            group_id = excluded.group_id,
            group_name = excluded.group_name,
            updated_at = now()
    `,
		storeID,
		category.ID,
		category.Name,
		category.DisplayOrder,
		category.Active,
		category.Icon,
		category.GroupID,
		category.GroupName,
	)
	return err
}

func (r *CatalogRepository) UpsertItem(ctx context.Context, storeID string, item *models.Item) error {
	jsonOrNil := func(v interface{}, empty bool) (interface{}, error) {
		if empty {
			return nil, nil
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(raw), nil
	}
	defaults, err := jsonOrNil(item.DefaultSelections, len(item.DefaultSelections) == 0)
	if err != nil {
		return err
	}
	hidden, err := jsonOrNil(item.HiddenOptions, len(item.HiddenOptions) == 0)
	if err != nil {
		return err
	}
	extras, err := jsonOrNil(item.ExtraOptions, len(item.ExtraOptions) == 0)
	if err != nil {
		return err
	}
	groupIDs := item.ModifierGroupIDs
	if groupIDs == nil {
		groupIDs = []string{}
	}

	query := `
        INSERT INTO items (
            store_id, id, category_id, name, description, image_url, base_price,
            active, display_order, modifier_group_ids, default_selections,
            hidden_options, extra_options, customizable, updated_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7::numeric, $8, $9, $10, $11::jsonb, $12::jsonb, $13::jsonb, $14, now()
        )
        ON CONFLICT (store_id, id) DO UPDATE SET
            category_id = excluded.category_id,
            name = excluded.name,
            description = excluded.description,
            image_url = excluded.image_url,
            base_price = excluded.base_price,
            active = excluded.active,
            display_order = excluded.display_order,
            modifier_group_ids = excluded.modifier_group_ids,
            default_selections = excluded.default_selections,
            hidden_options = excluded.hidden_options,
            extra_options = excluded.extra_options,
            customizable = excluded.customizable,
            updated_at = now()
    `
	_, err = r.pool.Exec(ctx, query,
		storeID,
		item.ID,
		item.CategoryID,
		item.Name,
		item.Description,
		item.ImageRef,
		item.BasePrice.String(),
		item.Active,
		item.DisplayOrder,
		groupIDs,
		defaults,
		hidden,
		extras,
		item.Customizable,
	)
	return err
}
