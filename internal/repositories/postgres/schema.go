package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS stores (
		id         TEXT PRIMARY KEY,
		body       JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		store_id      TEXT NOT NULL,
		id            TEXT NOT NULL,
		name          TEXT NOT NULL,
		display_order INTEGER NOT NULL DEFAULT 9999,
		active        BOOLEAN NOT NULL DEFAULT true,
		icon          TEXT NOT NULL DEFAULT '',
		group_id      TEXT NOT NULL DEFAULT '',
		group_name    TEXT NOT NULL DEFAULT '',
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (store_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS modifier_groups (
		store_id         TEXT NOT NULL,
		id               TEXT NOT NULL,
		name             TEXT NOT NULL,
		required         BOOLEAN NOT NULL DEFAULT false,
		min_select       INTEGER NOT NULL DEFAULT 0,
		max_select       INTEGER NOT NULL DEFAULT 1,
		multi            BOOLEAN NOT NULL DEFAULT false,
		is_variant_group BOOLEAN NOT NULL DEFAULT false,
		options          JSONB NOT NULL DEFAULT '[]',
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (store_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		store_id           TEXT NOT NULL,
		id                 TEXT NOT NULL,
		category_id        TEXT NOT NULL DEFAULT '',
		name               TEXT NOT NULL,
		description        TEXT NOT NULL DEFAULT '',
		image_url          TEXT NOT NULL DEFAULT '',
		base_price         NUMERIC(10,2) NOT NULL DEFAULT 0,
		active             BOOLEAN NOT NULL DEFAULT true,
		display_order      INTEGER NOT NULL DEFAULT 9999,
		modifier_group_ids TEXT[] NOT NULL DEFAULT '{}',
		default_selections JSONB,
		hidden_options     JSONB,
		extra_options      JSONB,
		customizable       BOOLEAN,
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (store_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id           TEXT PRIMARY KEY,
		store_id     TEXT NOT NULL,
		customer_id  TEXT NOT NULL,
		customer     JSONB NOT NULL,
		type         TEXT NOT NULL,
		status       TEXT NOT NULL,
		items        JSONB NOT NULL,
		total_amount NUMERIC(10,2) NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS orders_customer_idx ON orders (store_id, customer_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS fact_cart_activity (
		"timestamp" BIGINT NOT NULL,
		event_type  TEXT NOT NULL,
		user_id     TEXT,
		device      TEXT,
		collection  TEXT,
		item_id     TEXT,
		order_id    TEXT,
		decision    TEXT,
		quantity    BIGINT,
		count       BIGINT,
		remote      BIGINT,
		amount      DOUBLE PRECISION
	)`,
	`CREATE TABLE IF NOT EXISTS fact_favorite_activity (
		"timestamp" BIGINT NOT NULL,
		event_type  TEXT NOT NULL,
		user_id     TEXT,
		device      TEXT,
		collection  TEXT,
		item_id     TEXT,
		order_id    TEXT,
		decision    TEXT,
		quantity    BIGINT,
		count       BIGINT,
		remote      BIGINT,
		amount      DOUBLE PRECISION
	)`,
	`CREATE TABLE IF NOT EXISTS fact_order (
		"timestamp" BIGINT NOT NULL,
		event_type  TEXT NOT NULL,
		user_id     TEXT,
		device      TEXT,
		collection  TEXT,
		item_id     TEXT,
		order_id    TEXT,
		decision    TEXT,
		quantity    BIGINT,
		count       BIGINT,
		remote      BIGINT,
		amount      DOUBLE PRECISION
	)`,
	`CREATE TABLE IF NOT EXISTS user_documents (
		user_id    TEXT NOT NULL,
		collection TEXT NOT NULL,
		body       JSONB NOT NULL DEFAULT '{}',
		revision   BIGINT NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, collection)
	)`,
	`ALTER TABLE user_documents ADD COLUMN IF NOT EXISTS revision BIGINT NOT NULL DEFAULT 0`,
}

// Migrate creates the tables when they do not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
