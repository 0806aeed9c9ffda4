package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chrisdamba/menusync/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lucsky/cuid"
	"github.com/shopspring/decimal"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) CreatePickupOrder(ctx context.Context, order *models.Order) (string, error) {
	id := order.ID
	if id == "" {
		id = cuid.New()
	}
	customer, err := json.Marshal(order.Customer)
	if err != nil {
		return "", err
	}
	items, err := json.Marshal(order.Items)
	if err != nil {
		return "", err
	}

	query := `
        INSERT INTO orders (
            id, store_id, customer_id, customer, type, status, items,
            total_amount, created_at, updated_at
        ) VALUES (
            $1, $2, $3, $4::jsonb, $5, $6, $7::jsonb, $8::numeric, $9, $10
        )
    `
	err = ExecTxWithRetry(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query,
			id,
			order.StoreID,
			order.Customer.ID,
			string(customer),
			order.Type,
			order.Status,
			string(items),
			order.TotalAmount.String(),
			order.CreatedAt,
			order.UpdatedAt,
		)
		return err
	}, 3)
	if err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}
	return id, nil
}

// GetUserOrders returns the user's orders, newest first.
func (r *OrderRepository) GetUserOrders(ctx context.Context, storeID, userID string) ([]*models.Order, error) {
	query := `SELECT` + orderColumns + `
        FROM orders
        WHERE store_id = $1 AND customer_id = $2
        ORDER BY created_at DESC
    `
	rows, err := r.pool.Query(ctx, query, storeID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (r *OrderRepository) GetOrder(ctx context.Context, storeID, orderID string) (*models.Order, error) {
	query := `SELECT` + orderColumns + `
        FROM orders
        WHERE store_id = $1 AND id = $2
    `
	order, err := scanOrder(r.pool.QueryRow(ctx, query, storeID, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	return order, nil
}

const orderColumns = ` id, store_id, customer, type, status, items, total_amount::text, created_at, updated_at`

func scanOrder(row pgx.Row) (*models.Order, error) {
	order := &models.Order{}
	var (
		customer, items      []byte
		total                string
		createdAt, updatedAt time.Time
	)
	err := row.Scan(
		&order.ID,
		&order.StoreID,
		&customer,
		&order.Type,
		&order.Status,
		&items,
		&total,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(customer, &order.Customer); err != nil {
		return nil, fmt.Errorf("decode customer of order %s: %w", order.ID, err)
	}
	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("decode items of order %s: %w", order.ID, err)
	}
	if order.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("total of order %s: %w", order.ID, err)
	}
	order.CreatedAt = createdAt
	order.UpdatedAt = updatedAt
	return order, nil
}
