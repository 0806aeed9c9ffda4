package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/chrisdamba/menusync/internal/models"
	"github.com/lucsky/cuid"
)

type OrderRepository struct {
	mu     sync.Mutex
	orders []models.Order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{}
}

func (r *OrderRepository) CreatePickupOrder(ctx context.Context, order *models.Order) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	stored := *order
	if stored.ID == "" {
		stored.ID = cuid.New()
	}
	stored.Items = make([]models.CartLine, len(order.Items))
	for i, line := range order.Items {
		stored.Items[i] = line.Clone()
	}

	r.mu.Lock()
	r.orders = append(r.orders, stored)
	r.mu.Unlock()
	return stored.ID, nil
}

// GetUserOrders returns the user's orders, newest first.
func (r *OrderRepository) GetUserOrders(ctx context.Context, storeID, userID string) ([]*models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.Order
	for i := range r.orders {
		o := r.orders[i]
		if o.StoreID == storeID && o.Customer.ID == userID {
			out = append(out, &o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *OrderRepository) GetOrder(ctx context.Context, storeID, orderID string) (*models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.orders {
		if o := r.orders[i]; o.StoreID == storeID && o.ID == orderID {
			o.Items = append([]models.CartLine(nil), o.Items...)
			for j := range o.Items {
				o.Items[j] = o.Items[j].Clone()
			}
			return &o, nil
		}
	}
	return nil, nil
}
