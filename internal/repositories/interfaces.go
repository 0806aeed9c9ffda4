package repositories

import (
	"context"

	"github.com/chrisdamba/menusync/internal/models"
)

// CatalogRepository is the read path for menu data. Lookups of absent records return
// (nil, nil).
type CatalogRepository interface {
	GetModifierGroup(ctx context.Context, storeID, groupID string) (*models.ModifierGroup, error)
	GetItem(ctx context.Context, storeID, itemID string) (*models.Item, error)
	GetItems(ctx context.Context, storeID string) ([]*models.Item, error)
	GetCategories(ctx context.Context, storeID string) ([]*models.Category, error)
	GetStore(ctx context.Context, storeID string) (*models.Store, error)
}

// CatalogWriter loads catalog data, used by seeding.
type CatalogWriter interface {
	UpsertStore(ctx context.Context, store *models.Store) error
	UpsertCategory(ctx context.Context, storeID string, category *models.Category) error
	UpsertModifierGroup(ctx context.Context, storeID string, group *models.ModifierGroup) error
	UpsertItem(ctx context.Context, storeID string, item *models.Item) error
}

// Snapshot is one delivery from a document subscription. Exists is false when the
// document has never been written. Revision increases by one with every write to the
// document and is 0 when it does not exist.
type Snapshot struct {
	Body     []byte
	Exists   bool
	Revision int64
}

// Subscription stops snapshot delivery when unsubscribed.
type Subscription interface {
	Unsubscribe()
}

// DocumentStore persists one JSON document per user and collection. Put merges the
// top-level fields of body into the stored document, creating it when absent, and
// returns the revision it produced. Subscribe delivers the current document and then
// every change until unsubscribed; a delivery may skip revisions but never goes back.
type DocumentStore interface {
	Put(ctx context.Context, ref models.DocumentRef, body []byte) (int64, error)
	Get(ctx context.Context, ref models.DocumentRef) (Snapshot, error)
	Subscribe(ctx context.Context, ref models.DocumentRef, fn func(Snapshot)) (Subscription, error)
}

// LocalStore is durable key-value storage on the client side. Get returns (nil, nil)
// for an absent key.
type LocalStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// OrderRepository accepts pickup orders and returns their id. GetOrder returns
// (nil, nil) for an unknown id.
type OrderRepository interface {
	CreatePickupOrder(ctx context.Context, order *models.Order) (string, error)
	GetUserOrders(ctx context.Context, storeID, userID string) ([]*models.Order, error)
	GetOrder(ctx context.Context, storeID, orderID string) (*models.Order, error)
}
