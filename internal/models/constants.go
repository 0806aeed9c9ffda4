package models

const (
	OrderTypePickup = "pickup"

	OrderStatusPending   = "pending"
	OrderStatusAccepted  = "accepted"
	OrderStatusReady     = "ready"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"

	// Remote document collections, one document per user each.
	CollectionCart      = "cart"
	CollectionFavorites = "favorites"

	// Local durable storage keys.
	StorageKeyCart      = "cart:v1"
	StorageKeyFavorites = "favorites:v1"

	DefaultStoreID = "MAIN"
)
