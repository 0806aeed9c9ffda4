// Package activity streams cart and favorites activity to an output: console, files,
// object storage or Kafka.
package activity

const (
	EventLineAdded       = "line_added"
	EventLineUpdated     = "line_updated"
	EventLineRemoved     = "line_removed"
	EventCartCleared     = "cart_cleared"
	EventFavoriteSaved   = "favorite_saved"
	EventFavoriteRemoved = "favorite_removed"
	EventSyncReconciled  = "sync_reconciled"
	EventOrderPlaced     = "order_placed"

	TopicCart      = "cart_events"
	TopicFavorites = "favorite_events"
	TopicOrders    = "order_events"
)

// Event is one activity record. Count is the collection size after the change (local
// size for reconciliation events); Remote is the remote size at reconciliation.
type Event struct {
	Timestamp  int64   `json:"timestamp" parquet:"name=timestamp, type=INT64"`
	EventType  string  `json:"eventType" parquet:"name=eventType, type=BYTE_ARRAY, convertedtype=UTF8"`
	UserID     string  `json:"userId,omitempty" parquet:"name=userId, type=BYTE_ARRAY, convertedtype=UTF8"`
	Device     string  `json:"device,omitempty" parquet:"name=device, type=BYTE_ARRAY, convertedtype=UTF8"`
	Collection string  `json:"collection,omitempty" parquet:"name=collection, type=BYTE_ARRAY, convertedtype=UTF8"`
	ItemID     string  `json:"itemId,omitempty" parquet:"name=itemId, type=BYTE_ARRAY, convertedtype=UTF8"`
	OrderID    string  `json:"orderId,omitempty" parquet:"name=orderId, type=BYTE_ARRAY, convertedtype=UTF8"`
	Decision   string  `json:"decision,omitempty" parquet:"name=decision, type=BYTE_ARRAY, convertedtype=UTF8"`
	Quantity   int64   `json:"quantity,omitempty" parquet:"name=quantity, type=INT64"`
	Count      int64   `json:"count" parquet:"name=count, type=INT64"`
	Remote     int64   `json:"remote,omitempty" parquet:"name=remote, type=INT64"`
	Amount     float64 `json:"amount,omitempty" parquet:"name=amount, type=DOUBLE"`
}

// Topic routes an event by the collection it concerns.
func (e Event) Topic() string {
	switch {
	case e.EventType == EventOrderPlaced:
		return TopicOrders
	case e.Collection == "favorites":
		return TopicFavorites
	default:
		return TopicCart
	}
}
