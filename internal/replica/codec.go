package replica

import (
	"encoding/json"
	"time"
)

// document is the remote shape: the whole collection as one list.
type document[T any] struct {
	Items     []T       `json:"items"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func encodeDocument[T any](items []T, now time.Time) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(document[T]{Items: items, UpdatedAt: now})
}

// decodeDocument never fails: a missing or malformed items field is an empty list and
// malformed elements are skipped. Fields tagged omitempty come back nil when they were
// empty; callers that compare with stored items keep them in that form (see
// models.CartLine.Canonical).
func decodeDocument[T any](body []byte) []T {
	var raw struct {
		Items json.RawMessage `json:"items"`
	}
	if len(body) == 0 || json.Unmarshal(body, &raw) != nil {
		return []T{}
	}
	return decodeList[T](raw.Items)
}

func decodeList[T any](body []byte) []T {
	var elems []json.RawMessage
	if len(body) == 0 || json.Unmarshal(body, &elems) != nil {
		return []T{}
	}
	items := make([]T, 0, len(elems))
	for _, e := range elems {
		var item T
		if err := json.Unmarshal(e, &item); err != nil {
			continue
		}
		items = append(items, item)
	}
	return items
}

func encodeList[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}
