// Package favorites keeps the signed-in user's saved item configurations, at most one
// per item.
package favorites

import (
	"context"
	"errors"

	"github.com/chrisdamba/menusync/internal/activity"
	"github.com/chrisdamba/menusync/internal/models"
	"github.com/chrisdamba/menusync/internal/replica"
	"github.com/chrisdamba/menusync/internal/repositories"
	"go.uber.org/zap"
)

var (
	ErrInvalidEntry = errors.New("favorite entry requires an item id")
	ErrNotFound     = errors.New("favorite not found")
)

type Options struct {
	Local    repositories.LocalStore
	Remote   repositories.DocumentStore
	Recorder *activity.Recorder
	Logger   *zap.Logger
}

type Engine struct {
	replica  *replica.Replica[models.FavoriteEntry]
	recorder *activity.Recorder
	log      *zap.Logger
}

func Open(ctx context.Context, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	e := &Engine{
		recorder: opts.Recorder,
		log:      opts.Logger.Named("favorites"),
	}
	e.replica = replica.Open(ctx, replica.Options[models.FavoriteEntry]{
		Collection:  models.CollectionFavorites,
		StorageKey:  models.StorageKeyFavorites,
		Local:       opts.Local,
		Remote:      opts.Remote,
		Clone:       models.FavoriteEntry.Clone,
		Normalize:   dedupe,
		Logger:      e.log,
		OnReconcile: e.reconciled,
	})
	return e
}

// Upsert replaces the entry for entry.ItemID or appends it. The whole list is committed
// in one step, so a reader never sees two entries for one item.
func (e *Engine) Upsert(entry models.FavoriteEntry) error {
	if entry.ItemID == "" {
		return ErrInvalidEntry
	}
	err := e.replica.Mutate(func(entries []models.FavoriteEntry) ([]models.FavoriteEntry, error) {
		return upsert(entries, entry.Clone()), nil
	})
	if err == nil {
		e.record(activity.EventFavoriteSaved, entry.ItemID)
	}
	return err
}

// Update replaces an existing entry and fails with ErrNotFound otherwise.
func (e *Engine) Update(entry models.FavoriteEntry) error {
	err := e.replica.Mutate(func(entries []models.FavoriteEntry) ([]models.FavoriteEntry, error) {
		i := indexOf(entries, entry.ItemID)
		if i < 0 {
			return nil, ErrNotFound
		}
		entries[i] = entry.Clone()
		return entries, nil
	})
	if err == nil {
		e.record(activity.EventFavoriteSaved, entry.ItemID)
	}
	return err
}

// Remove deletes the entry for itemID. Removing an absent item is a no-op.
func (e *Engine) Remove(itemID string) error {
	removed := false
	err := e.replica.Mutate(func(entries []models.FavoriteEntry) ([]models.FavoriteEntry, error) {
		out := entries[:0]
		for _, f := range entries {
			if f.ItemID == itemID {
				removed = true
				continue
			}
			out = append(out, f)
		}
		return out, nil
	})
	if err == nil && removed {
		e.record(activity.EventFavoriteRemoved, itemID)
	}
	return err
}

func (e *Engine) Has(itemID string) bool {
	found := false
	e.replica.View(func(entries []models.FavoriteEntry) {
		found = indexOf(entries, itemID) >= 0
	})
	return found
}

func (e *Engine) Find(itemID string) (models.FavoriteEntry, bool) {
	var (
		entry models.FavoriteEntry
		found bool
	)
	e.replica.View(func(entries []models.FavoriteEntry) {
		if i := indexOf(entries, itemID); i >= 0 {
			entry, found = entries[i].Clone(), true
		}
	})
	return entry, found
}

func (e *Engine) Entries() []models.FavoriteEntry {
	return e.replica.Items()
}

func (e *Engine) Connect(ctx context.Context, userID string) error {
	return e.replica.Connect(ctx, userID)
}

func (e *Engine) Disconnect() {
	e.replica.Disconnect()
}

func (e *Engine) State() replica.State {
	return e.replica.State()
}

func (e *Engine) Flush(ctx context.Context) error {
	return e.replica.Flush(ctx)
}

func (e *Engine) Close() {
	e.replica.Close()
}

// upsert keeps the first position of an item and drops any later duplicates that may
// have arrived from a remote document.
func upsert(entries []models.FavoriteEntry, entry models.FavoriteEntry) []models.FavoriteEntry {
	out := make([]models.FavoriteEntry, 0, len(entries)+1)
	placed := false
	for _, f := range entries {
		if f.ItemID != entry.ItemID {
			out = append(out, f)
			continue
		}
		if !placed {
			out = append(out, entry)
			placed = true
		}
	}
	if !placed {
		out = append(out, entry)
	}
	return out
}

// dedupe keeps the first entry per item id and drops entries without one.
func dedupe(entries []models.FavoriteEntry) []models.FavoriteEntry {
	seen := make(map[string]struct{}, len(entries))
	out := make([]models.FavoriteEntry, 0, len(entries))
	for _, f := range entries {
		if f.ItemID == "" {
			continue
		}
		if _, dup := seen[f.ItemID]; dup {
			continue
		}
		seen[f.ItemID] = struct{}{}
		out = append(out, f)
	}
	return out
}

func indexOf(entries []models.FavoriteEntry, itemID string) int {
	for i, f := range entries {
		if f.ItemID == itemID {
			return i
		}
	}
	return -1
}

func (e *Engine) record(eventType, itemID string) {
	if e.recorder == nil {
		return
	}
	n := 0
	e.replica.View(func(entries []models.FavoriteEntry) { n = len(entries) })
	e.recorder.Record(activity.Event{
		EventType:  eventType,
		UserID:     e.replica.UserID(),
		Collection: models.CollectionFavorites,
		ItemID:     itemID,
		Count:      int64(n),
	})
}

func (e *Engine) reconciled(userID string, decision replica.Decision, localLen, remoteLen int) {
	if e.recorder == nil {
		return
	}
	e.recorder.Record(activity.Event{
		EventType:  activity.EventSyncReconciled,
		UserID:     userID,
		Collection: models.CollectionFavorites,
		Decision:   decision.String(),
		Count:      int64(localLen),
		Remote:     int64(remoteLen),
	})
}
