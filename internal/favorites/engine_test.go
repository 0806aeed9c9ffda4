package favorites

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/chrisdamba/menusync/internal/localstore"
	"github.com/chrisdamba/menusync/internal/models"
	"github.com/chrisdamba/menusync/internal/repositories/memory"
)

func newEngine(t *testing.T, remote *memory.DocumentStore) *Engine {
	t.Helper()
	if remote == nil {
		remote = memory.NewDocumentStore()
	}
	e := Open(context.Background(), Options{Local: localstore.NewMemoryStore(), Remote: remote})
	t.Cleanup(e.Close)
	return e
}

func fav(itemID string, options ...string) models.FavoriteEntry {
	f := models.FavoriteEntry{ItemID: itemID, Name: itemID}
	if len(options) > 0 {
		f.Selections = []models.GroupSelection{{GroupID: "extras", OptionIDs: options}}
	}
	return f
}

func ids(entries []models.FavoriteEntry) []string {
	out := make([]string, len(entries))
	for i, f := range entries {
		out[i] = f.ItemID
	}
	return out
}

func TestEngine_UpsertIsIdempotent(t *testing.T) {
	e := newEngine(t, nil)
	for i := 0; i < 3; i++ {
		if err := e.Upsert(fav("burger", "cheese")); err != nil {
			t.Fatal(err)
		}
	}
	if got := e.Entries(); len(got) != 1 {
		t.Fatalf("expected one entry, got %d", len(got))
	}
}

func TestEngine_UpsertReplacesInPlace(t *testing.T) {
	e := newEngine(t, nil)
	for _, f := range []models.FavoriteEntry{fav("a"), fav("b", "cheese"), fav("c")} {
		if err := e.Upsert(f); err != nil {
			t.Fatal(err)
		}
	}
	if err := e.Upsert(fav("b", "bacon")); err != nil {
		t.Fatal(err)
	}

	if got := ids(e.Entries()); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("expected order kept, got %v", got)
	}
	b, ok := e.Find("b")
	if !ok {
		t.Fatal("b not found")
	}
	if !reflect.DeepEqual(b.Selections[0].OptionIDs, []string{"bacon"}) {
		t.Fatalf("expected the whole entry replaced, got %+v", b.Selections)
	}
}

func TestEngine_UpdateAndRemove(t *testing.T) {
	e := newEngine(t, nil)
	if err := e.Update(fav("ghost")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := e.Upsert(models.FavoriteEntry{}); !errors.Is(err, ErrInvalidEntry) {
		t.Fatalf("expected ErrInvalidEntry, got %v", err)
	}

	if err := e.Upsert(fav("a")); err != nil {
		t.Fatal(err)
	}
	if err := e.Update(fav("a", "cheese")); err != nil {
		t.Fatalf("update: %v", err)
	}
	if !e.Has("a") {
		t.Fatal("expected a to be a favorite")
	}
	if err := e.Remove("a"); err != nil {
		t.Fatal(err)
	}
	if err := e.Remove("a"); err != nil {
		t.Fatalf("removing an absent favorite should be a no-op, got %v", err)
	}
	if e.Has("a") {
		t.Fatal("expected a to be removed")
	}
}

func TestEngine_RemoteDuplicatesCollapse(t *testing.T) {
	remote := memory.NewDocumentStore()
	ref := models.DocumentRef{UserID: "u1", Collection: models.CollectionFavorites}
	body := `{"items":[{"id":"a","name":"first"},{"id":"b","name":"b"},{"id":"a","name":"second"},{"name":"no id"}]}`
	if _, err := remote.Put(context.Background(), ref, []byte(body)); err != nil {
		t.Fatal(err)
	}

	e := newEngine(t, remote)
	if err := e.Connect(context.Background(), "u1"); err != nil {
		t.Fatal(err)
	}
	if got := ids(e.Entries()); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("expected [a b], got %v", got)
	}
	if a, _ := e.Find("a"); a.Name != "first" {
		t.Fatalf("expected the first duplicate kept, got %q", a.Name)
	}
}

func TestEngine_SyncsAcrossDevices(t *testing.T) {
	remote := memory.NewDocumentStore()
	phone := newEngine(t, remote)
	laptop := newEngine(t, remote)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, e := range []*Engine{phone, laptop} {
		if err := e.Connect(ctx, "u1"); err != nil {
			t.Fatal(err)
		}
	}
	if err := phone.Upsert(fav("burger")); err != nil {
		t.Fatal(err)
	}
	if err := phone.Flush(ctx); err != nil {
		t.Fatal(err)
	}
	if !laptop.Has("burger") {
		t.Fatal("expected the favorite to reach the other device")
	}
}
