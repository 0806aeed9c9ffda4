package repositories_test

import (
	"context"
	"errors"
	"testing"

	"github.com/chrisdamba/menusync/internal/models"
	"github.com/chrisdamba/menusync/internal/repositories"
	"github.com/chrisdamba/menusync/internal/repositories/memory"
)

func TestLoadCatalog(t *testing.T) {
	catalog := &models.Catalog{
		Store:  &models.Store{ID: "MAIN", Online: true},
		Groups: []*models.ModifierGroup{{ID: "size", Max: 1}},
		Items:  []*models.Item{{ID: "burger", Active: true}, {ID: "fries", Active: true}},
	}
	repo := memory.NewCatalogRepository()
	ticks := 0
	if err := repositories.LoadCatalog(context.Background(), repo, catalog, func() { ticks++ }); err != nil {
		t.Fatal(err)
	}
	if ticks != catalog.Size() {
		t.Fatalf("expected %d progress ticks, got %d", catalog.Size(), ticks)
	}
	items, err := repo.GetItems(context.Background(), "MAIN")
	if err != nil || len(items) != 2 {
		t.Fatalf("expected 2 items, got %d (%v)", len(items), err)
	}
}

type failingWriter struct {
	*memory.CatalogRepository
}

func (failingWriter) UpsertItem(context.Context, string, *models.Item) error {
	return errors.New("disk full")
}

func TestLoadCatalog_StopsOnError(t *testing.T) {
	catalog := &models.Catalog{
		Store: &models.Store{ID: "MAIN"},
		Items: []*models.Item{{ID: "burger"}},
	}
	err := repositories.LoadCatalog(context.Background(), failingWriter{memory.NewCatalogRepository()}, catalog, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
}
