package modifiers

import (
	"context"
	"reflect"
	"testing"

	"github.com/chrisdamba/menusync/internal/models"
	"github.com/chrisdamba/menusync/internal/repositories/memory"
)

func option(id, price string) models.ModifierOption {
	return models.ModifierOption{ID: id, Name: id, PriceDelta: models.Money(price)}
}

func optionIDs(g models.EffectiveGroup) []string {
	ids := make([]string, len(g.Options))
	for i, o := range g.Options {
		ids[i] = o.ID
	}
	return ids
}

func seedGroups(t *testing.T, groups ...*models.ModifierGroup) *memory.CatalogRepository {
	t.Helper()
	repo := memory.NewCatalogRepository()
	for _, g := range groups {
		if err := repo.UpsertModifierGroup(context.Background(), "MAIN", g); err != nil {
			t.Fatalf("seed group %s: %v", g.ID, err)
		}
	}
	return repo
}

func TestEffectiveGroups_KeepsRequestOrderAndDropsMissing(t *testing.T) {
	repo := seedGroups(t,
		&models.ModifierGroup{ID: "sides", Name: "Sides", Max: 1, Options: []models.ModifierOption{option("fries", "0")}},
		&models.ModifierGroup{ID: "extras", Name: "Extras", Multi: true, Max: 3, Options: []models.ModifierOption{option("cheese", "1.00")}},
	)
	acc := NewAccessor(repo)

	groups, err := acc.EffectiveGroups(context.Background(), "MAIN", models.ItemOverrides{},
		[]string{"extras", "missing", "", "sides", "extras"})
	if err != nil {
		t.Fatalf("effective groups: %v", err)
	}
	var got []string
	for _, g := range groups {
		got = append(got, g.ID)
	}
	if want := []string{"extras", "sides"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected groups %v, got %v", want, got)
	}
}

func TestEffectiveGroups_AppliesItemOverrides(t *testing.T) {
	repo := seedGroups(t, &models.ModifierGroup{
		ID: "extras", Name: "Extras", Multi: true, Max: 3,
		Options: []models.ModifierOption{option("cheese", "1.00"), option("bacon", "2.00"), option("egg", "1.50")},
	})
	overrides := models.ItemOverrides{
		ExtraOptions: map[string][]models.ModifierOption{
			"extras": {option("bacon", "3.00"), option("truffle", "4.00")},
		},
		HiddenOptions: map[string][]string{"extras": {"egg"}},
	}

	groups, err := NewAccessor(repo).EffectiveGroups(context.Background(), "MAIN", overrides, []string{"extras"})
	if err != nil {
		t.Fatalf("effective groups: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if want := []string{"cheese", "bacon", "truffle"}; !reflect.DeepEqual(optionIDs(groups[0]), want) {
		t.Fatalf("expected options %v, got %v", want, optionIDs(groups[0]))
	}
	bacon, _ := groups[0].Option("bacon")
	if !bacon.PriceDelta.Equal(models.Money("3.00")) {
		t.Fatalf("expected extra option to override base price, got %s", bacon.PriceDelta)
	}
}

func TestApply_DoesNotModifyBaseGroup(t *testing.T) {
	base := models.ModifierGroup{
		ID: "extras", Multi: true, Max: 3,
		Options: []models.ModifierOption{option("cheese", "1"), option("egg", "1")},
	}
	Apply(base, models.ItemOverrides{HiddenOptions: map[string][]string{"extras": {"cheese"}}})
	if base.Options[0].ID != "cheese" || len(base.Options) != 2 {
		t.Fatalf("base group was modified: %+v", base.Options)
	}
}

func TestInitialSelection_RequiredWithoutDefaultsPicksFirst(t *testing.T) {
	meats := models.ModifierGroup{
		ID: "meats", Name: "Meats", Required: true, Min: 1, Max: 1,
		Options: []models.ModifierOption{option("lamb", "0"), option("beef", "0"), option("chicken", "0")},
	}
	got := Apply(meats, models.ItemOverrides{}).InitialSelection
	if !reflect.DeepEqual(got, []string{"lamb"}) {
		t.Fatalf("expected [lamb], got %v", got)
	}
	if !GroupSatisfied(meats, got) {
		t.Fatal("initial selection does not satisfy the group")
	}
}

func TestInitialSelection_Defaults(t *testing.T) {
	flagged := models.ModifierGroup{
		ID: "sauce", Multi: true, Max: 2,
		Options: []models.ModifierOption{
			option("garlic", "0"),
			{ID: "chilli", DefaultSelected: true},
			{ID: "bbq", DefaultSelected: true},
			{ID: "mayo", DefaultSelected: true},
		},
	}

	tests := []struct {
		name         string
		itemDefaults []string
		hidden       []string
		want         []string
	}{
		{name: "flags capped at max", want: []string{"chilli", "bbq"}},
		{name: "item defaults win", itemDefaults: []string{"garlic"}, want: []string{"garlic"}},
		{name: "unknown item default falls back to flags", itemDefaults: []string{"ketchup"}, want: []string{"chilli", "bbq"}},
		{name: "hidden default skipped", hidden: []string{"chilli"}, want: []string{"bbq", "mayo"}},
		{name: "optional group without defaults starts empty", hidden: []string{"chilli", "bbq", "mayo"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			overrides := models.ItemOverrides{
				DefaultSelections: map[string][]string{"sauce": tt.itemDefaults},
				HiddenOptions:     map[string][]string{"sauce": tt.hidden},
			}
			got := Apply(flagged, overrides).InitialSelection
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
