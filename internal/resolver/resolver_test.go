package resolver

import (
	"context"
	"testing"

	"github.com/openfoodfacts/recipe-estimator-go/pkg/models"
)

type fakeDB struct {
	profiles map[string]map[models.NutrientKey]models.NutrientProfile
}

func (f fakeDB) LoadDatabase(ctx context.Context) error { return nil }
func (f fakeDB) NutrientsForFoodCode(ctx context.Context, code string) (map[models.NutrientKey]models.NutrientProfile, bool) {
	p, ok := f.profiles[code]
	return p, ok
}
func (f fakeDB) ParentFoodCode(ctx context.Context, code string) (string, bool) { return "", false }
func (f fakeDB) SearchByName(ctx context.Context, query string) ([]models.FoodCodeMatch, error) {
	return nil, nil
}
func (f fakeDB) IsLoaded() bool { return true }

type fakeTaxonomy struct {
	direct  map[string]string
	proxy   map[string]string
	parents map[string][]string
}

func (f fakeTaxonomy) CiqualFoodCode(id string) (string, bool)      { c, ok := f.direct[id]; return c, ok }
func (f fakeTaxonomy) CiqualProxyFoodCode(id string) (string, bool) { c, ok := f.proxy[id]; return c, ok }
func (f fakeTaxonomy) Parents(id string) []string                   { return f.parents[id] }

type fakeCatalogue struct{ entries []models.NutrientCatalogueEntry }

func (f fakeCatalogue) Entries() []models.NutrientCatalogueEntry { return f.entries }
func (f fakeCatalogue) ByOFFKey(k string) (models.NutrientCatalogueEntry, bool) {
	return models.NutrientCatalogueEntry{}, false
}

func newFixture() (*Resolver, *models.Ingredient) {
	db := fakeDB{profiles: map[string]map[models.NutrientKey]models.NutrientProfile{
		"20047": {"protein": {PercentNom: 0.9, Confidence: models.ConfidenceA}},
	}}
	tax := fakeTaxonomy{
		direct:  map[string]string{"en:tomato": "20047"},
		proxy:   map[string]string{},
		parents: map[string][]string{"en:cherry-tomato": {"en:tomato"}},
	}
	cat := fakeCatalogue{entries: []models.NutrientCatalogueEntry{{CiqualKey: "protein"}}}
	r := New(db, tax, cat, nil)
	return r, &models.Ingredient{ID: "en:cherry-tomato"}
}

func TestResolveDirectMatch(t *testing.T) {
	r := New(
		fakeDB{profiles: map[string]map[models.NutrientKey]models.NutrientProfile{
			"20047": {"protein": {PercentNom: 0.9}},
		}},
		fakeTaxonomy{direct: map[string]string{"en:tomato": "20047"}},
		fakeCatalogue{entries: []models.NutrientCatalogueEntry{{CiqualKey: "protein"}}},
		nil,
	)
	leaf := &models.Ingredient{ID: "en:tomato"}
	if err := r.ResolveIngredients(context.Background(), []*models.Ingredient{leaf}); err != nil {
		t.Fatalf("ResolveIngredients: %v", err)
	}
	if leaf.CiqualFoodCodeUsed != "20047" {
		t.Fatalf("expected used code 20047, got %q", leaf.CiqualFoodCodeUsed)
	}
	if leaf.Nutrients["protein"].PercentNom != 0.9 {
		t.Fatalf("expected protein 0.9, got %+v", leaf.Nutrients["protein"])
	}
}

func TestResolveAncestorFallback(t *testing.T) {
	r, leaf := newFixture()
	if err := r.ResolveIngredients(context.Background(), []*models.Ingredient{leaf}); err != nil {
		t.Fatalf("ResolveIngredients: %v", err)
	}
	if leaf.CiqualFoodCodeUsed != "20047" {
		t.Fatalf("expected ancestor-resolved code 20047, got %q", leaf.CiqualFoodCodeUsed)
	}
}

func TestResolveUnknownProfileWhenNoMatch(t *testing.T) {
	r := New(
		fakeDB{profiles: map[string]map[models.NutrientKey]models.NutrientProfile{}},
		fakeTaxonomy{},
		fakeCatalogue{entries: []models.NutrientCatalogueEntry{{CiqualKey: "protein"}, {CiqualKey: "fat"}}},
		nil,
	)
	leaf := &models.Ingredient{ID: "en:mystery-substance"}
	if err := r.ResolveIngredients(context.Background(), []*models.Ingredient{leaf}); err != nil {
		t.Fatalf("ResolveIngredients: %v", err)
	}
	if leaf.CiqualFoodCodeUsed != "" {
		t.Fatalf("expected no code used, got %q", leaf.CiqualFoodCodeUsed)
	}
	for key, p := range leaf.Nutrients {
		if p.Confidence != models.ConfidenceUnknown {
			t.Errorf("nutrient %s: expected unknown confidence, got %q", key, p.Confidence)
		}
		if p.PercentNom != 0 {
			t.Errorf("nutrient %s: expected zero percent, got %v", key, p.PercentNom)
		}
	}
}

func TestResolveSkipsAlreadyResolvedLeaves(t *testing.T) {
	r, _ := newFixture()
	preset := map[models.NutrientKey]models.NutrientProfile{"protein": {PercentNom: 42}}
	leaf := &models.Ingredient{ID: "en:test-hook", Nutrients: preset}
	if err := r.ResolveIngredients(context.Background(), []*models.Ingredient{leaf}); err != nil {
		t.Fatalf("ResolveIngredients: %v", err)
	}
	if leaf.Nutrients["protein"].PercentNom != 42 {
		t.Fatalf("expected preset nutrients to survive, got %+v", leaf.Nutrients)
	}
}

func TestResolveRecursesIntoChildren(t *testing.T) {
	db := fakeDB{profiles: map[string]map[models.NutrientKey]models.NutrientProfile{
		"20047": {"protein": {PercentNom: 0.9}},
	}}
	tax := fakeTaxonomy{direct: map[string]string{"en:tomato": "20047"}}
	cat := fakeCatalogue{entries: []models.NutrientCatalogueEntry{{CiqualKey: "protein"}}}
	r := New(db, tax, cat, nil)

	leaf := &models.Ingredient{ID: "en:tomato"}
	parent := &models.Ingredient{ID: "en:sauce", Ingredients: []*models.Ingredient{leaf}}

	if err := r.ResolveIngredients(context.Background(), []*models.Ingredient{parent}); err != nil {
		t.Fatalf("ResolveIngredients: %v", err)
	}
	if parent.Nutrients != nil {
		t.Fatalf("expected parent (non-leaf) to remain without a direct nutrient profile")
	}
	if leaf.Nutrients == nil {
		t.Fatalf("expected leaf to be resolved")
	}
}
