package models

import "context"

// ReferenceDatabase exposes per-food nutrient composition lookups backed by
// the Ciqual tables (or an equivalent reference food-composition database).
type ReferenceDatabase interface {
	LoadDatabase(ctx context.Context) error
	NutrientsForFoodCode(ctx context.Context, foodCode string) (map[NutrientKey]NutrientProfile, bool)
	ParentFoodCode(ctx context.Context, foodCode string) (string, bool)
	SearchByName(ctx context.Context, query string) ([]FoodCodeMatch, error)
	IsLoaded() bool
}

// FoodCodeMatch is one hit from a free-text reference-database search.
type FoodCodeMatch struct {
	FoodCode string `json:"food_code"`
	Name     string `json:"name"`
}

// TaxonomyResolver maps an ingredient taxonomy id to a Ciqual food code and/or
// proxy food code, and exposes the parent chain for ancestor fallback.
type TaxonomyResolver interface {
	CiqualFoodCode(id string) (string, bool)
	CiqualProxyFoodCode(id string) (string, bool)
	Parents(id string) []string
}

// NutrientCatalogue exposes the OFF<->Ciqual nutrient mapping and weighting
// configuration used by the selector/weighter stage.
type NutrientCatalogue interface {
	Entries() []NutrientCatalogueEntry
	ByOFFKey(offKey string) (NutrientCatalogueEntry, bool)
}

// Resolver implements the nutrient resolution stage: for every leaf
// ingredient, attach a nutrient profile (direct match, proxy, ancestor
// fallback, or the unknown profile).
type Resolver interface {
	ResolveIngredients(ctx context.Context, ingredients []*Ingredient) error
}

// NutrientSelector implements the selector/weighter stage: decide which
// nutrients participate in fitting and with what weighting, for a product.
type NutrientSelector interface {
	SelectNutrients(ctx context.Context, product *Product) (SelectedNutrients, error)
}

// SelectedNutrients is the output of the selector/weighter stage.
type SelectedNutrients struct {
	Keys      []NutrientKey
	Weighting map[NutrientKey]float64
	Notes     map[NutrientKey]string
}

// Estimator produces a percent/quantity estimate for every node of a
// product's ingredient tree, by whichever reconstruction method it implements.
type Estimator interface {
	EstimateRecipe(ctx context.Context, product *Product) (*EstimatorReport, error)
}
