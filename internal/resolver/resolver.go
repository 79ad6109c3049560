// Package resolver implements the nutrient resolution stage: attaching a
// per-leaf nutrient profile to every leaf ingredient of a product, using a
// direct Ciqual food code match, a proxy code, depth-first ancestor
// fallback, or (failing all of those) an "unknown" placeholder profile.
package resolver

import (
	"context"

	"go.uber.org/zap"

	"github.com/openfoodfacts/recipe-estimator-go/pkg/models"
)

// Resolver implements models.Resolver against a reference database and a
// taxonomy resolver.
type Resolver struct {
	Database  models.ReferenceDatabase
	Taxonomy  models.TaxonomyResolver
	Catalogue models.NutrientCatalogue
	Logger    *zap.Logger
}

// New constructs a Resolver. A nil logger is replaced with a no-op logger.
func New(db models.ReferenceDatabase, tax models.TaxonomyResolver, cat models.NutrientCatalogue, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{Database: db, Taxonomy: tax, Catalogue: cat, Logger: logger}
}

// ResolveIngredients walks the ingredient tree, recursing into children, and
// attaches a nutrient profile to every leaf (an ingredient with no children).
// Ingredients that already carry a Nutrients map are left untouched, matching
// the original resolver's test-injection hook.
func (r *Resolver) ResolveIngredients(ctx context.Context, ingredients []*models.Ingredient) error {
	return r.resolve(ctx, ingredients)
}

func (r *Resolver) resolve(ctx context.Context, ingredients []*models.Ingredient) error {
	for _, ing := range ingredients {
		if len(ing.Ingredients) > 0 {
			if err := r.resolve(ctx, ing.Ingredients); err != nil {
				return err
			}
			continue
		}
		if ing.Nutrients != nil {
			continue
		}
		r.resolveLeaf(ctx, ing)
	}
	return nil
}

func (r *Resolver) resolveLeaf(ctx context.Context, ing *models.Ingredient) {
	code := ing.CiqualFoodCode
	if code == "" {
		code = ing.CiqualProxyFoodCode
	}
	if code == "" {
		code = r.findCiqualCode(ctx, ing.ID, map[string]bool{})
	}

	if code == "" {
		ing.Nutrients = r.unknownProfile()
		ing.CiqualFoodCodeUsed = ""
		r.Logger.Debug("no ciqual code resolved, using unknown profile", zap.String("ingredient_id", ing.ID))
		return
	}

	profile, ok := r.Database.NutrientsForFoodCode(ctx, code)
	if !ok {
		ing.Nutrients = r.unknownProfile()
		ing.CiqualFoodCodeUsed = ""
		r.Logger.Warn("ciqual code has no reference composition", zap.String("ingredient_id", ing.ID), zap.String("ciqual_food_code", code))
		return
	}

	ing.Nutrients = profile
	ing.CiqualFoodCodeUsed = code
}

// findCiqualCode depth-first searches the taxonomy's parent chain for the
// first ancestor carrying a direct or proxy ciqual code, matching the
// original's get_ciqual_code recursion. visited guards against taxonomy cycles.
func (r *Resolver) findCiqualCode(ctx context.Context, id string, visited map[string]bool) string {
	if id == "" || visited[id] {
		return ""
	}
	visited[id] = true

	if code, ok := r.Taxonomy.CiqualFoodCode(id); ok {
		return code
	}
	if code, ok := r.Taxonomy.CiqualProxyFoodCode(id); ok {
		return code
	}

	for _, parentID := range r.Taxonomy.Parents(id) {
		if code := r.findCiqualCode(ctx, parentID, visited); code != "" {
			r.Logger.Debug("obtained ciqual code from parent", zap.String("ingredient_id", id), zap.String("parent_id", parentID))
			return code
		}
	}
	return ""
}

// unknownProfile builds the zero-confidence, all-zero nutrient profile
// assigned when no ciqual code is resolved, or the resolved code has no
// reference composition, for every nutrient in the catalogue - matching the
// original's dummy "Unknown" profile.
func (r *Resolver) unknownProfile() map[models.NutrientKey]models.NutrientProfile {
	out := make(map[models.NutrientKey]models.NutrientProfile, len(r.Catalogue.Entries()))
	for _, entry := range r.Catalogue.Entries() {
		out[entry.CiqualKey] = models.NutrientProfile{
			Confidence: models.ConfidenceUnknown,
		}
	}
	return out
}

var _ models.Resolver = (*Resolver)(nil)
