// Package validate checks incoming product documents and search queries
// before they reach the estimator pipeline.
package validate

import (
	"fmt"
	"strings"

	"github.com/openfoodfacts/recipe-estimator-go/pkg/models"
)

// NutrientRange bounds a plausible declared value for one nutriment key, in
// its OpenFoodFacts unit (per 100g/100ml).
type NutrientRange struct {
	Min float64
	Max float64
}

// DefaultNutrientRanges are generous sanity bounds - wide enough that any
// real product passes, tight enough to catch unit-confusion bugs upstream
// (e.g. a sodium value entered in milligrams rather than grams).
func DefaultNutrientRanges() map[string]NutrientRange {
	return map[string]NutrientRange{
		"energy-kcal_100g":    {Min: 0, Max: 900},
		"proteins_100g":       {Min: 0, Max: 100},
		"carbohydrates_100g":  {Min: 0, Max: 100},
		"sugars_100g":         {Min: 0, Max: 100},
		"fat_100g":            {Min: 0, Max: 100},
		"saturated-fat_100g":  {Min: 0, Max: 100},
		"fiber_100g":          {Min: 0, Max: 100},
		"sodium_100g":         {Min: 0, Max: 40}, // grams; 40g/100g covers pure salt's ~39g sodium
		"salt_100g":           {Min: 0, Max: 100},
	}
}

// Validator validates Product documents before they enter the pipeline.
type Validator struct {
	ranges map[string]NutrientRange
}

// New constructs a Validator using DefaultNutrientRanges.
func New() *Validator {
	return &Validator{ranges: DefaultNutrientRanges()}
}

// NewWithRanges constructs a Validator using caller-supplied nutrient ranges.
func NewWithRanges(ranges map[string]NutrientRange) *Validator {
	return &Validator{ranges: ranges}
}

// ValidateProduct checks a product document's structural and nutriment
// validity, returning every problem found rather than stopping at the first.
func (v *Validator) ValidateProduct(product *models.Product) models.ErrorCollection {
	collection := models.ErrorCollection{Operation: "validate_product"}

	if strings.TrimSpace(product.Code) == "" {
		collection.AddError(models.NewValidationError("code", "product code is required"))
	}

	if len(product.Ingredients) == 0 {
		collection.AddError(models.NewValidationError("ingredients", "product must declare at least one ingredient"))
	}

	for key, value := range product.Nutriments {
		if bounds, ok := v.ranges[key]; ok {
			if err := v.ValidateNutrientRange(value, bounds.Min, bounds.Max, key); err != nil {
				collection.AddError(*err)
			}
		}
	}

	v.validateIngredientIDs(product.Ingredients, &collection)

	return collection
}

func (v *Validator) validateIngredientIDs(ingredients []*models.Ingredient, collection *models.ErrorCollection) {
	for _, ing := range ingredients {
		if strings.TrimSpace(ing.ID) == "" {
			collection.AddError(models.NewValidationError("ingredients.id", "every ingredient must have a non-empty id"))
		}
		if ing.Percent != nil && (*ing.Percent < 0 || *ing.Percent > 100) {
			collection.AddError(models.NewValidationError("ingredients.percent",
				fmt.Sprintf("declared percent for %q must be between 0 and 100, got %.2f", ing.ID, *ing.Percent)))
		}
		if len(ing.Ingredients) > 0 {
			v.validateIngredientIDs(ing.Ingredients, collection)
		}
	}
}

// ValidateSearchQuery checks a free-text reference-database search term.
func (v *Validator) ValidateSearchQuery(query string) error {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return models.NewValidationError("query", "search query cannot be empty",
			"Enter at least 2 characters to search for ingredients")
	}
	if len(trimmed) < 2 {
		return models.NewValidationError("query", "search query is too short",
			"Enter at least 2 characters to get meaningful results")
	}
	if len(trimmed) > 100 {
		return models.NewValidationError("query", "search query is too long",
			"Search query must be at most 100 characters")
	}
	return nil
}

// ValidateNutrientRange checks a single nutriment value against bounds,
// returning nil when it is in range.
func (v *Validator) ValidateNutrientRange(value, min, max float64, fieldName string) *models.EstimatorError {
	if value < min {
		err := models.NewValidationError(fieldName, fmt.Sprintf("%s cannot be less than %.2f", fieldName, min))
		return &err
	}
	if value > max {
		err := models.NewValidationError(fieldName, fmt.Sprintf("%s cannot exceed %.2f", fieldName, max))
		return &err
	}
	return nil
}
