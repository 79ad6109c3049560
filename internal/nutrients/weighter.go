// Package nutrients implements the nutrient selection and weighting stage:
// deciding, for a given product, which declared nutrients participate in the
// fitting objective and with what weighting.
package nutrients

import (
	"context"
	"strings"

	"github.com/openfoodfacts/recipe-estimator-go/pkg/models"
)

// grossCarbsCountries are the countries_tags whose nutrition labels commonly
// declare "total carbohydrates" (including fiber and sugar alcohols) rather
// than the "available carbohydrates" Ciqual reports. When more than half of
// a product's declared countries are in this set and carbs-fiber-sugars is
// positive, the carbohydrate nutrient is excluded from fitting.
var grossCarbsCountries = map[string]bool{
	"en:united-states":   true,
	"en:canada":          true,
	"en:south-africa":    true,
	"en:bahrain":         true,
	"en:kuwait":          true,
	"en:iraq":            true,
	"en:iran":            true,
	"en:oman":            true,
	"en:qatar":           true,
	"en:saudi-arabia":    true,
	"en:united-arab-emirates": true,
}

// excludedFromFitting are nutrients that overlap/derive from other fitted
// nutrients and are never fit directly.
var excludedFromFitting = map[models.NutrientKey]bool{
	"energy": true,
	"sodium": true,
}

// Selector implements models.NutrientSelector.
type Selector struct {
	Catalogue models.NutrientCatalogue
}

// New constructs a Selector.
func New(catalogue models.NutrientCatalogue) *Selector {
	return &Selector{Catalogue: catalogue}
}

// SelectNutrients decides which nutrients participate in the fit for this
// product and their weighting, per the rules in prepare_nutrients.py:
//   - skip nutrients not declared on the product
//   - skip nutrients declared as all-zero
//   - skip nutrients absent from every leaf ingredient's profile
//   - zero weight when the catalogue marks the nutrient's weighting as zero
//   - zero-weight carbohydrates for products whose declared countries are
//     mostly "gross carbs" jurisdictions, when carbs-fiber-sugars > 0
//   - energy and sodium are never fit (derived/overlapping nutrients)
func (s *Selector) SelectNutrients(ctx context.Context, product *models.Product) (models.SelectedNutrients, error) {
	out := models.SelectedNutrients{
		Weighting: make(map[models.NutrientKey]float64),
		Notes:     make(map[models.NutrientKey]string),
	}

	leaves := flattenLeaves(product.Ingredients)

	for _, entry := range s.Catalogue.Entries() {
		key := entry.CiqualKey
		if excludedFromFitting[key] {
			continue
		}

		declared, hasDeclared := product.Nutriments[entry.OFFKey]
		if !hasDeclared {
			out.Notes[key] = "Not listed on product"
			continue
		}
		if declared == 0 {
			out.Notes[key] = "All zero values"
			continue
		}
		if !anyLeafHasNutrient(leaves, key) {
			out.Notes[key] = "Not available on any ingredient"
			continue
		}

		weighting := entry.Weighting
		if key == "carbohydrates" && s.isGrossCarbsProduct(product) {
			weighting = 0
			out.Notes[key] = "Might be total carbs"
		}
		if weighting == 0 {
			continue
		}

		out.Keys = append(out.Keys, key)
		out.Weighting[key] = weighting
	}

	return out, nil
}

// isGrossCarbsProduct reports whether more than half of the product's
// declared countries are in the "gross carbs" set and the product's declared
// carbohydrates exceed fiber+sugars (implying they include fiber/polyols).
func (s *Selector) isGrossCarbsProduct(product *models.Product) bool {
	if len(product.CountriesTags) == 0 {
		return false
	}
	grossCount := 0
	for _, tag := range product.CountriesTags {
		if grossCarbsCountries[strings.ToLower(tag)] {
			grossCount++
		}
	}
	if float64(grossCount) <= float64(len(product.CountriesTags))/2 {
		return false
	}

	carbs := product.Nutriments["carbohydrates_100g"]
	fiber := product.Nutriments["fiber_100g"]
	sugars := product.Nutriments["sugars_100g"]
	return carbs-fiber-sugars > 0
}

func flattenLeaves(ingredients []*models.Ingredient) []*models.Ingredient {
	var leaves []*models.Ingredient
	for _, ing := range ingredients {
		if ing.IsLeaf() {
			leaves = append(leaves, ing)
		} else {
			leaves = append(leaves, flattenLeaves(ing.Ingredients)...)
		}
	}
	return leaves
}

func anyLeafHasNutrient(leaves []*models.Ingredient, key models.NutrientKey) bool {
	for _, leaf := range leaves {
		if profile, ok := leaf.Nutrients[key]; ok && profile.Confidence != models.ConfidenceUnknown {
			return true
		}
	}
	return false
}

var _ models.NutrientSelector = (*Selector)(nil)
