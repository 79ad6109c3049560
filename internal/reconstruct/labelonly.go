package reconstruct

import (
	"github.com/openfoodfacts/recipe-estimator-go/pkg/models"
)

// LabelOnlyEstimate sets percent_estimate/percent_min/percent_max for every
// node from label ordering alone: each ingredient gets the midpoint of the
// range left over after its preceding siblings, recursing into
// sub-ingredients with the parent's estimate as their total. Percentages do
// not follow a power-law decay by position. This mirrors the
// declaration-order-only estimate used when no nutrient panel is available
// or as a sanity baseline alongside the optimizer.
func LabelOnlyEstimate(ingredients []*models.Ingredient) {
	estimatePercentages(ingredients, 100, 100, 100)
	roundTree(ingredients)
}

func estimatePercentages(ingredients []*models.Ingredient, percentRemaining, currentMax, currentMin float64) {
	remaining := percentRemaining
	max := currentMax
	min := currentMin

	for i, ing := range ingredients {
		n := len(ingredients) - i
		thisMax := max
		thisMin := min / float64(n)
		if ing.Percent != nil {
			thisMax = *ing.Percent
			thisMin = *ing.Percent
		}

		estimate := (thisMax + thisMin) / 2
		if estimate > remaining {
			estimate = remaining
		}

		ing.PercentEstimate = estimate
		ing.PercentMin = thisMin
		ing.PercentMax = thisMax
		ing.QuantityEstimate = estimate

		if len(ing.Ingredients) > 0 {
			estimatePercentages(ing.Ingredients, estimate, estimate, estimate)
		}

		remaining -= estimate
		if remaining < 0 {
			remaining = 0
		}
		max = remaining
		min = remaining
	}
}
