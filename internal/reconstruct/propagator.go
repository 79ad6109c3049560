// Package reconstruct turns a flat leaf quantity vector back into a
// populated ingredient tree (the propagator), and provides two
// non-optimizing alternative reconstructors: a label-order estimator that
// gives each ingredient the midpoint of the range left by its preceding
// siblings (not a power-law decay) and writes the tree directly, and a
// non-negative least squares fit whose result goes through the propagator.
package reconstruct

import (
	"math"

	"github.com/openfoodfacts/recipe-estimator-go/internal/model"
	"github.com/openfoodfacts/recipe-estimator-go/pkg/models"
)

// SumTolerance is the allowed drift of the root children's percent_estimate
// sum away from 100, after rounding to 2 decimals.
const SumTolerance = 1.0

// quantityFunc is the percent -> quantity conversion: ingredients that lose
// water during processing end up weighing more raw than their percent
// contribution to the finished product suggests.
type quantityFunc func(leaf *models.Ingredient, percent float64) float64

// Propagate assigns PercentEstimate to every leaf from quantities (in the
// same order as m.Leaves), rounds every node to 2 decimals, sums child
// percents up into every internal node, and derives QuantityEstimate via
// quantityOf (nil selects the identity conversion).
func Propagate(tree []*models.Ingredient, m *model.Model, quantities []float64, quantityOf quantityFunc) {
	if quantityOf == nil {
		quantityOf = func(_ *models.Ingredient, percent float64) float64 { return percent }
	}

	leafIndex := make(map[*models.Ingredient]int, len(m.Leaves))
	for i, leaf := range m.Leaves {
		leafIndex[leaf] = i
	}

	assignLeafPercents(tree, quantities, leafIndex, quantityOf)
	sumChildren(tree)
	roundTree(tree)
}

func assignLeafPercents(ingredients []*models.Ingredient, quantities []float64, leafIndex map[*models.Ingredient]int, quantityOf quantityFunc) {
	for _, ing := range ingredients {
		if len(ing.Ingredients) > 0 {
			assignLeafPercents(ing.Ingredients, quantities, leafIndex, quantityOf)
			continue
		}
		idx, ok := leafIndex[ing]
		if !ok {
			continue
		}
		ing.PercentEstimate = quantities[idx]
		ing.QuantityEstimate = quantityOf(ing, quantities[idx])
	}
}

// sumChildren recomputes every internal node's PercentEstimate and
// QuantityEstimate as the sum of its children's (already-assigned) values,
// working bottom-up.
func sumChildren(ingredients []*models.Ingredient) (percentSum, quantitySum float64) {
	for _, ing := range ingredients {
		if len(ing.Ingredients) == 0 {
			percentSum += ing.PercentEstimate
			quantitySum += ing.QuantityEstimate
			continue
		}
		childPercent, childQuantity := sumChildren(ing.Ingredients)
		ing.PercentEstimate = childPercent
		ing.QuantityEstimate = childQuantity
		percentSum += childPercent
		quantitySum += childQuantity
	}
	return percentSum, quantitySum
}

func roundTree(ingredients []*models.Ingredient) {
	for _, ing := range ingredients {
		ing.PercentEstimate = round2(ing.PercentEstimate)
		ing.QuantityEstimate = round2(ing.QuantityEstimate)
		if len(ing.Ingredients) > 0 {
			roundTree(ing.Ingredients)
		}
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// RootSum returns the sum of the top-level ingredients' percent_estimate,
// for checking the sum-to-100 invariant after a Propagate call.
func RootSum(tree []*models.Ingredient) float64 {
	sum := 0.0
	for _, ing := range tree {
		sum += ing.PercentEstimate
	}
	return sum
}
