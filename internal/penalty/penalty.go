// Package penalty implements the scalar penalty objective minimized by the
// differential-evolution optimizer: a weighted combination of nutrient
// mismatch, ingredient-ordering violations, and total-mass deviation from
// 100g.
package penalty

import (
	"math"

	"github.com/openfoodfacts/recipe-estimator-go/internal/model"
	"github.com/openfoodfacts/recipe-estimator-go/pkg/models"
)

// Weight constants, chosen so that a hard constraint violation (total mass
// below 100g, or a later ingredient outweighing an earlier one) always
// dominates the softer shaping terms (nutrient fit, half-of-previous pull),
// matching the original objective's penalty ordering.
const (
	NutrientOutsideBoundsPenalty        = 1.3e5
	IngredientNotHalfPreviousPenalty    = 1e1
	IngredientBiggerThanPreviousPenalty = 1e6
	TotalMassLessThan100Penalty         = 1e7
	TotalMassMoreThan100Penalty         = 1e2
)

// DeclaredNutrients maps each fitted nutrient to its declared per-100g value
// (already converted into the same unit/basis as the reference composition).
type DeclaredNutrients map[models.NutrientKey]float64

// Objective evaluates the penalty breakdown for a candidate quantity vector.
type Objective struct {
	Model     *model.Model
	Declared  DeclaredNutrients
	Weighting map[models.NutrientKey]float64
}

// New constructs an Objective bound to a built Model, the product's declared
// nutrient values, and the per-nutrient weighting from the selector stage.
func New(m *model.Model, declared DeclaredNutrients, weighting map[models.NutrientKey]float64) *Objective {
	return &Objective{Model: m, Declared: declared, Weighting: weighting}
}

// Evaluate computes the full penalty breakdown for quantities, one percent
// estimate per leaf in the same order as Objective.Model.Leaves.
func (o *Objective) Evaluate(quantities []float64) models.PenaltyBreakdown {
	var breakdown models.PenaltyBreakdown

	breakdown.NutrientPenalty = o.nutrientPenalty(quantities)

	notHalf, biggerThanPrev := o.orderPenalties(quantities)
	breakdown.IngredientNotHalfPreviousPenalty = notHalf
	breakdown.IngredientMoreThanPreviousPenalty = biggerThanPrev

	less, more := o.massPenalties(quantities)
	breakdown.MassLessThan100Penalty = less
	breakdown.MassMoreThan100Penalty = more

	breakdown.Total = breakdown.NutrientPenalty +
		breakdown.IngredientNotHalfPreviousPenalty +
		breakdown.IngredientMoreThanPreviousPenalty +
		breakdown.MassLessThan100Penalty +
		breakdown.MassMoreThan100Penalty

	return breakdown
}

// Value returns just the scalar total, for use as the optimizer's fitness
// function.
func (o *Objective) Value(quantities []float64) float64 {
	return o.Evaluate(quantities).Total
}

// nutrientPenalty scores squared error against the nominal nutrient
// estimate only - not the min/max band. This is a deliberate
// simplification carried over from the original objective, whose
// band-based assign_penalty form is present but commented out in favor
// of plain nutrient variance.
func (o *Objective) nutrientPenalty(quantities []float64) float64 {
	variance := 0.0
	for key, nom := range o.Model.NutrientNominal {
		weighting := o.Weighting[key]
		if weighting == 0 {
			continue
		}
		nomEstimate := dot(quantities, nom)
		declared := o.Declared[key]
		variance += weighting * sq(declared-nomEstimate)
	}
	return NutrientOutsideBoundsPenalty * variance
}

// orderPenalties mirrors the original's branched, linear form: when this
// sibling group is smaller than its previous sibling group, only the soft
// pull toward half of previous applies (|this - previous/2|); once it
// reaches or exceeds the previous group, a pull of 0.5*this is added along
// with a much steeper linear penalty for the excess above previous.
func (o *Objective) orderPenalties(quantities []float64) (notHalf, biggerThanPrevious float64) {
	for _, oc := range o.Model.OrderConstraints {
		thisQty := sumIndices(quantities, oc.ThisLeafIndices)
		prevQty := sumIndices(quantities, oc.PreviousLeafIndices)

		if thisQty < prevQty {
			notHalf += math.Abs(thisQty-prevQty*0.5) * IngredientNotHalfPreviousPenalty
		} else {
			notHalf += 0.5 * thisQty * IngredientNotHalfPreviousPenalty
			biggerThanPrevious += (thisQty - prevQty) * IngredientBiggerThanPreviousPenalty
		}
	}
	return notHalf, biggerThanPrevious
}

// massPenalties is linear in the mass deviation and scales by the leaf
// count, so products with more ingredients aren't penalized out of
// proportion to the nutrient penalty's own scale.
func (o *Objective) massPenalties(quantities []float64) (less, more float64) {
	total := 0.0
	for _, q := range quantities {
		total += q
	}
	leaves := float64(len(o.Model.Leaves))
	if total < 100 {
		less = (100 - total) * TotalMassLessThan100Penalty * leaves
	} else {
		more = (total - 100) * TotalMassMoreThan100Penalty * leaves
	}
	return less, more
}

func dot(a, b []float64) float64 {
	total := 0.0
	for i := range a {
		if i >= len(b) {
			break
		}
		total += a[i] * b[i]
	}
	return total
}

func sumIndices(values []float64, indices []int) float64 {
	total := 0.0
	for _, idx := range indices {
		total += values[idx]
	}
	return total
}

func sq(x float64) float64 {
	return math.Pow(x, 2)
}
