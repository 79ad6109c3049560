// Package model builds the numeric optimization model for a product's
// ingredient tree: the flattened leaf list, per-nutrient coefficient
// matrices, box bounds, an initial guess, and the sibling-ordering
// constraints used by the penalty objective.
package model

import (
	"math"

	"github.com/openfoodfacts/recipe-estimator-go/pkg/models"
)

// Bounds is a box constraint on one leaf's percent_estimate.
type Bounds struct {
	Min float64
	Max float64
}

// OrderConstraint links two sibling ingredients' leaf sets for the
// ingredient-ordering penalty: the combined quantity under ThisLeafIndices is
// expected not to exceed, and to be roughly half of, the combined quantity
// under PreviousLeafIndices (its immediately preceding sibling).
type OrderConstraint struct {
	ThisLeafIndices     []int
	PreviousLeafIndices []int
}

// Model is the flattened, bounded optimization problem for one product.
type Model struct {
	Leaves           []*models.Ingredient
	Bounds           []Bounds
	InitialGuess     []float64
	NutrientNominal  map[models.NutrientKey][]float64
	NutrientMin      map[models.NutrientKey][]float64
	NutrientMax      map[models.NutrientKey][]float64
	OrderConstraints []OrderConstraint
}

// DefaultMaxWaterContent is the maxWaterContent value that disables bound
// inflation for lost water. Build does not read it; callers pass the value.
const DefaultMaxWaterContent = 0.0

type builder struct {
	selected        models.SelectedNutrients
	model           *Model
	maxWaterContent float64
}

// Build flattens ingredients into a Model. selected controls which
// nutrients get coefficient matrices. maxWaterContent is a water fraction
// (0..1) applied to every leaf alike: when positive, each leaf's upper bound
// is divided by (1 - 0.5*maxWaterContent), so the optimizer can recover a
// quantity larger than the final 100g basis.
func Build(ingredients []*models.Ingredient, selected models.SelectedNutrients, maxWaterContent float64) *Model {
	b := &builder{
		selected:        selected,
		maxWaterContent: maxWaterContent,
		model: &Model{
			NutrientNominal: make(map[models.NutrientKey][]float64),
			NutrientMin:     make(map[models.NutrientKey][]float64),
			NutrientMax:     make(map[models.NutrientKey][]float64),
		},
	}
	b.addIngredients(ingredients, 100, 100, 100)
	return b.model
}

// addIngredients recurses preorder through a sibling group, assigning bounds
// and an initial geometric-progression guess (ratio 1/2), then either
// recursing into children or appending a leaf row to the model.
func (b *builder) addIngredients(ingredients []*models.Ingredient, parentEstimate, parentMinPercent, parentMaxPercent float64) {
	n := len(ingredients)
	if n == 0 {
		return
	}

	for i, ing := range ingredients {
		estimate := parentEstimate * math.Pow(0.5, float64(i))

		maxPercent := parentMaxPercent / float64(i+1)
		minPercent := 0.0
		if i == 0 {
			minPercent = parentMinPercent / float64(n)
		}

		maxLeafPercent := maxPercent
		if b.maxWaterContent > 0 {
			maxLeafPercent = maxPercent / (1 - 0.5*b.maxWaterContent)
		}

		if len(ing.Ingredients) == 0 {
			b.appendLeaf(ing, estimate, minPercent, maxLeafPercent)
			continue
		}

		b.addIngredients(ing.Ingredients, estimate, minPercent, maxPercent)
	}

	b.addOrderConstraints(ingredients)
}

func (b *builder) appendLeaf(ing *models.Ingredient, estimate, minPercent, maxPercent float64) {
	if maxPercent < minPercent {
		maxPercent = minPercent
	}
	if estimate < minPercent {
		estimate = minPercent
	}
	if estimate > maxPercent {
		estimate = maxPercent
	}

	b.model.Leaves = append(b.model.Leaves, ing)
	b.model.Bounds = append(b.model.Bounds, Bounds{Min: minPercent, Max: maxPercent})
	b.model.InitialGuess = append(b.model.InitialGuess, estimate)

	for _, key := range b.selected.Keys {
		profile := ing.Nutrients[key]
		b.model.NutrientNominal[key] = append(b.model.NutrientNominal[key], profile.PercentNom/100)
		b.model.NutrientMin[key] = append(b.model.NutrientMin[key], profile.PercentMin/100)
		b.model.NutrientMax[key] = append(b.model.NutrientMax[key], profile.PercentMax/100)
	}
}

// addOrderConstraints records, for every pair of consecutive siblings, which
// leaf indices fall under each side of the pair so the penalty objective can
// compare their aggregate quantities.
func (b *builder) addOrderConstraints(siblings []*models.Ingredient) {
	if len(siblings) < 2 {
		return
	}
	leafStart := len(b.model.Leaves) - countLeaves(siblings)
	offsets := make([][]int, len(siblings))
	cursor := leafStart
	for i, sib := range siblings {
		count := countLeaves([]*models.Ingredient{sib})
		idx := make([]int, count)
		for j := 0; j < count; j++ {
			idx[j] = cursor + j
		}
		offsets[i] = idx
		cursor += count
	}
	for i := 1; i < len(siblings); i++ {
		b.model.OrderConstraints = append(b.model.OrderConstraints, OrderConstraint{
			ThisLeafIndices:     offsets[i],
			PreviousLeafIndices: offsets[i-1],
		})
	}
}

func countLeaves(ingredients []*models.Ingredient) int {
	total := 0
	for _, ing := range ingredients {
		if len(ing.Ingredients) == 0 {
			total++
		} else {
			total += countLeaves(ing.Ingredients)
		}
	}
	return total
}
