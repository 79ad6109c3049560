package model

import (
	"testing"

	"github.com/openfoodfacts/recipe-estimator-go/pkg/models"
)

func leaf(id string, protein float64) *models.Ingredient {
	return &models.Ingredient{
		ID: id,
		Nutrients: map[models.NutrientKey]models.NutrientProfile{
			"protein": {PercentNom: protein, PercentMin: protein, PercentMax: protein},
		},
	}
}

func TestBuildTwoLeafSiblings(t *testing.T) {
	tree := []*models.Ingredient{leaf("a", 10), leaf("b", 5)}
	selected := models.SelectedNutrients{Keys: []models.NutrientKey{"protein"}}

	m := Build(tree, selected, 0)

	if len(m.Leaves) != 2 {
		t.Fatalf("expected 2 leaves, got %d", len(m.Leaves))
	}
	if len(m.Bounds) != 2 {
		t.Fatalf("expected 2 bounds, got %d", len(m.Bounds))
	}
	// First sibling gets the parent minimum divided by the sibling count
	// (100/2); second gets zero minimum.
	if m.Bounds[0].Min != 50 {
		t.Errorf("expected first sibling min 50, got %v", m.Bounds[0].Min)
	}
	if m.Bounds[1].Min != 0 {
		t.Errorf("expected second sibling min 0, got %v", m.Bounds[1].Min)
	}
	if m.Bounds[0].Max != 100 {
		t.Errorf("expected first sibling max 100, got %v", m.Bounds[0].Max)
	}
	if m.Bounds[1].Max != 50 {
		t.Errorf("expected second sibling max 50, got %v", m.Bounds[1].Max)
	}
	if len(m.OrderConstraints) != 1 {
		t.Fatalf("expected 1 order constraint, got %d", len(m.OrderConstraints))
	}
	oc := m.OrderConstraints[0]
	if len(oc.ThisLeafIndices) != 1 || oc.ThisLeafIndices[0] != 1 {
		t.Errorf("expected this=[1], got %v", oc.ThisLeafIndices)
	}
	if len(oc.PreviousLeafIndices) != 1 || oc.PreviousLeafIndices[0] != 0 {
		t.Errorf("expected previous=[0], got %v", oc.PreviousLeafIndices)
	}
}

func TestBuildNutrientCoefficients(t *testing.T) {
	tree := []*models.Ingredient{leaf("a", 10), leaf("b", 5)}
	selected := models.SelectedNutrients{Keys: []models.NutrientKey{"protein"}}
	m := Build(tree, selected, 0)

	nom := m.NutrientNominal["protein"]
	if len(nom) != 2 || nom[0] != 0.1 || nom[1] != 0.05 {
		t.Fatalf("expected coefficients [0.1, 0.05], got %v", nom)
	}
}

func TestBuildSubIngredients(t *testing.T) {
	sub := &models.Ingredient{
		ID:          "sauce",
		Ingredients: []*models.Ingredient{leaf("tomato", 1), leaf("salt", 0)},
	}
	tree := []*models.Ingredient{sub, leaf("sugar", 0)}
	selected := models.SelectedNutrients{Keys: []models.NutrientKey{"protein"}}
	m := Build(tree, selected, 0)

	if len(m.Leaves) != 3 {
		t.Fatalf("expected 3 leaves (tomato, salt, sugar), got %d", len(m.Leaves))
	}
	if m.Leaves[0].ID != "tomato" || m.Leaves[1].ID != "salt" || m.Leaves[2].ID != "sugar" {
		t.Fatalf("expected preorder leaves [tomato salt sugar], got order %v", []string{m.Leaves[0].ID, m.Leaves[1].ID, m.Leaves[2].ID})
	}
}

func TestBuildWaterLossInflatesUpperBound(t *testing.T) {
	tree := []*models.Ingredient{leaf("a", 10), leaf("b", 5)}
	selected := models.SelectedNutrients{Keys: []models.NutrientKey{"protein"}}

	plain := Build(tree, selected, 0)
	withWater := Build(tree, selected, 0.5)

	if withWater.Bounds[1].Max <= plain.Bounds[1].Max {
		t.Fatalf("expected water-loss inflation to raise upper bound: plain=%v water=%v",
			plain.Bounds[1].Max, withWater.Bounds[1].Max)
	}
}
