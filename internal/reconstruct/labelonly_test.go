package reconstruct

import (
	"testing"

	"github.com/openfoodfacts/recipe-estimator-go/pkg/models"
)

func TestLabelOnlyTwoIngredients(t *testing.T) {
	a := &models.Ingredient{ID: "a"}
	b := &models.Ingredient{ID: "b"}
	tree := []*models.Ingredient{a, b}

	LabelOnlyEstimate(tree)

	if RootSum(tree) != 100 {
		t.Fatalf("expected root sum 100, got %v", RootSum(tree))
	}
	if a.PercentEstimate <= b.PercentEstimate {
		t.Fatalf("expected first-listed ingredient to dominate: a=%v b=%v", a.PercentEstimate, b.PercentEstimate)
	}
}

func TestLabelOnlyRespectsDeclaredPercent(t *testing.T) {
	declared := 30.0
	a := &models.Ingredient{ID: "a", Percent: &declared}
	b := &models.Ingredient{ID: "b"}
	tree := []*models.Ingredient{a, b}

	LabelOnlyEstimate(tree)

	if a.PercentEstimate != 30 {
		t.Fatalf("expected declared percent to be honored, got %v", a.PercentEstimate)
	}
}
