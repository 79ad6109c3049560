package models

import (
	"strconv"
	"strings"
	"time"
)

// Confidence reports how a leaf ingredient's nutrient profile was obtained.
// It mirrors the confidence grades used by the Ciqual composition tables.
type Confidence string

const (
	ConfidenceA       Confidence = "A" // direct match, small natural variation
	ConfidenceB       Confidence = "B" // direct match, larger natural variation
	ConfidenceC       Confidence = "C" // proxy or single analytical source
	ConfidenceD       Confidence = "D" // proxy, estimated/borrowed values
	ConfidenceUnknown Confidence = "-" // no ciqual code resolved, or no reference composition for it
)

// NutrientKey identifies a nutrient in the reference database and on a product,
// using the Ciqual reference key (e.g. "protein", "fat", "carbohydrates", "fiber").
type NutrientKey string

// NutrientProfile is one nutrient's per-100g composition for an ingredient leaf.
type NutrientProfile struct {
	PercentNom float64    `json:"percent_nom"`         // nominal value per 100g
	PercentMin float64    `json:"percent_min"`         // minimum plausible value per 100g
	PercentMax float64    `json:"percent_max"`         // maximum plausible value per 100g
	Confidence Confidence `json:"confidence"`          // data quality grade
	Comment    string     `json:"comment,omitempty"`   // e.g. "from parent: en:tomato"
}

// Ingredient is a node in the ordered ingredient tree of a product.
type Ingredient struct {
	ID                  string                           `json:"id"`
	Text                string                           `json:"text,omitempty"`
	Percent             *float64                         `json:"percent,omitempty"` // declared percent, if any
	PercentEstimate     float64                          `json:"percent_estimate"`
	PercentMin          float64                          `json:"percent_min,omitempty"`
	PercentMax          float64                          `json:"percent_max,omitempty"`
	QuantityEstimate     float64                         `json:"quantity_estimate"`
	CiqualFoodCode      string                           `json:"ciqual_food_code,omitempty"`
	CiqualProxyFoodCode string                           `json:"ciqual_proxy_food_code,omitempty"`
	CiqualFoodCodeUsed  string                           `json:"ciqual_food_code_used,omitempty"`
	Nutrients           map[NutrientKey]NutrientProfile  `json:"nutrients,omitempty"`
	Ingredients         []*Ingredient                    `json:"ingredients,omitempty"`
}

// IsLeaf reports whether this ingredient has no sub-ingredients.
func (i *Ingredient) IsLeaf() bool {
	return len(i.Ingredients) == 0
}

// EstimatorWarning carries a non-fatal condition surfaced alongside a result.
type EstimatorWarning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PenaltyBreakdown is the per-term decomposition of the objective function
// value at the estimator's final (or caller-supplied) quantity vector.
type PenaltyBreakdown struct {
	NutrientPenalty               float64 `json:"nutrient_penalty"`
	IngredientNotHalfPreviousPenalty float64 `json:"ingredient_not_half_previous_penalty"`
	IngredientMoreThanPreviousPenalty float64 `json:"ingredient_more_than_previous_penalty"`
	MassMoreThan100Penalty        float64 `json:"mass_more_than_100_penalty"`
	MassLessThan100Penalty        float64 `json:"mass_less_than_100_penalty"`
	Total                         float64 `json:"total"`
}

// Method identifies which reconstructor produced an EstimatorReport.
type Method string

const (
	MethodOptimizer Method = "optimizer"  // differential-evolution penalty minimization
	MethodLabelOnly Method = "label_only" // label-order midpoint-of-remaining-range estimator
	MethodNNLS      Method = "nnls"       // non-negative least squares
)

// EstimatorReport is attached to a Product once an estimate has been produced.
type EstimatorReport struct {
	Method      Method             `json:"method"`
	Penalties   PenaltyBreakdown   `json:"penalties"`
	Warnings    []EstimatorWarning `json:"warnings,omitempty"`
	Iterations  int                `json:"iterations,omitempty"`
	Converged   bool               `json:"converged"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// Product is the packaged-food document the estimator operates on.
type Product struct {
	Code            string             `json:"code"`
	ProductName     string             `json:"product_name,omitempty"`
	CountriesTags   []string           `json:"countries_tags,omitempty"`
	Nutriments      map[string]float64 `json:"nutriments,omitempty"`
	Ingredients     []*Ingredient      `json:"ingredients,omitempty"`
	RecipeEstimator *EstimatorReport   `json:"recipe_estimator,omitempty"`
}

// NutrientCatalogueEntry describes one nutrient's role in selection/weighting
// and its unit conversion between an OFF-style key and the Ciqual reference key.
type NutrientCatalogueEntry struct {
	OFFKey         string      `json:"off_key"`
	CiqualKey      NutrientKey `json:"ciqual_key"`
	UnitFactor     float64     `json:"unit_factor"`     // multiply OFF per-100g value by this to reach the Ciqual unit
	Weighting      float64     `json:"weighting"`       // penalty weighting for the DE objective
	ScipyWeighting float64     `json:"scipy_weighting"` // weighting used by the LP/SLSQP-style reconstructors
	Comment        string      `json:"comment,omitempty"`
}

// FlexFloat unmarshals numeric JSON fields that may arrive as numbers or as
// loosely formatted strings (comma decimals, "<0.1", "traces", empty string).
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	s = strings.TrimPrefix(s, "<")
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "traces") {
		*f = 0
		return nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexFloat(v)
	return nil
}
