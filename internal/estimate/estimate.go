// Package estimate orchestrates the full recipe-estimator pipeline:
// nutrient resolution, selection/weighting, model building, penalty-based
// differential-evolution optimization, and propagation back onto the
// product's ingredient tree. It also exposes the two non-optimizing
// alternative reconstructors (label-only, NNLS) behind the same interface.
package estimate

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/openfoodfacts/recipe-estimator-go/internal/model"
	"github.com/openfoodfacts/recipe-estimator-go/internal/optimize"
	"github.com/openfoodfacts/recipe-estimator-go/internal/penalty"
	"github.com/openfoodfacts/recipe-estimator-go/internal/reconstruct"
	"github.com/openfoodfacts/recipe-estimator-go/pkg/models"
)

// offKeyForCiqual is consulted to pull a product's declared nutriment into
// the same Ciqual-keyed space the model's coefficient matrices use.
func offKeyForCiqual(catalogue models.NutrientCatalogue, key models.NutrientKey) (string, bool) {
	for _, entry := range catalogue.Entries() {
		if entry.CiqualKey == key {
			return entry.OFFKey, true
		}
	}
	return "", false
}

// Estimator wires the full pipeline together.
type Estimator struct {
	Resolver      models.Resolver
	Selector      models.NutrientSelector
	Catalogue     models.NutrientCatalogue
	OptimizerConfig optimize.Config
	MaxWaterContent float64
	Logger        *zap.Logger
}

// New constructs a pipeline Estimator. A nil logger is replaced with a no-op logger.
func New(resolver models.Resolver, selector models.NutrientSelector, catalogue models.NutrientCatalogue, optimizerConfig optimize.Config, maxWaterContent float64, logger *zap.Logger) *Estimator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Estimator{
		Resolver:        resolver,
		Selector:        selector,
		Catalogue:       catalogue,
		OptimizerConfig: optimizerConfig,
		MaxWaterContent: maxWaterContent,
		Logger:          logger,
	}
}

// prepare runs resolution, selection, and model building; shared by every
// reconstruction method.
func (e *Estimator) prepare(ctx context.Context, product *models.Product) (*model.Model, models.SelectedNutrients, map[models.NutrientKey]float64, error) {
	if err := e.Resolver.ResolveIngredients(ctx, product.Ingredients); err != nil {
		return nil, models.SelectedNutrients{}, nil, err
	}

	selected, err := e.Selector.SelectNutrients(ctx, product)
	if err != nil {
		return nil, models.SelectedNutrients{}, nil, err
	}

	m := model.Build(product.Ingredients, selected, e.MaxWaterContent)

	declared := make(map[models.NutrientKey]float64, len(selected.Keys))
	for _, key := range selected.Keys {
		if offKey, ok := offKeyForCiqual(e.Catalogue, key); ok {
			if entry, ok := e.Catalogue.ByOFFKey(offKey); ok {
				declared[key] = product.Nutriments[offKey] * entry.UnitFactor
			} else {
				declared[key] = product.Nutriments[offKey]
			}
		}
	}

	return m, selected, declared, nil
}

// EstimateRecipe runs the full differential-evolution penalty minimization
// and propagates the winning quantity vector back onto the product.
func (e *Estimator) EstimateRecipe(ctx context.Context, product *models.Product) (*models.EstimatorReport, error) {
	m, selected, declared, err := e.prepare(ctx, product)
	if err != nil {
		return nil, err
	}

	objective := penalty.New(m, declared, selected.Weighting)

	result, err := optimize.Run(ctx, m, objective.Value, e.OptimizerConfig)
	if err != nil {
		return nil, models.NewOptimizerError("differential evolution run failed", err.Error())
	}

	reconstruct.Propagate(product.Ingredients, m, result.Best, e.quantityConversion())

	report := &models.EstimatorReport{
		Method:      models.MethodOptimizer,
		Penalties:   objective.Evaluate(result.Best),
		Iterations:  result.Iterations,
		Converged:   result.Converged,
		GeneratedAt: e.now(),
	}
	if !result.Converged {
		report.Warnings = append(report.Warnings, models.EstimatorWarning{
			Code:    "OPTIMIZER_DID_NOT_CONVERGE",
			Message: "differential evolution reached the iteration cap before the population converged",
		})
		e.Logger.Warn("optimizer did not converge", zap.Int("iterations", result.Iterations), zap.Float64("best_score", result.BestScore))
	}

	product.RecipeEstimator = report
	return report, nil
}

// EstimateLabelOnly reconstructs percent estimates from ingredient-list
// ordering alone, without consulting the nutrient panel.
func (e *Estimator) EstimateLabelOnly(ctx context.Context, product *models.Product) (*models.EstimatorReport, error) {
	if err := e.Resolver.ResolveIngredients(ctx, product.Ingredients); err != nil {
		return nil, err
	}
	reconstruct.LabelOnlyEstimate(product.Ingredients)

	report := &models.EstimatorReport{
		Method:      models.MethodLabelOnly,
		Converged:   true,
		GeneratedAt: e.now(),
	}
	product.RecipeEstimator = report
	return report, nil
}

// EstimateNNLS reconstructs quantities via non-negative least squares over
// the nutrient coefficient matrix, then propagates and scores the result
// against the same penalty objective for diagnostic comparison.
func (e *Estimator) EstimateNNLS(ctx context.Context, product *models.Product) (*models.EstimatorReport, error) {
	m, selected, declared, err := e.prepare(ctx, product)
	if err != nil {
		return nil, err
	}

	quantities := reconstruct.SolveNNLS(m, declared, selected.Keys, reconstruct.DefaultNNLSConfig())
	reconstruct.Propagate(product.Ingredients, m, quantities, e.quantityConversion())

	objective := penalty.New(m, declared, selected.Weighting)
	report := &models.EstimatorReport{
		Method:      models.MethodNNLS,
		Penalties:   objective.Evaluate(quantities),
		Converged:   true,
		GeneratedAt: e.now(),
	}
	product.RecipeEstimator = report
	return report, nil
}

// Penalties evaluates the penalty breakdown for a caller-supplied quantity
// vector without running any reconstructor, matching the diagnostic
// "get penalties" endpoint.
func (e *Estimator) Penalties(ctx context.Context, product *models.Product, quantities []float64) (models.PenaltyBreakdown, error) {
	m, selected, declared, err := e.prepare(ctx, product)
	if err != nil {
		return models.PenaltyBreakdown{}, err
	}
	objective := penalty.New(m, declared, selected.Weighting)
	return objective.Evaluate(quantities), nil
}

func (e *Estimator) quantityConversion() func(leaf *models.Ingredient, percent float64) float64 {
	water := e.MaxWaterContent
	return func(_ *models.Ingredient, percent float64) float64 {
		if water <= 0 {
			return percent
		}
		return percent / (1 - water)
	}
}

func (e *Estimator) now() time.Time {
	return time.Now().UTC()
}

var _ models.Estimator = (*Estimator)(nil)
