package commands

import (
	"context"
	"fmt"

	"github.com/openfoodfacts/recipe-estimator-go/internal/catalogue"
	"github.com/openfoodfacts/recipe-estimator-go/internal/ciqual"
	"github.com/openfoodfacts/recipe-estimator-go/internal/estimate"
	"github.com/openfoodfacts/recipe-estimator-go/internal/nutrients"
	"github.com/openfoodfacts/recipe-estimator-go/internal/optimize"
	"github.com/openfoodfacts/recipe-estimator-go/internal/resolver"
	"github.com/openfoodfacts/recipe-estimator-go/internal/taxonomy"
	"github.com/openfoodfacts/recipe-estimator-go/internal/validate"
	"github.com/openfoodfacts/recipe-estimator-go/pkg/config"
	"github.com/openfoodfacts/recipe-estimator-go/pkg/models"
)

// pipeline bundles every component built from reference data, ready to wire
// into either the HTTP server or a one-shot CLI estimate.
type pipeline struct {
	Catalogue *catalogue.CSVCatalogue
	Database  *ciqual.Database
	Taxonomy  *taxonomy.Taxonomy
	Estimator *estimate.Estimator
	Validator *validate.Validator
}

// buildPipeline loads the nutrient catalogue, reference database and
// ingredient taxonomy named by cfg, and wires the estimator pipeline on top.
func buildPipeline(ctx context.Context, c config.Config) (*pipeline, error) {
	cat, err := catalogue.NewCSVCatalogue(c.ReferenceData.NutrientMapCSVPath)
	if err != nil {
		return nil, fmt.Errorf("loading nutrient catalogue: %w", err)
	}

	db := ciqual.NewDatabase(c.ReferenceData.CiqualAlimXMLPath, c.ReferenceData.CiqualConstXMLPath, c.ReferenceData.CiqualCompoXMLPath, cat)
	if err := db.LoadDatabase(ctx); err != nil {
		return nil, fmt.Errorf("loading ciqual reference database: %w", err)
	}

	tax, err := taxonomy.Load(c.ReferenceData.TaxonomyJSONPath)
	if err != nil {
		return nil, fmt.Errorf("loading ingredient taxonomy: %w", err)
	}

	res := resolver.New(db, tax, cat, logger)
	selector := nutrients.New(cat)

	optCfg := toOptimizerConfig(c.Optimizer)
	est := estimate.New(res, selector, cat, optCfg, 0, logger)

	return &pipeline{
		Catalogue: cat,
		Database:  db,
		Taxonomy:  tax,
		Estimator: est,
		Validator: validate.New(),
	}, nil
}

func toOptimizerConfig(o config.OptimizerConfig) optimize.Config {
	c := optimize.DefaultConfig()
	c.MaxIterations = o.MaxIterations
	c.PopulationMultiplier = o.PopulationMultiplier
	c.Seed = o.Seed
	c.ParallelLeafThreshold = o.ParallelLeafThreshold
	c.ConvergenceTolerance = o.ConvergenceTolerance
	return c
}

var _ models.ReferenceDatabase = (*ciqual.Database)(nil)
