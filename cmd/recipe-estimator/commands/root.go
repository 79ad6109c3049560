package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openfoodfacts/recipe-estimator-go/pkg/config"
	"github.com/openfoodfacts/recipe-estimator-go/pkg/logging"
)

var (
	cfgFile string
	cfg     config.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "recipe-estimator",
	Short: "Estimate ingredient mass percentages from a product's nutrient panel",
	Long: `recipe-estimator reconstructs a plausible mass percentage for every
ingredient in a packaged food's declared list, by fitting a per-100g
nutrient panel against a reference food-composition database.

Examples:
  recipe-estimator serve --config config.yaml
  recipe-estimator estimate --product product.json
  recipe-estimator load-reference-data --config config.yaml`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		logger, err = logging.New(cfg.LogProduction)
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logger != nil {
			_ = logger.Sync()
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file (defaults are used if omitted)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(estimateCmd)
	rootCmd.AddCommand(loadReferenceDataCmd)
}
