package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openfoodfacts/recipe-estimator-go/pkg/models"
)

var (
	productPath   string
	estimateMethod string
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate ingredient percentages for a single product document",
	Long: `Reads a product document (nutriments + ordered ingredient tree) as
JSON from --product, runs the requested reconstruction method, and prints the
resulting product document (with percent/quantity estimates filled in) to
stdout as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		raw, err := os.ReadFile(productPath)
		if err != nil {
			return fmt.Errorf("reading product file %s: %w", productPath, err)
		}

		var product models.Product
		if err := json.Unmarshal(raw, &product); err != nil {
			return fmt.Errorf("parsing product JSON: %w", err)
		}

		p, err := buildPipeline(ctx, cfg)
		if err != nil {
			return err
		}

		if errs := p.Validator.ValidateProduct(&product); errs.HasErrors() {
			return fmt.Errorf("invalid product document: %w", errs)
		}

		switch estimateMethod {
		case "label-only":
			_, err = p.Estimator.EstimateLabelOnly(ctx, &product)
		case "nnls":
			_, err = p.Estimator.EstimateNNLS(ctx, &product)
		default:
			_, err = p.Estimator.EstimateRecipe(ctx, &product)
		}
		if err != nil {
			return fmt.Errorf("estimating recipe: %w", err)
		}

		out, err := json.MarshalIndent(&product, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	estimateCmd.Flags().StringVar(&productPath, "product", "", "path to a product JSON document (required)")
	estimateCmd.Flags().StringVar(&estimateMethod, "method", "optimizer", "reconstruction method: optimizer, label-only, or nnls")
	_ = estimateCmd.MarkFlagRequired("product")
}
