package commands

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openfoodfacts/recipe-estimator-go/internal/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the recipe estimator HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		p, err := buildPipeline(ctx, cfg)
		if err != nil {
			return err
		}

		handler := httpapi.NewHandler(p.Estimator, p.Database, p.Validator, logger)
		router := httpapi.NewRouter(handler)

		logger.Info("recipe estimator listening", zap.String("address", cfg.Server.Address))
		return http.ListenAndServe(cfg.Server.Address, router)
	},
}
