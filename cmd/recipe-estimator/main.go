// Command recipe-estimator serves and drives the ingredient recipe
// estimator: given a product's declared nutrient panel and ordered
// ingredient list, it reconstructs a plausible mass percentage for every
// ingredient and sub-ingredient.
package main

import (
	"os"

	"github.com/openfoodfacts/recipe-estimator-go/cmd/recipe-estimator/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
