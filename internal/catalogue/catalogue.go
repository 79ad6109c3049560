// Package catalogue loads the nutrient mapping table that links
// OpenFoodFacts-style nutrient keys to Ciqual reference nutrient keys, unit
// conversion factors, and penalty weightings.
package catalogue

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/openfoodfacts/recipe-estimator-go/pkg/models"
)

// CSVCatalogue is a models.NutrientCatalogue backed by a nutrient_map.csv
// file with columns: off_key, ciqual_key, unit, weighting, scipy_weighting, comment.
type CSVCatalogue struct {
	entries  []models.NutrientCatalogueEntry
	byOFFKey map[string]models.NutrientCatalogueEntry
}

// NewCSVCatalogue loads a nutrient catalogue from the CSV file at path.
func NewCSVCatalogue(path string) (*CSVCatalogue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening nutrient map %s: %w", path, err)
	}
	defer f.Close()

	return loadCSVCatalogue(f)
}

func loadCSVCatalogue(r io.Reader) (*CSVCatalogue, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading nutrient map header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(strings.ToLower(h))] = i
	}

	c := &CSVCatalogue{byOFFKey: make(map[string]models.NutrientCatalogueEntry)}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading nutrient map row: %w", err)
		}
		entry := models.NutrientCatalogueEntry{
			OFFKey:     field(record, col, "off_key"),
			CiqualKey:  models.NutrientKey(field(record, col, "ciqual_key")),
			UnitFactor: unitFactor(field(record, col, "unit")),
			Weighting:  parseFloatOrDefault(field(record, col, "weighting"), 1),
			Comment:    field(record, col, "comment"),
		}
		entry.ScipyWeighting = parseFloatOrDefault(field(record, col, "scipy_weighting"), entry.Weighting)
		if entry.OFFKey == "" {
			continue
		}
		c.entries = append(c.entries, entry)
		c.byOFFKey[entry.OFFKey] = entry
	}

	return c, nil
}

func field(record []string, col map[string]int, name string) string {
	idx, ok := col[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseFloatOrDefault(s string, def float64) float64 {
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

// unitFactor converts a per-100g value expressed in the given OFF unit into
// the Ciqual reference unit (grams): mg -> 1/1000, µg -> 1/1000000, else 1.
func unitFactor(unit string) float64 {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "mg":
		return 1.0 / 1000.0
	case "µg", "ug", "mcg":
		return 1.0 / 1000000.0
	default:
		return 1.0
	}
}

// Entries returns every loaded catalogue entry.
func (c *CSVCatalogue) Entries() []models.NutrientCatalogueEntry {
	return c.entries
}

// ByOFFKey looks up a catalogue entry by its OpenFoodFacts-style key.
func (c *CSVCatalogue) ByOFFKey(offKey string) (models.NutrientCatalogueEntry, bool) {
	e, ok := c.byOFFKey[offKey]
	return e, ok
}

var _ models.NutrientCatalogue = (*CSVCatalogue)(nil)
