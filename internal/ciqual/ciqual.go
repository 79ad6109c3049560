// Package ciqual loads the Ciqual food composition tables (alim/const/compo
// XML exports) into a models.ReferenceDatabase keyed by Ciqual food code.
package ciqual

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/openfoodfacts/recipe-estimator-go/pkg/models"
)

// constFile is the const_*.xml schema: nutrient code <-> nutrient name.
type constFile struct {
	XMLName xml.Name    `xml:"CONST"`
	Consts  []constNode `xml:"CONST_CODE"`
}

type constNode struct {
	ConstCode   string `xml:"const_code"`
	ConstNomEng string `xml:"const_nom_eng"`
}

// alimFile is the alim_*.xml schema: food code <-> food name.
type alimFile struct {
	XMLName xml.Name   `xml:"TABLE"`
	Alims   []alimNode `xml:"ALIM"`
}

type alimNode struct {
	AlimCode    string `xml:"alim_code"`
	AlimNomEng  string `xml:"alim_nom_eng"`
}

// compoFile is the compo_*.xml schema: per-food, per-nutrient composition.
type compoFile struct {
	XMLName xml.Name   `xml:"TABLE"`
	Compos  []compoNode `xml:"COMPO"`
}

type compoNode struct {
	AlimCode  string `xml:"alim_code"`
	ConstCode string `xml:"const_code"`
	Teneur    string `xml:"teneur"`
	Min       string `xml:"min"`
	Max       string `xml:"max"`
}

// Database is a models.ReferenceDatabase backed by the Ciqual XML exports.
type Database struct {
	AlimXMLPath  string
	ConstXMLPath string
	CompoXMLPath string
	Catalogue    models.NutrientCatalogue

	mu          sync.RWMutex
	loaded      bool
	alimNames   map[string]string                              // food code -> name
	byFoodCode  map[string]map[models.NutrientKey]models.NutrientProfile
}

// NewDatabase constructs a Ciqual-backed reference database. The nutrient
// catalogue supplies the OFF<->Ciqual key mapping and unit conversion factors.
func NewDatabase(alimPath, constPath, compoPath string, catalogue models.NutrientCatalogue) *Database {
	return &Database{
		AlimXMLPath:  alimPath,
		ConstXMLPath: constPath,
		CompoXMLPath: compoPath,
		Catalogue:    catalogue,
	}
}

// LoadDatabase parses the three Ciqual XML exports and builds the in-memory
// food-code -> nutrient-profile index.
func (d *Database) LoadDatabase(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	constCodeToName, err := loadConstCodes(d.ConstXMLPath)
	if err != nil {
		return models.NewReferenceDataError("failed to load ciqual const table", err.Error())
	}
	// nameToConstCode inverted so the nutrient map's ciqual_key (a name) can
	// be resolved to the numeric const_code used by the compo table.
	nameToConstCode := make(map[string]string, len(constCodeToName))
	for code, name := range constCodeToName {
		nameToConstCode[name] = code
	}

	alimNames, err := loadAlimNames(d.AlimXMLPath)
	if err != nil {
		return models.NewReferenceDataError("failed to load ciqual alim table", err.Error())
	}

	constCodeToEntry := make(map[string]models.NutrientCatalogueEntry)
	for _, entry := range d.Catalogue.Entries() {
		if constCode, ok := nameToConstCode[string(entry.CiqualKey)]; ok {
			constCodeToEntry[constCode] = entry
		}
	}

	byFoodCode, err := loadCompo(d.CompoXMLPath, constCodeToEntry)
	if err != nil {
		return models.NewReferenceDataError("failed to load ciqual compo table", err.Error())
	}

	d.alimNames = alimNames
	d.byFoodCode = byFoodCode
	d.loaded = true
	return nil
}

func loadConstCodes(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var doc constFile
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	out := make(map[string]string, len(doc.Consts))
	for _, c := range doc.Consts {
		out[strings.TrimSpace(c.ConstCode)] = strings.TrimSpace(c.ConstNomEng)
	}
	return out, nil
}

func loadAlimNames(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var doc alimFile
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	out := make(map[string]string, len(doc.Alims))
	for _, a := range doc.Alims {
		out[strings.TrimSpace(a.AlimCode)] = strings.TrimSpace(a.AlimNomEng)
	}
	return out, nil
}

func loadCompo(path string, constCodeToEntry map[string]models.NutrientCatalogueEntry) (map[string]map[models.NutrientKey]models.NutrientProfile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	// The compo export is not well-formed XML: bare " < " appears in some
	// cells. Escape it before parsing, matching the original loader.
	fixed := strings.ReplaceAll(string(raw), " < ", " &lt; ")

	var doc compoFile
	if err := xml.Unmarshal([]byte(fixed), &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	out := make(map[string]map[models.NutrientKey]models.NutrientProfile)
	for _, c := range doc.Compos {
		entry, ok := constCodeToEntry[strings.TrimSpace(c.ConstCode)]
		if !ok {
			continue
		}
		alimCode := strings.TrimSpace(c.AlimCode)

		nom := parseCiqualValue(c.Teneur)
		var minVal, maxVal float64
		switch {
		case c.Min != "":
			minVal = parseCiqualValue(c.Min)
		case strings.Contains(c.Teneur, "<"):
			minVal = 0
		default:
			minVal = nom
		}
		if c.Max != "" {
			maxVal = parseCiqualValue(c.Max)
		} else {
			maxVal = nom
		}

		factor := entry.UnitFactor
		if factor == 0 {
			factor = 1
		}
		profile := models.NutrientProfile{
			PercentNom: nom * factor,
			PercentMin: minVal * factor,
			PercentMax: maxVal * factor,
			Confidence: models.ConfidenceA,
		}

		foodNutrients, ok := out[alimCode]
		if !ok {
			foodNutrients = make(map[models.NutrientKey]models.NutrientProfile)
			out[alimCode] = foodNutrients
		}
		foodNutrients[entry.CiqualKey] = profile
	}
	return out, nil
}

// parseCiqualValue normalizes a Ciqual numeric cell: comma decimals, a
// leading "<", or the literal "traces"/"-" all collapse to a float.
func parseCiqualValue(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.ReplaceAll(s, "<", "")
	s = strings.ReplaceAll(s, "traces", "0")
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// NutrientsForFoodCode returns the nutrient profile map for a Ciqual food code.
func (d *Database) NutrientsForFoodCode(ctx context.Context, foodCode string) (map[models.NutrientKey]models.NutrientProfile, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	profiles, ok := d.byFoodCode[foodCode]
	return profiles, ok
}

// ParentFoodCode is not meaningful for the flat Ciqual table itself - food
// code ancestry comes from the ingredient taxonomy, not from Ciqual. Always
// reports no parent.
func (d *Database) ParentFoodCode(ctx context.Context, foodCode string) (string, bool) {
	return "", false
}

// SearchByName performs a case-insensitive, whitespace-split substring search
// across food names, requiring every query term to match.
func (d *Database) SearchByName(ctx context.Context, query string) ([]models.FoodCodeMatch, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, models.NewValidationError("query", "search query cannot be empty")
	}

	var matches []models.FoodCodeMatch
	for code, name := range d.alimNames {
		lower := strings.ToLower(name)
		allMatch := true
		for _, term := range terms {
			if !strings.Contains(lower, term) {
				allMatch = false
				break
			}
		}
		if allMatch {
			matches = append(matches, models.FoodCodeMatch{FoodCode: code, Name: name})
		}
	}
	return matches, nil
}

// IsLoaded reports whether LoadDatabase has completed successfully.
func (d *Database) IsLoaded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loaded
}

var _ models.ReferenceDatabase = (*Database)(nil)
