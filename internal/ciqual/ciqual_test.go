package ciqual

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/openfoodfacts/recipe-estimator-go/pkg/models"
)

type fakeCatalogue struct {
	entries []models.NutrientCatalogueEntry
}

func (f fakeCatalogue) Entries() []models.NutrientCatalogueEntry { return f.entries }
func (f fakeCatalogue) ByOFFKey(offKey string) (models.NutrientCatalogueEntry, bool) {
	for _, e := range f.entries {
		if e.OFFKey == offKey {
			return e, true
		}
	}
	return models.NutrientCatalogueEntry{}, false
}

const constXML = `<CONST>
<CONST_CODE><const_code>328</const_code><const_nom_eng>Protein</const_nom_eng></CONST_CODE>
</CONST>`

const alimXML = `<TABLE>
<ALIM><alim_code>20047</alim_code><alim_nom_eng>Tomato, raw</alim_nom_eng></ALIM>
</TABLE>`

const compoXML = `<TABLE>
<COMPO><alim_code>20047</alim_code><const_code>328</const_code><teneur>0,9</teneur><min></min><max></max></COMPO>
</TABLE>`

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestDatabaseLoadAndLookup(t *testing.T) {
	dir := t.TempDir()
	constPath := writeTemp(t, dir, "const.xml", constXML)
	alimPath := writeTemp(t, dir, "alim.xml", alimXML)
	compoPath := writeTemp(t, dir, "compo.xml", compoXML)

	cat := fakeCatalogue{entries: []models.NutrientCatalogueEntry{
		{OFFKey: "proteins_100g", CiqualKey: "Protein", UnitFactor: 1},
	}}

	db := NewDatabase(alimPath, constPath, compoPath, cat)
	if err := db.LoadDatabase(context.Background()); err != nil {
		t.Fatalf("LoadDatabase: %v", err)
	}
	if !db.IsLoaded() {
		t.Fatalf("expected IsLoaded true")
	}

	profiles, ok := db.NutrientsForFoodCode(context.Background(), "20047")
	if !ok {
		t.Fatalf("expected profile for food code 20047")
	}
	protein, ok := profiles["Protein"]
	if !ok {
		t.Fatalf("expected Protein nutrient")
	}
	if protein.PercentNom != 0.9 {
		t.Errorf("expected percent_nom 0.9, got %v", protein.PercentNom)
	}

	matches, err := db.SearchByName(context.Background(), "tomato")
	if err != nil {
		t.Fatalf("SearchByName: %v", err)
	}
	if len(matches) != 1 || matches[0].FoodCode != "20047" {
		t.Fatalf("expected one match for 20047, got %+v", matches)
	}
}

func TestParseCiqualValue(t *testing.T) {
	cases := map[string]float64{
		"0,9":     0.9,
		"<0.1":    0.1,
		"traces":  0,
		"-":       0,
		"":        0,
	}
	for in, want := range cases {
		if got := parseCiqualValue(in); got != want {
			t.Errorf("parseCiqualValue(%q) = %v, want %v", in, got, want)
		}
	}
}
