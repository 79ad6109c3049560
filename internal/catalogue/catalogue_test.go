package catalogue

import (
	"strings"
	"testing"
)

const sampleCSV = `off_key,ciqual_key,unit,weighting,scipy_weighting,comment
proteins_100g,protein,g,1,1,
sodium_100g,sodium,mg,1,0,excluded from fitting
fiber_100g,fiber,g,1,1,
`

func TestLoadCSVCatalogue(t *testing.T) {
	c, err := loadCSVCatalogue(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("loadCSVCatalogue: %v", err)
	}
	if len(c.Entries()) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(c.Entries()))
	}

	sodium, ok := c.ByOFFKey("sodium_100g")
	if !ok {
		t.Fatalf("expected sodium_100g entry")
	}
	if sodium.CiqualKey != "sodium" {
		t.Errorf("expected ciqual key 'sodium', got %q", sodium.CiqualKey)
	}
	if sodium.UnitFactor != 1.0/1000.0 {
		t.Errorf("expected mg unit factor 1/1000, got %v", sodium.UnitFactor)
	}

	if _, ok := c.ByOFFKey("unknown_100g"); ok {
		t.Errorf("expected no entry for unknown key")
	}
}

func TestUnitFactor(t *testing.T) {
	cases := map[string]float64{
		"g":   1,
		"mg":  1.0 / 1000.0,
		"µg":  1.0 / 1000000.0,
		"ug":  1.0 / 1000000.0,
		"":    1,
	}
	for unit, want := range cases {
		if got := unitFactor(unit); got != want {
			t.Errorf("unitFactor(%q) = %v, want %v", unit, got, want)
		}
	}
}
