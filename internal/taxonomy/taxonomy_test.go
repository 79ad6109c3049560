package taxonomy

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleTaxonomy = `{
  "en:tomato": {"ciqual_food_code": {"en": "20047"}},
  "en:cherry-tomato": {"parents": ["en:tomato"]},
  "en:plum-tomato": {"ciqual_proxy_food_code": {"en": "20047"}, "parents": ["en:tomato"]},
  "en:unknown-thing": {"parents": ["en:also-unknown", "en:tomato"]}
}`

func load(t *testing.T) *Taxonomy {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ingredients.json")
	if err := os.WriteFile(path, []byte(sampleTaxonomy), 0o644); err != nil {
		t.Fatalf("writing taxonomy fixture: %v", err)
	}
	tx, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return tx
}

func TestDirectCiqualFoodCode(t *testing.T) {
	tx := load(t)
	code, ok := tx.CiqualFoodCode("en:tomato")
	if !ok || code != "20047" {
		t.Fatalf("expected direct code 20047, got %q ok=%v", code, ok)
	}
}

func TestProxyCiqualFoodCode(t *testing.T) {
	tx := load(t)
	code, ok := tx.CiqualProxyFoodCode("en:plum-tomato")
	if !ok || code != "20047" {
		t.Fatalf("expected proxy code 20047, got %q ok=%v", code, ok)
	}
}

func TestParentsFallback(t *testing.T) {
	tx := load(t)
	if _, ok := tx.CiqualFoodCode("en:cherry-tomato"); ok {
		t.Fatalf("expected no direct code for cherry-tomato")
	}
	parents := tx.Parents("en:cherry-tomato")
	if len(parents) != 1 || parents[0] != "en:tomato" {
		t.Fatalf("expected parents [en:tomato], got %v", parents)
	}
}

func TestMultipleParentsOrderPreserved(t *testing.T) {
	tx := load(t)
	parents := tx.Parents("en:unknown-thing")
	if len(parents) != 2 || parents[0] != "en:also-unknown" || parents[1] != "en:tomato" {
		t.Fatalf("expected ordered parents, got %v", parents)
	}
}
