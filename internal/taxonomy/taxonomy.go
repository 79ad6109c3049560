// Package taxonomy loads the ingredient taxonomy (an id -> node map, each
// node optionally carrying a ciqual_food_code, a ciqual_proxy_food_code, and
// a list of parent ids) and resolves Ciqual food codes through it.
package taxonomy

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/openfoodfacts/recipe-estimator-go/pkg/models"
)

// node is one taxonomy entry as stored in the ingredients.json export.
type node struct {
	CiqualFoodCode      *codeValue `json:"ciqual_food_code,omitempty"`
	CiqualProxyFoodCode *codeValue `json:"ciqual_proxy_food_code,omitempty"`
	Parents             []string   `json:"parents,omitempty"`
}

// codeValue models the taxonomy's language-keyed value blocks, e.g.
// {"en": "20047"}. Only the "en" value is used.
type codeValue struct {
	En string `json:"en"`
}

// Taxonomy is a models.TaxonomyResolver backed by a JSON taxonomy export.
type Taxonomy struct {
	nodes map[string]node
}

// Load parses the ingredient taxonomy JSON file at path.
func Load(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading taxonomy %s: %w", path, err)
	}
	var nodes map[string]node
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("parsing taxonomy %s: %w", path, err)
	}
	return &Taxonomy{nodes: nodes}, nil
}

// CiqualFoodCode returns the direct ciqual_food_code declared for id, if any.
func (t *Taxonomy) CiqualFoodCode(id string) (string, bool) {
	n, ok := t.nodes[id]
	if !ok || n.CiqualFoodCode == nil || n.CiqualFoodCode.En == "" {
		return "", false
	}
	return n.CiqualFoodCode.En, true
}

// CiqualProxyFoodCode returns the proxy ciqual_proxy_food_code declared for
// id, if any.
func (t *Taxonomy) CiqualProxyFoodCode(id string) (string, bool) {
	n, ok := t.nodes[id]
	if !ok || n.CiqualProxyFoodCode == nil || n.CiqualProxyFoodCode.En == "" {
		return "", false
	}
	return n.CiqualProxyFoodCode.En, true
}

// Parents returns every declared parent id for id, in declaration order.
// The resolver walks them depth-first when a direct/proxy code is absent.
func (t *Taxonomy) Parents(id string) []string {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}
	return n.Parents
}

// Len reports how many taxonomy entries were loaded.
func (t *Taxonomy) Len() int {
	return len(t.nodes)
}

var _ models.TaxonomyResolver = (*Taxonomy)(nil)
