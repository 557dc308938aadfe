// Package templates serves the built-in starter scripts for each category.
package templates

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/hyperengineering/scriptdesk/internal/types"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Catalog is an immutable set of templates grouped by category.
type Catalog struct {
	byCategory map[types.ScriptCategory][]types.Template
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(catalogYAML)
}

// Parse builds a Catalog from YAML keyed by category name. Unknown
// categories and templates without a title or script are rejected.
func Parse(data []byte) (*Catalog, error) {
	var raw map[types.ScriptCategory][]types.Template
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse template catalog: %w", err)
	}

	for category, list := range raw {
		if !category.Valid() {
			return nil, fmt.Errorf("template catalog: unknown category %q", category)
		}
		for i, t := range list {
			if t.Title == "" || t.FullScript == "" {
				return nil, fmt.Errorf("template catalog: %s[%d] needs title and full_script", category, i)
			}
		}
	}
	return &Catalog{byCategory: raw}, nil
}

// List returns the templates for one category. The slice must not be modified.
func (c *Catalog) List(category types.ScriptCategory) []types.Template {
	return c.byCategory[category]
}

// All returns every template in category display order.
func (c *Catalog) All() []types.Template {
	var all []types.Template
	for _, category := range types.Categories {
		all = append(all, c.byCategory[category]...)
	}
	return all
}
