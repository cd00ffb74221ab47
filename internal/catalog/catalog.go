// Package catalog assembles the consolidated design example catalog and
// persists it only when its content actually changed.
package catalog

import "github.com/quartus-community/de-catalog/internal/sources"

// Catalog wraps the merged item list with its count. The num field always
// equals len(designs).
type Catalog struct {
	Num     int            `json:"num"`
	Designs []sources.Item `json:"designs"`
}

// New builds a catalog from the concatenated per-source item lists, which
// must already be in source order.
func New(items []sources.Item) *Catalog {
	return &Catalog{
		Num:     len(items),
		Designs: items,
	}
}

// Document returns the catalog as the top-level JSON object that gets
// persisted. Controller override keys are merged as siblings of num/designs,
// so persistence works on the generic form.
func (c *Catalog) Document() map[string]any {
	return map[string]any{
		"num":     c.Num,
		"designs": c.Designs,
	}
}
