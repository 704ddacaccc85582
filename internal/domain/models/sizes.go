package models

import (
	"fmt"
	"strings"
)

// SizeCategory is one family of sizes a product can be offered in.
type SizeCategory string

const (
	SizeClothing     SizeCategory = "clothing"
	SizeNumericPants SizeCategory = "numeric_pants"
	SizeShoes        SizeCategory = "shoes"
	SizeBelts        SizeCategory = "belts"
)

// OneSize is the label used for products without concrete sizes.
const OneSize = "OS"

// SizeCategories lists the categories in display order.
var SizeCategories = []SizeCategory{SizeClothing, SizeNumericPants, SizeShoes, SizeBelts}

var sizeCatalog = map[SizeCategory][]string{
	SizeClothing:     {"XS", "S", "M", "L", "XL", "XXL", "3XL", "4XL"},
	SizeNumericPants: {"30", "32", "34", "36", "38", "40", "42", "44", "46", "48", "50"},
	SizeShoes:        {"39", "40", "41", "42", "43", "44", "45", "46", "47"},
	SizeBelts:        {"85", "90", "95", "100", "105", "110", "115", "120", "125"},
}

// SizesOf returns the allowed labels of a category.
func SizesOf(category SizeCategory) []string {
	return append([]string(nil), sizeCatalog[category]...)
}

// IsNoSizeLabel reports whether label is one of the sentinels the API uses for one-size products.
func IsNoSizeLabel(label string) bool {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "os", "none", "no_size", "":
		return true
	}
	return false
}

// IsOneSize reports whether a configured size list describes a one-size product.
func IsOneSize(sizes []string) bool {
	if len(sizes) == 0 {
		return true
	}
	for _, s := range sizes {
		if !IsNoSizeLabel(s) {
			return false
		}
	}
	return true
}

// SizeConfiguration records which sizes a product is made in. NoSize and the
// concrete sizes are mutually exclusive.
type SizeConfiguration struct {
	noSize   bool
	selected map[SizeCategory]map[string]bool
}

// NewSizeConfiguration builds a configuration from category-qualified labels.
func NewSizeConfiguration(noSize bool, sizes map[SizeCategory][]string) (*SizeConfiguration, error) {
	cfg := &SizeConfiguration{}
	for category, labels := range sizes {
		for _, label := range labels {
			if err := cfg.SetSize(category, label, true); err != nil {
				return nil, err
			}
		}
	}
	if noSize {
		cfg.SetNoSize(true)
	}
	return cfg, nil
}

// NoSize reports the sentinel flag.
func (c *SizeConfiguration) NoSize() bool {
	return c.noSize
}

// SetNoSize toggles the sentinel; enabling it clears every concrete size.
func (c *SizeConfiguration) SetNoSize(on bool) {
	c.noSize = on
	if on {
		c.selected = nil
	}
}

// SetSize toggles one concrete size; enabling any size clears NoSize.
func (c *SizeConfiguration) SetSize(category SizeCategory, label string, on bool) error {
	label = strings.ToUpper(strings.TrimSpace(label))
	allowed, ok := sizeCatalog[category]
	if !ok {
		return fmt.Errorf("unknown size category %q", category)
	}
	if !contains(allowed, label) {
		return fmt.Errorf("size %q is not part of category %s", label, category)
	}

	if !on {
		delete(c.selected[category], label)
		return nil
	}

	if c.selected == nil {
		c.selected = make(map[SizeCategory]map[string]bool)
	}
	if c.selected[category] == nil {
		c.selected[category] = make(map[string]bool)
	}
	c.selected[category][label] = true
	c.noSize = false
	return nil
}

// Has reports whether a concrete size is enabled.
func (c *SizeConfiguration) Has(category SizeCategory, label string) bool {
	return c.selected[category][strings.ToUpper(label)]
}

// ConfiguredSizes returns the enabled labels in catalog order, or [OneSize]
// for products without concrete sizes.
func (c *SizeConfiguration) ConfiguredSizes() []string {
	if c.noSize {
		return []string{OneSize}
	}

	var out []string
	seen := make(map[string]bool)
	for _, category := range SizeCategories {
		for _, label := range sizeCatalog[category] {
			if c.selected[category][label] && !seen[label] {
				seen[label] = true
				out = append(out, label)
			}
		}
	}
	if len(out) == 0 {
		return []string{OneSize}
	}
	return out
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
