package models

import "github.com/shopspring/decimal"

// ProductMaterialRequirement is the per-size quantity of a material needed to
// make one unit of a product. SizeSpecific is nil for one-size products.
type ProductMaterialRequirement struct {
	ID             int64           `json:"id,omitempty"`
	ProductID      int64           `json:"product_id"`
	MaterialID     int64           `json:"material_id"`
	MaterialName   string          `json:"material_name,omitempty"`
	QuantityNeeded decimal.Decimal `json:"quantity_needed"`
	QuantityTypeID int64           `json:"quantity_type_id,omitempty"`
	QuantityType   string          `json:"quantity_type,omitempty"`
	SizeSpecific   *string         `json:"size_specific"`
	Notes          string          `json:"notes,omitempty"`
	Commentaire    string          `json:"commentaire,omitempty"`
}

// SizeLabel returns the size this row applies to, or OneSize.
func (r ProductMaterialRequirement) SizeLabel() string {
	if r.SizeSpecific == nil || IsNoSizeLabel(*r.SizeSpecific) {
		return OneSize
	}
	return *r.SizeSpecific
}
