package models

import (
	"strings"
	"time"
)

// StockStatus classifies the health of a material's stock level.
type StockStatus string

const (
	StockCritical StockStatus = "critical"
	StockWarning  StockStatus = "warning"
	StockGood     StockStatus = "good"
	StockExcess   StockStatus = "excess"
	StockUnknown  StockStatus = ""
)

// ParseStockStatus maps the server's status field onto the canonical enum.
func ParseStockStatus(value string) StockStatus {
	switch StockStatus(strings.ToLower(strings.TrimSpace(value))) {
	case StockCritical:
		return StockCritical
	case StockWarning:
		return StockWarning
	case StockGood:
		return StockGood
	case StockExcess:
		return StockExcess
	default:
		return StockUnknown
	}
}

// MaterialType tells whether a material belongs to the workshop or to a subcontracting client.
type MaterialType string

const (
	MaterialIntern MaterialType = "intern"
	MaterialExtern MaterialType = "extern"
)

// Material is a raw-goods inventory item tracked by quantity and threshold levels.
type Material struct {
	ID                   int64        `json:"id" bson:"id"`
	Reference            string       `json:"reference,omitempty" bson:"reference,omitempty"`
	Title                string       `json:"title" bson:"title"`
	Description          string       `json:"description,omitempty" bson:"description,omitempty"`
	Color                string       `json:"color,omitempty" bson:"color,omitempty"`
	CategoryID           int64        `json:"category_id,omitempty" bson:"category_id,omitempty"`
	CategoryName         string       `json:"category_name,omitempty" bson:"category_name,omitempty"`
	Location             string       `json:"location,omitempty" bson:"location,omitempty"`
	QuantityTotal        float64      `json:"quantity_total" bson:"quantity_total"`
	QuantityTypeID       int64        `json:"quantity_type_id,omitempty" bson:"quantity_type_id,omitempty"`
	QuantityType         string       `json:"quantity_type" bson:"quantity_type"`
	LowestQuantityNeeded float64      `json:"lowest_quantity_needed" bson:"lowest_quantity_needed"`
	MediumQuantityNeeded float64      `json:"medium_quantity_needed" bson:"medium_quantity_needed"`
	GoodQuantityNeeded   float64      `json:"good_quantity_needed" bson:"good_quantity_needed"`
	Price                float64      `json:"price,omitempty" bson:"price,omitempty"`
	MaterialType         MaterialType `json:"materiere_type" bson:"materiere_type"`
	ExternCustomerID     *int64       `json:"extern_customer_id,omitempty" bson:"extern_customer_id,omitempty"`
	ExternCustomerName   string       `json:"extern_customer_name,omitempty" bson:"extern_customer_name,omitempty"`
	IsReplacable         bool         `json:"is_replacable" bson:"is_replacable"`
	ReplacableMaterialID *int64       `json:"replacable_material_id,omitempty" bson:"replacable_material_id,omitempty"`
	Image                string       `json:"image,omitempty" bson:"image,omitempty"`
	Active               bool         `json:"active" bson:"active"`

	// Status and ProgressPercentage are computed by the server and consumed read-only.
	Status             StockStatus `json:"status" bson:"status"`
	ProgressPercentage float64     `json:"progress_percentage" bson:"progress_percentage"`

	CreatedAt time.Time `json:"created_at,omitempty" bson:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

// Category groups materials (fabric, thread, buttons...).
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"nom"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
}

// QuantityType is a unit-of-measure entry such as "mètres" or "pièces".
type QuantityType struct {
	ID     int64  `json:"id"`
	Name   string `json:"nom"`
	Unit   string `json:"unite,omitempty"`
	Active bool   `json:"active"`
}

// MaterialInput is the create/edit form of a material.
type MaterialInput struct {
	Reference            string       `json:"reference" form:"reference"`
	Title                string       `json:"title" form:"title"`
	Description          string       `json:"description" form:"description"`
	Color                string       `json:"color" form:"color"`
	CategoryID           int64        `json:"category_id" form:"category_id"`
	Location             string       `json:"location" form:"location"`
	QuantityTotal        float64      `json:"quantity_total" form:"quantity_total"`
	QuantityTypeID       int64        `json:"quantity_type_id" form:"quantity_type_id"`
	LowestQuantityNeeded float64      `json:"lowest_quantity_needed" form:"lowest_quantity_needed"`
	MediumQuantityNeeded float64      `json:"medium_quantity_needed" form:"medium_quantity_needed"`
	GoodQuantityNeeded   float64      `json:"good_quantity_needed" form:"good_quantity_needed"`
	Price                float64      `json:"price" form:"price"`
	MaterialType         MaterialType `json:"materiere_type" form:"materiere_type"`
	ExternCustomerID     *int64       `json:"extern_customer_id,omitempty" form:"extern_customer_id"`
	IsReplacable         bool         `json:"is_replacable" form:"is_replacable"`
	ReplacableMaterialID *int64       `json:"replacable_material_id,omitempty" form:"replacable_material_id"`
}

// Validate applies the form rules that must hold before the input is sent.
func (in MaterialInput) Validate() error {
	errs := ValidationErrors{}

	if strings.TrimSpace(in.Title) == "" {
		errs.Add("title", "Le titre est requis")
	}
	if in.QuantityTypeID <= 0 {
		errs.Add("quantity_type_id", "Le type de quantité est requis")
	}
	if in.QuantityTotal < 0 {
		errs.Add("quantity_total", "La quantité ne peut pas être négative")
	}
	if in.LowestQuantityNeeded < 0 || in.MediumQuantityNeeded < 0 || in.GoodQuantityNeeded < 0 {
		errs.Add("lowest_quantity_needed", "Les seuils ne peuvent pas être négatifs")
	} else if in.LowestQuantityNeeded > in.MediumQuantityNeeded || in.MediumQuantityNeeded > in.GoodQuantityNeeded {
		errs.Add("good_quantity_needed", "Les seuils doivent respecter minimum ≤ moyen ≤ optimal")
	}

	switch in.MaterialType {
	case MaterialIntern:
	case MaterialExtern:
		if in.ExternCustomerID == nil || *in.ExternCustomerID <= 0 {
			errs.Add("extern_customer_id", "Le client est requis pour une matière externe")
		}
	default:
		errs.Add("materiere_type", "Le type de matière doit être interne ou externe")
	}

	if in.IsReplacable && (in.ReplacableMaterialID == nil || *in.ReplacableMaterialID <= 0) {
		errs.Add("replacable_material_id", "Veuillez sélectionner la matière de remplacement")
	}

	return errs.OrNil()
}
