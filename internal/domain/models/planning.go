package models

import "github.com/shopspring/decimal"

// ProductKind distinguishes boutique products from subcontracted ones.
type ProductKind string

const (
	ProductRegular       ProductKind = "regular"
	ProductSoustraitance ProductKind = "soustraitance"
)

// PlanningProduct is the product summary returned with a planning load.
type PlanningProduct struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Reference string `json:"reference,omitempty"`
	Image     string `json:"image,omitempty"`
}

// PlanningContext is what the planner needs to plan a batch of one product.
type PlanningContext struct {
	Product         PlanningProduct `json:"product"`
	ConfiguredSizes []string        `json:"configured_sizes"`
	HasNoSizes      bool            `json:"has_no_sizes"`
}

// PlanningRequest asks the server whether the planned quantities can be produced.
type PlanningRequest struct {
	ProductID         int64          `json:"product_id"`
	Kind              ProductKind    `json:"product_type"`
	PlannedQuantities map[string]int `json:"planned_quantities"`
	Notes             string         `json:"notes,omitempty"`
}

// TotalPlanned sums the planned quantities over every size.
func (r PlanningRequest) TotalPlanned() int {
	total := 0
	for _, qty := range r.PlannedQuantities {
		total += qty
	}
	return total
}

// Validate checks the request before it is sent.
func (r PlanningRequest) Validate() error {
	errs := ValidationErrors{}
	if r.ProductID <= 0 {
		errs.Add("product_id", "Le produit est requis")
	}
	for size, qty := range r.PlannedQuantities {
		if qty < 0 {
			errs.Add("planned_quantities", "La quantité pour la taille "+size+" ne peut pas être négative")
		}
	}
	if _, failed := errs["planned_quantities"]; !failed && r.TotalPlanned() <= 0 {
		errs.Add("planned_quantities", "Veuillez saisir au moins une quantité à produire")
	}
	return errs.OrNil()
}

// MaterialCheck is the server's per-material sufficiency verdict.
type MaterialCheck struct {
	MaterialID        int64           `json:"material_id"`
	MaterialName      string          `json:"material_name"`
	QuantityType      string          `json:"quantity_type,omitempty"`
	QuantityNeeded    decimal.Decimal `json:"quantity_needed"`
	QuantityAvailable decimal.Decimal `json:"quantity_available"`
	Sufficient        bool            `json:"sufficient"`
	Shortage          decimal.Decimal `json:"shortage"`
}

// ValidationResult is the server-computed answer to a PlanningRequest.
type ValidationResult struct {
	Success            bool            `json:"success"`
	CanProduce         bool            `json:"can_produce"`
	Message            string          `json:"message,omitempty"`
	Materials          []MaterialCheck `json:"materials"`
	InsufficientCount  int             `json:"insufficient_count"`
	TotalPiecesPlanned int             `json:"total_pieces"`
	EstimatedTotalCost decimal.Decimal `json:"estimated_cost"`
}

// StartProductionRequest creates a batch once validation succeeded.
type StartProductionRequest struct {
	PlanningRequest
	UserID   int64  `json:"user_id,omitempty"`
	UserName string `json:"created_by,omitempty"`
}

// StartProductionResult carries the server generated batch reference.
type StartProductionResult struct {
	BatchID        int64           `json:"batch_id"`
	BatchReference string          `json:"batch_reference"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	Message        string          `json:"message,omitempty"`
}

// DeductionRequest deducts the materials of a confirmed production run.
type DeductionRequest struct {
	BatchID           int64          `json:"batch_id"`
	ProductID         int64          `json:"product_id"`
	Kind              ProductKind    `json:"product_type"`
	PlannedQuantities map[string]int `json:"planned_quantities"`
	UserID            int64          `json:"user_id,omitempty"`
}
