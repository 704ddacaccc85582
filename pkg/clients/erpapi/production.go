package erpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/luccibyey/atelier/internal/domain/models"
)

const (
	planningEndpoint      = "production_planning.php"
	deductionEndpoint     = "production_stock_deduction.php"
	batchesEndpoint       = "production_batches.php"
	statusHistoryEndpoint = "batch_status_history.php"
)

type planningWire struct {
	Product struct {
		ID        Int  `json:"id"`
		Name      Text `json:"name"`
		NomProd   Text `json:"nom_product"`
		Reference Text `json:"reference"`
		Image     Text `json:"image"`
	} `json:"product"`
	ConfiguredSizes Strings `json:"configured_sizes"`
	HasNoSizes      Bool    `json:"has_no_sizes"`
}

type materialCheckWire struct {
	MaterialID        Int      `json:"material_id"`
	MaterialName      Text     `json:"material_name"`
	QuantityType      Text     `json:"quantity_type"`
	QuantityNeeded    Quantity `json:"quantity_needed"`
	QuantityAvailable Quantity `json:"quantity_available"`
	Sufficient        Bool     `json:"sufficient"`
	Shortage          Quantity `json:"shortage"`
}

type validationWire struct {
	Success            Bool                `json:"success"`
	CanProduce         Bool                `json:"can_produce"`
	Message            Text                `json:"message"`
	Materials          []materialCheckWire `json:"materials"`
	InsufficientCount  Int                 `json:"insufficient_count"`
	TotalPieces        Int                 `json:"total_pieces"`
	EstimatedTotalCost Quantity            `json:"estimated_cost"`
}

type startWire struct {
	BatchID        Int      `json:"batch_id"`
	BatchReference Text     `json:"batch_reference"`
	TotalCost      Quantity `json:"total_cost"`
	Message        Text     `json:"message"`
	Data           *struct {
		BatchID        Int      `json:"batch_id"`
		ID             Int      `json:"id"`
		BatchReference Text     `json:"batch_reference"`
		TotalCost      Quantity `json:"total_cost"`
	} `json:"data"`
}

type statusChangeWire struct {
	ID        Int       `json:"id"`
	BatchID   Int       `json:"batch_id"`
	OldStatus Text      `json:"old_status"`
	NewStatus Text      `json:"new_status"`
	ChangedBy Text      `json:"changed_by"`
	Comments  Text      `json:"comments"`
	ChangedAt Timestamp `json:"changed_at"`
}

func (w statusChangeWire) toModel() models.StatusChange {
	return models.StatusChange{
		ID:        int64(w.ID),
		BatchID:   int64(w.BatchID),
		OldStatus: models.BatchStatus(w.OldStatus),
		NewStatus: models.BatchStatus(w.NewStatus),
		ChangedBy: string(w.ChangedBy),
		Comments:  string(w.Comments),
		ChangedAt: w.ChangedAt.Time(),
	}
}

type materialUsageWire struct {
	MaterialID   Int      `json:"material_id"`
	MaterialName Text     `json:"material_name"`
	QuantityUsed Quantity `json:"quantity_used"`
	QuantityType Text     `json:"quantity_type"`
}

type batchWire struct {
	ID             Int                 `json:"id"`
	BatchReference Text                `json:"batch_reference"`
	ProductID      Int                 `json:"product_id"`
	ProductName    Text                `json:"nom_product"`
	ProductType    Text                `json:"product_type"`
	QuantityTotal  Int                 `json:"quantity_to_produce"`
	SizesBreakdown IntMap              `json:"sizes_breakdown"`
	Status         Text                `json:"status"`
	TotalCost      Quantity            `json:"total_materials_cost"`
	Notes          Text                `json:"notes"`
	CreatedBy      Text                `json:"created_by"`
	CreatedAt      Timestamp           `json:"created_date"`
	UpdatedAt      Timestamp           `json:"updated_date"`
	Materials      []materialUsageWire `json:"materials_used"`
	StatusHistory  []statusChangeWire  `json:"status_history"`
}

func (w batchWire) toModel() models.ProductionBatch {
	batch := models.ProductionBatch{
		ID:             int64(w.ID),
		BatchReference: string(w.BatchReference),
		ProductID:      int64(w.ProductID),
		ProductName:    string(w.ProductName),
		ProductType:    string(w.ProductType),
		QuantityTotal:  int(w.QuantityTotal),
		SizesBreakdown: map[string]int(w.SizesBreakdown),
		Status:         models.BatchStatus(w.Status),
		TotalCost:      w.TotalCost.Decimal(),
		Notes:          string(w.Notes),
		CreatedBy:      string(w.CreatedBy),
		CreatedAt:      w.CreatedAt.Time(),
		UpdatedAt:      w.UpdatedAt.Time(),
	}
	for _, m := range w.Materials {
		batch.Materials = append(batch.Materials, models.BatchMaterialUsage{
			MaterialID:   int64(m.MaterialID),
			MaterialName: string(m.MaterialName),
			QuantityUsed: m.QuantityUsed.Decimal(),
			QuantityType: string(m.QuantityType),
		})
	}
	for _, h := range w.StatusHistory {
		batch.StatusHistory = append(batch.StatusHistory, h.toModel())
	}
	return batch
}

// LoadPlanning returns the product and its configured sizes.
func (c *APIClient) LoadPlanning(ctx context.Context, productID int64, kind models.ProductKind) (models.PlanningContext, error) {
	query := map[string]string{
		"product_id":   strconv.FormatInt(productID, 10),
		"product_type": string(kind),
	}
	var wire planningWire
	if err := c.get(ctx, planningEndpoint, query, &wire); err != nil {
		return models.PlanningContext{}, fmt.Errorf("load planning for product %d: %w", productID, err)
	}

	name := string(wire.Product.Name)
	if name == "" {
		name = string(wire.Product.NomProd)
	}
	sizes := []string(wire.ConfiguredSizes)
	if bool(wire.HasNoSizes) {
		sizes = []string{models.OneSize}
	}

	return models.PlanningContext{
		Product: models.PlanningProduct{
			ID:        int64(wire.Product.ID),
			Name:      name,
			Reference: string(wire.Product.Reference),
			Image:     string(wire.Product.Image),
		},
		ConfiguredSizes: sizes,
		HasNoSizes:      bool(wire.HasNoSizes) || models.IsOneSize(sizes),
	}, nil
}

// ValidatePlanning asks the server whether the planned quantities can be produced.
// The result is returned as computed by the server.
func (c *APIClient) ValidatePlanning(ctx context.Context, req models.PlanningRequest) (models.ValidationResult, error) {
	if err := req.Validate(); err != nil {
		return models.ValidationResult{}, err
	}

	body := map[string]any{
		"action":             "validate_production",
		"product_id":         req.ProductID,
		"product_type":       req.Kind,
		"planned_quantities": req.PlannedQuantities,
	}
	data, _, err := c.do(ctx, call{method: http.MethodPost, endpoint: planningEndpoint, body: body, raw: true})
	if err != nil {
		return models.ValidationResult{}, fmt.Errorf("validate planning: %w", err)
	}

	var wire validationWire
	if err := decode(planningEndpoint, unwrapData(data), &wire); err != nil {
		return models.ValidationResult{}, err
	}

	result := models.ValidationResult{
		Success:            bool(wire.Success),
		CanProduce:         bool(wire.CanProduce),
		Message:            string(wire.Message),
		InsufficientCount:  int(wire.InsufficientCount),
		TotalPiecesPlanned: int(wire.TotalPieces),
		EstimatedTotalCost: wire.EstimatedTotalCost.Decimal(),
	}
	for _, m := range wire.Materials {
		result.Materials = append(result.Materials, models.MaterialCheck{
			MaterialID:        int64(m.MaterialID),
			MaterialName:      string(m.MaterialName),
			QuantityType:      string(m.QuantityType),
			QuantityNeeded:    m.QuantityNeeded.Decimal(),
			QuantityAvailable: m.QuantityAvailable.Decimal(),
			Sufficient:        bool(m.Sufficient),
			Shortage:          m.Shortage.Decimal(),
		})
	}
	return result, nil
}

// DeductStock deducts the materials of a confirmed run and returns its cost.
func (c *APIClient) DeductStock(ctx context.Context, req models.DeductionRequest) (decimal.Decimal, error) {
	data, _, err := c.do(ctx, call{method: http.MethodPost, endpoint: deductionEndpoint, body: req, raw: true})
	if err != nil {
		return decimal.Zero, fmt.Errorf("deduct stock: %w", err)
	}

	var wire struct {
		Success   *Bool    `json:"success"`
		Message   Text     `json:"message"`
		TotalCost Quantity `json:"total_cost"`
	}
	if err := decode(deductionEndpoint, data, &wire); err != nil {
		return decimal.Zero, err
	}
	if wire.Success != nil && !bool(*wire.Success) {
		return decimal.Zero, &APIError{Endpoint: deductionEndpoint, StatusCode: http.StatusOK, Message: string(wire.Message)}
	}
	return wire.TotalCost.Decimal(), nil
}

// ListBatches returns every production batch.
func (c *APIClient) ListBatches(ctx context.Context) ([]models.ProductionBatch, error) {
	var wires []batchWire
	if err := c.get(ctx, batchesEndpoint, nil, &wires); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	out := make([]models.ProductionBatch, 0, len(wires))
	for _, w := range wires {
		out = append(out, w.toModel())
	}
	return out, nil
}

// GetBatch returns one production batch.
func (c *APIClient) GetBatch(ctx context.Context, id int64) (models.ProductionBatch, error) {
	var wire batchWire
	if err := c.get(ctx, batchesEndpoint, idQuery(id), &wire); err != nil {
		return models.ProductionBatch{}, fmt.Errorf("get batch %d: %w", id, err)
	}
	return wire.toModel(), nil
}

// StartProduction creates a batch; the server generates the batch reference.
func (c *APIClient) StartProduction(ctx context.Context, req models.StartProductionRequest) (models.StartProductionResult, error) {
	if err := req.Validate(); err != nil {
		return models.StartProductionResult{}, err
	}

	action := "start_production"
	if req.Kind == models.ProductSoustraitance {
		action = "start_soustraitance_production"
	}
	body := map[string]any{
		"action":             action,
		"product_id":         req.ProductID,
		"planned_quantities": req.PlannedQuantities,
		"notes":              req.Notes,
		"user_id":            req.UserID,
		"created_by":         req.UserName,
	}

	data, message, err := c.do(ctx, call{method: http.MethodPost, endpoint: batchesEndpoint, body: body, raw: true})
	if err != nil {
		return models.StartProductionResult{}, fmt.Errorf("start production: %w", err)
	}

	var wire struct {
		Success *Bool `json:"success"`
		startWire
	}
	if err := decode(batchesEndpoint, data, &wire); err != nil {
		return models.StartProductionResult{}, err
	}
	if wire.Success != nil && !bool(*wire.Success) {
		return models.StartProductionResult{}, &APIError{Endpoint: batchesEndpoint, StatusCode: http.StatusOK, Message: string(wire.Message)}
	}

	result := models.StartProductionResult{
		BatchID:        int64(wire.BatchID),
		BatchReference: string(wire.BatchReference),
		TotalCost:      wire.TotalCost.Decimal(),
		Message:        firstNonEmpty(string(wire.Message), message),
	}
	if wire.Data != nil {
		if result.BatchID == 0 {
			result.BatchID = int64(wire.Data.BatchID)
			if result.BatchID == 0 {
				result.BatchID = int64(wire.Data.ID)
			}
		}
		if result.BatchReference == "" {
			result.BatchReference = string(wire.Data.BatchReference)
		}
		if result.TotalCost.IsZero() {
			result.TotalCost = wire.Data.TotalCost.Decimal()
		}
	}
	return result, nil
}

// UpdateBatchStatus records a status change for a batch.
func (c *APIClient) UpdateBatchStatus(ctx context.Context, batchID int64, status models.BatchStatus, changedBy, comments string) error {
	body := map[string]any{
		"action":     "update_status",
		"batch_id":   batchID,
		"status":     status,
		"changed_by": changedBy,
		"comments":   comments,
	}
	if _, _, err := c.do(ctx, call{method: http.MethodPut, endpoint: batchesEndpoint, body: body}); err != nil {
		return fmt.Errorf("update batch %d status: %w", batchID, err)
	}
	return nil
}

// BatchStatusHistory returns the status log of a batch.
func (c *APIClient) BatchStatusHistory(ctx context.Context, batchID int64) ([]models.StatusChange, error) {
	var wires []statusChangeWire
	query := map[string]string{"batch_id": strconv.FormatInt(batchID, 10)}
	if err := c.get(ctx, statusHistoryEndpoint, query, &wires); err != nil {
		return nil, fmt.Errorf("batch %d status history: %w", batchID, err)
	}
	out := make([]models.StatusChange, 0, len(wires))
	for _, w := range wires {
		out = append(out, w.toModel())
	}
	return out, nil
}

// unwrapData returns the "data" member of an object when it is itself an object.
func unwrapData(body json.RawMessage) json.RawMessage {
	var probe struct {
		Data json.RawMessage `json:"data"`
	}
	if json.Unmarshal(body, &probe) == nil && len(probe.Data) > 0 && probe.Data[0] == '{' {
		return probe.Data
	}
	return body
}
