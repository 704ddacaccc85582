package planning

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/luccibyey/atelier/internal/domain/models"
	"github.com/luccibyey/atelier/internal/service/requirements"
	"github.com/luccibyey/atelier/internal/service/stock"
)

// ErrNotValidated is returned by Start when the same plan was not validated as producible.
var ErrNotValidated = errors.New("production plan has not been validated")

// ProductionAPI is the part of the ERP API used to plan and start batches.
type ProductionAPI interface {
	LoadPlanning(ctx context.Context, productID int64, kind models.ProductKind) (models.PlanningContext, error)
	ValidatePlanning(ctx context.Context, req models.PlanningRequest) (models.ValidationResult, error)
	StartProduction(ctx context.Context, req models.StartProductionRequest) (models.StartProductionResult, error)
	DeductStock(ctx context.Context, req models.DeductionRequest) (decimal.Decimal, error)
	GetMaterial(ctx context.Context, id int64) (models.Material, error)
}

// NeedsSource computes the material needs of a plan from the configured requirements.
type NeedsSource interface {
	Needs(ctx context.Context, productID int64, planned map[string]int) ([]requirements.MaterialNeed, error)
}

// EstimateLine compares the need of one material against its stock.
type EstimateLine struct {
	requirements.MaterialNeed
	Available   float64            `json:"quantity_available"`
	Remaining   float64            `json:"quantity_remaining"`
	Sufficient  bool               `json:"sufficient"`
	Shortage    decimal.Decimal    `json:"shortage"`
	StatusAfter models.StockStatus `json:"status_after"`
}

// Estimate is a local preview of a plan, computed before asking the server.
type Estimate struct {
	ProductID   int64          `json:"product_id"`
	TotalPieces int            `json:"total_pieces"`
	CanProduce  bool           `json:"can_produce"`
	Lines       []EstimateLine `json:"materials"`
}

// Service plans production runs and starts batches.
type Service struct {
	api    ProductionAPI
	needs  NeedsSource
	logger *zap.Logger

	mu        sync.Mutex
	validated map[string]models.ValidationResult
}

// NewService wires a new planning service instance.
func NewService(api ProductionAPI, needs NeedsSource, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		api:       api,
		needs:     needs,
		logger:    logger,
		validated: make(map[string]models.ValidationResult),
	}
}

// Load returns the product and the sizes a batch can be planned in.
func (s *Service) Load(ctx context.Context, productID int64, kind models.ProductKind) (models.PlanningContext, error) {
	if kind == "" {
		kind = models.ProductRegular
	}
	return s.api.LoadPlanning(ctx, productID, kind)
}

// Estimate previews the material consumption of a plan against current stock.
func (s *Service) Estimate(ctx context.Context, productID int64, planned map[string]int) (Estimate, error) {
	req := models.PlanningRequest{ProductID: productID, PlannedQuantities: planned}
	if err := req.Validate(); err != nil {
		return Estimate{}, err
	}

	needs, err := s.needs.Needs(ctx, productID, planned)
	if err != nil {
		return Estimate{}, err
	}

	estimate := Estimate{ProductID: productID, TotalPieces: req.TotalPlanned(), CanProduce: true}
	for _, need := range needs {
		material, err := s.api.GetMaterial(ctx, need.MaterialID)
		if err != nil {
			return Estimate{}, fmt.Errorf("load material %d: %w", need.MaterialID, err)
		}
		estimate.Lines = append(estimate.Lines, compare(need, material))
	}
	for _, line := range estimate.Lines {
		if !line.Sufficient {
			estimate.CanProduce = false
		}
	}
	return estimate, nil
}

func compare(need requirements.MaterialNeed, material models.Material) EstimateLine {
	available := decimal.NewFromFloat(material.QuantityTotal)
	remaining := available.Sub(need.Total)

	line := EstimateLine{
		MaterialNeed: need,
		Available:    material.QuantityTotal,
		Remaining:    remaining.InexactFloat64(),
		Sufficient:   !remaining.IsNegative(),
		Shortage:     decimal.Zero,
	}
	if line.MaterialName == "" {
		line.MaterialName = material.Title
	}
	if line.QuantityType == "" {
		line.QuantityType = material.QuantityType
	}
	if !line.Sufficient {
		line.Shortage = remaining.Neg()
	}
	line.StatusAfter = stock.Classify(line.Remaining, material.LowestQuantityNeeded, material.GoodQuantityNeeded)
	return line
}

// Validate asks the server whether the plan can be produced. The answer is
// returned untouched and remembered for Start.
func (s *Service) Validate(ctx context.Context, req models.PlanningRequest) (models.ValidationResult, error) {
	if req.Kind == "" {
		req.Kind = models.ProductRegular
	}
	result, err := s.api.ValidatePlanning(ctx, req)
	if err != nil {
		return models.ValidationResult{}, err
	}

	s.mu.Lock()
	s.validated[planKey(req)] = result
	s.mu.Unlock()

	s.logger.Info("production plan validated",
		zap.Int64("product_id", req.ProductID),
		zap.Int("pieces", req.TotalPlanned()),
		zap.Bool("can_produce", result.CanProduce),
		zap.Int("insufficient", result.InsufficientCount))
	return result, nil
}

// Start creates the batch of a validated plan and deducts its materials.
func (s *Service) Start(ctx context.Context, user models.CurrentUser, req models.PlanningRequest) (models.StartProductionResult, error) {
	if !user.CanManageProduction() {
		return models.StartProductionResult{}, models.ErrForbidden
	}
	if req.Kind == "" {
		req.Kind = models.ProductRegular
	}
	if err := req.Validate(); err != nil {
		return models.StartProductionResult{}, err
	}

	key := planKey(req)
	s.mu.Lock()
	validation, ok := s.validated[key]
	s.mu.Unlock()
	if !ok || !validation.CanProduce {
		return models.StartProductionResult{}, ErrNotValidated
	}

	result, err := s.api.StartProduction(ctx, models.StartProductionRequest{
		PlanningRequest: req,
		UserID:          user.ID,
		UserName:        user.Name,
	})
	if err != nil {
		return models.StartProductionResult{}, err
	}

	s.mu.Lock()
	delete(s.validated, key)
	s.mu.Unlock()

	logger := s.logger.With(zap.Int64("batch_id", result.BatchID), zap.String("batch_reference", result.BatchReference))
	cost, err := s.api.DeductStock(ctx, models.DeductionRequest{
		BatchID:           result.BatchID,
		ProductID:         req.ProductID,
		Kind:              req.Kind,
		PlannedQuantities: req.PlannedQuantities,
		UserID:            user.ID,
	})
	if err != nil {
		logger.Error("batch created but stock deduction failed", zap.Error(err))
		return result, fmt.Errorf("deduct stock for batch %s: %w", result.BatchReference, err)
	}
	if !cost.IsZero() {
		result.TotalCost = cost
	}

	logger.Info("production started", zap.Int64("product_id", req.ProductID), zap.String("total_cost", result.TotalCost.StringFixed(2)))
	return result, nil
}

// planKey identifies a plan independently of map iteration order.
func planKey(req models.PlanningRequest) string {
	sizes := make([]string, 0, len(req.PlannedQuantities))
	for size, qty := range req.PlannedQuantities {
		if qty > 0 {
			sizes = append(sizes, size+"="+strconv.Itoa(qty))
		}
	}
	sort.Strings(sizes)
	return fmt.Sprintf("%s:%d:%s", req.Kind, req.ProductID, strings.Join(sizes, ","))
}
