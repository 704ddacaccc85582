package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/luccibyey/atelier/internal/domain/models"
	"github.com/luccibyey/atelier/pkg/clients/erpapi"
)

// MaterialAPI is the part of the ERP API the stock pages use.
type MaterialAPI interface {
	ListMaterials(ctx context.Context) ([]models.Material, error)
	StockLevels(ctx context.Context) ([]models.Material, error)
	GetMaterial(ctx context.Context, id int64) (models.Material, error)
	CreateMaterial(ctx context.Context, in models.MaterialInput, image *erpapi.Attachment) (int64, error)
	UpdateMaterial(ctx context.Context, id int64, in models.MaterialInput, image *erpapi.Attachment) error
	DeleteMaterial(ctx context.Context, id int64) error
	ListTransactions(ctx context.Context, typ models.TransactionType) ([]models.StockTransaction, error)
	CancelTransaction(ctx context.Context, transactionID, userID int64) error
}

// Summary counts the materials of a list per status.
type Summary struct {
	Total  int                        `json:"total"`
	Counts map[models.StockStatus]int `json:"counts"`
}

// MaterialDetails is a material with the display name of its replacement.
type MaterialDetails struct {
	Level
	ReplacementTitle string `json:"replacement_title,omitempty"`
}

// Service backs the stock, material details and transaction pages.
type Service struct {
	api    MaterialAPI
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new stock service instance.
func NewService(api MaterialAPI, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{api: api, logger: logger, now: time.Now}
}

// Overview fetches the materials, classifies them and applies the filters and sort.
func (s *Service) Overview(ctx context.Context, filter MaterialFilter, key SortKey) ([]Level, Summary, error) {
	materials, err := s.api.ListMaterials(ctx)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("load materials: %w", err)
	}

	levels := EvaluateAll(materials)
	visible := SortLevels(FilterMaterials(levels, filter), key)
	return visible, Summarize(visible), nil
}

// Summarize counts levels per computed status.
func Summarize(levels []Level) Summary {
	summary := Summary{Total: len(levels), Counts: make(map[models.StockStatus]int)}
	for _, l := range levels {
		summary.Counts[l.Computed]++
	}
	return summary
}

// Details loads one material and, best effort, the title of its replacement.
func (s *Service) Details(ctx context.Context, id int64) (MaterialDetails, error) {
	material, err := s.api.GetMaterial(ctx, id)
	if err != nil {
		return MaterialDetails{}, fmt.Errorf("load material %d: %w", id, err)
	}

	details := MaterialDetails{Level: Evaluate(material)}
	if material.IsReplacable && material.ReplacableMaterialID != nil {
		replacement, err := s.api.GetMaterial(ctx, *material.ReplacableMaterialID)
		if err != nil {
			s.logger.Warn("replacement material lookup failed",
				zap.Int64("material_id", id),
				zap.Int64("replacement_id", *material.ReplacableMaterialID),
				zap.Error(err))
		} else {
			details.ReplacementTitle = replacement.Title
		}
	}
	return details, nil
}

// CreateMaterial creates a material on behalf of user.
func (s *Service) CreateMaterial(ctx context.Context, user models.CurrentUser, in models.MaterialInput, image *erpapi.Attachment) (int64, error) {
	if !user.CanManageStock() {
		return 0, models.ErrForbidden
	}
	id, err := s.api.CreateMaterial(ctx, in, image)
	if err != nil {
		return 0, err
	}
	s.logger.Info("material created", zap.Int64("material_id", id), zap.String("title", in.Title), zap.Int64("user_id", user.ID))
	return id, nil
}

// UpdateMaterial updates a material on behalf of user.
func (s *Service) UpdateMaterial(ctx context.Context, user models.CurrentUser, id int64, in models.MaterialInput, image *erpapi.Attachment) error {
	if !user.CanManageStock() {
		return models.ErrForbidden
	}
	if err := s.api.UpdateMaterial(ctx, id, in, image); err != nil {
		return err
	}
	s.logger.Info("material updated", zap.Int64("material_id", id), zap.Int64("user_id", user.ID))
	return nil
}

// DeleteMaterial removes a material on behalf of user.
func (s *Service) DeleteMaterial(ctx context.Context, user models.CurrentUser, id int64) error {
	if !user.CanManageStock() {
		return models.ErrForbidden
	}
	if err := s.api.DeleteMaterial(ctx, id); err != nil {
		return err
	}
	s.logger.Info("material deleted", zap.Int64("material_id", id), zap.Int64("user_id", user.ID))
	return nil
}

// Transactions fetches the ledger and applies the filters.
func (s *Service) Transactions(ctx context.Context, filter TransactionFilter) ([]models.StockTransaction, error) {
	txs, err := s.api.ListTransactions(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return FilterTransactions(txs, filter), nil
}

// CancelTransaction reverts a ledger entry. The acting user id is sent along.
func (s *Service) CancelTransaction(ctx context.Context, user models.CurrentUser, transactionID int64) error {
	if !user.CanManageStock() || user.ID <= 0 {
		return models.ErrForbidden
	}
	if err := s.api.CancelTransaction(ctx, transactionID, user.ID); err != nil {
		return err
	}
	s.logger.Info("transaction cancelled", zap.Int64("transaction_id", transactionID), zap.Int64("user_id", user.ID))
	return nil
}

// Snapshot classifies every material and returns a point-in-time report.
func (s *Service) Snapshot(ctx context.Context) (models.StockSnapshot, error) {
	materials, err := s.api.ListMaterials(ctx)
	if err != nil {
		return models.StockSnapshot{}, fmt.Errorf("load materials: %w", err)
	}
	return BuildSnapshot(EvaluateAll(materials), s.now()), nil
}

// Divergence is a material whose server status disagrees with Classify.
type Divergence struct {
	Level
	ServerStatus models.StockStatus `json:"server_status"`
}

// Divergences lists the materials the server classifies differently. The
// server has no excess state, so a local excess against a server good is not reported.
func (s *Service) Divergences(ctx context.Context) ([]Divergence, error) {
	materials, err := s.api.StockLevels(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stock levels: %w", err)
	}

	out := []Divergence{}
	for _, l := range EvaluateAll(materials) {
		server := l.Status
		switch {
		case server == models.StockUnknown, server == l.Computed:
			continue
		case server == models.StockGood && l.Computed == models.StockExcess:
			continue
		}
		out = append(out, Divergence{Level: l, ServerStatus: server})
	}
	if len(out) > 0 {
		s.logger.Debug("stock classification divergences", zap.Int("count", len(out)))
	}
	return out, nil
}

// BuildSnapshot turns classified levels into a StockSnapshot; critical items
// are ordered most urgent first.
func BuildSnapshot(levels []Level, at time.Time) models.StockSnapshot {
	summary := Summarize(levels)
	snapshot := models.StockSnapshot{
		ID:        uuid.NewString(),
		TakenAt:   at.UTC(),
		Total:     summary.Total,
		Counts:    summary.Counts,
		Critical:  []models.SnapshotItem{},
		Excess:    []models.SnapshotItem{},
		CreatedAt: at.UTC(),
	}

	for _, l := range SortLevels(levels, SortByQuantity) {
		switch l.Computed {
		case models.StockCritical:
			snapshot.Critical = append(snapshot.Critical, snapshotItem(l))
		case models.StockExcess:
			snapshot.Excess = append(snapshot.Excess, snapshotItem(l))
		}
	}
	return snapshot
}

func snapshotItem(l Level) models.SnapshotItem {
	return models.SnapshotItem{
		MaterialID:   l.ID,
		Title:        l.Title,
		Quantity:     l.QuantityTotal,
		QuantityType: l.QuantityType,
		Minimum:      l.LowestQuantityNeeded,
		Maximum:      l.GoodQuantityNeeded,
		Status:       l.Computed,
		Percentage:   l.Percentage,
	}
}
