package requirements

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/luccibyey/atelier/internal/domain/models"
)

// ProductAPI is the part of the ERP API the requirement editor needs.
type ProductAPI interface {
	Store
	GetProduct(ctx context.Context, id int64) (models.SoustraitanceProduct, error)
	GetMaterial(ctx context.Context, id int64) (models.Material, error)
	ListProductMaterials(ctx context.Context, productID int64) ([]models.ProductMaterialRequirement, error)
}

// DraftInput is the body of an edit. Quantities are keyed by size.
type DraftInput struct {
	QuantityTypeID int64                      `json:"quantity_type_id"`
	Quantities     map[string]decimal.Decimal `json:"quantities"`
	ApplyToAll     bool                       `json:"apply_to_all_sizes"`
	Notes          string                     `json:"notes"`
	Commentaire    string                     `json:"commentaire"`
}

// Configuration is the state of one product's requirement set.
type Configuration struct {
	ProductID   int64                               `json:"product_id"`
	Sizes       []string                            `json:"sizes"`
	Rows        []models.ProductMaterialRequirement `json:"rows"`
	LastFailure *SaveFailure                        `json:"last_failure,omitempty"`
}

// Service keeps one Editor per product for the lifetime of the process. The
// cached editor carries sizes and any pending save failure; its rows are
// re-read from the server on every access.
type Service struct {
	api    ProductAPI
	logger *zap.Logger

	mu      sync.Mutex
	editors map[int64]*Editor
}

// NewService wires a new requirement service instance.
func NewService(api ProductAPI, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{api: api, logger: logger, editors: make(map[int64]*Editor)}
}

// Editor returns the editor of productID with the server's current rows,
// loading the product's sizes on first use.
func (s *Service) Editor(ctx context.Context, productID int64) (*Editor, error) {
	s.mu.Lock()
	editor, ok := s.editors[productID]
	s.mu.Unlock()
	if ok {
		if err := editor.Reload(ctx); err != nil {
			return nil, err
		}
		return editor, nil
	}

	product, err := s.api.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("load product %d: %w", productID, err)
	}
	rows, err := s.api.ListProductMaterials(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("load product %d materials: %w", productID, err)
	}

	sizes := product.Sizes
	if product.NoSize {
		sizes = nil
	}
	loaded := NewEditor(productID, sizes, rows, s.api, s.logger)
	loaded.loader = s.api

	s.mu.Lock()
	defer s.mu.Unlock()
	if editor, ok := s.editors[productID]; ok {
		return editor, nil
	}
	s.editors[productID] = loaded
	return loaded, nil
}

// Configuration returns the current set of a product and any pending failure.
func (s *Service) Configuration(ctx context.Context, productID int64) (Configuration, error) {
	editor, err := s.Editor(ctx, productID)
	if err != nil {
		return Configuration{}, err
	}
	return configurationOf(editor), nil
}

func configurationOf(editor *Editor) Configuration {
	return Configuration{
		ProductID:   editor.ProductID(),
		Sizes:       editor.Sizes(),
		Rows:        editor.Rows(),
		LastFailure: editor.LastFailure(),
	}
}

// Open returns the edit form of materialID on productID.
func (s *Service) Open(ctx context.Context, productID, materialID int64) (Draft, error) {
	_, draft, err := s.open(ctx, productID, materialID)
	return draft, err
}

func (s *Service) open(ctx context.Context, productID, materialID int64) (*Editor, Draft, error) {
	editor, err := s.Editor(ctx, productID)
	if err != nil {
		return nil, Draft{}, err
	}
	material, err := s.api.GetMaterial(ctx, materialID)
	if err != nil {
		return nil, Draft{}, fmt.Errorf("load material %d: %w", materialID, err)
	}
	return editor, editor.Open(material), nil
}

// Configure applies an edit to materialID and persists the product's set.
func (s *Service) Configure(ctx context.Context, productID, materialID int64, in DraftInput) (Configuration, error) {
	editor, draft, err := s.open(ctx, productID, materialID)
	if err != nil {
		return Configuration{}, err
	}

	// The body replaces the material's quantities; sizes it leaves out are 0.
	for _, size := range draft.Sizes {
		draft.Quantities[size] = decimal.Zero
	}
	for size, qty := range in.Quantities {
		if _, configured := draft.Quantities[size]; !configured {
			return Configuration{}, models.ValidationErrors{"quantities": "Taille non configurée pour ce produit : " + size}
		}
		draft.Quantities[size] = qty
	}
	if in.QuantityTypeID > 0 {
		draft.QuantityTypeID = in.QuantityTypeID
	}
	draft.Notes = in.Notes
	draft.Commentaire = in.Commentaire
	if in.ApplyToAll {
		draft.ApplyToAllSizes()
	}
	if !anyPositive(draft.Quantities) {
		return Configuration{}, models.ValidationErrors{"quantities": "Veuillez saisir une quantité pour au moins une taille"}
	}

	saveErr := editor.Save(ctx, draft)
	return configurationOf(editor), saveErr
}

// Remove drops materialID from productID and persists the remaining set.
func (s *Service) Remove(ctx context.Context, productID, materialID int64) (Configuration, error) {
	editor, err := s.Editor(ctx, productID)
	if err != nil {
		return Configuration{}, err
	}
	removeErr := editor.Remove(ctx, materialID)
	return configurationOf(editor), removeErr
}

// Retry re-sends the last failed payload of productID.
func (s *Service) Retry(ctx context.Context, productID int64) (Configuration, error) {
	editor, err := s.Editor(ctx, productID)
	if err != nil {
		return Configuration{}, err
	}
	retryErr := editor.Retry(ctx)
	return configurationOf(editor), retryErr
}

// Breakdown returns the per-size read-back of materialID on productID.
func (s *Service) Breakdown(ctx context.Context, productID, materialID int64) (MaterialBreakdown, error) {
	editor, err := s.Editor(ctx, productID)
	if err != nil {
		return MaterialBreakdown{}, err
	}
	return Breakdown(editor.Rows(), materialID, editor.Sizes()), nil
}

// Needs returns the material needs of producing planned pieces of productID.
func (s *Service) Needs(ctx context.Context, productID int64, planned map[string]int) ([]MaterialNeed, error) {
	editor, err := s.Editor(ctx, productID)
	if err != nil {
		return nil, err
	}
	return Aggregate(editor.Rows(), editor.Sizes(), planned), nil
}

// Forget drops the cached editor of productID so the next access reloads its sizes and rows.
func (s *Service) Forget(productID int64) {
	s.mu.Lock()
	delete(s.editors, productID)
	s.mu.Unlock()
}

func anyPositive(quantities map[string]decimal.Decimal) bool {
	for _, qty := range quantities {
		if qty.IsPositive() {
			return true
		}
	}
	return false
}
