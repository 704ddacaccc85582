package requirements

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/luccibyey/atelier/internal/domain/models"
)

// ErrNothingToRetry is returned by Retry when the last save succeeded.
var ErrNothingToRetry = errors.New("no failed save to retry")

// defaultQuantity seeds every size when a material is configured for the first time.
var defaultQuantity = decimal.NewFromInt(1)

// Store persists the requirement set of a product. The whole set is sent at once.
type Store interface {
	ConfigureProductMaterials(ctx context.Context, productID int64, rows []models.ProductMaterialRequirement) error
}

// Loader reads the requirement set currently stored on the server.
type Loader interface {
	ListProductMaterials(ctx context.Context, productID int64) ([]models.ProductMaterialRequirement, error)
}

// Draft is the per-size quantity form of one material on one product.
type Draft struct {
	MaterialID     int64                      `json:"material_id"`
	MaterialName   string                     `json:"material_name,omitempty"`
	QuantityTypeID int64                      `json:"quantity_type_id"`
	Sizes          []string                   `json:"sizes"`
	Quantities     map[string]decimal.Decimal `json:"quantities"`
	Notes          string                     `json:"notes,omitempty"`
	Commentaire    string                     `json:"commentaire,omitempty"`
}

// ApplyToAllSizes copies the quantity of the first size onto every other size.
func (d *Draft) ApplyToAllSizes() {
	if len(d.Sizes) == 0 {
		return
	}
	first := d.Quantities[d.Sizes[0]]
	for _, size := range d.Sizes[1:] {
		d.Quantities[size] = first
	}
}

// SaveFailure is the last payload the server refused. It stays until a later save succeeds.
type SaveFailure struct {
	Payload []models.ProductMaterialRequirement `json:"payload"`
	Err     error                               `json:"-"`
	Message string                              `json:"message"`
	At      time.Time                           `json:"at"`
}

// Editor holds the configured requirement set of one product. Every mutation
// is persisted immediately; the local set stays ahead of the server when a
// save fails. With a Loader, the set is re-read from the server before each
// mutation unless a failed save is pending.
type Editor struct {
	mu        sync.Mutex
	productID int64
	sizes     []string
	oneSize   bool
	rows      []models.ProductMaterialRequirement
	failure   *SaveFailure

	store  Store
	loader Loader
	logger *zap.Logger
	now    func() time.Time
}

// NewEditor builds an editor over the product's configured sizes and current rows.
func NewEditor(productID int64, sizes []string, rows []models.ProductMaterialRequirement, store Store, logger *zap.Logger) *Editor {
	if logger == nil {
		logger = zap.NewNop()
	}
	oneSize := models.IsOneSize(sizes)
	if oneSize {
		sizes = []string{models.OneSize}
	}
	return &Editor{
		productID: productID,
		sizes:     append([]string(nil), sizes...),
		oneSize:   oneSize,
		rows:      append([]models.ProductMaterialRequirement(nil), rows...),
		store:     store,
		logger:    logger.With(zap.Int64("product_id", productID)),
		now:       time.Now,
	}
}

// Reload replaces the local set with the server's one. It keeps the local set
// while a failed save is pending.
func (e *Editor) Reload(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reload(ctx)
}

// reload must be called with mu held.
func (e *Editor) reload(ctx context.Context) error {
	if e.loader == nil || e.failure != nil {
		return nil
	}
	rows, err := e.loader.ListProductMaterials(ctx, e.productID)
	if err != nil {
		return fmt.Errorf("load product %d materials: %w", e.productID, err)
	}
	e.rows = append([]models.ProductMaterialRequirement(nil), rows...)
	return nil
}

// ProductID returns the product being edited.
func (e *Editor) ProductID() int64 { return e.productID }

// Sizes returns the configured sizes, [OS] for one-size products.
func (e *Editor) Sizes() []string {
	return append([]string(nil), e.sizes...)
}

// Rows returns a copy of the configured set.
func (e *Editor) Rows() []models.ProductMaterialRequirement {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]models.ProductMaterialRequirement(nil), e.rows...)
}

// Open returns the draft for material, rebuilt from the configured rows.
func (e *Editor) Open(material models.Material) Draft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return OpenDraft(material, e.sizes, e.rows)
}

// OpenDraft builds the edit form of a material. Existing rows are spread over
// the sizes and missing sizes show 0; a material without rows starts at 1 per size.
func OpenDraft(material models.Material, sizes []string, rows []models.ProductMaterialRequirement) Draft {
	if models.IsOneSize(sizes) {
		sizes = []string{models.OneSize}
	}
	draft := Draft{
		MaterialID:     material.ID,
		MaterialName:   material.Title,
		QuantityTypeID: material.QuantityTypeID,
		Sizes:          append([]string(nil), sizes...),
		Quantities:     make(map[string]decimal.Decimal, len(sizes)),
	}

	var existing []models.ProductMaterialRequirement
	for _, row := range rows {
		if row.MaterialID == material.ID {
			existing = append(existing, row)
		}
	}

	if len(existing) == 0 {
		for _, size := range sizes {
			draft.Quantities[size] = defaultQuantity
		}
		return draft
	}

	for _, row := range existing {
		if row.QuantityTypeID > 0 {
			draft.QuantityTypeID = row.QuantityTypeID
		}
		if row.MaterialName != "" {
			draft.MaterialName = row.MaterialName
		}
		draft.Notes = row.Notes
		draft.Commentaire = row.Commentaire
	}
	perSize := perPiece(existing, sizes)
	for _, size := range sizes {
		qty, ok := perSize[size]
		if !ok {
			qty = decimal.Zero
		}
		draft.Quantities[size] = qty
	}
	return draft
}

// Save replaces the rows of the draft's material and persists the whole set.
func (e *Editor) Save(ctx context.Context, draft Draft) error {
	if draft.MaterialID <= 0 {
		return models.ValidationErrors{"material_id": "Veuillez sélectionner une matière"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.reload(ctx); err != nil {
		return err
	}
	rows := e.rowsFromDraft(draft)
	next := withoutMaterial(e.rows, draft.MaterialID)
	next = append(next, rows...)
	e.rows = next

	return e.persist(ctx, next)
}

// Remove drops every row of materialID and persists the remaining set.
func (e *Editor) Remove(ctx context.Context, materialID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.reload(ctx); err != nil {
		return err
	}
	e.rows = withoutMaterial(e.rows, materialID)
	return e.persist(ctx, e.rows)
}

// LastFailure returns the pending save failure, if any.
func (e *Editor) LastFailure() *SaveFailure {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failure == nil {
		return nil
	}
	f := *e.failure
	return &f
}

// Retry re-sends the payload of the last failed save.
func (e *Editor) Retry(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.failure == nil {
		return ErrNothingToRetry
	}
	return e.persist(ctx, e.failure.Payload)
}

func (e *Editor) rowsFromDraft(draft Draft) []models.ProductMaterialRequirement {
	var rows []models.ProductMaterialRequirement
	for _, size := range e.sizes {
		qty, ok := draft.Quantities[size]
		if !ok || !qty.IsPositive() {
			continue
		}
		row := models.ProductMaterialRequirement{
			ProductID:      e.productID,
			MaterialID:     draft.MaterialID,
			MaterialName:   draft.MaterialName,
			QuantityNeeded: qty,
			QuantityTypeID: draft.QuantityTypeID,
			Notes:          draft.Notes,
			Commentaire:    draft.Commentaire,
		}
		if !e.oneSize {
			label := size
			row.SizeSpecific = &label
		}
		rows = append(rows, row)
	}
	return rows
}

// persist must be called with mu held.
func (e *Editor) persist(ctx context.Context, rows []models.ProductMaterialRequirement) error {
	payload := append([]models.ProductMaterialRequirement{}, rows...)
	if err := e.store.ConfigureProductMaterials(ctx, e.productID, payload); err != nil {
		e.failure = &SaveFailure{Payload: payload, Err: err, Message: err.Error(), At: e.now()}
		e.logger.Warn("requirement set not saved", zap.Int("rows", len(payload)), zap.Error(err))
		return fmt.Errorf("save product %d materials: %w", e.productID, err)
	}
	if e.failure != nil {
		e.logger.Info("requirement set saved after earlier failure", zap.Int("rows", len(payload)))
	}
	e.failure = nil
	return nil
}

func withoutMaterial(rows []models.ProductMaterialRequirement, materialID int64) []models.ProductMaterialRequirement {
	out := make([]models.ProductMaterialRequirement, 0, len(rows))
	for _, row := range rows {
		if row.MaterialID != materialID {
			out = append(out, row)
		}
	}
	return out
}
