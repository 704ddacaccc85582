package erpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/luccibyey/atelier/internal/domain/models"
)

const (
	clientsEndpoint          = "soustraitance_clients.php"
	productsEndpoint         = "soustraitance_products.php"
	productMaterialsEndpoint = "soustraitance_product_materials.php"
)

type clientWire struct {
	ID        Int       `json:"id"`
	Name      Text      `json:"name"`
	Email     Text      `json:"email"`
	Phone     Text      `json:"phone"`
	Address   Text      `json:"address"`
	Website   Text      `json:"website"`
	CreatedAt Timestamp `json:"created_at"`
}

type productWire struct {
	ID          Int       `json:"id"`
	ClientID    Int       `json:"client_id"`
	ClientName  Text      `json:"client_name"`
	BoutiqueRef Text      `json:"boutique_origin"`
	Reference   Text      `json:"reference_product"`
	Name        Text      `json:"nom_product"`
	Description Text      `json:"description_product"`
	Type        Text      `json:"type_product"`
	Category    Text      `json:"category_product"`
	Price       Number    `json:"price_product"`
	Quantity    Int       `json:"qnty_product"`
	Color       Text      `json:"color_product"`
	Status      Text      `json:"status_product"`
	NoSize      Bool      `json:"no_size"`
	Sizes       Strings   `json:"sizes"`
	Images      Strings   `json:"images"`
	CreatedAt   Timestamp `json:"created_at"`
}

func (w productWire) toModel() models.SoustraitanceProduct {
	sizes := []string(w.Sizes)
	noSize := bool(w.NoSize)
	if noSize {
		sizes = nil
	}
	return models.SoustraitanceProduct{
		ID:          int64(w.ID),
		ClientID:    int64(w.ClientID),
		ClientName:  string(w.ClientName),
		BoutiqueRef: string(w.BoutiqueRef),
		Reference:   string(w.Reference),
		Name:        string(w.Name),
		Description: string(w.Description),
		Type:        string(w.Type),
		Category:    string(w.Category),
		Price:       float64(w.Price),
		Quantity:    int(w.Quantity),
		Color:       string(w.Color),
		Status:      string(w.Status),
		NoSize:      noSize,
		Sizes:       sizes,
		Images:      []string(w.Images),
		CreatedAt:   w.CreatedAt.Time(),
	}
}

type requirementWire struct {
	ID             Int      `json:"id"`
	ProductID      Int      `json:"product_id"`
	MaterialID     Int      `json:"material_id"`
	MaterialName   Text     `json:"material_name"`
	QuantityNeeded Quantity `json:"quantity_needed"`
	QuantityTypeID Int      `json:"quantity_type_id"`
	QuantityType   Text     `json:"quantity_type_name"`
	SizeSpecific   *Text    `json:"size_specific"`
	Notes          Text     `json:"notes"`
	Commentaire    Text     `json:"commentaire"`
}

func (w requirementWire) toModel() models.ProductMaterialRequirement {
	var size *string
	if w.SizeSpecific != nil && !models.IsNoSizeLabel(string(*w.SizeSpecific)) {
		s := string(*w.SizeSpecific)
		size = &s
	}
	return models.ProductMaterialRequirement{
		ID:             int64(w.ID),
		ProductID:      int64(w.ProductID),
		MaterialID:     int64(w.MaterialID),
		MaterialName:   string(w.MaterialName),
		QuantityNeeded: w.QuantityNeeded.Decimal(),
		QuantityTypeID: int64(w.QuantityTypeID),
		QuantityType:   string(w.QuantityType),
		SizeSpecific:   size,
		Notes:          string(w.Notes),
		Commentaire:    string(w.Commentaire),
	}
}

// requirementPayload is one row of a configure_product_materials request.
type requirementPayload struct {
	MaterialID     int64           `json:"material_id"`
	QuantityNeeded decimal.Decimal `json:"quantity_needed"`
	QuantityTypeID int64           `json:"quantity_type_id,omitempty"`
	SizeSpecific   *string         `json:"size_specific"`
	Notes          string          `json:"notes"`
	Commentaire    string          `json:"commentaire"`
}

// ListClients returns the subcontracting clients.
func (c *APIClient) ListClients(ctx context.Context) ([]models.SoustraitanceClient, error) {
	var wires []clientWire
	if err := c.get(ctx, clientsEndpoint, nil, &wires); err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	out := make([]models.SoustraitanceClient, 0, len(wires))
	for _, w := range wires {
		out = append(out, models.SoustraitanceClient{
			ID:        int64(w.ID),
			Name:      string(w.Name),
			Email:     string(w.Email),
			Phone:     string(w.Phone),
			Address:   string(w.Address),
			Website:   string(w.Website),
			CreatedAt: w.CreatedAt.Time(),
		})
	}
	return out, nil
}

// ListProducts returns subcontracted products, optionally for one client.
func (c *APIClient) ListProducts(ctx context.Context, clientID int64) ([]models.SoustraitanceProduct, error) {
	var query map[string]string
	if clientID > 0 {
		query = map[string]string{"client_id": strconv.FormatInt(clientID, 10)}
	}
	var wires []productWire
	if err := c.get(ctx, productsEndpoint, query, &wires); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out := make([]models.SoustraitanceProduct, 0, len(wires))
	for _, w := range wires {
		out = append(out, w.toModel())
	}
	return out, nil
}

// GetProduct returns a subcontracted product.
func (c *APIClient) GetProduct(ctx context.Context, id int64) (models.SoustraitanceProduct, error) {
	var wire productWire
	if err := c.get(ctx, productsEndpoint, idQuery(id), &wire); err != nil {
		return models.SoustraitanceProduct{}, fmt.Errorf("get product %d: %w", id, err)
	}
	return wire.toModel(), nil
}

// CreateProduct validates and creates a subcontracted product.
func (c *APIClient) CreateProduct(ctx context.Context, in models.SoustraitanceProductInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	data, _, err := c.do(ctx, call{method: http.MethodPost, endpoint: productsEndpoint, body: in})
	if err != nil {
		return 0, fmt.Errorf("create product: %w", err)
	}
	return idFrom(data), nil
}

// UpdateProduct validates and updates a subcontracted product.
func (c *APIClient) UpdateProduct(ctx context.Context, id int64, in models.SoustraitanceProductInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	body := struct {
		ID int64 `json:"id"`
		models.SoustraitanceProductInput
	}{ID: id, SoustraitanceProductInput: in}
	if _, _, err := c.do(ctx, call{method: http.MethodPut, endpoint: productsEndpoint, query: idQuery(id), body: body}); err != nil {
		return fmt.Errorf("update product %d: %w", id, err)
	}
	return nil
}

// DeleteProduct removes a subcontracted product.
func (c *APIClient) DeleteProduct(ctx context.Context, id int64) error {
	if _, _, err := c.do(ctx, call{method: http.MethodDelete, endpoint: productsEndpoint, query: idQuery(id)}); err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	return nil
}

// ListProductMaterials returns the material requirement rows of a product.
func (c *APIClient) ListProductMaterials(ctx context.Context, productID int64) ([]models.ProductMaterialRequirement, error) {
	var wires []requirementWire
	query := map[string]string{"product_id": strconv.FormatInt(productID, 10)}
	if err := c.get(ctx, productMaterialsEndpoint, query, &wires); err != nil {
		return nil, fmt.Errorf("list product %d materials: %w", productID, err)
	}
	out := make([]models.ProductMaterialRequirement, 0, len(wires))
	for _, w := range wires {
		out = append(out, w.toModel())
	}
	return out, nil
}

// ConfigureProductMaterials replaces the whole requirement set of a product in one call.
func (c *APIClient) ConfigureProductMaterials(ctx context.Context, productID int64, rows []models.ProductMaterialRequirement) error {
	payload := make([]requirementPayload, 0, len(rows))
	for _, row := range rows {
		payload = append(payload, requirementPayload{
			MaterialID:     row.MaterialID,
			QuantityNeeded: row.QuantityNeeded,
			QuantityTypeID: row.QuantityTypeID,
			SizeSpecific:   row.SizeSpecific,
			Notes:          row.Notes,
			Commentaire:    row.Commentaire,
		})
	}

	body := map[string]any{
		"action":     "configure_product_materials",
		"product_id": productID,
		"materials":  payload,
	}
	if _, _, err := c.do(ctx, call{method: http.MethodPost, endpoint: productMaterialsEndpoint, body: body}); err != nil {
		return fmt.Errorf("configure product %d materials: %w", productID, err)
	}
	return nil
}
