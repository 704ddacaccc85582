package erpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/luccibyey/atelier/internal/domain/models"
)

const (
	materialsEndpoint     = "matieres.php"
	categoriesEndpoint    = "matieres_category.php"
	quantityTypesEndpoint = "quantity_types.php"
)

type materialWire struct {
	ID                   Int       `json:"id"`
	Reference            Text      `json:"reference"`
	Title                Text      `json:"title"`
	Description          Text      `json:"description"`
	Color                Text      `json:"color"`
	CategoryID           Int       `json:"category_id"`
	CategoryName         Text      `json:"category_name"`
	Location             Text      `json:"location"`
	QuantityTotal        Number    `json:"quantity_total"`
	QuantityTypeID       Int       `json:"quantity_type_id"`
	QuantityType         Text      `json:"quantity_type"`
	LowestQuantityNeeded Number    `json:"lowest_quantity_needed"`
	MediumQuantityNeeded Number    `json:"medium_quantity_needed"`
	GoodQuantityNeeded   Number    `json:"good_quantity_needed"`
	Price                Number    `json:"price"`
	MaterialType         Text      `json:"materiere_type"`
	ExternCustomerID     Int       `json:"extern_customer_id"`
	ExternCustomerName   Text      `json:"extern_customer_name"`
	IsReplacable         Bool      `json:"is_replacable"`
	ReplacableMaterialID Int       `json:"replacable_material_id"`
	Image                Text      `json:"image"`
	Active               *Bool     `json:"active"`
	Status               Text      `json:"status"`
	ProgressPercentage   Number    `json:"progress_percentage"`
	CreatedAt            Timestamp `json:"created_at"`
	UpdatedAt            Timestamp `json:"updated_at"`
}

func (w materialWire) toModel() models.Material {
	materialType := models.MaterialType(w.MaterialType)
	if materialType != models.MaterialExtern {
		materialType = models.MaterialIntern
	}
	active := true
	if w.Active != nil {
		active = bool(*w.Active)
	}

	return models.Material{
		ID:                   int64(w.ID),
		Reference:            string(w.Reference),
		Title:                string(w.Title),
		Description:          string(w.Description),
		Color:                string(w.Color),
		CategoryID:           int64(w.CategoryID),
		CategoryName:         string(w.CategoryName),
		Location:             string(w.Location),
		QuantityTotal:        float64(w.QuantityTotal),
		QuantityTypeID:       int64(w.QuantityTypeID),
		QuantityType:         string(w.QuantityType),
		LowestQuantityNeeded: float64(w.LowestQuantityNeeded),
		MediumQuantityNeeded: float64(w.MediumQuantityNeeded),
		GoodQuantityNeeded:   float64(w.GoodQuantityNeeded),
		Price:                float64(w.Price),
		MaterialType:         materialType,
		ExternCustomerID:     w.ExternCustomerID.Ptr(),
		ExternCustomerName:   string(w.ExternCustomerName),
		IsReplacable:         bool(w.IsReplacable),
		ReplacableMaterialID: w.ReplacableMaterialID.Ptr(),
		Image:                string(w.Image),
		Active:               active,
		Status:               models.ParseStockStatus(string(w.Status)),
		ProgressPercentage:   float64(w.ProgressPercentage),
		CreatedAt:            w.CreatedAt.Time(),
		UpdatedAt:            w.UpdatedAt.Time(),
	}
}

type categoryWire struct {
	ID          Int   `json:"id"`
	Name        Text  `json:"nom"`
	Description Text  `json:"description"`
	Active      *Bool `json:"active"`
}

type quantityTypeWire struct {
	ID     Int   `json:"id"`
	Name   Text  `json:"nom"`
	Unit   Text  `json:"unite"`
	Active *Bool `json:"active"`
}

func materialsFrom(wires []materialWire) []models.Material {
	out := make([]models.Material, 0, len(wires))
	for _, w := range wires {
		out = append(out, w.toModel())
	}
	return out
}

// ListMaterials returns every material.
func (c *APIClient) ListMaterials(ctx context.Context) ([]models.Material, error) {
	var wires []materialWire
	if err := c.get(ctx, materialsEndpoint, nil, &wires); err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	return materialsFrom(wires), nil
}

// StockLevels returns materials with the server-computed status and progress.
func (c *APIClient) StockLevels(ctx context.Context) ([]models.Material, error) {
	var wires []materialWire
	if err := c.get(ctx, materialsEndpoint, map[string]string{"stock_levels": "true"}, &wires); err != nil {
		return nil, fmt.Errorf("stock levels: %w", err)
	}
	return materialsFrom(wires), nil
}

// GetMaterial returns a single material.
func (c *APIClient) GetMaterial(ctx context.Context, id int64) (models.Material, error) {
	var wire materialWire
	if err := c.get(ctx, materialsEndpoint, idQuery(id), &wire); err != nil {
		return models.Material{}, fmt.Errorf("get material %d: %w", id, err)
	}
	return wire.toModel(), nil
}

// CreateMaterial validates and creates a material. The request is multipart
// when an image is attached and JSON otherwise.
func (c *APIClient) CreateMaterial(ctx context.Context, in models.MaterialInput, image *Attachment) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}

	req := call{method: http.MethodPost, endpoint: materialsEndpoint}
	if image != nil {
		req.form = materialForm(in)
		req.file = image
	} else {
		req.body = in
	}

	data, _, err := c.do(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("create material: %w", err)
	}
	return idFrom(data), nil
}

// UpdateMaterial validates and updates a material.
func (c *APIClient) UpdateMaterial(ctx context.Context, id int64, in models.MaterialInput, image *Attachment) error {
	if err := in.Validate(); err != nil {
		return err
	}

	req := call{method: http.MethodPut, endpoint: materialsEndpoint, query: idQuery(id)}
	if image != nil {
		// PHP only parses multipart bodies on POST.
		req.method = http.MethodPost
		req.form = materialForm(in)
		req.form["id"] = strconv.FormatInt(id, 10)
		req.file = image
	} else {
		req.body = struct {
			ID int64 `json:"id"`
			models.MaterialInput
		}{ID: id, MaterialInput: in}
	}

	if _, _, err := c.do(ctx, req); err != nil {
		return fmt.Errorf("update material %d: %w", id, err)
	}
	return nil
}

// DeleteMaterial removes a material.
func (c *APIClient) DeleteMaterial(ctx context.Context, id int64) error {
	if _, _, err := c.do(ctx, call{method: http.MethodDelete, endpoint: materialsEndpoint, query: idQuery(id)}); err != nil {
		return fmt.Errorf("delete material %d: %w", id, err)
	}
	return nil
}

// ListCategories returns material categories.
func (c *APIClient) ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	var query map[string]string
	if activeOnly {
		query = map[string]string{"active_only": "true"}
	}

	var wires []categoryWire
	if err := c.get(ctx, categoriesEndpoint, query, &wires); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	out := make([]models.Category, 0, len(wires))
	for _, w := range wires {
		out = append(out, models.Category{
			ID:          int64(w.ID),
			Name:        string(w.Name),
			Description: string(w.Description),
			Active:      w.Active == nil || bool(*w.Active),
		})
	}
	return out, nil
}

// ListQuantityTypes returns the unit-of-measure catalog. The endpoint answers
// either with an envelope or with a bare array.
func (c *APIClient) ListQuantityTypes(ctx context.Context) ([]models.QuantityType, error) {
	var wires []quantityTypeWire
	if err := c.get(ctx, quantityTypesEndpoint, nil, &wires); err != nil {
		return nil, fmt.Errorf("list quantity types: %w", err)
	}

	out := make([]models.QuantityType, 0, len(wires))
	for _, w := range wires {
		out = append(out, models.QuantityType{
			ID:     int64(w.ID),
			Name:   string(w.Name),
			Unit:   string(w.Unit),
			Active: w.Active == nil || bool(*w.Active),
		})
	}
	return out, nil
}

func materialForm(in models.MaterialInput) map[string]string {
	form := map[string]string{
		"reference":              in.Reference,
		"title":                  in.Title,
		"description":            in.Description,
		"color":                  in.Color,
		"location":               in.Location,
		"category_id":            strconv.FormatInt(in.CategoryID, 10),
		"quantity_total":         formatFloat(in.QuantityTotal),
		"quantity_type_id":       strconv.FormatInt(in.QuantityTypeID, 10),
		"lowest_quantity_needed": formatFloat(in.LowestQuantityNeeded),
		"medium_quantity_needed": formatFloat(in.MediumQuantityNeeded),
		"good_quantity_needed":   formatFloat(in.GoodQuantityNeeded),
		"price":                  formatFloat(in.Price),
		"materiere_type":         string(in.MaterialType),
		"is_replacable":          boolFlag(in.IsReplacable),
	}
	if in.ExternCustomerID != nil {
		form["extern_customer_id"] = strconv.FormatInt(*in.ExternCustomerID, 10)
	}
	if in.ReplacableMaterialID != nil {
		form["replacable_material_id"] = strconv.FormatInt(*in.ReplacableMaterialID, 10)
	}
	return form
}

func idQuery(id int64) map[string]string {
	return map[string]string{"id": strconv.FormatInt(id, 10)}
}

func idFrom(data []byte) int64 {
	var withID struct {
		ID Int `json:"id"`
	}
	if decode("id", data, &withID) == nil {
		return int64(withID.ID)
	}
	return 0
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func boolFlag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
