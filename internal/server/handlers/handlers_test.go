package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/luccibyey/atelier/internal/domain/models"
	"github.com/luccibyey/atelier/internal/repository/mongodb"
	"github.com/luccibyey/atelier/internal/service/batches"
	"github.com/luccibyey/atelier/internal/service/planning"
	"github.com/luccibyey/atelier/internal/service/requirements"
	"github.com/luccibyey/atelier/internal/service/statistics"
	"github.com/luccibyey/atelier/internal/service/stock"
	"github.com/luccibyey/atelier/pkg/clients/erpapi"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var manager = models.CurrentUser{ID: 4, Name: "Amel", Role: models.RoleManager}

// serve runs one request through a bare engine, with user set when non-zero.
func serve(method, route, target, body string, user models.CurrentUser, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	r := gin.New()
	r.Handle(method, route, func(c *gin.Context) {
		if user.ID != 0 {
			SetCurrentUser(c, user)
		}
		handler(c)
	})

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{models.ValidationErrors{"title": "Le titre est requis"}, http.StatusUnprocessableEntity},
		{fmt.Errorf("wrapped: %w", models.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("%w: termine -> planifie", models.ErrInvalidTransition), http.StatusConflict},
		{planning.ErrNotValidated, http.StatusConflict},
		{requirements.ErrNothingToRetry, http.StatusConflict},
		{mongodb.ErrNoSnapshot, http.StatusNotFound},
		{statistics.ErrTrendUnavailable, http.StatusServiceUnavailable},
		{&erpapi.APIError{Endpoint: "matieres.php", StatusCode: 404}, http.StatusNotFound},
		{fmt.Errorf("load: %w", &erpapi.APIError{Endpoint: "matieres.php", StatusCode: 500}), http.StatusBadGateway},
		{erpapi.ErrMalformedResponse, http.StatusBadGateway},
		{fmt.Errorf("GET matieres.php: %w: dial tcp: connection refused", erpapi.ErrUnavailable), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusOf(tc.err); got != tc.want {
			t.Errorf("statusOf(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

type fakeStock struct {
	materials []models.Material
	created   []models.MaterialInput
	gotSort   stock.SortKey
}

func (f *fakeStock) Overview(_ context.Context, filter stock.MaterialFilter, key stock.SortKey) ([]stock.Level, stock.Summary, error) {
	f.gotSort = key
	levels := stock.SortLevels(stock.FilterMaterials(stock.EvaluateAll(f.materials), filter), key)
	return levels, stock.Summarize(levels), nil
}

func (f *fakeStock) Details(_ context.Context, id int64) (stock.MaterialDetails, error) {
	return stock.MaterialDetails{}, &erpapi.APIError{Endpoint: "matieres.php", StatusCode: 404, Message: "Matière introuvable"}
}

func (f *fakeStock) CreateMaterial(_ context.Context, user models.CurrentUser, in models.MaterialInput, _ *erpapi.Attachment) (int64, error) {
	if !user.CanManageStock() {
		return 0, models.ErrForbidden
	}
	if err := in.Validate(); err != nil {
		return 0, err
	}
	f.created = append(f.created, in)
	return 42, nil
}

func (f *fakeStock) UpdateMaterial(context.Context, models.CurrentUser, int64, models.MaterialInput, *erpapi.Attachment) error {
	return nil
}

func (f *fakeStock) DeleteMaterial(context.Context, models.CurrentUser, int64) error { return nil }

func (f *fakeStock) Transactions(context.Context, stock.TransactionFilter) ([]models.StockTransaction, error) {
	return nil, nil
}

func (f *fakeStock) CancelTransaction(context.Context, models.CurrentUser, int64) error { return nil }

func (f *fakeStock) Divergences(context.Context) ([]stock.Divergence, error) { return nil, nil }

var materials = []models.Material{
	{ID: 1, Title: "Tissu Coton", QuantityTotal: 3, LowestQuantityNeeded: 15, MediumQuantityNeeded: 30, GoodQuantityNeeded: 60, QuantityType: "mètres"},
	{ID: 2, Title: "Bouton nacre", QuantityTotal: 400, LowestQuantityNeeded: 50, MediumQuantityNeeded: 100, GoodQuantityNeeded: 200, QuantityType: "pièces"},
}

func TestListMaterials(t *testing.T) {
	svc := &fakeStock{materials: materials}
	h := NewStockHandler(svc, nil, nil)

	w := serve(http.MethodGet, "/materials", "/materials?status=critical&sort=name", "", models.CurrentUser{}, h.ListMaterials)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body)
	}
	var body struct {
		Materials []stock.Level `json:"materials"`
		Summary   stock.Summary `json:"summary"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Materials) != 1 || body.Materials[0].ID != 1 || body.Summary.Total != 1 {
		t.Errorf("body = %+v", body)
	}
	if svc.gotSort != stock.SortByName {
		t.Errorf("sort = %q", svc.gotSort)
	}
}

func TestListMaterialsRejectsUnknownSort(t *testing.T) {
	h := NewStockHandler(&fakeStock{}, nil, nil)
	w := serve(http.MethodGet, "/materials", "/materials?sort=colour", "", models.CurrentUser{}, h.ListMaterials)
	if w.Code != http.StatusUnprocessableEntity || !strings.Contains(w.Body.String(), "sort") {
		t.Errorf("status = %d body = %s", w.Code, w.Body)
	}
}

func TestExportMaterials(t *testing.T) {
	h := NewStockHandler(&fakeStock{materials: materials}, nil, nil)
	w := serve(http.MethodGet, "/materials/export.xlsx", "/materials/export.xlsx", "", models.CurrentUser{}, h.ExportMaterials)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != xlsxContentType {
		t.Errorf("content type = %q", got)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), ".xlsx") {
		t.Errorf("disposition = %q", w.Header().Get("Content-Disposition"))
	}

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Stock")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("rows = %d, want header + 2", len(rows))
	}
}

func TestGetMaterialNotFound(t *testing.T) {
	h := NewStockHandler(&fakeStock{}, nil, nil)
	w := serve(http.MethodGet, "/materials/:id", "/materials/99", "", models.CurrentUser{}, h.GetMaterial)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d", w.Code)
	}

	w = serve(http.MethodGet, "/materials/:id", "/materials/abc", "", models.CurrentUser{}, h.GetMaterial)
	if w.Code != http.StatusBadRequest {
		t.Errorf("non-numeric id status = %d", w.Code)
	}
}

func TestCreateMaterial(t *testing.T) {
	svc := &fakeStock{}
	h := NewStockHandler(svc, nil, nil)
	valid := `{"title":"Fil noir","quantity_type_id":2,"quantity_total":10,"lowest_quantity_needed":5,"medium_quantity_needed":10,"good_quantity_needed":20,"materiere_type":"intern"}`

	w := serve(http.MethodPost, "/materials", "/materials", valid, manager, h.CreateMaterial)
	if w.Code != http.StatusCreated || !strings.Contains(w.Body.String(), `"id":42`) {
		t.Errorf("status = %d body = %s", w.Code, w.Body)
	}

	w = serve(http.MethodPost, "/materials", "/materials", valid, models.CurrentUser{}, h.CreateMaterial)
	if w.Code != http.StatusForbidden {
		t.Errorf("anonymous status = %d", w.Code)
	}

	w = serve(http.MethodPost, "/materials", "/materials", `{"title":"","quantity_type_id":2,"materiere_type":"intern"}`, manager, h.CreateMaterial)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid status = %d", w.Code)
	}
	var body struct {
		Fields map[string]string `json:"fields"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Fields["title"] != "Le titre est requis" {
		t.Errorf("fields = %v", body.Fields)
	}

	w = serve(http.MethodPost, "/materials", "/materials", `{"title":`, manager, h.CreateMaterial)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed status = %d", w.Code)
	}
	if len(svc.created) != 1 {
		t.Errorf("created = %d", len(svc.created))
	}
}

type fakeRequirements struct {
	saveErr error
}

func (f *fakeRequirements) Configuration(_ context.Context, productID int64) (requirements.Configuration, error) {
	return requirements.Configuration{ProductID: productID, Sizes: []string{"S", "M"}}, nil
}

func (f *fakeRequirements) Open(context.Context, int64, int64) (requirements.Draft, error) {
	return requirements.Draft{}, nil
}

func (f *fakeRequirements) Configure(_ context.Context, productID, materialID int64, in requirements.DraftInput) (requirements.Configuration, error) {
	cfg := requirements.Configuration{ProductID: productID}
	if f.saveErr != nil {
		cfg.LastFailure = &requirements.SaveFailure{Message: f.saveErr.Error(), At: time.Now()}
	}
	return cfg, f.saveErr
}

func (f *fakeRequirements) Remove(_ context.Context, productID, _ int64) (requirements.Configuration, error) {
	return requirements.Configuration{ProductID: productID}, nil
}

func (f *fakeRequirements) Retry(context.Context, int64) (requirements.Configuration, error) {
	return requirements.Configuration{}, requirements.ErrNothingToRetry
}

func (f *fakeRequirements) Breakdown(context.Context, int64, int64) (requirements.MaterialBreakdown, error) {
	return requirements.MaterialBreakdown{}, nil
}

func TestConfigureSavedLocallyOnly(t *testing.T) {
	h := NewRequirementsHandler(&fakeRequirements{saveErr: errors.New("erp unreachable")}, nil)
	w := serve(http.MethodPut, "/products/:id/materials/:materialId", "/products/3/materials/7",
		`{"quantities":{"S":"1.5"}}`, manager, h.Configure)
	if w.Code != http.StatusAccepted || !strings.Contains(w.Body.String(), "last_failure") {
		t.Errorf("status = %d body = %s", w.Code, w.Body)
	}
}

func TestConfigureSaved(t *testing.T) {
	h := NewRequirementsHandler(&fakeRequirements{}, nil)
	w := serve(http.MethodPut, "/products/:id/materials/:materialId", "/products/3/materials/7",
		`{"quantities":{"S":"1.5"}}`, manager, h.Configure)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d body = %s", w.Code, w.Body)
	}
}

func TestRetryWithoutFailure(t *testing.T) {
	h := NewRequirementsHandler(&fakeRequirements{}, nil)
	w := serve(http.MethodPost, "/products/:id/materials/retry", "/products/3/materials/retry", "", manager, h.Retry)
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d", w.Code)
	}
}

type fakePlanning struct {
	startErr error
	batchID  int64
}

func (f *fakePlanning) Load(context.Context, int64, models.ProductKind) (models.PlanningContext, error) {
	return models.PlanningContext{}, nil
}

func (f *fakePlanning) Estimate(context.Context, int64, map[string]int) (planning.Estimate, error) {
	return planning.Estimate{}, nil
}

func (f *fakePlanning) Validate(context.Context, models.PlanningRequest) (models.ValidationResult, error) {
	return models.ValidationResult{Success: true, CanProduce: true}, nil
}

func (f *fakePlanning) Start(context.Context, models.CurrentUser, models.PlanningRequest) (models.StartProductionResult, error) {
	return models.StartProductionResult{BatchID: f.batchID, BatchReference: "LOT-2024-001"}, f.startErr
}

func TestStartProduction(t *testing.T) {
	body := `{"product_id":3,"planned_quantities":{"S":10}}`
	cases := []struct {
		name string
		svc  *fakePlanning
		want int
	}{
		{"created", &fakePlanning{batchID: 12}, http.StatusCreated},
		{"not validated", &fakePlanning{startErr: planning.ErrNotValidated}, http.StatusConflict},
		{"deduction failed", &fakePlanning{batchID: 12, startErr: errors.New("deduct stock: timeout")}, http.StatusAccepted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewPlanningHandler(tc.svc, nil)
			w := serve(http.MethodPost, "/planning/start", "/planning/start", body, manager, h.Start)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tc.want, w.Body)
			}
		})
	}
}

type fakeBatches struct{}

func (fakeBatches) List(context.Context) ([]models.ProductionBatch, error) { return nil, nil }

func (fakeBatches) UpdateStatus(_ context.Context, user models.CurrentUser, id int64, update batches.StatusUpdate) (models.ProductionBatch, error) {
	if !user.CanManageProduction() {
		return models.ProductionBatch{}, models.ErrForbidden
	}
	return models.ProductionBatch{ID: id, Status: update.Status}, nil
}

func (fakeBatches) History(context.Context, int64) ([]models.StatusChange, error) { return nil, nil }

func TestUpdateBatchStatus(t *testing.T) {
	h := NewBatchHandler(fakeBatches{}, nil)

	w := serve(http.MethodPost, "/batches/:id/status", "/batches/5/status", `{"status":"en_cours"}`, manager, h.UpdateStatus)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"en_cours"`) {
		t.Errorf("status = %d body = %s", w.Code, w.Body)
	}

	w = serve(http.MethodPost, "/batches/:id/status", "/batches/5/status", `{"comments":"x"}`, manager, h.UpdateStatus)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing status: %d", w.Code)
	}

	viewer := models.CurrentUser{ID: 9, Role: models.RoleViewer}
	w = serve(http.MethodPost, "/batches/:id/status", "/batches/5/status", `{"status":"en_cours"}`, viewer, h.UpdateStatus)
	if w.Code != http.StatusForbidden {
		t.Errorf("viewer: %d", w.Code)
	}
}

type fakeStats struct {
	start, end time.Time
}

func (f *fakeStats) Dashboard(context.Context) (statistics.Summary, error) {
	return statistics.Summary{BatchCount: 2}, nil
}

func (f *fakeStats) Trend(_ context.Context, start, end time.Time) (statistics.ScanTrend, error) {
	f.start, f.end = start, end
	return statistics.ScanTrend{Scans: 1}, nil
}

func TestTrendDates(t *testing.T) {
	stats := &fakeStats{}
	h := NewReportsHandler(stats, nil, nil, nil)

	w := serve(http.MethodGet, "/statistics/trend", "/statistics/trend?start=2024-05-01&end=2024-05-07", "", models.CurrentUser{}, h.Trend)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body)
	}
	if stats.start.Day() != 1 || stats.end.Day() != 7 || stats.end.Hour() != 23 {
		t.Errorf("range = %v - %v", stats.start, stats.end)
	}

	w = serve(http.MethodGet, "/statistics/trend", "/statistics/trend?start=01/05/2024", "", models.CurrentUser{}, h.Trend)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad date status = %d", w.Code)
	}

	w = serve(http.MethodGet, "/statistics/trend", "/statistics/trend?start=2024-05-07&end=2024-05-01", "", models.CurrentUser{}, h.Trend)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("inverted range status = %d", w.Code)
	}
}

type emptySnapshots struct{}

func (emptySnapshots) LatestSnapshot(context.Context) (models.StockSnapshot, error) {
	return models.StockSnapshot{}, mongodb.ErrNoSnapshot
}

func (emptySnapshots) ListSnapshots(context.Context, int64) ([]models.StockSnapshot, error) {
	return []models.StockSnapshot{}, nil
}

func TestSnapshots(t *testing.T) {
	unconfigured := NewReportsHandler(&fakeStats{}, nil, nil, nil)
	w := serve(http.MethodGet, "/snapshots/latest", "/snapshots/latest", "", models.CurrentUser{}, unconfigured.LatestSnapshot)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("unconfigured status = %d", w.Code)
	}

	h := NewReportsHandler(&fakeStats{}, emptySnapshots{}, nil, nil)
	w = serve(http.MethodGet, "/snapshots/latest", "/snapshots/latest", "", models.CurrentUser{}, h.LatestSnapshot)
	if w.Code != http.StatusNotFound {
		t.Errorf("empty store status = %d", w.Code)
	}

	w = serve(http.MethodGet, "/snapshots", "/snapshots?limit=-1", "", models.CurrentUser{}, h.ListSnapshots)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad limit status = %d", w.Code)
	}
}

type partialScanner struct{}

func (partialScanner) Scan(context.Context) (models.StockSnapshot, error) {
	return models.StockSnapshot{ID: "snap-9"}, errors.New("sheets quota exceeded")
}

func TestScanOnDemand(t *testing.T) {
	h := NewReportsHandler(&fakeStats{}, nil, partialScanner{}, nil)

	w := serve(http.MethodPost, "/snapshots/scan", "/snapshots/scan", "", models.CurrentUser{}, h.Scan)
	if w.Code != http.StatusForbidden {
		t.Errorf("anonymous status = %d", w.Code)
	}

	w = serve(http.MethodPost, "/snapshots/scan", "/snapshots/scan", "", manager, h.Scan)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "snap-9") || !strings.Contains(w.Body.String(), "quota") {
		t.Errorf("status = %d body = %s", w.Code, w.Body)
	}
}
