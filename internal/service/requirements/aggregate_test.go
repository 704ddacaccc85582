package requirements

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/luccibyey/atelier/internal/domain/models"
)

func TestBreakdown(t *testing.T) {
	rows := []models.ProductMaterialRequirement{
		{MaterialID: 7, MaterialName: "Tissu Coton", QuantityType: "mètres", QuantityNeeded: decimal.RequireFromString("1.5"), SizeSpecific: strptr("S")},
		{MaterialID: 7, MaterialName: "Tissu Coton", QuantityType: "mètres", QuantityNeeded: dec(2), SizeSpecific: strptr("L")},
		{MaterialID: 9, MaterialName: "Fil", QuantityNeeded: dec(10), SizeSpecific: strptr("S")},
	}
	b := Breakdown(rows, 7, []string{"S", "M", "L"})

	if b.MaterialName != "Tissu Coton" || !b.Total.Equal(decimal.RequireFromString("3.5")) {
		t.Errorf("breakdown header = %+v", b)
	}
	want := []string{"1.5", "0", "2"}
	for i, line := range b.PerSize {
		if !line.Quantity.Equal(decimal.RequireFromString(want[i])) {
			t.Errorf("%s = %s, want %s", line.Size, line.Quantity, want[i])
		}
	}
}

func TestAggregate(t *testing.T) {
	rows := []models.ProductMaterialRequirement{
		{MaterialID: 7, MaterialName: "Tissu Coton", QuantityNeeded: decimal.RequireFromString("1.5"), SizeSpecific: strptr("S")},
		{MaterialID: 7, MaterialName: "Tissu Coton", QuantityNeeded: dec(2), SizeSpecific: strptr("L")},
		{MaterialID: 3, MaterialName: "Bouton", QuantityNeeded: dec(4)},
	}
	needs := Aggregate(rows, []string{"S", "M", "L"}, map[string]int{"S": 10, "M": 0, "L": 5})

	if len(needs) != 2 {
		t.Fatalf("got %d needs, want 2", len(needs))
	}
	bouton, tissu := needs[0], needs[1]
	if bouton.MaterialID != 3 || !bouton.Total.Equal(dec(60)) {
		t.Errorf("bouton = %+v", bouton)
	}
	if tissu.MaterialID != 7 || !tissu.Total.Equal(dec(25)) {
		t.Errorf("tissu = %+v", tissu)
	}
	if len(tissu.PerSize) != 2 || tissu.PerSize[0].Size != "S" || !tissu.PerSize[0].Quantity.Equal(dec(15)) ||
		tissu.PerSize[1].Size != "L" || !tissu.PerSize[1].Quantity.Equal(dec(10)) {
		t.Errorf("tissu per size = %+v", tissu.PerSize)
	}
}

func TestAggregateSizeRowOverridesSizelessRow(t *testing.T) {
	rows := []models.ProductMaterialRequirement{
		{MaterialID: 7, MaterialName: "Tissu Coton", QuantityNeeded: dec(1)},
		{MaterialID: 7, MaterialName: "Tissu Coton", QuantityNeeded: dec(2), SizeSpecific: strptr("S")},
	}
	sizes := []string{"S", "M"}

	draft := OpenDraft(coton, sizes, rows)
	if !draft.Quantities["S"].Equal(dec(2)) || !draft.Quantities["M"].Equal(dec(1)) {
		t.Fatalf("draft = %v", draft.Quantities)
	}

	needs := Aggregate(rows, sizes, map[string]int{"S": 10, "M": 10})
	if len(needs) != 1 {
		t.Fatalf("got %d needs, want 1", len(needs))
	}
	need := needs[0]
	if !need.Total.Equal(dec(30)) {
		t.Errorf("total = %s, want 30", need.Total)
	}
	want := []SizeQuantity{{Size: "S", Quantity: dec(20)}, {Size: "M", Quantity: dec(10)}}
	if len(need.PerSize) != len(want) {
		t.Fatalf("per size = %+v", need.PerSize)
	}
	for i, line := range need.PerSize {
		if line.Size != want[i].Size || !line.Quantity.Equal(want[i].Quantity) {
			t.Errorf("line %d = %+v, want %+v", i, line, want[i])
		}
	}
}

func TestAggregateFollowsConfiguredSizeOrder(t *testing.T) {
	rows := []models.ProductMaterialRequirement{
		{MaterialID: 3, MaterialName: "Bouton", QuantityNeeded: dec(4)},
	}
	needs := Aggregate(rows, []string{"XS", "S", "M", "L", "XL"}, map[string]int{"XL": 1, "S": 1, "L": 1, "M": 1})

	var got []string
	for _, line := range needs[0].PerSize {
		got = append(got, line.Size)
	}
	want := []string{"S", "M", "L", "XL"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("sizes = %v, want %v", got, want)
	}
}

type fakeProductAPI struct {
	recordingStore
	product   models.SoustraitanceProduct
	materials map[int64]models.Material
	rows      []models.ProductMaterialRequirement
	loads     int
	rowLoads  int
}

func (f *fakeProductAPI) GetProduct(context.Context, int64) (models.SoustraitanceProduct, error) {
	f.loads++
	return f.product, nil
}

func (f *fakeProductAPI) GetMaterial(_ context.Context, id int64) (models.Material, error) {
	return f.materials[id], nil
}

func (f *fakeProductAPI) ListProductMaterials(context.Context, int64) ([]models.ProductMaterialRequirement, error) {
	f.rowLoads++
	return append([]models.ProductMaterialRequirement(nil), f.rows...), nil
}

func (f *fakeProductAPI) ConfigureProductMaterials(ctx context.Context, productID int64, rows []models.ProductMaterialRequirement) error {
	if err := f.recordingStore.ConfigureProductMaterials(ctx, productID, rows); err != nil {
		return err
	}
	f.rows = append([]models.ProductMaterialRequirement(nil), rows...)
	return nil
}

func TestServiceConfigureTissuCoton(t *testing.T) {
	api := &fakeProductAPI{
		product:   models.SoustraitanceProduct{ID: 42, Sizes: []string{"S", "M", "L"}},
		materials: map[int64]models.Material{7: coton},
	}
	svc := NewService(api, nil)
	ctx := context.Background()

	cfg, err := svc.Configure(ctx, 42, 7, DraftInput{
		Quantities: map[string]decimal.Decimal{"S": decimal.RequireFromString("1.2")},
		ApplyToAll: true,
	})
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if len(cfg.Rows) != 3 || len(api.calls) != 1 {
		t.Fatalf("rows = %d, calls = %d", len(cfg.Rows), len(api.calls))
	}
	for _, row := range api.last() {
		if !row.QuantityNeeded.Equal(decimal.RequireFromString("1.2")) || row.QuantityTypeID != 2 {
			t.Errorf("row = %+v", row)
		}
	}

	if _, err := svc.Configure(ctx, 42, 7, DraftInput{Quantities: map[string]decimal.Decimal{"XXL": dec(1)}}); err == nil {
		t.Error("expected error for unconfigured size")
	}

	cfg, err = svc.Remove(ctx, 42, 7)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(cfg.Rows) != 0 || len(api.last()) != 0 {
		t.Errorf("rows after remove = %+v", cfg.Rows)
	}
	if api.loads != 1 {
		t.Errorf("product loaded %d times, want 1", api.loads)
	}
}

func TestServiceSavesOnTopOfServerRows(t *testing.T) {
	api := &fakeProductAPI{
		product:   models.SoustraitanceProduct{ID: 42, Sizes: []string{"S", "M"}},
		materials: map[int64]models.Material{3: {ID: 3, Title: "Bouton"}},
	}
	svc := NewService(api, nil)
	ctx := context.Background()

	if _, err := svc.Configuration(ctx, 42); err != nil {
		t.Fatalf("Configuration: %v", err)
	}

	// Another writer adds a row behind the cached editor.
	api.rows = append(api.rows, models.ProductMaterialRequirement{ProductID: 42, MaterialID: 9, QuantityNeeded: dec(2), SizeSpecific: strptr("S")})

	cfg, err := svc.Configuration(ctx, 42)
	if err != nil {
		t.Fatalf("Configuration: %v", err)
	}
	if len(cfg.Rows) != 1 || cfg.Rows[0].MaterialID != 9 {
		t.Fatalf("rows after external edit = %+v", cfg.Rows)
	}

	if _, err := svc.Configure(ctx, 42, 3, DraftInput{Quantities: map[string]decimal.Decimal{"S": dec(1), "M": dec(1)}}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	kept := false
	for _, row := range api.last() {
		if row.MaterialID == 9 {
			kept = true
		}
	}
	if !kept || len(api.last()) != 3 {
		t.Errorf("saved set = %+v", api.last())
	}
	if api.loads != 1 {
		t.Errorf("product loaded %d times, want 1", api.loads)
	}
}

func TestServiceKeepsLocalRowsWhileSaveFailurePending(t *testing.T) {
	api := &fakeProductAPI{
		product:   models.SoustraitanceProduct{ID: 42, Sizes: []string{"S"}},
		materials: map[int64]models.Material{7: coton},
	}
	api.err = errors.New("server down")
	svc := NewService(api, nil)
	ctx := context.Background()

	if _, err := svc.Configure(ctx, 42, 7, DraftInput{Quantities: map[string]decimal.Decimal{"S": dec(2)}}); err == nil {
		t.Fatal("expected save error")
	}
	cfg, err := svc.Configuration(ctx, 42)
	if err != nil {
		t.Fatalf("Configuration: %v", err)
	}
	if len(cfg.Rows) != 1 || cfg.LastFailure == nil {
		t.Errorf("configuration = %+v", cfg)
	}
}

func TestConfigureTreatsOmittedSizesAsZero(t *testing.T) {
	api := &fakeProductAPI{
		product:   models.SoustraitanceProduct{ID: 42, Sizes: []string{"S", "M", "L"}},
		materials: map[int64]models.Material{7: coton},
	}
	svc := NewService(api, nil)
	ctx := context.Background()

	if _, err := svc.Configure(ctx, 42, 7, DraftInput{Quantities: map[string]decimal.Decimal{"M": dec(3)}}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	saved := api.last()
	if len(saved) != 1 || *saved[0].SizeSpecific != "M" || !saved[0].QuantityNeeded.Equal(dec(3)) {
		t.Errorf("saved = %+v", saved)
	}

	_, err := svc.Configure(ctx, 42, 7, DraftInput{})
	if !errors.Is(err, models.ErrValidation) {
		t.Errorf("empty body err = %v", err)
	}
}
