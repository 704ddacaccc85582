package requirements

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/luccibyey/atelier/internal/domain/models"
)

type recordingStore struct {
	calls [][]models.ProductMaterialRequirement
	err   error
}

func (s *recordingStore) ConfigureProductMaterials(_ context.Context, _ int64, rows []models.ProductMaterialRequirement) error {
	s.calls = append(s.calls, append([]models.ProductMaterialRequirement(nil), rows...))
	return s.err
}

func (s *recordingStore) last() []models.ProductMaterialRequirement {
	return s.calls[len(s.calls)-1]
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func strptr(s string) *string { return &s }

var coton = models.Material{ID: 7, Title: "Tissu Coton", QuantityTypeID: 2, QuantityType: "mètres"}

func TestOpenDefaultsEverySizeToOne(t *testing.T) {
	draft := OpenDraft(coton, []string{"S", "M", "L"}, nil)

	if draft.QuantityTypeID != 2 {
		t.Errorf("quantity type = %d, want material default 2", draft.QuantityTypeID)
	}
	for _, size := range []string{"S", "M", "L"} {
		if !draft.Quantities[size].Equal(dec(1)) {
			t.Errorf("size %s = %s, want 1", size, draft.Quantities[size])
		}
	}
}

func TestSizeRowRoundTrip(t *testing.T) {
	store := &recordingStore{}
	editor := NewEditor(42, []string{"S", "M", "L"}, nil, store, nil)

	draft := editor.Open(coton)
	draft.Quantities["S"] = dec(2)
	draft.Quantities["M"] = dec(0)
	draft.Quantities["L"] = dec(3)
	if err := editor.Save(context.Background(), draft); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if len(store.calls) != 1 {
		t.Fatalf("expected one persistence call, got %d", len(store.calls))
	}
	persisted := store.last()
	if len(persisted) != 2 {
		t.Fatalf("persisted %d rows, want 2", len(persisted))
	}
	got := map[string]decimal.Decimal{}
	for _, row := range persisted {
		if row.SizeSpecific == nil {
			t.Fatal("sized product row has no size")
		}
		got[*row.SizeSpecific] = row.QuantityNeeded
	}
	if !got["S"].Equal(dec(2)) || !got["L"].Equal(dec(3)) {
		t.Errorf("persisted = %v", got)
	}
	if _, ok := got["M"]; ok {
		t.Error("zero quantity row was persisted")
	}

	reopened := editor.Open(coton)
	want := map[string]decimal.Decimal{"S": dec(2), "M": dec(0), "L": dec(3)}
	for size, qty := range want {
		if !reopened.Quantities[size].Equal(qty) {
			t.Errorf("reopened %s = %s, want %s", size, reopened.Quantities[size], qty)
		}
	}
}

func TestOneSizeDistribution(t *testing.T) {
	rows := []models.ProductMaterialRequirement{
		{ProductID: 42, MaterialID: 7, QuantityNeeded: dec(5)},
	}
	draft := OpenDraft(coton, []string{"OS"}, rows)

	if len(draft.Quantities) != 1 || !draft.Quantities[models.OneSize].Equal(dec(5)) {
		t.Errorf("quantities = %v, want {OS: 5}", draft.Quantities)
	}
}

func TestOneSizeSaveSendsNilSize(t *testing.T) {
	store := &recordingStore{}
	editor := NewEditor(42, nil, nil, store, nil)

	draft := editor.Open(coton)
	draft.Quantities[models.OneSize] = decimal.RequireFromString("1.5")
	if err := editor.Save(context.Background(), draft); err != nil {
		t.Fatalf("Save: %v", err)
	}
	rows := store.last()
	if len(rows) != 1 || rows[0].SizeSpecific != nil {
		t.Fatalf("rows = %+v", rows)
	}
	if !rows[0].QuantityNeeded.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("quantity = %s", rows[0].QuantityNeeded)
	}
}

func TestApplyToAllSizes(t *testing.T) {
	draft := OpenDraft(coton, []string{"S", "M", "L"}, nil)
	draft.Quantities["S"] = decimal.RequireFromString("2.25")
	draft.Quantities["L"] = dec(9)
	draft.ApplyToAllSizes()

	for _, size := range draft.Sizes {
		if !draft.Quantities[size].Equal(decimal.RequireFromString("2.25")) {
			t.Errorf("size %s = %s", size, draft.Quantities[size])
		}
	}
}

func TestSaveReplacesPreviousRowsOfMaterial(t *testing.T) {
	rows := []models.ProductMaterialRequirement{
		{ProductID: 42, MaterialID: 7, QuantityNeeded: dec(4), SizeSpecific: strptr("S")},
		{ProductID: 42, MaterialID: 7, QuantityNeeded: dec(4), SizeSpecific: strptr("M")},
		{ProductID: 42, MaterialID: 9, QuantityNeeded: dec(1), SizeSpecific: strptr("S")},
	}
	store := &recordingStore{}
	editor := NewEditor(42, []string{"S", "M"}, rows, store, nil)

	draft := editor.Open(coton)
	draft.Quantities["M"] = dec(0)
	if err := editor.Save(context.Background(), draft); err != nil {
		t.Fatalf("Save: %v", err)
	}

	persisted := store.last()
	if len(persisted) != 2 {
		t.Fatalf("persisted %d rows, want 2: %+v", len(persisted), persisted)
	}
	if persisted[0].MaterialID != 9 || persisted[1].MaterialID != 7 || *persisted[1].SizeSpecific != "S" {
		t.Errorf("unexpected rows: %+v", persisted)
	}
}

func TestRemovePersistsRemainingSet(t *testing.T) {
	rows := []models.ProductMaterialRequirement{
		{ProductID: 42, MaterialID: 7, QuantityNeeded: dec(2), SizeSpecific: strptr("S")},
		{ProductID: 42, MaterialID: 7, QuantityNeeded: dec(3), SizeSpecific: strptr("L")},
		{ProductID: 42, MaterialID: 9, QuantityNeeded: dec(1), SizeSpecific: strptr("S")},
	}
	store := &recordingStore{}
	editor := NewEditor(42, []string{"S", "L"}, rows, store, nil)

	if err := editor.Remove(context.Background(), 7); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(store.calls) != 1 {
		t.Fatalf("expected one persistence call, got %d", len(store.calls))
	}
	for _, row := range store.last() {
		if row.MaterialID == 7 {
			t.Errorf("removed material still persisted: %+v", row)
		}
	}
	if len(store.last()) != 1 {
		t.Errorf("persisted %d rows, want 1", len(store.last()))
	}
}

func TestFailedSaveKeepsLocalStateAndCanBeRetried(t *testing.T) {
	store := &recordingStore{err: errors.New("server down")}
	editor := NewEditor(42, []string{"S"}, nil, store, nil)

	draft := editor.Open(coton)
	if err := editor.Save(context.Background(), draft); err == nil {
		t.Fatal("expected save error")
	}
	if len(editor.Rows()) != 1 {
		t.Errorf("local set was rolled back")
	}
	failure := editor.LastFailure()
	if failure == nil || len(failure.Payload) != 1 || failure.Message == "" {
		t.Fatalf("failure = %+v", failure)
	}

	store.err = nil
	if err := editor.Retry(context.Background()); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if editor.LastFailure() != nil {
		t.Error("failure not cleared after successful retry")
	}
	if err := editor.Retry(context.Background()); !errors.Is(err, ErrNothingToRetry) {
		t.Errorf("second retry: %v", err)
	}
}

func TestSaveRejectsMissingMaterial(t *testing.T) {
	store := &recordingStore{}
	editor := NewEditor(42, []string{"S"}, nil, store, nil)
	err := editor.Save(context.Background(), Draft{})
	if !errors.Is(err, models.ErrValidation) {
		t.Errorf("err = %v", err)
	}
	if len(store.calls) != 0 {
		t.Error("invalid draft was persisted")
	}
}
