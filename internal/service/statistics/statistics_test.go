package statistics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/luccibyey/atelier/internal/domain/models"
)

var created = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func change(status models.BatchStatus, after time.Duration) models.StatusChange {
	return models.StatusChange{NewStatus: status, ChangedAt: created.Add(after)}
}

func TestDurationDisplay(t *testing.T) {
	cases := []struct {
		in        time.Duration
		wantDays  int
		wantHours int
		display   string
	}{
		{5*time.Hour + 40*time.Minute, 0, 6, "6h"},
		{23*time.Hour + 29*time.Minute, 0, 23, "23h"},
		{47 * time.Hour, 1, 47, "1j"},
		{72 * time.Hour, 3, 72, "3j"},
	}
	for _, tc := range cases {
		d := NewDuration(tc.in)
		if d.Days != tc.wantDays || d.Hours != tc.wantHours || d.Display() != tc.display {
			t.Errorf("NewDuration(%s) = %+v %q", tc.in, *d, d.Display())
		}
	}
	if NewDuration(-time.Hour) != nil {
		t.Error("negative duration should be nil")
	}
}

func TestDurationsOf(t *testing.T) {
	batch := models.ProductionBatch{
		ID:        1,
		CreatedAt: created,
		StatusHistory: []models.StatusChange{
			change(models.BatchInStore, 96*time.Hour),
			change(models.BatchToCollect, 48*time.Hour),
			change(models.BatchToCollect, 60*time.Hour),
		},
	}
	d := DurationsOf(batch)
	if d.PlanToCollect == nil || d.PlanToCollect.Days != 2 {
		t.Errorf("plan to collect = %+v", d.PlanToCollect)
	}
	if d.CollectToStore == nil || d.CollectToStore.Hours != 48 {
		t.Errorf("collect to store = %+v", d.CollectToStore)
	}
	if d.Total == nil || d.Total.Days != 4 {
		t.Errorf("total = %+v", d.Total)
	}

	open := DurationsOf(models.ProductionBatch{
		CreatedAt:     created,
		StatusHistory: []models.StatusChange{change(models.BatchToCollect, 10*time.Hour)},
	})
	if open.PlanToCollect == nil || open.CollectToStore != nil || open.Total != nil {
		t.Errorf("unfinished batch = %+v", open)
	}
}

func TestSummarizeExcludesMissingDurations(t *testing.T) {
	batches := []models.ProductionBatch{
		{
			ID: 1, CreatedAt: created, Status: models.BatchInStore, QuantityTotal: 10, TotalCost: decimal.NewFromInt(100),
			StatusHistory: []models.StatusChange{change(models.BatchToCollect, 24*time.Hour), change(models.BatchInStore, 48*time.Hour)},
		},
		{
			ID: 2, CreatedAt: created, Status: models.BatchInStore, QuantityTotal: 5, TotalCost: decimal.NewFromInt(50),
			StatusHistory: []models.StatusChange{change(models.BatchToCollect, 72*time.Hour), change(models.BatchInStore, 96*time.Hour)},
		},
		{ID: 3, CreatedAt: created, Status: models.BatchInProgress, QuantityTotal: 7},
	}

	s := Summarize(batches)
	if s.AverageTotal == nil || s.AverageTotal.Days != 3 {
		t.Errorf("average total = %+v, want 3 days", s.AverageTotal)
	}
	if s.AveragePlanToCollect == nil || s.AveragePlanToCollect.Days != 2 {
		t.Errorf("average plan to collect = %+v", s.AveragePlanToCollect)
	}
	if s.TotalPieces != 22 || !s.TotalCost.Equal(decimal.NewFromInt(150)) || s.BatchCount != 3 {
		t.Errorf("totals = %d %s %d", s.TotalPieces, s.TotalCost, s.BatchCount)
	}
	if len(s.StatusDistribution) != 2 || s.StatusDistribution[0].Status != models.BatchInProgress || s.StatusDistribution[1].Count != 2 {
		t.Errorf("distribution = %+v", s.StatusDistribution)
	}

	if empty := Summarize(nil); empty.AverageTotal != nil {
		t.Errorf("average over no batches = %+v", empty.AverageTotal)
	}
}

func TestTopMaterials(t *testing.T) {
	var batches []models.ProductionBatch
	for i := int64(1); i <= 12; i++ {
		batches = append(batches, models.ProductionBatch{
			ID: i,
			Materials: []models.BatchMaterialUsage{
				{MaterialID: i, MaterialName: "M", QuantityUsed: decimal.NewFromInt(i % 4)},
			},
		})
	}
	top := Summarize(batches).TopMaterials
	if len(top) != 10 {
		t.Fatalf("got %d materials, want 10", len(top))
	}
	// Quantities 3 first (ids 3, 7, 11 in insertion order), then 2, 1.
	if top[0].MaterialID != 3 || top[1].MaterialID != 7 || top[2].MaterialID != 11 || top[3].MaterialID != 2 {
		t.Errorf("order = %v %v %v %v", top[0].MaterialID, top[1].MaterialID, top[2].MaterialID, top[3].MaterialID)
	}
}

type fakeBatches struct {
	batches    []models.ProductionBatch
	historyErr map[int64]error
	history    map[int64][]models.StatusChange
}

func (f *fakeBatches) ListBatches(context.Context) ([]models.ProductionBatch, error) {
	return f.batches, nil
}

func (f *fakeBatches) BatchStatusHistory(_ context.Context, id int64) ([]models.StatusChange, error) {
	if err := f.historyErr[id]; err != nil {
		return nil, err
	}
	return f.history[id], nil
}

func TestDashboardFetchesMissingHistory(t *testing.T) {
	src := &fakeBatches{
		batches: []models.ProductionBatch{
			{ID: 1, CreatedAt: created, Status: models.BatchInStore},
			{ID: 2, CreatedAt: created, Status: models.BatchInStore},
		},
		history: map[int64][]models.StatusChange{
			1: {change(models.BatchToCollect, 24*time.Hour), change(models.BatchInStore, 48*time.Hour)},
		},
		historyErr: map[int64]error{2: errors.New("timeout")},
	}
	svc := NewService(src, nil, nil)

	s, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if s.AverageTotal == nil || s.AverageTotal.Days != 2 {
		t.Errorf("average total = %+v", s.AverageTotal)
	}
	if s.Batches[1].Total != nil {
		t.Errorf("batch without history got a duration: %+v", s.Batches[1])
	}
}

type fakeSheet struct{ rows [][]interface{} }

func (f *fakeSheet) WriteRow(context.Context, string, []interface{}) error { return nil }
func (f *fakeSheet) WriteRows(context.Context, string, [][]interface{}) error { return nil }
func (f *fakeSheet) ReadRange(context.Context, string) ([][]interface{}, error) { return f.rows, nil }

func TestTrend(t *testing.T) {
	sheet := &fakeSheet{rows: [][]interface{}{
		{"Date", "Total", "Critical"},
		{"2024-05-01 07:00", "40", "3"},
		{"2024-05-02 07:00", "40", "6"},
		{"2024-05-03 07:00", "41", "2"},
		{"2024-06-01 07:00", "41", "9"},
	}}
	svc := NewService(&fakeBatches{}, sheet, nil)

	trend, err := svc.Trend(context.Background(), created.Truncate(24*time.Hour), time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Trend: %v", err)
	}
	if trend.Scans != 3 || trend.PeakCritical != 6 || trend.PeakDate != "2024-05-02" || trend.LatestCritical != 2 {
		t.Errorf("trend = %+v", trend)
	}
	if trend.AverageCritical < 3.66 || trend.AverageCritical > 3.67 {
		t.Errorf("average = %v", trend.AverageCritical)
	}

	if _, err := NewService(&fakeBatches{}, nil, nil).Trend(context.Background(), created, created); !errors.Is(err, ErrTrendUnavailable) {
		t.Errorf("err = %v", err)
	}
}
