package sheets

import (
	"testing"
	"time"

	"github.com/luccibyey/atelier/internal/domain/models"
)

func TestScanAndCriticalRows(t *testing.T) {
	snapshot := models.StockSnapshot{
		ID:      "snap-1",
		TakenAt: time.Date(2024, 5, 1, 6, 30, 0, 0, time.UTC),
		Total:   4,
		Counts:  map[models.StockStatus]int{models.StockCritical: 1, models.StockGood: 3},
		Critical: []models.SnapshotItem{
			{MaterialID: 7, Title: "Tissu Coton", Quantity: 2.5, QuantityType: "mètres", Minimum: 10, Maximum: 50},
		},
	}
	cet := time.FixedZone("CET", 3600)

	row := ScanRow(snapshot, cet)
	if len(row) != 7 || row[0] != "2024-05-01 07:30" || row[2] != 1 || row[3] != 0 || row[6] != "snap-1" {
		t.Errorf("scan row = %v", row)
	}

	rows := CriticalRows(snapshot, cet)
	if len(rows) != 1 || rows[0][1] != int64(7) || rows[0][2] != "Tissu Coton" || rows[0][6] != 50.0 {
		t.Errorf("critical rows = %v", rows)
	}

	if got := CriticalRows(models.StockSnapshot{}, time.UTC); len(got) != 0 {
		t.Errorf("empty snapshot rows = %v", got)
	}
}
