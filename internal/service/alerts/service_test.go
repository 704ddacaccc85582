package alerts

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/luccibyey/atelier/internal/domain/models"
	"github.com/luccibyey/atelier/internal/repository/sheets"
	client "github.com/luccibyey/atelier/pkg/clients/whatsapp"
)

var snapshot = models.StockSnapshot{
	ID:      "snap-1",
	TakenAt: time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC),
	Total:   12,
	Counts:  map[models.StockStatus]int{models.StockCritical: 2, models.StockGood: 9, models.StockExcess: 1},
	Critical: []models.SnapshotItem{
		{MaterialID: 3, Title: "Fil noir", Quantity: 1, QuantityType: "bobines", Minimum: 5},
		{MaterialID: 7, Title: "Tissu Coton", Quantity: 2.5, QuantityType: "mètres", Minimum: 10},
	},
	Excess: []models.SnapshotItem{{MaterialID: 9, Title: "Bouton"}},
}

type staticStock struct{}

func (staticStock) Snapshot(context.Context) (models.StockSnapshot, error) { return snapshot, nil }

type memoryStore struct {
	saved []models.StockSnapshot
	err   error
}

func (m *memoryStore) SaveSnapshot(_ context.Context, s models.StockSnapshot) error {
	m.saved = append(m.saved, s)
	return m.err
}

type memorySheet struct {
	ranges []string
	rows   int
}

func (m *memorySheet) WriteRow(_ context.Context, r string, _ []interface{}) error {
	m.ranges = append(m.ranges, r)
	m.rows++
	return nil
}

func (m *memorySheet) WriteRows(_ context.Context, r string, rows [][]interface{}) error {
	m.ranges = append(m.ranges, r)
	m.rows += len(rows)
	return nil
}

func (m *memorySheet) ReadRange(context.Context, string) ([][]interface{}, error) { return nil, nil }

type memoryMessenger struct{ sent []client.SendTextMessageRequest }

func (m *memoryMessenger) SendTextMessage(_ context.Context, req client.SendTextMessageRequest) (*client.SendTextMessageResponse, error) {
	m.sent = append(m.sent, req)
	return &client.SendTextMessageResponse{}, nil
}

func TestScanFansOutToEverySink(t *testing.T) {
	store := &memoryStore{}
	sheet := &memorySheet{}
	messenger := &memoryMessenger{}
	svc := NewService(staticStock{}, nil,
		WithStore(store),
		WithSheet(sheet),
		WithMessenger(messenger, []string{"21620000001", "21620000002"}))

	if _, err := svc.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(store.saved) != 1 || store.saved[0].ID != "snap-1" {
		t.Errorf("saved = %+v", store.saved)
	}
	if len(sheet.ranges) != 2 || sheet.ranges[0] != sheets.ScansRange || sheet.rows != 3 {
		t.Errorf("sheet ranges = %v rows = %d", sheet.ranges, sheet.rows)
	}
	if len(messenger.sent) != 2 {
		t.Errorf("sent %d messages, want 2", len(messenger.sent))
	}
}

func TestScanKeepsGoingWhenAStoreFails(t *testing.T) {
	store := &memoryStore{err: errors.New("mongo down")}
	messenger := &memoryMessenger{}
	svc := NewService(staticStock{}, nil, WithStore(store), WithMessenger(messenger, []string{"21620000001"}))

	snap, err := svc.Scan(context.Background())
	if err == nil || !strings.Contains(err.Error(), "mongo down") {
		t.Fatalf("err = %v", err)
	}
	if snap.ID != "snap-1" || len(messenger.sent) != 1 {
		t.Errorf("snapshot = %s, sent = %d", snap.ID, len(messenger.sent))
	}
}

func TestScanWithoutSinks(t *testing.T) {
	if _, err := NewService(staticStock{}, nil).Scan(context.Background()); err != nil {
		t.Errorf("Scan: %v", err)
	}
}

func TestFormatSummary(t *testing.T) {
	tunis := time.FixedZone("CET", 3600)
	msg := FormatSummary(snapshot, tunis)

	for _, want := range []string{
		"01/05/2024 07:00",
		"2 matière(s) critique(s) sur 12",
		"• Tissu Coton : 2.5 mètres (min 10)",
		"1 matière(s) en excès",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("summary missing %q:\n%s", want, msg)
		}
	}
}
