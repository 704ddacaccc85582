package sheets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/luccibyey/atelier/internal/config"
	"github.com/luccibyey/atelier/internal/domain/models"
)

const (
	// ScansRange holds one summary row per stock scan.
	ScansRange = "Scans!A:G"
	// CriticalRange holds one row per critical material of each scan.
	CriticalRange = "Critical!A:G"

	// TimestampLayout is how scan times are written to the sheet.
	TimestampLayout = "2006-01-02 15:04"
)

// Repository defines the persistence operations supported by the Google Sheets adapter.
type Repository interface {
	WriteRow(ctx context.Context, sheetRange string, values []interface{}) error
	WriteRows(ctx context.Context, sheetRange string, rows [][]interface{}) error
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

// GoogleSheetRepository implements the Repository interface using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger.Named("sheets"),
	}, nil
}

// WriteRow appends the provided values to the supplied sheet range.
func (r *GoogleSheetRepository) WriteRow(ctx context.Context, sheetRange string, values []interface{}) error {
	return r.WriteRows(ctx, sheetRange, [][]interface{}{values})
}

// WriteRows appends several rows in a single call.
func (r *GoogleSheetRepository) WriteRows(ctx context.Context, sheetRange string, rows [][]interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}
	if len(rows) == 0 {
		return nil
	}

	payload := &sheetsapi.ValueRange{Values: rows}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append rows into range %s: %w", sheetRange, err)
	}

	r.logger.Debug("rows appended to sheet", zap.String("range", sheetRange), zap.Int("rows", len(rows)))
	return nil
}

// ReadRange fetches a rectangular data range from the spreadsheet.
func (r *GoogleSheetRepository) ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	if sheetRange == "" {
		return nil, fmt.Errorf("sheetRange must not be empty")
	}

	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}

	return resp.Values, nil
}

// ScanRow is the Scans sheet layout: time, total, then one count per status, then the snapshot id.
func ScanRow(snapshot models.StockSnapshot, loc *time.Location) []interface{} {
	return []interface{}{
		snapshot.TakenAt.In(loc).Format(TimestampLayout),
		snapshot.Total,
		snapshot.Counts[models.StockCritical],
		snapshot.Counts[models.StockWarning],
		snapshot.Counts[models.StockGood],
		snapshot.Counts[models.StockExcess],
		snapshot.ID,
	}
}

// CriticalRows lists the critical materials of a snapshot, one row each.
func CriticalRows(snapshot models.StockSnapshot, loc *time.Location) [][]interface{} {
	taken := snapshot.TakenAt.In(loc).Format(TimestampLayout)
	rows := make([][]interface{}, 0, len(snapshot.Critical))
	for _, item := range snapshot.Critical {
		rows = append(rows, []interface{}{
			taken,
			item.MaterialID,
			item.Title,
			item.Quantity,
			item.QuantityType,
			item.Minimum,
			item.Maximum,
		})
	}
	return rows
}
