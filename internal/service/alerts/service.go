package alerts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/luccibyey/atelier/internal/domain/models"
	"github.com/luccibyey/atelier/internal/repository/sheets"
	client "github.com/luccibyey/atelier/pkg/clients/whatsapp"
)

// maxListedMaterials caps the critical lines of a WhatsApp summary.
const maxListedMaterials = 15

// Snapshotter produces a classified view of the current stock.
type Snapshotter interface {
	Snapshot(ctx context.Context) (models.StockSnapshot, error)
}

// SnapshotStore persists stock snapshots.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snapshot models.StockSnapshot) error
}

// Service runs stock scans and fans the result out to the configured sinks.
// Store, sheet and messenger are optional.
type Service struct {
	stock      Snapshotter
	store      SnapshotStore
	sheet      sheets.Repository
	messenger  client.Client
	recipients []string
	location   *time.Location
	logger     *zap.Logger
}

// Option configures an optional sink.
type Option func(*Service)

// WithStore persists every snapshot.
func WithStore(store SnapshotStore) Option {
	return func(s *Service) { s.store = store }
}

// WithSheet appends every snapshot to the scan history sheet.
func WithSheet(repo sheets.Repository) Option {
	return func(s *Service) { s.sheet = repo }
}

// WithMessenger sends the critical summary to recipients.
func WithMessenger(messenger client.Client, recipients []string) Option {
	return func(s *Service) {
		s.messenger = messenger
		s.recipients = recipients
	}
}

// WithLocation sets the time zone used in messages and sheet rows.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// NewService wires a new alert service instance.
func NewService(stock Snapshotter, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &Service{stock: stock, location: time.UTC, logger: logger}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Scan takes a snapshot and delivers it to every configured sink. A failing
// sink does not stop the others; their errors are joined.
func (s *Service) Scan(ctx context.Context) (models.StockSnapshot, error) {
	snapshot, err := s.stock.Snapshot(ctx)
	if err != nil {
		return models.StockSnapshot{}, fmt.Errorf("stock snapshot: %w", err)
	}

	logger := s.logger.With(zap.String("snapshot_id", snapshot.ID))
	logger.Info("stock scanned",
		zap.Int("materials", snapshot.Total),
		zap.Int("critical", snapshot.Counts[models.StockCritical]),
		zap.Int("excess", snapshot.Counts[models.StockExcess]))

	var errs []error

	if s.store != nil {
		if err := s.store.SaveSnapshot(ctx, snapshot); err != nil {
			logger.Error("failed to store snapshot", zap.Error(err))
			errs = append(errs, err)
		}
	}

	if s.sheet != nil {
		if err := s.sheet.WriteRow(ctx, sheets.ScansRange, sheets.ScanRow(snapshot, s.location)); err != nil {
			logger.Error("failed to append scan row", zap.Error(err))
			errs = append(errs, err)
		} else if err := s.sheet.WriteRows(ctx, sheets.CriticalRange, sheets.CriticalRows(snapshot, s.location)); err != nil {
			logger.Error("failed to append critical rows", zap.Error(err))
			errs = append(errs, err)
		}
	}

	if len(snapshot.Critical) > 0 {
		if err := s.Notify(ctx, FormatSummary(snapshot, s.location)); err != nil {
			errs = append(errs, err)
		}
	}

	return snapshot, errors.Join(errs...)
}

// Notify sends message to every recipient. It is a no-op when messaging is not configured.
func (s *Service) Notify(ctx context.Context, message string) error {
	if s.messenger == nil || len(s.recipients) == 0 {
		return nil
	}

	var errs []error
	for _, to := range s.recipients {
		ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
		_, err := s.messenger.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{To: to, Body: message})
		cancel()
		if err != nil {
			s.logger.Error("failed to send alert", zap.String("to", to), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FormatSummary renders the critical materials of a snapshot as a WhatsApp text.
func FormatSummary(snapshot models.StockSnapshot, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*Alerte stock* %s\n", snapshot.TakenAt.In(loc).Format("02/01/2006 15:04"))
	fmt.Fprintf(&b, "%d matière(s) critique(s) sur %d.\n", len(snapshot.Critical), snapshot.Total)

	for i, item := range snapshot.Critical {
		if i == maxListedMaterials {
			fmt.Fprintf(&b, "… et %d autre(s).\n", len(snapshot.Critical)-maxListedMaterials)
			break
		}
		fmt.Fprintf(&b, "• %s : %s %s (min %s)\n",
			item.Title, formatQuantity(item.Quantity), item.QuantityType, formatQuantity(item.Minimum))
	}
	if n := len(snapshot.Excess); n > 0 {
		fmt.Fprintf(&b, "%d matière(s) en excès.\n", n)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatQuantity(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	return s
}
