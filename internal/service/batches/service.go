package batches

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/luccibyey/atelier/internal/domain/models"
)

// BatchAPI is the part of the ERP API used to follow batches.
type BatchAPI interface {
	ListBatches(ctx context.Context) ([]models.ProductionBatch, error)
	GetBatch(ctx context.Context, id int64) (models.ProductionBatch, error)
	UpdateBatchStatus(ctx context.Context, batchID int64, status models.BatchStatus, changedBy, comments string) error
	BatchStatusHistory(ctx context.Context, batchID int64) ([]models.StatusChange, error)
}

// StatusUpdate is a request to move a batch to another status.
type StatusUpdate struct {
	Status   models.BatchStatus `json:"status" binding:"required"`
	Comments string             `json:"comments"`
	// Force skips the transition table; only admins may use it to correct a mistake.
	Force bool `json:"force"`
}

// Service moves batches through their lifecycle.
type Service struct {
	api    BatchAPI
	logger *zap.Logger
}

// NewService wires a new batch service instance.
func NewService(api BatchAPI, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{api: api, logger: logger}
}

// List returns every batch.
func (s *Service) List(ctx context.Context) ([]models.ProductionBatch, error) {
	return s.api.ListBatches(ctx)
}

// UpdateStatus checks the change against the transition table and records it.
func (s *Service) UpdateStatus(ctx context.Context, user models.CurrentUser, batchID int64, update StatusUpdate) (models.ProductionBatch, error) {
	if !user.CanManageProduction() {
		return models.ProductionBatch{}, models.ErrForbidden
	}
	if update.Force && !user.IsAdmin() {
		return models.ProductionBatch{}, models.ErrForbidden
	}
	if _, err := models.ParseBatchStatus(string(update.Status)); err != nil {
		return models.ProductionBatch{}, fmt.Errorf("%w: %v", models.ErrInvalidTransition, err)
	}

	batch, err := s.api.GetBatch(ctx, batchID)
	if err != nil {
		return models.ProductionBatch{}, err
	}
	if !update.Force {
		if err := models.ValidateTransition(batch.Status, update.Status); err != nil {
			return models.ProductionBatch{}, err
		}
	}

	if err := s.api.UpdateBatchStatus(ctx, batchID, update.Status, user.Name, update.Comments); err != nil {
		return models.ProductionBatch{}, err
	}

	s.logger.Info("batch status changed",
		zap.Int64("batch_id", batchID),
		zap.String("batch_reference", batch.BatchReference),
		zap.String("from", string(batch.Status)),
		zap.String("to", string(update.Status)),
		zap.Bool("forced", update.Force),
		zap.String("changed_by", user.Name))

	batch.Status = update.Status
	return batch, nil
}

// History returns the status log of a batch.
func (s *Service) History(ctx context.Context, batchID int64) ([]models.StatusChange, error) {
	return s.api.BatchStatusHistory(ctx, batchID)
}
