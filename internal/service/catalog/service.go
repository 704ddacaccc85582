package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/luccibyey/atelier/internal/domain/models"
	"github.com/luccibyey/atelier/internal/service/stock"
)

// CatalogAPI is the part of the ERP API that manages boutique and subcontracting catalogs.
type CatalogAPI interface {
	SyncCatalog(ctx context.Context, target models.SyncTarget) (models.SyncResult, error)
	ListClients(ctx context.Context) ([]models.SoustraitanceClient, error)
	ListProducts(ctx context.Context, clientID int64) ([]models.SoustraitanceProduct, error)
	GetProduct(ctx context.Context, id int64) (models.SoustraitanceProduct, error)
	CreateProduct(ctx context.Context, in models.SoustraitanceProductInput) (int64, error)
	UpdateProduct(ctx context.Context, id int64, in models.SoustraitanceProductInput) error
	DeleteProduct(ctx context.Context, id int64) error
}

// ProductCache is notified when a product's sizes may have changed.
type ProductCache interface {
	Forget(productID int64)
}

// Service synchronizes boutique catalogs and manages subcontracted products.
type Service struct {
	api    CatalogAPI
	cache  ProductCache
	logger *zap.Logger
}

// NewService wires a new catalog service instance. cache may be nil.
func NewService(api CatalogAPI, cache ProductCache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{api: api, cache: cache, logger: logger}
}

// Sync triggers the synchronization of one boutique catalog.
func (s *Service) Sync(ctx context.Context, user models.CurrentUser, target string) (models.SyncResult, error) {
	if !user.CanManageStock() {
		return models.SyncResult{}, models.ErrForbidden
	}
	return s.SyncTarget(ctx, target)
}

// SyncTarget runs a synchronization without a user, for scheduled jobs.
func (s *Service) SyncTarget(ctx context.Context, target string) (models.SyncResult, error) {
	parsed, ok := models.ParseSyncTarget(target)
	if !ok {
		return models.SyncResult{}, models.ValidationErrors{"target": fmt.Sprintf("Cible de synchronisation inconnue : %s", target)}
	}

	result, err := s.api.SyncCatalog(ctx, parsed)
	if err != nil {
		return models.SyncResult{}, err
	}
	s.logger.Info("catalog synchronized",
		zap.String("target", string(parsed)),
		zap.Int("added", result.Added),
		zap.Int("updated", result.Updated))
	return result, nil
}

// Clients lists subcontracting clients.
func (s *Service) Clients(ctx context.Context) ([]models.SoustraitanceClient, error) {
	return s.api.ListClients(ctx)
}

// Products lists subcontracted products matching filter.
func (s *Service) Products(ctx context.Context, filter stock.ProductFilter) ([]models.SoustraitanceProduct, error) {
	products, err := s.api.ListProducts(ctx, filter.ClientID)
	if err != nil {
		return nil, err
	}
	return stock.FilterProducts(products, filter), nil
}

// Product returns one subcontracted product.
func (s *Service) Product(ctx context.Context, id int64) (models.SoustraitanceProduct, error) {
	return s.api.GetProduct(ctx, id)
}

// CreateProduct validates and creates a subcontracted product.
func (s *Service) CreateProduct(ctx context.Context, user models.CurrentUser, in models.SoustraitanceProductInput) (int64, error) {
	if !user.CanManageProduction() {
		return 0, models.ErrForbidden
	}
	id, err := s.api.CreateProduct(ctx, in)
	if err != nil {
		return 0, err
	}
	s.logger.Info("product created", zap.Int64("product_id", id), zap.Int64("client_id", in.ClientID), zap.String("user", user.Name))
	return id, nil
}

// UpdateProduct validates and updates a subcontracted product.
func (s *Service) UpdateProduct(ctx context.Context, user models.CurrentUser, id int64, in models.SoustraitanceProductInput) error {
	if !user.CanManageProduction() {
		return models.ErrForbidden
	}
	if err := s.api.UpdateProduct(ctx, id, in); err != nil {
		return err
	}
	s.forget(id)
	s.logger.Info("product updated", zap.Int64("product_id", id), zap.String("user", user.Name))
	return nil
}

// DeleteProduct removes a subcontracted product.
func (s *Service) DeleteProduct(ctx context.Context, user models.CurrentUser, id int64) error {
	if !user.CanManageStock() {
		return models.ErrForbidden
	}
	if err := s.api.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.forget(id)
	s.logger.Info("product deleted", zap.Int64("product_id", id), zap.String("user", user.Name))
	return nil
}

func (s *Service) forget(id int64) {
	if s.cache != nil {
		s.cache.Forget(id)
	}
}
