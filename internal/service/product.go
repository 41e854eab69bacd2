package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type ProductService struct {
	Repo    ProductRepo
	Events  EventPublisher
	Indexer ProductIndexer
}

func (s *ProductService) Create(ctx context.Context, ownerID string, req transport.CreateProductRequest) (*models.Product, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("create product: %w", domain.ErrUnauthorized)
	}

	prod := &models.Product{
		UserID:       ownerID,
		Name:         req.Name,
		Image:        req.Image,
		Description:  req.Description,
		Price:        req.Price,
		CountInStock: req.CountInStock,
	}
	if err := validateStruct(prod); err != nil {
		return nil, err
	}

	if err := s.Repo.CreateProduct(ctx, prod); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.afterWrite(ctx, events.TypeProductCreated, prod)
	return prod, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	return s.Repo.GetProduct(ctx, id)
}

func (s *ProductService) ListByOwner(ctx context.Context, ownerID string) ([]models.Product, error) {
	items, err := s.Repo.GetProductsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list owner products: %w", err)
	}
	if items == nil {
		items = []models.Product{}
	}
	return items, nil
}

func (s *ProductService) List(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	total, items, err := s.Repo.GetProducts(ctx, offset, limit)
	if err != nil {
		return 0, nil, fmt.Errorf("list products: %w", err)
	}
	if items == nil {
		items = []models.Product{}
	}
	return total, items, nil
}

// Update loads the product, checks ownership, merges the supplied fields and
// saves. Nothing is written when any step before the save fails.
func (s *ProductService) Update(ctx context.Context, callerID, id string, req transport.PatchProductRequest) (*models.Product, error) {
	prod, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	if err := CheckOwnership(prod.UserID, callerID); err != nil {
		return nil, err
	}

	ApplyPatch(prod, req)
	if err := validateStruct(prod); err != nil {
		return nil, err
	}

	if err := s.Repo.SaveProduct(ctx, prod); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.afterWrite(ctx, events.TypeProductUpdated, prod)
	return prod, nil
}

func (s *ProductService) Delete(ctx context.Context, callerID, id string) error {
	prod, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if err := CheckOwnership(prod.UserID, callerID); err != nil {
		return err
	}

	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if s.Indexer != nil {
		if err := s.Indexer.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("unindex_product_failed", "product_id", id, "error", err)
		}
	}
	publish(ctx, s.Events, events.TopicProductEvents, events.Event{
		Type:      events.TypeProductDeleted,
		UserID:    prod.UserID,
		ProductID: id,
	})
	return nil
}

// ApplyPatch overwrites only the fields present in req. Empty strings are
// treated as absent; numeric fields overwrite even when zero.
func ApplyPatch(p *models.Product, req transport.PatchProductRequest) {
	if req.Name != nil && *req.Name != "" {
		p.Name = *req.Name
	}
	if req.Image != nil && *req.Image != "" {
		p.Image = *req.Image
	}
	if req.Description != nil && *req.Description != "" {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.CountInStock != nil {
		p.CountInStock = *req.CountInStock
	}
}

func (s *ProductService) afterWrite(ctx context.Context, eventType string, p *models.Product) {
	if s.Indexer != nil {
		if err := s.Indexer.IndexProduct(ctx, p); err != nil {
			logging.FromContext(ctx).Warn("index_product_failed", "product_id", p.ID, "error", err)
		}
	}
	publish(ctx, s.Events, events.TopicProductEvents, events.Event{
		Type:      eventType,
		UserID:    p.UserID,
		ProductID: p.ID,
		Name:      p.Name,
	})
}
