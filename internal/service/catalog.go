package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/shopcart/internal/logging"
	"github.com/Skotchmaster/shopcart/internal/models"
	"github.com/Skotchmaster/shopcart/internal/repo"
)

const searchLimit = 20

type ProductIndex interface {
	IndexProduct(ctx context.Context, p models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, size int) ([]models.Product, int64, error)
}

// ProductPatch carries the fields of a partial update. Nil means unchanged.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *float64
	Image       *string
	Stock       *int
	Category    *string
}

type CatalogService struct {
	Repo  *repo.GormRepo
	Index ProductIndex
	Cache TotalsCache
}

func (s *CatalogService) CreateProduct(ctx context.Context, p *models.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("name is required: %w", ErrInvalidArgument)
	}
	if p.Price < 0 {
		return fmt.Errorf("price must not be negative: %w", ErrInvalidArgument)
	}
	if p.Stock < 0 {
		return fmt.Errorf("stock must not be negative: %w", ErrInvalidArgument)
	}
	if strings.TrimSpace(p.Category) == "" {
		p.Category = models.DefaultCategory
	}

	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return storeError("create product", err)
	}

	s.mirror(ctx, *p)
	return nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("product id must be set: %w", ErrInvalidArgument)
	}
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, storeError("get product", err)
	}
	return p, nil
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.Repo.ListProducts(ctx)
	if err != nil {
		return nil, storeError("list products", err)
	}
	return products, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, id uuid.UUID, patch ProductPatch) (*models.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("name must not be empty: %w", ErrInvalidArgument)
		}
		p.Name = name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		if *patch.Price < 0 {
			return nil, fmt.Errorf("price must not be negative: %w", ErrInvalidArgument)
		}
		p.Price = *patch.Price
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	if patch.Stock != nil {
		if *patch.Stock < 0 {
			return nil, fmt.Errorf("stock must not be negative: %w", ErrInvalidArgument)
		}
		p.Stock = *patch.Stock
	}
	if patch.Category != nil {
		p.Category = strings.TrimSpace(*patch.Category)
		if p.Category == "" {
			p.Category = models.DefaultCategory
		}
	}

	if err := s.Repo.SaveProduct(ctx, p); err != nil {
		return nil, storeError("update product", err)
	}

	s.mirror(ctx, *p)
	if patch.Price != nil {
		s.invalidateHolders(ctx, p.ID)
	}
	return p, nil
}

// SetStock overwrites the stock counter. Carts are not reservations, so
// nothing is reconciled against outstanding lines.
func (s *CatalogService) SetStock(ctx context.Context, id uuid.UUID, stock int) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("product id must be set: %w", ErrInvalidArgument)
	}
	if stock < 0 {
		return nil, fmt.Errorf("stock must not be negative: %w", ErrInvalidArgument)
	}

	p, err := s.Repo.SetStock(ctx, id, stock)
	if err != nil {
		return nil, storeError("set stock", err)
	}

	s.mirror(ctx, *p)
	return p, nil
}

// DeleteProduct removes the product and every cart line holding it. It
// returns the number of cart lines removed.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) (int64, error) {
	if id == uuid.Nil {
		return 0, fmt.Errorf("product id must be set: %w", ErrInvalidArgument)
	}
	l := logging.FromContext(ctx).With("svc", "catalog.delete")

	lines, err := s.Repo.DeleteProductCascade(ctx, id)
	if err != nil {
		return 0, storeError("delete product", err)
	}

	holders := make([]uuid.UUID, 0, len(lines))
	for _, ln := range lines {
		holders = append(holders, ln.UserID)
	}
	if s.Cache != nil && len(holders) > 0 {
		if err := s.Cache.Invalidate(ctx, holders...); err != nil {
			l.Warn("totals_cache_invalidate_failed", "product_id", id, "error", err)
		}
	}
	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			l.Warn("search_delete_failed", "product_id", id, "error", err)
		}
	}
	return int64(len(lines)), nil
}

func (s *CatalogService) SearchProducts(ctx context.Context, query string) ([]models.Product, int64, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, 0, fmt.Errorf("query is required: %w", ErrInvalidArgument)
	}
	if s.Index == nil {
		return nil, 0, fmt.Errorf("search is not configured: %w", ErrStoreUnavailable)
	}

	products, total, err := s.Index.Search(ctx, query, searchLimit)
	if err != nil {
		return nil, 0, fmt.Errorf("search products: %w: %w", ErrStoreUnavailable, err)
	}
	return products, total, nil
}

func (s *CatalogService) mirror(ctx context.Context, p models.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexProduct(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("search_index_failed", "product_id", p.ID, "error", err)
	}
}

func (s *CatalogService) invalidateHolders(ctx context.Context, productID uuid.UUID) {
	if s.Cache == nil {
		return
	}
	l := logging.FromContext(ctx)

	holders, err := s.Repo.UsersHoldingProduct(ctx, productID)
	if err != nil {
		l.Warn("holders_lookup_failed", "product_id", productID, "error", err)
		return
	}
	if len(holders) == 0 {
		return
	}
	if err := s.Cache.Invalidate(ctx, holders...); err != nil {
		l.Warn("totals_cache_invalidate_failed", "product_id", productID, "error", err)
	}
}
