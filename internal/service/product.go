package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"kasirtoko/backend/internal/domain"
	"kasirtoko/backend/internal/xid"
)

func (s *Service) catalogKey(storeID string) string {
	return "catalog:" + storeID
}

func (s *Service) invalidateCatalog(ctx context.Context, storeID string) {
	if err := s.catalog.Invalidate(ctx, s.catalogKey(storeID)); err != nil {
		log.Printf("[service] WARN: failed to invalidate catalog cache store=%s: %v", storeID, err)
	}
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	req.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Price < 1 {
		return domain.Product{}, fmt.Errorf("%w: name and positive price are required", ErrPreconditionFailed)
	}
	if req.Stock < 0 || req.MinStock < 0 || req.BuyPrice < 0 {
		return domain.Product{}, fmt.Errorf("%w: stock and prices must not be negative", ErrPreconditionFailed)
	}

	now := time.Now().UTC()
	product := domain.Product{
		ID:        xid.New("prod"),
		StoreID:   s.defaultStoreID,
		SKU:       req.SKU,
		Name:      req.Name,
		Price:     req.Price,
		BuyPrice:  req.BuyPrice,
		Unit:      strings.TrimSpace(req.Unit),
		HasStock:  req.HasStock,
		IsActive:  true,
		MinStock:  req.MinStock,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	if req.HasStock && req.Stock > 0 {
		movement, err := s.applyMovement(ctx, created.ID, domain.MovementIn, req.Stock, nil, "Stok awal")
		if err != nil {
			return domain.Product{}, err
		}
		created.Stock = movement.StockAfter
	}

	s.invalidateCatalog(ctx, created.StoreID)
	s.logAudit(ctx, created.StoreID, "product_create", "product", created.ID,
		fmt.Sprintf("name=%s,price=%d,stock=%d", created.Name, created.Price, created.Stock))

	return *created, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	existing, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.SKU != nil {
		updated.SKU = strings.ToUpper(strings.TrimSpace(*req.SKU))
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, fmt.Errorf("%w: name must not be empty", ErrPreconditionFailed)
		}
		updated.Name = name
	}
	if req.Price != nil {
		if *req.Price < 1 {
			return domain.Product{}, fmt.Errorf("%w: price must be positive", ErrPreconditionFailed)
		}
		updated.Price = *req.Price
	}
	if req.BuyPrice != nil {
		if *req.BuyPrice < 0 {
			return domain.Product{}, fmt.Errorf("%w: buy price must not be negative", ErrPreconditionFailed)
		}
		updated.BuyPrice = *req.BuyPrice
	}
	if req.Unit != nil {
		updated.Unit = strings.TrimSpace(*req.Unit)
	}
	if req.HasStock != nil {
		updated.HasStock = *req.HasStock
	}
	if req.MinStock != nil {
		if *req.MinStock < 0 {
			return domain.Product{}, fmt.Errorf("%w: min stock must not be negative", ErrPreconditionFailed)
		}
		updated.MinStock = *req.MinStock
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}

	s.invalidateCatalog(ctx, saved.StoreID)
	s.logAudit(ctx, saved.StoreID, "product_update", "product", saved.ID,
		fmt.Sprintf("name=%s,price=%d,active=%t", saved.Name, saved.Price, saved.IsActive))

	return *saved, nil
}

// DeleteProduct soft-deletes: the row stays so historical transaction items
// and movements keep their reference.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	existing, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	updated := *existing
	updated.IsActive = false
	if _, err := s.repo.UpdateProduct(ctx, updated); err != nil {
		return err
	}

	s.invalidateCatalog(ctx, existing.StoreID)
	s.logAudit(ctx, existing.StoreID, "product_delete", "product", id, "soft delete")
	return nil
}

// ListProducts serves the active catalog, name-ordered, through the cache
// when one is configured. Cache failures fall through to the repository.
func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	key := s.catalogKey(s.defaultStoreID)
	if cached, hit, err := s.catalog.Get(ctx, key); err != nil {
		log.Printf("[service] WARN: catalog cache read failed: %v", err)
	} else if hit {
		return cached, nil
	}

	products, err := s.repo.ListProducts(ctx, s.defaultStoreID)
	if err != nil {
		return nil, err
	}

	if err := s.catalog.Set(ctx, key, products, s.catalogTTL); err != nil {
		log.Printf("[service] WARN: catalog cache write failed: %v", err)
	}
	return products, nil
}

func (s *Service) SearchProducts(ctx context.Context, term string) ([]domain.Product, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.ListProducts(ctx)
	}
	return s.repo.SearchProducts(ctx, s.defaultStoreID, term)
}

func (s *Service) ListLowStockProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListLowStockProducts(ctx, s.defaultStoreID)
}
