package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"kasirtoko/backend/internal/domain"
	"kasirtoko/backend/internal/store"
	"kasirtoko/backend/internal/xid"
)

// stockRetryLimit bounds the optimistic re-reads when a concurrent writer
// moves the stock level between our read and our conditional write.
const stockRetryLimit = 3

// applyMovement is the single stock write path. It reads the current level,
// derives before/after for the movement type, and asks the repository to
// apply both the level change and the ledger append as one conditional
// unit. A conflicting concurrent write triggers a re-read, up to
// stockRetryLimit attempts. For "adjustment" qty is the new absolute level.
func (s *Service) applyMovement(ctx context.Context, productID string, movType string, qty int, transactionID *string, notes string) (domain.StockMovement, error) {
	actor, _ := ActorFromContext(ctx)

	var lastErr error
	for attempt := 0; attempt < stockRetryLimit; attempt++ {
		product, err := s.repo.GetProduct(ctx, productID)
		if err != nil {
			return domain.StockMovement{}, err
		}

		before := product.Stock
		movementNotes := notes
		var after, movementQty int
		switch movType {
		case domain.MovementIn:
			after = before + qty
			movementQty = qty
		case domain.MovementOut:
			after = before - qty
			movementQty = qty
		case domain.MovementAdjustment:
			after = qty
			movementQty = qty - before
			movementNotes = annotateAdjustment(notes, movementQty)
		default:
			return domain.StockMovement{}, fmt.Errorf("%w: unknown movement type %q", ErrPreconditionFailed, movType)
		}
		if after < 0 {
			return domain.StockMovement{}, fmt.Errorf("%w: %s would drop to %d", store.ErrNegativeStock, product.Name, after)
		}

		movement := domain.StockMovement{
			ID:            xid.New("mov"),
			ProductID:     productID,
			TransactionID: transactionID,
			Type:          movType,
			Quantity:      movementQty,
			StockBefore:   before,
			StockAfter:    after,
			Notes:         movementNotes,
			CreatedBy:     actor.ID,
			CreatedAt:     time.Now().UTC(),
		}

		err = s.repo.ApplyStockMovement(ctx, movement)
		if err == nil {
			return movement, nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return domain.StockMovement{}, err
		}
		lastErr = err
	}

	return domain.StockMovement{}, fmt.Errorf("stock for product %s kept changing after %d attempts: %w", productID, stockRetryLimit, lastErr)
}

// annotateAdjustment records the derived direction of a count correction
// in the ledger note, so the entry reads as a restock or write-off even
// though the type stays "adjustment".
func annotateAdjustment(notes string, delta int) string {
	direction := "unchanged"
	switch {
	case delta > 0:
		direction = fmt.Sprintf("in %d", delta)
	case delta < 0:
		direction = fmt.Sprintf("out %d", -delta)
	}
	if notes == "" {
		return direction
	}
	return notes + " (" + direction + ")"
}

// AdjustStock records a manual stock mutation: restock ("in"), write-off
// ("out"), or a count correction ("adjustment", where quantity is the new
// absolute level).
func (s *Service) AdjustStock(ctx context.Context, productID string, req domain.StockAdjustRequest) (domain.Product, domain.StockMovement, error) {
	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return domain.Product{}, domain.StockMovement{}, err
	}
	if !product.HasStock {
		return domain.Product{}, domain.StockMovement{}, fmt.Errorf("%w: %s does not track stock", ErrPreconditionFailed, product.Name)
	}

	switch req.Type {
	case domain.MovementIn, domain.MovementOut:
		if req.Quantity < 1 {
			return domain.Product{}, domain.StockMovement{}, fmt.Errorf("%w: quantity must be positive", ErrPreconditionFailed)
		}
	case domain.MovementAdjustment:
		if req.Quantity < 0 {
			return domain.Product{}, domain.StockMovement{}, fmt.Errorf("%w: adjusted level must not be negative", ErrPreconditionFailed)
		}
	default:
		return domain.Product{}, domain.StockMovement{}, fmt.Errorf("%w: unknown movement type %q", ErrPreconditionFailed, req.Type)
	}

	movement, err := s.applyMovement(ctx, productID, req.Type, req.Quantity, nil, req.Notes)
	if err != nil {
		return domain.Product{}, domain.StockMovement{}, err
	}

	if err := s.catalog.Invalidate(ctx, s.catalogKey(product.StoreID)); err != nil {
		log.Printf("[service] WARN: failed to invalidate catalog cache store=%s: %v", product.StoreID, err)
	}

	updated, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return domain.Product{}, domain.StockMovement{}, err
	}

	s.logAudit(ctx, product.StoreID, "stock_adjust", "product", productID,
		fmt.Sprintf("type=%s,qty=%d,before=%d,after=%d", movement.Type, movement.Quantity, movement.StockBefore, movement.StockAfter))

	return *updated, movement, nil
}

func (s *Service) ListStockMovements(ctx context.Context, productID string, limit int) ([]domain.StockMovement, error) {
	if limit < 1 {
		limit = 100
	}
	if _, err := s.repo.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	return s.repo.ListStockMovements(ctx, productID, limit)
}
