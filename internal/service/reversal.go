package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"kasirtoko/backend/internal/domain"
	"kasirtoko/backend/internal/store"
)

// restoreItems puts each sold line back into stock with an "in" ledger
// entry. Missing or deleted products and failed writes become warnings;
// the reversal itself still proceeds.
func (s *Service) restoreItems(ctx context.Context, tx *domain.Transaction, note string) []string {
	var warnings []string
	for _, item := range tx.Items {
		if item.ProductID == nil {
			warnings = append(warnings, fmt.Sprintf("%s: product reference missing, stock not restored", item.ProductName))
			continue
		}
		product, err := s.repo.GetProduct(ctx, *item.ProductID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				warnings = append(warnings, fmt.Sprintf("%s: product no longer exists, stock not restored", item.ProductName))
				continue
			}
			warnings = append(warnings, fmt.Sprintf("%s: %v", item.ProductName, err))
			continue
		}
		if !product.HasStock {
			continue
		}
		if _, err := s.applyMovement(ctx, product.ID, domain.MovementIn, item.Quantity, &tx.ID, note); err != nil {
			log.Printf("[service] WARN: stock restore failed tx=%s product=%s: %v", tx.ID, product.ID, err)
			warnings = append(warnings, fmt.Sprintf("%s: %v", item.ProductName, err))
		}
	}
	return warnings
}

// ReturnTransaction reverses a sale in place: stock goes back, the record
// stays with status "returned". Calling it again on an already returned
// sale is a no-op, which is what makes the operation idempotent.
func (s *Service) ReturnTransaction(ctx context.Context, id string) (domain.ReversalResult, error) {
	tx, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return domain.ReversalResult{}, err
	}

	switch tx.Status {
	case domain.TxStatusReturned:
		return domain.ReversalResult{Transaction: *tx}, nil
	case domain.TxStatusVoided:
		return domain.ReversalResult{}, fmt.Errorf("%w: voided transaction cannot be returned", ErrPreconditionFailed)
	}

	warnings := s.restoreItems(ctx, tx, "Retur: "+tx.TransactionNumber)

	updated, err := s.repo.UpdateTransactionStatus(ctx, id, domain.TxStatusReturned)
	if err != nil {
		return domain.ReversalResult{}, err
	}

	s.invalidateCatalog(ctx, tx.StoreID)
	s.logAudit(ctx, tx.StoreID, "transaction_return", "transaction", tx.ID,
		fmt.Sprintf("number=%s,total=%d,warnings=%d", tx.TransactionNumber, tx.Total, len(warnings)))

	return domain.ReversalResult{Transaction: *updated, Warnings: warnings}, nil
}

// DeleteTransaction restores stock for a completed sale and removes the
// record. Returned sales had their stock restored already, so only the
// record is removed for those.
func (s *Service) DeleteTransaction(ctx context.Context, id string) (domain.ReversalResult, error) {
	tx, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return domain.ReversalResult{}, err
	}

	var warnings []string
	if tx.Status == domain.TxStatusCompleted {
		warnings = s.restoreItems(ctx, tx, "Pembatalan: "+tx.TransactionNumber)
	}

	if err := s.repo.DeleteTransaction(ctx, id); err != nil {
		return domain.ReversalResult{}, err
	}

	s.invalidateCatalog(ctx, tx.StoreID)
	s.logAudit(ctx, tx.StoreID, "transaction_delete", "transaction", tx.ID,
		fmt.Sprintf("number=%s,total=%d,warnings=%d", tx.TransactionNumber, tx.Total, len(warnings)))

	return domain.ReversalResult{Transaction: *tx, Warnings: warnings}, nil
}
