package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"kasirtoko/backend/internal/cart"
	"kasirtoko/backend/internal/domain"
	"kasirtoko/backend/internal/xid"
)

// Checkout runs the sale saga: hydrate and stage the requested lines,
// price the sale, persist the header, persist the items, then apply the
// per-line stock side effects. Everything before the header write is
// abortable and leaves no trace; once the header exists the saga never
// rolls back — item or stock failures degrade the result instead.
func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResult, error) {
	if len(req.Items) == 0 {
		return domain.CheckoutResult{}, fmt.Errorf("%w: cart is empty", ErrPreconditionFailed)
	}

	payment := req.Payment
	payment.Method = strings.ToLower(strings.TrimSpace(payment.Method))
	if payment.Method == "" {
		payment.Method = "cash"
	}
	if !isSupportedPaymentMethod(payment.Method) {
		return domain.CheckoutResult{}, fmt.Errorf("%w: unsupported payment method %q", ErrPreconditionFailed, payment.Method)
	}
	if payment.DiscountType == "" {
		payment.DiscountType = domain.DiscountTypeNominal
	}
	if payment.DiscountType != domain.DiscountTypeNominal && payment.DiscountType != domain.DiscountTypePercent {
		return domain.CheckoutResult{}, fmt.Errorf("%w: unknown discount type %q", ErrPreconditionFailed, payment.DiscountType)
	}
	if payment.Discount < 0 || payment.SettingsDiscount < 0 || payment.Tax < 0 || payment.VAT < 0 {
		return domain.CheckoutResult{}, fmt.Errorf("%w: negative payment adjustment", ErrPreconditionFailed)
	}

	staged := cart.New()
	for _, item := range req.Items {
		product, err := s.repo.GetProduct(ctx, item.ProductID)
		if err != nil {
			return domain.CheckoutResult{}, err
		}
		if !product.IsActive {
			return domain.CheckoutResult{}, fmt.Errorf("%w: product %s is inactive", ErrPreconditionFailed, product.Name)
		}
		if err := staged.Add(*product, item.Quantity); err != nil {
			return domain.CheckoutResult{}, err
		}
	}

	subtotal := staged.Subtotal()
	discountAmount := payment.Discount
	if payment.DiscountType == domain.DiscountTypePercent {
		discountAmount = percentDiscount(subtotal, payment.Discount)
	}
	if discountAmount+payment.SettingsDiscount > subtotal {
		return domain.CheckoutResult{}, fmt.Errorf("%w: discount exceeds subtotal", ErrPreconditionFailed)
	}

	total := subtotal - discountAmount - payment.SettingsDiscount + payment.Tax + payment.VAT
	change := payment.Paid - total
	// Only cash demands full tender up front; card/qris/ewallet/transfer
	// settle externally, so an underpaid sale commits with negative change.
	if payment.Method == "cash" && change < 0 {
		return domain.CheckoutResult{}, fmt.Errorf("%w: short by %d", ErrInsufficientPayment, -change)
	}

	actor, _ := ActorFromContext(ctx)
	now := time.Now().UTC()
	number := s.NextTransactionNumber(ctx, s.defaultStoreID, now)

	tx := domain.Transaction{
		ID:                xid.New("tx"),
		StoreID:           s.defaultStoreID,
		TransactionNumber: number,
		Subtotal:          subtotal,
		Discount:          discountAmount,
		DiscountType:      payment.DiscountType,
		SettingsDiscount:  payment.SettingsDiscount,
		Tax:               payment.Tax,
		VAT:               payment.VAT,
		Total:             total,
		Paid:              payment.Paid,
		Change:            change,
		PaymentMethod:     payment.Method,
		CustomerName:      strings.TrimSpace(payment.CustomerName),
		CustomerPhone:     strings.TrimSpace(payment.CustomerPhone),
		Notes:             strings.TrimSpace(payment.Notes),
		Status:            domain.TxStatusCompleted,
		CreatedBy:         actor.ID,
		CreatedAt:         now,
	}

	created, err := s.repo.CreateTransaction(ctx, tx)
	if err != nil {
		return domain.CheckoutResult{}, err
	}

	lines := staged.Lines()
	items := make([]domain.TransactionItem, 0, len(lines))
	for _, line := range lines {
		productID := line.ProductID
		items = append(items, domain.TransactionItem{
			ID:            xid.New("txi"),
			TransactionID: created.ID,
			ProductID:     &productID,
			ProductName:   line.ProductName,
			ProductSKU:    line.ProductSKU,
			ProductPrice:  line.ProductPrice,
			Quantity:      line.Quantity,
			Subtotal:      line.Subtotal,
		})
	}

	createdItems, err := s.repo.CreateTransactionItems(ctx, items)
	if err != nil {
		log.Printf("[service] WARN: sale %s recorded without items: %v", created.ID, err)
		return domain.CheckoutResult{}, fmt.Errorf("%w: sale %s header persisted but items failed: %v", ErrPartialCommit, created.ID, err)
	}
	created.Items = createdItems

	var warnings []string
	for _, line := range lines {
		if !line.HasStock {
			continue
		}
		note := "Penjualan: " + number
		if _, err := s.applyMovement(ctx, line.ProductID, domain.MovementOut, line.Quantity, &created.ID, note); err != nil {
			log.Printf("[service] WARN: stock deduction failed tx=%s product=%s: %v", created.ID, line.ProductID, err)
			warnings = append(warnings, fmt.Sprintf("stock for %s not deducted: %v", line.ProductName, err))
		}
	}

	status := domain.CheckoutCommitted
	if len(warnings) > 0 {
		status = domain.CheckoutPartiallyCommitted
	}

	s.invalidateCatalog(ctx, created.StoreID)
	s.logAudit(ctx, created.StoreID, "checkout", "transaction", created.ID,
		fmt.Sprintf("number=%s,total=%d,payment=%s,items=%d,status=%s", number, total, payment.Method, len(createdItems), status))

	return domain.CheckoutResult{
		Transaction:   *created,
		Status:        status,
		StockWarnings: warnings,
	}, nil
}

func (s *Service) GetTransaction(ctx context.Context, id string) (domain.Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return domain.Transaction{}, err
	}
	return *tx, nil
}

// ListTransactions returns the store's sales newest first. Zero bounds mean
// unbounded; limit defaults to 100.
func (s *Service) ListTransactions(ctx context.Context, from, to time.Time, limit int) ([]domain.Transaction, error) {
	if limit < 1 {
		limit = 100
	}
	return s.repo.ListTransactions(ctx, s.defaultStoreID, from, to, limit)
}

func isSupportedPaymentMethod(method string) bool {
	switch method {
	case "cash", "card", "qris", "ewallet", "transfer":
		return true
	default:
		return false
	}
}
