package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"kasirtoko/backend/internal/cache"
	"kasirtoko/backend/internal/cart"
	"kasirtoko/backend/internal/domain"
	"kasirtoko/backend/internal/store"
	"kasirtoko/backend/internal/store/memory"
)

func newTestService() *Service {
	return New(memory.New(), cache.NoopCatalogCache{}, 5*time.Second, "main-store")
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{
		ID:       "user-admin",
		Username: "admin",
		Role:     "admin",
	})
}

func mustCreateProduct(t *testing.T, svc *Service, name string, price int64, stock int) domain.Product {
	t.Helper()
	product, err := svc.CreateProduct(adminCtx(), domain.ProductCreateRequest{
		Name:     name,
		Price:    price,
		HasStock: true,
		Stock:    stock,
	})
	if err != nil {
		t.Fatalf("create product %s failed: %v", name, err)
	}
	return product
}

func TestCheckoutComputesTotalsAndDeductsStock(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()
	product := mustCreateProduct(t, svc, "Mie Goreng Instan", 25000, 10)

	result, err := svc.Checkout(ctx, domain.CheckoutRequest{
		Items:   []domain.CheckoutItem{{ProductID: product.ID, Quantity: 2}},
		Payment: domain.Payment{Paid: 60000, Method: "cash"},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if result.Status != domain.CheckoutCommitted {
		t.Fatalf("expected committed checkout, got %s", result.Status)
	}

	tx := result.Transaction
	if tx.Subtotal != 50000 || tx.Total != 50000 {
		t.Fatalf("expected subtotal and total 50000, got %d / %d", tx.Subtotal, tx.Total)
	}
	if tx.Change != 10000 {
		t.Fatalf("expected change 10000, got %d", tx.Change)
	}
	if len(tx.Items) != 1 || tx.Items[0].Quantity != 2 {
		t.Fatalf("expected one item line of qty 2, got %+v", tx.Items)
	}

	after, err := svc.GetProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if after.Stock != 8 {
		t.Fatalf("expected stock 8 after sale, got %d", after.Stock)
	}

	movements, err := svc.ListStockMovements(ctx, product.ID, 10)
	if err != nil {
		t.Fatalf("list movements failed: %v", err)
	}
	// One "in" for the initial stock, one "out" for the sale.
	if len(movements) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(movements))
	}
	var sale domain.StockMovement
	for _, m := range movements {
		if m.Type == domain.MovementOut {
			sale = m
		}
	}
	if sale.Quantity != 2 {
		t.Fatalf("unexpected sale movement %+v", sale)
	}
	if sale.StockBefore != 10 || sale.StockAfter != 8 {
		t.Fatalf("expected before/after 10/8, got %d/%d", sale.StockBefore, sale.StockAfter)
	}
	if sale.TransactionID == nil || *sale.TransactionID != tx.ID {
		t.Fatalf("expected movement to reference the sale")
	}
}

func TestCheckoutRejectsInsufficientPaymentWithoutMutation(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()
	product := mustCreateProduct(t, svc, "Telur 10 Butir", 25000, 10)

	_, err := svc.Checkout(ctx, domain.CheckoutRequest{
		Items:   []domain.CheckoutItem{{ProductID: product.ID, Quantity: 2}},
		Payment: domain.Payment{Paid: 40000, Method: "cash"},
	})
	if !errors.Is(err, ErrInsufficientPayment) {
		t.Fatalf("expected ErrInsufficientPayment, got %v", err)
	}

	after, err := svc.GetProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if after.Stock != 10 {
		t.Fatalf("expected stock untouched at 10, got %d", after.Stock)
	}

	transactions, err := svc.ListTransactions(ctx, time.Time{}, time.Time{}, 10)
	if err != nil {
		t.Fatalf("list transactions failed: %v", err)
	}
	if len(transactions) != 0 {
		t.Fatalf("expected no persisted transactions, got %d", len(transactions))
	}
}

func TestCheckoutAllowsUnderpaidNonCashTender(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()
	product := mustCreateProduct(t, svc, "Galon Isi Ulang", 25000, 10)

	// Non-cash methods settle externally; the sale commits with the
	// shortfall recorded as negative change.
	result, err := svc.Checkout(ctx, domain.CheckoutRequest{
		Items:   []domain.CheckoutItem{{ProductID: product.ID, Quantity: 2}},
		Payment: domain.Payment{Paid: 0, Method: "qris"},
	})
	if err != nil {
		t.Fatalf("expected qris checkout to commit, got %v", err)
	}
	if result.Status != domain.CheckoutCommitted {
		t.Fatalf("expected committed checkout, got %s", result.Status)
	}
	if result.Transaction.Total != 50000 || result.Transaction.Change != -50000 {
		t.Fatalf("unexpected totals %d / change %d", result.Transaction.Total, result.Transaction.Change)
	}

	after, err := svc.GetProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if after.Stock != 8 {
		t.Fatalf("expected stock 8, got %d", after.Stock)
	}
}

func TestCheckoutPercentDiscountRoundsHalfUp(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()
	product := mustCreateProduct(t, svc, "Susu UHT 1L", 50000, 10)

	result, err := svc.Checkout(ctx, domain.CheckoutRequest{
		Items: []domain.CheckoutItem{{ProductID: product.ID, Quantity: 2}},
		Payment: domain.Payment{
			Paid:         100000,
			Method:       "cash",
			Discount:     10,
			DiscountType: domain.DiscountTypePercent,
		},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if result.Transaction.Discount != 10000 {
		t.Fatalf("expected 10%% of 100000 = 10000, got %d", result.Transaction.Discount)
	}
	if result.Transaction.Total != 90000 {
		t.Fatalf("expected total 90000, got %d", result.Transaction.Total)
	}
}

func TestCheckoutRejectsOversell(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()
	product := mustCreateProduct(t, svc, "Roti Tawar", 17800, 3)

	_, err := svc.Checkout(ctx, domain.CheckoutRequest{
		Items:   []domain.CheckoutItem{{ProductID: product.ID, Quantity: 4}},
		Payment: domain.Payment{Paid: 100000, Method: "cash"},
	})
	if !errors.Is(err, cart.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
}

func TestCheckoutSkipsStockForServiceProducts(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()
	service, err := svc.CreateProduct(ctx, domain.ProductCreateRequest{
		Name:  "Jasa Fotokopi",
		Price: 500,
	})
	if err != nil {
		t.Fatalf("create service product failed: %v", err)
	}

	result, err := svc.Checkout(ctx, domain.CheckoutRequest{
		Items:   []domain.CheckoutItem{{ProductID: service.ID, Quantity: 30}},
		Payment: domain.Payment{Paid: 15000, Method: "cash"},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if result.Status != domain.CheckoutCommitted {
		t.Fatalf("expected committed checkout, got %s", result.Status)
	}

	movements, err := svc.ListStockMovements(ctx, service.ID, 10)
	if err != nil {
		t.Fatalf("list movements failed: %v", err)
	}
	if len(movements) != 0 {
		t.Fatalf("expected no movements for non-stock product, got %d", len(movements))
	}
}

func TestTransactionNumberSequencePerDay(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()
	product := mustCreateProduct(t, svc, "Kopi Sachet", 2600, 100)

	first, err := svc.Checkout(ctx, domain.CheckoutRequest{
		Items:   []domain.CheckoutItem{{ProductID: product.ID, Quantity: 1}},
		Payment: domain.Payment{Paid: 5000, Method: "cash"},
	})
	if err != nil {
		t.Fatalf("first checkout failed: %v", err)
	}
	second, err := svc.Checkout(ctx, domain.CheckoutRequest{
		Items:   []domain.CheckoutItem{{ProductID: product.ID, Quantity: 1}},
		Payment: domain.Payment{Paid: 5000, Method: "cash"},
	})
	if err != nil {
		t.Fatalf("second checkout failed: %v", err)
	}

	datePart := time.Now().UTC().Format("20060102")
	if want := fmt.Sprintf("TRX-%s-001", datePart); first.Transaction.TransactionNumber != want {
		t.Fatalf("expected %s, got %s", want, first.Transaction.TransactionNumber)
	}
	if want := fmt.Sprintf("TRX-%s-002", datePart); second.Transaction.TransactionNumber != want {
		t.Fatalf("expected %s, got %s", want, second.Transaction.TransactionNumber)
	}
}

func TestReturnRestoresStockAndIsIdempotent(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()
	product := mustCreateProduct(t, svc, "Gula 1kg", 17400, 10)

	result, err := svc.Checkout(ctx, domain.CheckoutRequest{
		Items:   []domain.CheckoutItem{{ProductID: product.ID, Quantity: 3}},
		Payment: domain.Payment{Paid: 60000, Method: "cash"},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	returned, err := svc.ReturnTransaction(ctx, result.Transaction.ID)
	if err != nil {
		t.Fatalf("return failed: %v", err)
	}
	if returned.Transaction.Status != domain.TxStatusReturned {
		t.Fatalf("expected status returned, got %s", returned.Transaction.Status)
	}

	after, err := svc.GetProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if after.Stock != 10 {
		t.Fatalf("expected stock restored to 10, got %d", after.Stock)
	}

	movements, _ := svc.ListStockMovements(ctx, product.ID, 10)
	countBefore := len(movements)

	again, err := svc.ReturnTransaction(ctx, result.Transaction.ID)
	if err != nil {
		t.Fatalf("second return failed: %v", err)
	}
	if again.Transaction.Status != domain.TxStatusReturned {
		t.Fatalf("expected status returned after repeat, got %s", again.Transaction.Status)
	}

	movements, _ = svc.ListStockMovements(ctx, product.ID, 10)
	if len(movements) != countBefore {
		t.Fatalf("expected no extra movements on repeated return, got %d -> %d", countBefore, len(movements))
	}
}

func TestDeleteTransactionRestoresStockForCompletedSale(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()
	product := mustCreateProduct(t, svc, "Air Mineral 600ml", 3900, 20)

	result, err := svc.Checkout(ctx, domain.CheckoutRequest{
		Items:   []domain.CheckoutItem{{ProductID: product.ID, Quantity: 5}},
		Payment: domain.Payment{Paid: 20000, Method: "cash"},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if _, err := svc.DeleteTransaction(ctx, result.Transaction.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	after, err := svc.GetProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if after.Stock != 20 {
		t.Fatalf("expected stock restored to 20, got %d", after.Stock)
	}

	if _, err := svc.GetTransaction(ctx, result.Transaction.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected deleted transaction to be gone, got %v", err)
	}
}

func TestDeleteReturnedTransactionDoesNotRestoreTwice(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()
	product := mustCreateProduct(t, svc, "Sabun Batang", 4500, 10)

	result, err := svc.Checkout(ctx, domain.CheckoutRequest{
		Items:   []domain.CheckoutItem{{ProductID: product.ID, Quantity: 2}},
		Payment: domain.Payment{Paid: 10000, Method: "cash"},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if _, err := svc.ReturnTransaction(ctx, result.Transaction.ID); err != nil {
		t.Fatalf("return failed: %v", err)
	}
	if _, err := svc.DeleteTransaction(ctx, result.Transaction.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	after, err := svc.GetProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if after.Stock != 10 {
		t.Fatalf("expected stock 10, got %d", after.Stock)
	}
}

func TestAdjustStockTreatsAdjustmentAsAbsoluteLevel(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()
	product := mustCreateProduct(t, svc, "Minyak Goreng 1L", 21000, 10)

	updated, movement, err := svc.AdjustStock(ctx, product.ID, domain.StockAdjustRequest{
		Type:     domain.MovementAdjustment,
		Quantity: 15,
		Notes:    "stock opname",
	})
	if err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if updated.Stock != 15 {
		t.Fatalf("expected stock 15, got %d", updated.Stock)
	}
	if movement.Quantity != 5 || movement.StockBefore != 10 || movement.StockAfter != 15 {
		t.Fatalf("unexpected adjustment movement %+v", movement)
	}
	if movement.Notes != "stock opname (in 5)" {
		t.Fatalf("expected derived direction in note, got %q", movement.Notes)
	}

	_, _, err = svc.AdjustStock(ctx, product.ID, domain.StockAdjustRequest{
		Type:     domain.MovementOut,
		Quantity: 40,
	})
	if !errors.Is(err, store.ErrNegativeStock) {
		t.Fatalf("expected ErrNegativeStock, got %v", err)
	}
}

func TestAdjustStockRejectsServiceProducts(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()
	service, err := svc.CreateProduct(ctx, domain.ProductCreateRequest{Name: "Jasa Laminating", Price: 2000})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	_, _, err = svc.AdjustStock(ctx, service.ID, domain.StockAdjustRequest{
		Type:     domain.MovementIn,
		Quantity: 5,
	})
	if !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("expected ErrPreconditionFailed, got %v", err)
	}
}

func TestShiftExpectedBalanceCoversCashSalesAndExpenses(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()
	product := mustCreateProduct(t, svc, "Beras 5kg", 125000, 10)

	if _, err := svc.OpenShift(ctx, domain.ShiftOpenRequest{OpeningBalance: 100000}); err != nil {
		t.Fatalf("open shift failed: %v", err)
	}

	if _, err := svc.Checkout(ctx, domain.CheckoutRequest{
		Items:   []domain.CheckoutItem{{ProductID: product.ID, Quantity: 2}},
		Payment: domain.Payment{Paid: 250000, Method: "cash"},
	}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if _, err := svc.CreateExpense(ctx, domain.ExpenseCreateRequest{Category: "listrik", Amount: 30000}); err != nil {
		t.Fatalf("create expense failed: %v", err)
	}

	summary, err := svc.CloseShift(ctx, domain.ShiftCloseRequest{ActualBalance: 320000})
	if err != nil {
		t.Fatalf("close shift failed: %v", err)
	}
	if summary.Shift.ClosingBalanceExpected != 320000 {
		t.Fatalf("expected balance 320000, got %d", summary.Shift.ClosingBalanceExpected)
	}
	if summary.Variance != 0 {
		t.Fatalf("expected zero variance, got %d", summary.Variance)
	}
}

func TestOpenShiftTwiceReturnsTheExistingShift(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	first, err := svc.OpenShift(ctx, domain.ShiftOpenRequest{OpeningBalance: 50000})
	if err != nil {
		t.Fatalf("open shift failed: %v", err)
	}
	second, err := svc.OpenShift(ctx, domain.ShiftOpenRequest{OpeningBalance: 99999})
	if err != nil {
		t.Fatalf("second open failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected the same shift back, got %s and %s", first.ID, second.ID)
	}
	if second.OpeningBalance != 50000 {
		t.Fatalf("expected original opening balance, got %d", second.OpeningBalance)
	}
}

func TestCloseShiftWithoutOpenFails(t *testing.T) {
	svc := newTestService()

	_, err := svc.CloseShift(adminCtx(), domain.ShiftCloseRequest{ActualBalance: 10000})
	if !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("expected ErrPreconditionFailed, got %v", err)
	}
}

func TestTodaySummaryExcludesReturnedSales(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()
	product := mustCreateProduct(t, svc, "Teh Botol", 5000, 50)

	kept, err := svc.Checkout(ctx, domain.CheckoutRequest{
		Items:   []domain.CheckoutItem{{ProductID: product.ID, Quantity: 2}},
		Payment: domain.Payment{Paid: 10000, Method: "cash"},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	reverted, err := svc.Checkout(ctx, domain.CheckoutRequest{
		Items:   []domain.CheckoutItem{{ProductID: product.ID, Quantity: 1}},
		Payment: domain.Payment{Paid: 5000, Method: "qris"},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if _, err := svc.ReturnTransaction(ctx, reverted.Transaction.ID); err != nil {
		t.Fatalf("return failed: %v", err)
	}

	summary, err := svc.TodaySummary(ctx)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.TotalTransactions != 1 {
		t.Fatalf("expected 1 counted transaction, got %d", summary.TotalTransactions)
	}
	if summary.TotalSales != kept.Transaction.Total {
		t.Fatalf("expected total %d, got %d", kept.Transaction.Total, summary.TotalSales)
	}
	if summary.CashSales != kept.Transaction.Total || summary.NonCashSales != 0 {
		t.Fatalf("unexpected cash split %d / %d", summary.CashSales, summary.NonCashSales)
	}
}

// flakyRepo wraps the memory store to inject repository failures.
type flakyRepo struct {
	store.Repository
	countErr error
	itemsErr error
}

func (f *flakyRepo) CountTransactions(ctx context.Context, storeID string, from, to time.Time) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.Repository.CountTransactions(ctx, storeID, from, to)
}

func (f *flakyRepo) CreateTransactionItems(ctx context.Context, items []domain.TransactionItem) ([]domain.TransactionItem, error) {
	if f.itemsErr != nil {
		return nil, f.itemsErr
	}
	return f.Repository.CreateTransactionItems(ctx, items)
}

func TestNumberingFallsBackWhenCountFails(t *testing.T) {
	repo := &flakyRepo{Repository: memory.New(), countErr: errors.New("db down")}
	svc := New(repo, cache.NoopCatalogCache{}, time.Second, "main-store")

	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	number := svc.NextTransactionNumber(context.Background(), "main-store", now)
	if number != "TRX-20260314-092653.000" {
		t.Fatalf("unexpected fallback number %s", number)
	}
}

func TestCheckoutReportsPartialCommitWhenItemsFail(t *testing.T) {
	repo := &flakyRepo{Repository: memory.New(), itemsErr: errors.New("write failed")}
	svc := New(repo, cache.NoopCatalogCache{}, time.Second, "main-store")
	ctx := adminCtx()

	product, err := svc.CreateProduct(ctx, domain.ProductCreateRequest{
		Name:     "Sarden Kaleng",
		Price:    15000,
		HasStock: true,
		Stock:    10,
	})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	_, err = svc.Checkout(ctx, domain.CheckoutRequest{
		Items:   []domain.CheckoutItem{{ProductID: product.ID, Quantity: 1}},
		Payment: domain.Payment{Paid: 15000, Method: "cash"},
	})
	if !errors.Is(err, ErrPartialCommit) {
		t.Fatalf("expected ErrPartialCommit, got %v", err)
	}

	// The header survives the failed item write.
	transactions, listErr := svc.ListTransactions(ctx, time.Time{}, time.Time{}, 10)
	if listErr != nil {
		t.Fatalf("list transactions failed: %v", listErr)
	}
	if len(transactions) != 1 {
		t.Fatalf("expected the header to be persisted, got %d transactions", len(transactions))
	}
}

// movementFailRepo fails the conditional stock write for one product once
// armed; everything else passes through to the wrapped store.
type movementFailRepo struct {
	store.Repository
	failProductID string
	armed         bool
}

func (m *movementFailRepo) ApplyStockMovement(ctx context.Context, movement domain.StockMovement) error {
	if m.armed && movement.ProductID == m.failProductID {
		return errors.New("ledger write failed")
	}
	return m.Repository.ApplyStockMovement(ctx, movement)
}

func seedRawProduct(t *testing.T, mem *memory.Store, name string, price int64, stock int) domain.Product {
	t.Helper()
	product, err := mem.CreateProduct(context.Background(), domain.Product{
		Name:     name,
		StoreID:  "main-store",
		Price:    price,
		HasStock: true,
		Stock:    stock,
	})
	if err != nil {
		t.Fatalf("seed product %s failed: %v", name, err)
	}
	return *product
}

func TestCheckoutDegradesWhenOneLineStockWriteFails(t *testing.T) {
	mem := memory.New()
	good := seedRawProduct(t, mem, "Sambal Botol", 14000, 10)
	bad := seedRawProduct(t, mem, "Kerupuk Kaleng", 9000, 10)

	repo := &movementFailRepo{Repository: mem, failProductID: bad.ID, armed: true}
	svc := New(repo, cache.NoopCatalogCache{}, time.Second, "main-store")
	ctx := adminCtx()

	result, err := svc.Checkout(ctx, domain.CheckoutRequest{
		Items: []domain.CheckoutItem{
			{ProductID: good.ID, Quantity: 2},
			{ProductID: bad.ID, Quantity: 1},
		},
		Payment: domain.Payment{Paid: 40000, Method: "cash"},
	})
	if err != nil {
		t.Fatalf("expected checkout to degrade, not fail: %v", err)
	}
	if result.Status != domain.CheckoutPartiallyCommitted {
		t.Fatalf("expected partially_committed, got %s", result.Status)
	}
	if len(result.StockWarnings) != 1 {
		t.Fatalf("expected one stock warning, got %v", result.StockWarnings)
	}
	if len(result.Transaction.Items) != 2 {
		t.Fatalf("expected both item lines persisted, got %d", len(result.Transaction.Items))
	}

	goodAfter, err := svc.GetProduct(ctx, good.ID)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if goodAfter.Stock != 8 {
		t.Fatalf("expected the healthy line deducted to 8, got %d", goodAfter.Stock)
	}
	badAfter, err := svc.GetProduct(ctx, bad.ID)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if badAfter.Stock != 10 {
		t.Fatalf("expected the failed line untouched at 10, got %d", badAfter.Stock)
	}
}

func TestReturnRestoresOtherItemsWhenOneFails(t *testing.T) {
	mem := memory.New()
	good := seedRawProduct(t, mem, "Tisu Gulung", 6000, 10)
	bad := seedRawProduct(t, mem, "Korek Gas", 3000, 10)

	repo := &movementFailRepo{Repository: mem, failProductID: bad.ID}
	svc := New(repo, cache.NoopCatalogCache{}, time.Second, "main-store")
	ctx := adminCtx()

	result, err := svc.Checkout(ctx, domain.CheckoutRequest{
		Items: []domain.CheckoutItem{
			{ProductID: good.ID, Quantity: 3},
			{ProductID: bad.ID, Quantity: 2},
		},
		Payment: domain.Payment{Paid: 30000, Method: "cash"},
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	repo.armed = true
	returned, err := svc.ReturnTransaction(ctx, result.Transaction.ID)
	if err != nil {
		t.Fatalf("expected return to proceed with warnings, got %v", err)
	}
	if returned.Transaction.Status != domain.TxStatusReturned {
		t.Fatalf("expected status returned, got %s", returned.Transaction.Status)
	}
	if len(returned.Warnings) != 1 {
		t.Fatalf("expected one restore warning, got %v", returned.Warnings)
	}

	goodAfter, err := svc.GetProduct(ctx, good.ID)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if goodAfter.Stock != 10 {
		t.Fatalf("expected the healthy line restored to 10, got %d", goodAfter.Stock)
	}
	badAfter, err := svc.GetProduct(ctx, bad.ID)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if badAfter.Stock != 8 {
		t.Fatalf("expected the failed line left at 8, got %d", badAfter.Stock)
	}
}

// conflictRepo reports a stock conflict on every conditional write.
type conflictRepo struct {
	store.Repository
	attempts int
}

func (c *conflictRepo) ApplyStockMovement(ctx context.Context, movement domain.StockMovement) error {
	c.attempts++
	return store.ErrConflict
}

func TestAdjustStockGivesUpAfterRepeatedConflicts(t *testing.T) {
	mem := memory.New()
	seeded, err := mem.CreateProduct(context.Background(), domain.Product{
		Name:     "Kecap Manis",
		StoreID:  "main-store",
		Price:    12000,
		HasStock: true,
		Stock:    10,
	})
	if err != nil {
		t.Fatalf("seed product failed: %v", err)
	}

	repo := &conflictRepo{Repository: mem}
	svc := New(repo, cache.NoopCatalogCache{}, time.Second, "main-store")

	_, _, err = svc.AdjustStock(adminCtx(), seeded.ID, domain.StockAdjustRequest{
		Type:     domain.MovementIn,
		Quantity: 5,
	})
	if err == nil {
		t.Fatalf("expected adjust to fail after retries")
	}
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected wrapped ErrConflict, got %v", err)
	}
	if repo.attempts != stockRetryLimit {
		t.Fatalf("expected %d attempts, got %d", stockRetryLimit, repo.attempts)
	}
}

func TestExpenseLifecycle(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	expense, err := svc.CreateExpense(ctx, domain.ExpenseCreateRequest{
		Category: "air",
		Amount:   45000,
		Date:     "2026-08-30",
	})
	if err != nil {
		t.Fatalf("create expense failed: %v", err)
	}

	from, _ := time.Parse("2006-01-02", "2026-08-30")
	expenses, err := svc.ListExpenses(ctx, from, from.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("list expenses failed: %v", err)
	}
	if len(expenses) != 1 || expenses[0].Amount != 45000 {
		t.Fatalf("unexpected expense list %+v", expenses)
	}

	if err := svc.DeleteExpense(ctx, expense.ID); err != nil {
		t.Fatalf("delete expense failed: %v", err)
	}
	expenses, _ = svc.ListExpenses(ctx, from, from.Add(24*time.Hour))
	if len(expenses) != 0 {
		t.Fatalf("expected empty expense list, got %d", len(expenses))
	}
}

func TestSoftDeletedProductLeavesCatalog(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()
	product := mustCreateProduct(t, svc, "Sampo Sachet", 1000, 50)

	if err := svc.DeleteProduct(ctx, product.ID); err != nil {
		t.Fatalf("delete product failed: %v", err)
	}

	products, err := svc.ListProducts(ctx)
	if err != nil {
		t.Fatalf("list products failed: %v", err)
	}
	for _, p := range products {
		if p.ID == product.ID {
			t.Fatalf("expected soft-deleted product out of the catalog")
		}
	}

	// The row itself survives for historical references.
	kept, err := svc.GetProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if kept.IsActive {
		t.Fatalf("expected product inactive")
	}
}

func TestAuditLogsRecordCheckout(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()
	product := mustCreateProduct(t, svc, "Pulpen", 3000, 30)

	if _, err := svc.Checkout(ctx, domain.CheckoutRequest{
		Items:   []domain.CheckoutItem{{ProductID: product.ID, Quantity: 1}},
		Payment: domain.Payment{Paid: 3000, Method: "cash"},
	}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	logs, err := svc.ListAuditLogs(ctx, "", "", 50)
	if err != nil {
		t.Fatalf("list audit logs failed: %v", err)
	}
	var found bool
	for _, entry := range logs {
		if entry.Action == "checkout" && entry.ActorName == "admin" {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("expected a checkout audit entry, got %+v", logs)
	}
}
