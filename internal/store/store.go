package store

import (
	"context"
	"errors"
	"time"

	"kasirtoko/backend/internal/domain"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrNegativeStock = errors.New("negative stock")
	ErrDuplicate     = errors.New("duplicate")
	ErrUnavailable   = errors.New("store unavailable")
)

// Repository is the persistence boundary. Implementations are not required
// to provide cross-entity transactions; the one compound guarantee is
// ApplyStockMovement, which must update the product stock and append the
// ledger entry as a single unit of work, failing with ErrConflict when the
// product's current stock no longer equals the movement's StockBefore.
type Repository interface {
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	ListProducts(ctx context.Context, storeID string) ([]domain.Product, error)
	SearchProducts(ctx context.Context, storeID string, term string) ([]domain.Product, error)
	ListLowStockProducts(ctx context.Context, storeID string) ([]domain.Product, error)

	ApplyStockMovement(ctx context.Context, movement domain.StockMovement) error
	ListStockMovements(ctx context.Context, productID string, limit int) ([]domain.StockMovement, error)

	CreateTransaction(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error)
	CreateTransactionItems(ctx context.Context, items []domain.TransactionItem) ([]domain.TransactionItem, error)
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	UpdateTransactionStatus(ctx context.Context, id string, status string) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	ListTransactions(ctx context.Context, storeID string, from, to time.Time, limit int) ([]domain.Transaction, error)
	CountTransactions(ctx context.Context, storeID string, from, to time.Time) (int, error)
	SumCashTransactions(ctx context.Context, storeID string, from, to time.Time) (int64, error)

	CreateShift(ctx context.Context, shift domain.Shift) (*domain.Shift, error)
	GetShift(ctx context.Context, id string) (*domain.Shift, error)
	GetActiveShift(ctx context.Context, storeID string, userID string) (*domain.Shift, error)
	UpdateShift(ctx context.Context, shift domain.Shift) (*domain.Shift, error)
	ListShifts(ctx context.Context, storeID string, from, to time.Time, limit int) ([]domain.Shift, error)

	CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	DeleteExpense(ctx context.Context, id string) error
	ListExpenses(ctx context.Context, storeID string, from, to time.Time) ([]domain.Expense, error)
	SumExpenses(ctx context.Context, storeID string, from, to time.Time) (int64, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, storeID string, from, to time.Time, limit int) ([]domain.AuditLog, error)

	GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error)
	CreateUser(ctx context.Context, user domain.UserAccount) error
}
