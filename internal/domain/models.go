package domain

import "time"

type Product struct {
	ID        string    `json:"id"`
	StoreID   string    `json:"store_id"`
	SKU       string    `json:"sku,omitempty"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	BuyPrice  int64     `json:"buy_price,omitempty"`
	Unit      string    `json:"unit,omitempty"`
	HasStock  bool      `json:"has_stock"`
	Stock     int       `json:"stock"`
	MinStock  int       `json:"min_stock"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProductCreateRequest struct {
	SKU      string `json:"sku"`
	Name     string `json:"name" validate:"required"`
	Price    int64  `json:"price" validate:"gte=1"`
	BuyPrice int64  `json:"buy_price" validate:"gte=0"`
	Unit     string `json:"unit"`
	HasStock bool   `json:"has_stock"`
	Stock    int    `json:"stock" validate:"gte=0"`
	MinStock int    `json:"min_stock" validate:"gte=0"`
}

type ProductUpdateRequest struct {
	SKU      *string `json:"sku,omitempty"`
	Name     *string `json:"name,omitempty"`
	Price    *int64  `json:"price,omitempty" validate:"omitempty,gte=1"`
	BuyPrice *int64  `json:"buy_price,omitempty" validate:"omitempty,gte=0"`
	Unit     *string `json:"unit,omitempty"`
	HasStock *bool   `json:"has_stock,omitempty"`
	MinStock *int    `json:"min_stock,omitempty" validate:"omitempty,gte=0"`
}

// CartLine is one staged line of a pending sale. Name, SKU and unit price
// are frozen when the line is added; CurrentStock is the level observed at
// the last cart mutation and is advisory only.
type CartLine struct {
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name"`
	ProductSKU   string `json:"product_sku,omitempty"`
	ProductPrice int64  `json:"product_price"`
	Quantity     int    `json:"quantity"`
	Subtotal     int64  `json:"subtotal"`
	HasStock     bool   `json:"has_stock"`
	CurrentStock int    `json:"current_stock"`
}

const (
	DiscountTypeNominal = "nominal"
	DiscountTypePercent = "percent"
)

// Payment carries the tender and the adjustments applied on top of the
// cart subtotal at checkout.
type Payment struct {
	Paid             int64  `json:"paid" validate:"gte=0"`
	Method           string `json:"payment_method" validate:"required"`
	Discount         int64  `json:"discount" validate:"gte=0"`
	DiscountType     string `json:"discount_type" validate:"omitempty,oneof=nominal percent"`
	SettingsDiscount int64  `json:"discount_from_settings" validate:"gte=0"`
	Tax              int64  `json:"tax" validate:"gte=0"`
	VAT              int64  `json:"ppn" validate:"gte=0"`
	CustomerName     string `json:"customer_name"`
	CustomerPhone    string `json:"customer_phone"`
	Notes            string `json:"notes"`
}

const (
	TxStatusCompleted = "completed"
	TxStatusReturned  = "returned"
	TxStatusVoided    = "voided"
)

type Transaction struct {
	ID                string            `json:"id"`
	StoreID           string            `json:"store_id"`
	TransactionNumber string            `json:"transaction_number"`
	Subtotal          int64             `json:"subtotal"`
	Discount          int64             `json:"discount"`
	DiscountType      string            `json:"discount_type"`
	SettingsDiscount  int64             `json:"discount_from_settings"`
	Tax               int64             `json:"tax"`
	VAT               int64             `json:"ppn"`
	Total             int64             `json:"total"`
	Paid              int64             `json:"paid"`
	Change            int64             `json:"change"`
	PaymentMethod     string            `json:"payment_method"`
	CustomerName      string            `json:"customer_name,omitempty"`
	CustomerPhone     string            `json:"customer_phone,omitempty"`
	Notes             string            `json:"notes,omitempty"`
	Status            string            `json:"status"`
	CreatedBy         string            `json:"created_by"`
	CreatedAt         time.Time         `json:"created_at"`
	Items             []TransactionItem `json:"items"`
}

// TransactionItem is immutable once written. ProductID is a pointer so the
// line survives deletion of the product it was sold from.
type TransactionItem struct {
	ID            string  `json:"id"`
	TransactionID string  `json:"transaction_id"`
	ProductID     *string `json:"product_id,omitempty"`
	ProductName   string  `json:"product_name"`
	ProductSKU    string  `json:"product_sku,omitempty"`
	ProductPrice  int64   `json:"product_price"`
	Quantity      int     `json:"quantity"`
	Subtotal      int64   `json:"subtotal"`
}

const (
	MovementIn         = "in"
	MovementOut        = "out"
	MovementAdjustment = "adjustment"
)

// StockMovement is one append-only ledger entry. StockAfter must equal
// StockBefore plus the signed effect of the movement; for "adjustment" the
// Quantity is the signed delta between the new and the previous level.
type StockMovement struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	TransactionID *string   `json:"transaction_id,omitempty"`
	Type          string    `json:"type"`
	Quantity      int       `json:"quantity"`
	StockBefore   int       `json:"stock_before"`
	StockAfter    int       `json:"stock_after"`
	Notes         string    `json:"notes,omitempty"`
	CreatedBy     string    `json:"created_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type StockAdjustRequest struct {
	Type     string `json:"type" validate:"required,oneof=in out adjustment"`
	Quantity int    `json:"quantity" validate:"gte=0"`
	Notes    string `json:"notes"`
}

const (
	ShiftStatusOpen   = "open"
	ShiftStatusClosed = "closed"
)

type Shift struct {
	ID                     string     `json:"id"`
	StoreID                string     `json:"store_id"`
	UserID                 string     `json:"user_id"`
	StartTime              time.Time  `json:"start_time"`
	EndTime                *time.Time `json:"end_time,omitempty"`
	OpeningBalance         int64      `json:"opening_balance"`
	ClosingBalanceActual   int64      `json:"closing_balance_actual"`
	ClosingBalanceExpected int64      `json:"closing_balance_expected"`
	Status                 string     `json:"status"`
	Notes                  string     `json:"notes,omitempty"`
}

// Variance is the drawer discrepancy of a closed shift.
func (s Shift) Variance() int64 {
	return s.ClosingBalanceActual - s.ClosingBalanceExpected
}

type ShiftOpenRequest struct {
	OpeningBalance int64  `json:"opening_balance" validate:"gte=0"`
	Notes          string `json:"notes"`
}

type ShiftCloseRequest struct {
	ActualBalance int64  `json:"closing_balance_actual" validate:"gte=0"`
	Notes         string `json:"notes"`
}

type ShiftUpdateRequest struct {
	OpeningBalance *int64  `json:"opening_balance,omitempty" validate:"omitempty,gte=0"`
	Notes          *string `json:"notes,omitempty"`
}

type ShiftSummary struct {
	Shift    Shift `json:"shift"`
	Variance int64 `json:"variance"`
}

type Expense struct {
	ID        string    `json:"id"`
	StoreID   string    `json:"store_id"`
	Category  string    `json:"category"`
	Amount    int64     `json:"amount"`
	Date      time.Time `json:"date"`
	Note      string    `json:"note,omitempty"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ExpenseCreateRequest struct {
	Category string `json:"category" validate:"required"`
	Amount   int64  `json:"amount" validate:"gte=1"`
	Date     string `json:"date"`
	Note     string `json:"note"`
}

type CheckoutItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
}

type CheckoutRequest struct {
	Items   []CheckoutItem `json:"items" validate:"required,min=1,dive"`
	Payment Payment        `json:"payment"`
}

const (
	CheckoutCommitted          = "committed"
	CheckoutPartiallyCommitted = "partially_committed"
)

// CheckoutResult reports the saga outcome. Status is "committed" when every
// step applied; "partially_committed" means the sale persisted but one or
// more stock side effects failed, listed in StockWarnings.
type CheckoutResult struct {
	Transaction   Transaction `json:"transaction"`
	Status        string      `json:"status"`
	StockWarnings []string    `json:"stock_warnings,omitempty"`
}

// ReversalResult reports a delete or return outcome. Stock restoration
// failures are warnings, never errors.
type ReversalResult struct {
	Transaction Transaction `json:"transaction"`
	Warnings    []string    `json:"warnings,omitempty"`
}

type TodaySummary struct {
	TotalSales         int64   `json:"total_sales"`
	TotalTransactions  int     `json:"total_transactions"`
	CashSales          int64   `json:"cash_sales"`
	NonCashSales       int64   `json:"non_cash_sales"`
	AverageTransaction float64 `json:"average_transaction"`
}

// Actor is the authenticated user performing an operation, carried on the
// request context.
type Actor struct {
	ID       string
	Username string
	Role     string
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	ID        string
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type AuditLog struct {
	ID         string    `json:"id"`
	StoreID    string    `json:"store_id"`
	ActorID    string    `json:"actor_id"`
	ActorName  string    `json:"actor_name"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Detail     string    `json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}
