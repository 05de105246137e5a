package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"kasirtoko/backend/internal/domain"
	"kasirtoko/backend/internal/store"
	"kasirtoko/backend/internal/xid"
)

type Store struct {
	mu               sync.RWMutex
	products         map[string]domain.Product
	transactionsByID map[string]*domain.Transaction
	itemsByTx        map[string][]domain.TransactionItem
	movements        map[string][]domain.StockMovement
	shiftsByID       map[string]domain.Shift
	activeShiftByKey map[string]string
	expensesByID     map[string]domain.Expense
	auditLogs        []domain.AuditLog
	usersByUsername  map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD
// environment variables. If unset, hardcoded dev defaults are used with a
// warning printed to stdout. These credentials are never used in production
// (the backend uses PostgreSQL when DATABASE_URL is set).
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			ID:        xid.New("user"),
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func New() *Store {
	return &Store{
		products:         make(map[string]domain.Product),
		transactionsByID: make(map[string]*domain.Transaction),
		itemsByTx:        make(map[string][]domain.TransactionItem),
		movements:        make(map[string][]domain.StockMovement),
		shiftsByID:       make(map[string]domain.Shift),
		activeShiftByKey: make(map[string]string),
		expensesByID:     make(map[string]domain.Expense),
		auditLogs:        make([]domain.AuditLog, 0, 128),
		usersByUsername:  seedUsers(),
	}
}

func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()
	seed := []domain.Product{
		{SKU: "SKU-MIE-01", Name: "Mie Goreng Instan", Price: 3500, BuyPrice: 2700, Unit: "pcs", HasStock: true, Stock: 120, MinStock: 12},
		{SKU: "SKU-TELUR-01", Name: "Telur 10 Butir", Price: 26500, BuyPrice: 23000, Unit: "pack", HasStock: true, Stock: 40, MinStock: 5},
		{SKU: "SKU-SUSU-01", Name: "Susu UHT 1L", Price: 18900, BuyPrice: 14500, Unit: "box", HasStock: true, Stock: 60, MinStock: 8},
		{SKU: "SKU-ROTI-01", Name: "Roti Tawar", Price: 17800, BuyPrice: 12500, Unit: "pcs", HasStock: true, Stock: 25, MinStock: 4},
		{SKU: "SKU-KOPI-01", Name: "Kopi Sachet", Price: 2600, BuyPrice: 1800, Unit: "pcs", HasStock: true, Stock: 200, MinStock: 24},
		{SKU: "SKU-GULA-01", Name: "Gula 1kg", Price: 17400, BuyPrice: 15300, Unit: "kg", HasStock: true, Stock: 35, MinStock: 6},
		{SKU: "SKU-AIR-01", Name: "Air Mineral 600ml", Price: 3900, BuyPrice: 3200, Unit: "btl", HasStock: true, Stock: 150, MinStock: 24},
		{SKU: "SKU-JASA-01", Name: "Jasa Fotokopi", Price: 500, Unit: "lembar", HasStock: false},
	}
	for _, p := range seed {
		p.ID = xid.New("prod")
		p.StoreID = "main-store"
		p.IsActive = true
		p.CreatedAt = now
		p.UpdatedAt = now
		s.products[p.ID] = p
	}
	return s
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" {
		product.ID = xid.New("prod")
	}
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	product.IsActive = true

	s.products[product.ID] = product
	created := product
	return &created, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyProduct := product
	return &copyProduct, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.products[product.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	product.CreatedAt = current.CreatedAt
	product.UpdatedAt = time.Now().UTC()
	s.products[product.ID] = product
	updated := product
	return &updated, nil
}

func (s *Store) ListProducts(_ context.Context, storeID string) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if !p.IsActive || p.StoreID != storeID {
			continue
		}
		products = append(products, p)
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		return cmpString(a.Name, b.Name)
	})
	return products, nil
}

func (s *Store) SearchProducts(_ context.Context, storeID string, term string) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	term = strings.ToLower(strings.TrimSpace(term))
	products := make([]domain.Product, 0, 16)
	for _, p := range s.products {
		if !p.IsActive || p.StoreID != storeID {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.SKU), term) {
			continue
		}
		products = append(products, p)
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		return cmpString(a.Name, b.Name)
	})
	return products, nil
}

func (s *Store) ListLowStockProducts(_ context.Context, storeID string) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, 16)
	for _, p := range s.products {
		if !p.IsActive || p.StoreID != storeID || !p.HasStock {
			continue
		}
		if p.Stock <= p.MinStock {
			products = append(products, p)
		}
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		return cmpString(a.Name, b.Name)
	})
	return products, nil
}

// ApplyStockMovement updates the product stock and appends the ledger entry
// inside one mutex section. The write is conditional: the product's current
// stock must still equal the movement's StockBefore.
func (s *Store) ApplyStockMovement(_ context.Context, movement domain.StockMovement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, exists := s.products[movement.ProductID]
	if !exists {
		return store.ErrNotFound
	}
	if movement.StockAfter < 0 {
		return store.ErrNegativeStock
	}
	if product.Stock != movement.StockBefore {
		return store.ErrConflict
	}

	if movement.ID == "" {
		movement.ID = xid.New("mov")
	}
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now().UTC()
	}

	product.Stock = movement.StockAfter
	product.UpdatedAt = time.Now().UTC()
	s.products[movement.ProductID] = product
	s.movements[movement.ProductID] = append(s.movements[movement.ProductID], movement)
	return nil
}

func (s *Store) ListStockMovements(_ context.Context, productID string, limit int) ([]domain.StockMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.movements[productID]
	result := make([]domain.StockMovement, len(history))
	copy(result, history)
	slices.SortFunc(result, func(a, b domain.StockMovement) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) CreateTransaction(_ context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.ID == "" {
		tx.ID = xid.New("tx")
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	if tx.Status == "" {
		tx.Status = domain.TxStatusCompleted
	}
	tx.Items = nil

	saved := cloneTransaction(&tx)
	s.transactionsByID[tx.ID] = saved
	return cloneTransaction(saved), nil
}

func (s *Store) CreateTransactionItems(_ context.Context, items []domain.TransactionItem) ([]domain.TransactionItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := make([]domain.TransactionItem, 0, len(items))
	for _, item := range items {
		if _, exists := s.transactionsByID[item.TransactionID]; !exists {
			return nil, store.ErrNotFound
		}
		if item.ID == "" {
			item.ID = xid.New("txi")
		}
		s.itemsByTx[item.TransactionID] = append(s.itemsByTx[item.TransactionID], item)
		created = append(created, item)
	}
	return created, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, exists := s.transactionsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	result := cloneTransaction(tx)
	result.Items = append([]domain.TransactionItem(nil), s.itemsByTx[id]...)
	return result, nil
}

func (s *Store) UpdateTransactionStatus(_ context.Context, id string, status string) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, exists := s.transactionsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	tx.Status = status
	result := cloneTransaction(tx)
	result.Items = append([]domain.TransactionItem(nil), s.itemsByTx[id]...)
	return result, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.transactionsByID[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.transactionsByID, id)
	delete(s.itemsByTx, id)
	return nil
}

func (s *Store) ListTransactions(_ context.Context, storeID string, from, to time.Time, limit int) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Transaction, 0, 64)
	for _, tx := range s.transactionsByID {
		if tx.StoreID != storeID {
			continue
		}
		if !inRange(tx.CreatedAt, from, to) {
			continue
		}
		full := cloneTransaction(tx)
		full.Items = append([]domain.TransactionItem(nil), s.itemsByTx[tx.ID]...)
		result = append(result, *full)
	}
	slices.SortFunc(result, func(a, b domain.Transaction) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) CountTransactions(_ context.Context, storeID string, from, to time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, tx := range s.transactionsByID {
		if tx.StoreID != storeID {
			continue
		}
		if inRange(tx.CreatedAt, from, to) {
			count++
		}
	}
	return count, nil
}

func (s *Store) SumCashTransactions(_ context.Context, storeID string, from, to time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum int64
	for _, tx := range s.transactionsByID {
		if tx.StoreID != storeID || tx.PaymentMethod != "cash" {
			continue
		}
		if tx.Status != domain.TxStatusCompleted {
			continue
		}
		if inRange(tx.CreatedAt, from, to) {
			sum += tx.Total
		}
	}
	return sum, nil
}

func (s *Store) CreateShift(_ context.Context, shift domain.Shift) (*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := shiftMapKey(shift.StoreID, shift.UserID)
	if _, exists := s.activeShiftByKey[key]; exists {
		return nil, store.ErrDuplicate
	}
	if shift.ID == "" {
		shift.ID = xid.New("shift")
	}
	if shift.StartTime.IsZero() {
		shift.StartTime = time.Now().UTC()
	}
	shift.Status = domain.ShiftStatusOpen
	shift.EndTime = nil

	s.shiftsByID[shift.ID] = shift
	s.activeShiftByKey[key] = shift.ID
	copyShift := shift
	return &copyShift, nil
}

func (s *Store) GetShift(_ context.Context, id string) (*domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shift, exists := s.shiftsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyShift := shift
	return &copyShift, nil
}

func (s *Store) GetActiveShift(_ context.Context, storeID string, userID string) (*domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shiftID, exists := s.activeShiftByKey[shiftMapKey(storeID, userID)]
	if !exists {
		return nil, store.ErrNotFound
	}
	shift, exists := s.shiftsByID[shiftID]
	if !exists || shift.Status != domain.ShiftStatusOpen {
		return nil, store.ErrNotFound
	}
	copyShift := shift
	return &copyShift, nil
}

func (s *Store) UpdateShift(_ context.Context, shift domain.Shift) (*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.shiftsByID[shift.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if current.Status == domain.ShiftStatusOpen && shift.Status == domain.ShiftStatusClosed {
		delete(s.activeShiftByKey, shiftMapKey(current.StoreID, current.UserID))
	}
	s.shiftsByID[shift.ID] = shift
	copyShift := shift
	return &copyShift, nil
}

func (s *Store) ListShifts(_ context.Context, storeID string, from, to time.Time, limit int) ([]domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Shift, 0, 32)
	for _, shift := range s.shiftsByID {
		if shift.StoreID != storeID {
			continue
		}
		if !inRange(shift.StartTime, from, to) {
			continue
		}
		result = append(result, shift)
	}
	slices.SortFunc(result, func(a, b domain.Shift) int {
		if a.StartTime.Equal(b.StartTime) {
			return cmpString(b.ID, a.ID)
		}
		if a.StartTime.After(b.StartTime) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) CreateExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expense.ID == "" {
		expense.ID = xid.New("exp")
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}
	if expense.Date.IsZero() {
		expense.Date = expense.CreatedAt
	}
	s.expensesByID[expense.ID] = expense
	created := expense
	return &created, nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.expensesByID[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.expensesByID, id)
	return nil
}

func (s *Store) ListExpenses(_ context.Context, storeID string, from, to time.Time) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Expense, 0, 32)
	for _, expense := range s.expensesByID {
		if expense.StoreID != storeID {
			continue
		}
		if !inRange(expense.Date, from, to) {
			continue
		}
		result = append(result, expense)
	}
	slices.SortFunc(result, func(a, b domain.Expense) int {
		if a.Date.Equal(b.Date) {
			return cmpString(b.ID, a.ID)
		}
		if a.Date.After(b.Date) {
			return -1
		}
		return 1
	})
	return result, nil
}

func (s *Store) SumExpenses(_ context.Context, storeID string, from, to time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum int64
	for _, expense := range s.expensesByID {
		if expense.StoreID != storeID {
			continue
		}
		if inRange(expense.Date, from, to) {
			sum += expense.Amount
		}
	}
	return sum, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, storeID string, from, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.AuditLog, 0, 64)
	for _, entry := range s.auditLogs {
		if storeID != "" && entry.StoreID != storeID {
			continue
		}
		if !inRange(entry.CreatedAt, from, to) {
			continue
		}
		result = append(result, entry)
	}
	slices.SortFunc(result, func(a, b domain.AuditLog) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.usersByUsername[strings.ToLower(strings.TrimSpace(username))]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyUser := user
	return &copyUser, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrDuplicate
	}
	user.Username = username
	if user.ID == "" {
		user.ID = xid.New("user")
	}
	if user.Role == "" {
		user.Role = "cashier"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.usersByUsername[user.Username] = user
	return nil
}

// inRange treats from/to as a half-open interval [from, to); a zero bound
// means unbounded on that side.
func inRange(t time.Time, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}

func shiftMapKey(storeID string, userID string) string {
	return storeID + "::" + userID
}

func cmpString(a string, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func cloneTransaction(src *domain.Transaction) *domain.Transaction {
	if src == nil {
		return nil
	}
	dup := *src
	dupItems := make([]domain.TransactionItem, len(src.Items))
	copy(dupItems, src.Items)
	dup.Items = dupItems
	return &dup
}
