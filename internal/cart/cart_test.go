package cart

import (
	"errors"
	"testing"

	"kasirtoko/backend/internal/domain"
)

func stockedProduct(id string, price int64, stock int) domain.Product {
	return domain.Product{
		ID:       id,
		Name:     "Produk " + id,
		Price:    price,
		HasStock: true,
		Stock:    stock,
	}
}

func TestAddMergesLinesForTheSameProduct(t *testing.T) {
	c := New()
	product := stockedProduct("p1", 5000, 10)

	if err := c.Add(product, 2); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	if err := c.Add(product, 3); err != nil {
		t.Fatalf("second add failed: %v", err)
	}

	lines := c.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected one merged line, got %d", len(lines))
	}
	if lines[0].Quantity != 5 || lines[0].Subtotal != 25000 {
		t.Fatalf("unexpected merged line %+v", lines[0])
	}
	if c.ItemCount() != 5 {
		t.Fatalf("expected item count 5, got %d", c.ItemCount())
	}
}

func TestAddRejectsQuantityBeyondObservedStock(t *testing.T) {
	c := New()
	product := stockedProduct("p1", 5000, 3)

	if err := c.Add(product, 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	err := c.Add(product, 2)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	// The failed add must not change the staged line.
	if lines := c.Lines(); lines[0].Quantity != 2 {
		t.Fatalf("expected quantity still 2, got %d", lines[0].Quantity)
	}
}

func TestAddIgnoresStockForServiceProducts(t *testing.T) {
	c := New()
	service := domain.Product{ID: "svc", Name: "Jasa Fotokopi", Price: 500}

	if err := c.Add(service, 200); err != nil {
		t.Fatalf("expected non-stock product to accept any quantity, got %v", err)
	}
	if c.Subtotal() != 100000 {
		t.Fatalf("expected subtotal 100000, got %d", c.Subtotal())
	}
}

func TestAddRejectsNonPositiveQuantity(t *testing.T) {
	c := New()
	if err := c.Add(stockedProduct("p1", 1000, 5), 0); err == nil {
		t.Fatalf("expected zero quantity to be rejected")
	}
	if err := c.Add(stockedProduct("p1", 1000, 5), -1); err == nil {
		t.Fatalf("expected negative quantity to be rejected")
	}
	if !c.Empty() {
		t.Fatalf("expected cart to stay empty")
	}
}

func TestSetQuantityReplacesAndRemoves(t *testing.T) {
	c := New()
	product := stockedProduct("p1", 2000, 10)
	if err := c.Add(product, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	if err := c.SetQuantity("p1", 4); err != nil {
		t.Fatalf("set quantity failed: %v", err)
	}
	if lines := c.Lines(); lines[0].Quantity != 4 || lines[0].Subtotal != 8000 {
		t.Fatalf("unexpected line after set %+v", lines[0])
	}

	if err := c.SetQuantity("p1", 11); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	if err := c.SetQuantity("p1", 0); err != nil {
		t.Fatalf("set to zero failed: %v", err)
	}
	if !c.Empty() {
		t.Fatalf("expected zero quantity to remove the line")
	}
}

func TestSubtotalSumsAcrossLines(t *testing.T) {
	c := New()
	if err := c.Add(stockedProduct("p1", 3500, 10), 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := c.Add(stockedProduct("p2", 17800, 10), 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if got := c.Subtotal(); got != 24800 {
		t.Fatalf("expected subtotal 24800, got %d", got)
	}
}

func TestLinesReturnsACopy(t *testing.T) {
	c := New()
	if err := c.Add(stockedProduct("p1", 1000, 10), 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	lines := c.Lines()
	lines[0].Quantity = 99

	if c.Lines()[0].Quantity != 1 {
		t.Fatalf("mutating the returned slice must not affect the cart")
	}
}
