// Package cart stages the lines of a pending sale before checkout. A Cart
// holds no references to live product records: price, name and SKU are
// frozen at staging time and the observed stock level is kept only to
// reject obviously oversized quantities early. The authoritative stock
// check happens again inside the checkout saga.
package cart

import (
	"errors"
	"fmt"

	"kasirtoko/backend/internal/domain"
)

var ErrInsufficientStock = errors.New("insufficient stock")

type Cart struct {
	lines []domain.CartLine
}

func New() *Cart {
	return &Cart{}
}

// Add stages qty units of product, merging into an existing line for the
// same product. The merged quantity must not exceed the product's observed
// stock when the product tracks stock.
func (c *Cart) Add(product domain.Product, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", qty)
	}
	for i := range c.lines {
		if c.lines[i].ProductID == product.ID {
			next := c.lines[i].Quantity + qty
			if product.HasStock && next > product.Stock {
				return fmt.Errorf("%w: %s has %d, requested %d", ErrInsufficientStock, product.Name, product.Stock, next)
			}
			c.lines[i].Quantity = next
			c.lines[i].Subtotal = int64(next) * c.lines[i].ProductPrice
			c.lines[i].CurrentStock = product.Stock
			return nil
		}
	}
	if product.HasStock && qty > product.Stock {
		return fmt.Errorf("%w: %s has %d, requested %d", ErrInsufficientStock, product.Name, product.Stock, qty)
	}
	c.lines = append(c.lines, domain.CartLine{
		ProductID:    product.ID,
		ProductName:  product.Name,
		ProductSKU:   product.SKU,
		ProductPrice: product.Price,
		Quantity:     qty,
		Subtotal:     int64(qty) * product.Price,
		HasStock:     product.HasStock,
		CurrentStock: product.Stock,
	})
	return nil
}

// SetQuantity replaces a line's quantity. Zero or negative removes the line.
func (c *Cart) SetQuantity(productID string, qty int) error {
	if qty <= 0 {
		c.Remove(productID)
		return nil
	}
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			if c.lines[i].HasStock && qty > c.lines[i].CurrentStock {
				return fmt.Errorf("%w: %s has %d, requested %d", ErrInsufficientStock, c.lines[i].ProductName, c.lines[i].CurrentStock, qty)
			}
			c.lines[i].Quantity = qty
			c.lines[i].Subtotal = int64(qty) * c.lines[i].ProductPrice
			return nil
		}
	}
	return nil
}

func (c *Cart) Remove(productID string) {
	kept := c.lines[:0]
	for _, line := range c.lines {
		if line.ProductID != productID {
			kept = append(kept, line)
		}
	}
	c.lines = kept
}

func (c *Cart) Clear() {
	c.lines = nil
}

func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

// Subtotal is the sum of line subtotals before any discount.
func (c *Cart) Subtotal() int64 {
	var sum int64
	for _, line := range c.lines {
		sum += line.Subtotal
	}
	return sum
}

// ItemCount is the total unit count across lines.
func (c *Cart) ItemCount() int {
	var n int
	for _, line := range c.lines {
		n += line.Quantity
	}
	return n
}

// Lines returns a copy of the staged lines in insertion order.
func (c *Cart) Lines() []domain.CartLine {
	out := make([]domain.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}
