package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyID         = errors.New("item id is empty")
	ErrNegativePrice   = errors.New("item price is negative")
	ErrInvalidQuantity = errors.New("item quantity must be at least 1")
)

// CartItem is one artwork line in the cart.
type CartItem struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artist     string          `json:"artist"`
	Image      string          `json:"image,omitempty"`
	Dimensions string          `json:"dimensions,omitempty"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
}

// Validate enforces the persisted-item invariants. Items that fail here are
// rejected at the storage boundary rather than silently repaired.
func (i CartItem) Validate() error {
	if i.ID == "" {
		return ErrEmptyID
	}
	if i.Price.IsNegative() {
		return fmt.Errorf("item %s: %w", i.ID, ErrNegativePrice)
	}
	if i.Quantity < 1 {
		return fmt.Errorf("item %s: %w", i.ID, ErrInvalidQuantity)
	}
	return nil
}

type Cart struct {
	Items []CartItem `json:"items"`
}

// Validate checks every item and that ids are unique within the cart.
func (c Cart) Validate() error {
	seen := make(map[string]struct{}, len(c.Items))
	for _, it := range c.Items {
		if err := it.Validate(); err != nil {
			return err
		}
		if _, dup := seen[it.ID]; dup {
			return fmt.Errorf("duplicate item id %s", it.ID)
		}
		seen[it.ID] = struct{}{}
	}
	return nil
}
