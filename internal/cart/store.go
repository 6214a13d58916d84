// Package cart is the single source of truth for the shopper's current cart.
// Every mutation is a synchronous read-modify-write of the whole stored
// collection; there is no batching and no optimistic locking, so two writers
// on the same key race and the last write wins. That matches how the web
// storefront treats browser storage and is an accepted limitation.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/artgallery/storefront/internal/domain"
	"github.com/artgallery/storefront/internal/kvstore"
)

const DefaultKey = "cart"

var ErrItemNotFound = errors.New("item not in cart")

type Store struct {
	kv  kvstore.Store
	key string
}

func New(kv kvstore.Store, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{kv: kv, key: key}
}

func (s *Store) load(ctx context.Context) ([]domain.CartItem, error) {
	data, err := s.kv.Load(ctx, s.key)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	var items []domain.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	// Reject rather than repair: a stored cart that violates the item
	// invariants means some other writer is broken.
	if err := (domain.Cart{Items: items}).Validate(); err != nil {
		return nil, fmt.Errorf("stored cart invalid: %w", err)
	}
	return items, nil
}

func (s *Store) save(ctx context.Context, items []domain.CartItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.kv.Save(ctx, s.key, data); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// AddItem merges by artwork id: an existing line gets its quantity bumped by
// one and keeps its stored price and metadata, a new artwork is appended with
// quantity 1. Increment-only merging means a tampered payload cannot rewrite
// the price of a line already in the cart.
func (s *Store) AddItem(ctx context.Context, item domain.CartItem) error {
	item.Quantity = 1
	if err := item.Validate(); err != nil {
		return err
	}

	items, err := s.load(ctx)
	if err != nil {
		return err
	}
	merged := false
	for i := range items {
		if items[i].ID == item.ID {
			items[i].Quantity++
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, item)
	}
	return s.save(ctx, items)
}

// RemoveItem deletes the line with the given id. Removing an absent id is a
// no-op, not an error.
func (s *Store) RemoveItem(ctx context.Context, id string) error {
	items, err := s.load(ctx)
	if err != nil {
		return err
	}
	kept := items[:0]
	for _, it := range items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	return s.save(ctx, kept)
}

// UpdateQuantity sets the line's quantity. A quantity of zero or less removes
// the line entirely; a zero-quantity entry is never persisted.
func (s *Store) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, id)
	}

	items, err := s.load(ctx)
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].ID == id {
			items[i].Quantity = quantity
			return s.save(ctx, items)
		}
	}
	return ErrItemNotFound
}

// Items returns a snapshot of the current lines. Mutating the returned slice
// does not touch the stored cart.
func (s *Store) Items(ctx context.Context) ([]domain.CartItem, error) {
	items, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return append([]domain.CartItem(nil), items...), nil
}

// Clear empties the cart and persists the empty state.
func (s *Store) Clear(ctx context.Context) error {
	return s.save(ctx, []domain.CartItem{})
}
