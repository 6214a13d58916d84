// Package orders keeps the shopper's order history and pushes completed
// orders to the gallery backend.
package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/artgallery/storefront/internal/domain"
	"github.com/artgallery/storefront/internal/kvstore"
)

const historyKey = "orders"

var ErrNotFound = errors.New("order not found")

// History is an append-only record of completed purchases. Orders are
// immutable once appended; MarkSubmitted flips the one flag that may change.
type History interface {
	Append(ctx context.Context, o domain.Order) error
	List(ctx context.Context) ([]domain.Order, error)
	Get(ctx context.Context, id string) (domain.Order, error)
	Latest(ctx context.Context) (domain.Order, error)
	MarkSubmitted(ctx context.Context, id string) error
}

// KVHistory stores the history as one JSON array under the orders key, the
// same shape the web client kept in browser storage.
type KVHistory struct {
	kv kvstore.Store
}

func NewKVHistory(kv kvstore.Store) *KVHistory {
	return &KVHistory{kv: kv}
}

func (h *KVHistory) load(ctx context.Context) ([]domain.Order, error) {
	data, err := h.kv.Load(ctx, historyKey)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	var out []domain.Order
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return out, nil
}

func (h *KVHistory) save(ctx context.Context, orders []domain.Order) error {
	data, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("encode orders: %w", err)
	}
	if err := h.kv.Save(ctx, historyKey, data); err != nil {
		return fmt.Errorf("save orders: %w", err)
	}
	return nil
}

func (h *KVHistory) Append(ctx context.Context, o domain.Order) error {
	all, err := h.load(ctx)
	if err != nil {
		return err
	}
	for _, existing := range all {
		if existing.ID == o.ID {
			return fmt.Errorf("order %s already recorded", o.ID)
		}
	}
	return h.save(ctx, append(all, o))
}

func (h *KVHistory) List(ctx context.Context) ([]domain.Order, error) {
	return h.load(ctx)
}

func (h *KVHistory) Get(ctx context.Context, id string) (domain.Order, error) {
	all, err := h.load(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	for _, o := range all {
		if o.ID == id {
			return o, nil
		}
	}
	return domain.Order{}, ErrNotFound
}

// Latest returns the most recently appended order, for the confirmation view
// when it is reached without navigation state.
func (h *KVHistory) Latest(ctx context.Context) (domain.Order, error) {
	all, err := h.load(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	if len(all) == 0 {
		return domain.Order{}, ErrNotFound
	}
	return all[len(all)-1], nil
}

func (h *KVHistory) MarkSubmitted(ctx context.Context, id string) error {
	all, err := h.load(ctx)
	if err != nil {
		return err
	}
	for i := range all {
		if all[i].ID == id {
			all[i].Submitted = true
			return h.save(ctx, all)
		}
	}
	return ErrNotFound
}
