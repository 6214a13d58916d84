package checkout

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/artgallery/storefront/internal/domain"
	"github.com/artgallery/storefront/internal/kvstore"
)

const customerKey = "customerInfo"

// CustomerStore persists the shopper's shipping details so a returning
// session starts checkout pre-filled.
type CustomerStore struct {
	kv kvstore.Store
}

func NewCustomerStore(kv kvstore.Store) *CustomerStore {
	return &CustomerStore{kv: kv}
}

func (s *CustomerStore) Load(ctx context.Context) (domain.Customer, error) {
	data, err := s.kv.Load(ctx, customerKey)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("load customer info: %w", err)
	}
	var c domain.Customer
	if err := json.Unmarshal(data, &c); err != nil {
		return domain.Customer{}, fmt.Errorf("decode customer info: %w", err)
	}
	return c, nil
}

func (s *CustomerStore) Save(ctx context.Context, c domain.Customer) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode customer info: %w", err)
	}
	if err := s.kv.Save(ctx, customerKey, data); err != nil {
		return fmt.Errorf("save customer info: %w", err)
	}
	return nil
}
