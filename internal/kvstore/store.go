// Package kvstore is the durable key-value storage the cart and order history
// live in. It plays the role browser local storage plays for the web client:
// a handful of well-known keys, whole-value reads and writes, no locking.
package kvstore

import (
	"context"
	"errors"
)

var ErrKeyNotFound = errors.New("key not found")

type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
