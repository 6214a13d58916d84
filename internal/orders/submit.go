package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/artgallery/storefront/internal/domain"
)

// ErrUnauthorized means the backend rejected the bearer token. Callers show a
// re-login affordance for this one; every other failure is a retryable
// network error.
var ErrUnauthorized = errors.New("order endpoint rejected credentials")

// Submitter posts completed orders to the gallery backend.
type Submitter struct {
	HTTP    *http.Client
	BaseURL string
	Token   string
}

func NewSubmitter(baseURL, token string) *Submitter {
	return &Submitter{
		HTTP:    &http.Client{Timeout: 5 * time.Second},
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
	}
}

func (s *Submitter) Submit(ctx context.Context, o domain.Order) error {
	body, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encode order: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.BaseURL+"/orders/", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.Token)

	res, err := s.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("submit order: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	default:
		return fmt.Errorf("submit order failed: %s", res.Status)
	}
}

// Fetch lists the orders the backend knows about for this shopper.
func (s *Submitter) Fetch(ctx context.Context) ([]domain.Order, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/orders/", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)

	res, err := s.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	default:
		return nil, fmt.Errorf("fetch orders failed: %s", res.Status)
	}

	var out []domain.Order
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return out, nil
}
