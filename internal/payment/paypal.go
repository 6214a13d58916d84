package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/artgallery/storefront/internal/domain"
)

// PayPal talks to the PayPal Orders v2 REST API. Amounts are sent as fixed
// two-decimal strings, the same shape the web checkout built by hand.
type PayPal struct {
	HTTP     *http.Client
	BaseURL  string
	ClientID string
	Secret   string
}

func NewPayPal(baseURL, clientID, secret string) *PayPal {
	return &PayPal{
		HTTP:     &http.Client{Timeout: 10 * time.Second},
		BaseURL:  strings.TrimRight(baseURL, "/"),
		ClientID: clientID,
		Secret:   secret,
	}
}

type amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type purchaseUnit struct {
	Description string `json:"description"`
	Amount      struct {
		amount
		Breakdown struct {
			ItemTotal amount `json:"item_total"`
			Shipping  amount `json:"shipping"`
			TaxTotal  amount `json:"tax_total"`
		} `json:"breakdown"`
	} `json:"amount"`
	Items []purchaseItem `json:"items"`
}

type purchaseItem struct {
	Name        string `json:"name"`
	UnitAmount  amount `json:"unit_amount"`
	Quantity    string `json:"quantity"`
	Description string `json:"description"`
}

func (p *PayPal) token(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost,
		p.BaseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	req.SetBasicAuth(p.ClientID, p.Secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := p.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request failed: %s", res.Status)
	}
	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	return body.AccessToken, nil
}

func (p *PayPal) CreateOrder(ctx context.Context, r Request) (string, error) {
	tok, err := p.token(ctx)
	if err != nil {
		return "", err
	}

	cur := r.Currency
	if cur == "" {
		cur = "USD"
	}
	unit := purchaseUnit{Description: r.Description}
	unit.Amount.CurrencyCode = cur
	unit.Amount.Value = r.Totals.TotalPrice.StringFixed(2)
	unit.Amount.Breakdown.ItemTotal = amount{cur, r.Totals.ItemsPrice.StringFixed(2)}
	unit.Amount.Breakdown.Shipping = amount{cur, r.Totals.ShippingPrice.StringFixed(2)}
	unit.Amount.Breakdown.TaxTotal = amount{cur, r.Totals.TaxPrice.StringFixed(2)}
	for _, it := range r.Items {
		unit.Items = append(unit.Items, purchaseItem{
			Name:        it.Name,
			UnitAmount:  amount{cur, it.Price.StringFixed(2)},
			Quantity:    strconv.Itoa(it.Quantity),
			Description: artistLine(it),
		})
	}

	payload, _ := json.Marshal(map[string]any{
		"intent":         "CAPTURE",
		"purchase_units": []purchaseUnit{unit},
	})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost,
		p.BaseURL+"/v2/checkout/orders", bytes.NewReader(payload))
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", "application/json")

	res, err := p.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusCreated && res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("create order failed: %s", res.Status)
	}
	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode create order: %w", err)
	}
	return body.ID, nil
}

func (p *PayPal) CaptureOrder(ctx context.Context, orderID string) (CaptureResult, error) {
	tok, err := p.token(ctx)
	if err != nil {
		return CaptureResult{}, err
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/v2/checkout/orders/%s/capture", p.BaseURL, orderID),
		bytes.NewReader([]byte("{}")))
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", "application/json")

	res, err := p.HTTP.Do(req)
	if err != nil {
		return CaptureResult{}, fmt.Errorf("capture order: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusUnprocessableEntity:
		return CaptureResult{}, ErrDeclined
	default:
		return CaptureResult{}, fmt.Errorf("capture order failed: %s", res.Status)
	}

	var body struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Payer  struct {
			EmailAddress string `json:"email_address"`
		} `json:"payer"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return CaptureResult{}, fmt.Errorf("decode capture: %w", err)
	}
	return CaptureResult{
		TransactionID: body.ID,
		PayerEmail:    body.Payer.EmailAddress,
		Status:        body.Status,
	}, nil
}

func artistLine(it domain.CartItem) string {
	if it.Artist == "" {
		return "Artist: Unknown"
	}
	return "Artist: " + it.Artist
}
