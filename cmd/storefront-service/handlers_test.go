package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/artgallery/storefront/internal/cart"
	"github.com/artgallery/storefront/internal/catalog"
	"github.com/artgallery/storefront/internal/checkout"
	"github.com/artgallery/storefront/internal/kvstore"
	"github.com/artgallery/storefront/internal/orders"
	"github.com/artgallery/storefront/internal/payment"
)

//
// ---------- STUBS & FAKES ----------
//

// stubProvider implements payment.Provider in memory.
type stubProvider struct {
	createErr error
	status    string
	captured  int
}

func (s *stubProvider) CreateOrder(ctx context.Context, req payment.Request) (string, error) {
	if s.createErr != nil {
		return "", s.createErr
	}
	return "PP-TEST-1", nil
}

func (s *stubProvider) CaptureOrder(ctx context.Context, orderID string) (payment.CaptureResult, error) {
	s.captured++
	status := s.status
	if status == "" {
		status = "COMPLETED"
	}
	return payment.CaptureResult{
		TransactionID: "TX-" + orderID,
		PayerEmail:    "buyer@example.com",
		Status:        status,
	}, nil
}

type testEnv struct {
	router   *gin.Engine
	carts    *cart.Store
	history  orders.History
	provider *stubProvider
}

func newTestEnv(t *testing.T, submitter *orders.Submitter) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	kv := kvstore.NewMemory()
	carts := cart.New(kv, cart.DefaultKey)
	history := orders.NewKVHistory(kv)
	customers := checkout.NewCustomerStore(kv)
	provider := &stubProvider{}

	flows := newFlowManager(func() *checkout.Flow {
		return checkout.NewFlow(carts, history, provider, customers)
	})

	r := gin.New()
	r.GET("/cart", getCartHandler(carts))
	r.GET("/cart/totals", cartTotalsHandler(carts))
	r.POST("/cart/items", addCartItemHandler(carts))
	r.PUT("/cart/items/:id", updateCartItemHandler(carts))
	r.DELETE("/cart/items/:id", removeCartItemHandler(carts))
	r.DELETE("/cart", clearCartHandler(carts))
	r.GET("/checkout/state", checkoutStateHandler(flows))
	r.POST("/checkout/shipping", checkoutShippingHandler(flows))
	r.POST("/checkout/pay", checkoutPayHandler(flows))
	r.GET("/orders", listOrdersHandler(history))
	r.GET("/orders/latest", latestOrderHandler(history))
	r.GET("/orders/:id", getOrderHandler(history))
	r.POST("/orders/:id/submit", submitOrderHandler(history, submitter))

	return &testEnv{router: r, carts: carts, history: history, provider: provider}
}

func (e *testEnv) do(t *testing.T, method, url, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, url, nil)
	} else {
		req = httptest.NewRequest(method, url, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	e.router.ServeHTTP(w, req)
	return w
}

const shippingBody = `{
	"name": "Elena Ramirez",
	"email": "elena@example.com",
	"address": "12 Gallery Row",
	"city": "Barcelona",
	"postalCode": "08001",
	"country": "ES"
}`

func itemBody(id, price string) string {
	return fmt.Sprintf(`{"id":%q,"name":"Water Lilies","artist":"Claude Monet","price":%q,"quantity":1}`, id, price)
}

//
// ---------- TESTS ----------
//

func TestAddCartItem_MergesByID(t *testing.T) {
	env := newTestEnv(t, nil)

	for i := 0; i < 2; i++ {
		w := env.do(t, http.MethodPost, "/cart/items", itemBody("art-1", "50"))
		if w.Code != http.StatusCreated {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
	}

	w := env.do(t, http.MethodGet, "/cart", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var res struct {
		Items []struct {
			ID       string `json:"id"`
			Quantity int    `json:"quantity"`
		} `json:"items"`
		Totals struct {
			ItemsPrice string `json:"itemsPrice"`
		} `json:"totals"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Quantity != 2 {
		t.Fatalf("expected one line with quantity 2, got %+v", res.Items)
	}
	if res.Totals.ItemsPrice != "100" {
		t.Fatalf("itemsPrice=%s, expected 100", res.Totals.ItemsPrice)
	}
}

func TestAddCartItem_RejectsInvalid(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/cart/items", `{"name":"no id","price":"50"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestUpdateCartItem(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/cart/items", itemBody("art-1", "50"))

	if w := env.do(t, http.MethodPut, "/cart/items/art-1", `{"quantity":3}`); w.Code != http.StatusNoContent {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if w := env.do(t, http.MethodPut, "/cart/items/nope", `{"quantity":3}`); w.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	// Quantity zero removes the line.
	if w := env.do(t, http.MethodPut, "/cart/items/art-1", `{"quantity":0}`); w.Code != http.StatusNoContent {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	items, err := env.carts.Items(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(items))
	}
}

func TestAddArtworkToCart_PricesFromCatalog(t *testing.T) {
	gin.SetMode(gin.TestMode)

	catsrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": catalog.Artwork{
			ID:            27992,
			Title:         "A Sunday on La Grande Jatte",
			ArtistDisplay: "Georges Seurat",
			DateDisplay:   "1884-86",
			MediumDisplay: "Oil on canvas",
		}})
	}))
	defer catsrv.Close()

	cat := catalog.NewClient(catsrv.URL, "https://www.artic.edu")
	carts := cart.New(kvstore.NewMemory(), cart.DefaultKey)

	r := gin.New()
	r.POST("/cart/artworks/:id", addArtworkToCartHandler(cat, carts))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/cart/artworks/27992", nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	items, err := carts.Items(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].ID != "27992" {
		t.Fatalf("unexpected cart %+v", items)
	}
	// Price comes from the catalog record, not the request.
	if !items[0].Price.Equal(catalog.Price(catalog.Artwork{DateDisplay: "1884-86", MediumDisplay: "Oil on canvas"}).Amount) {
		t.Fatalf("price=%s not derived from the catalog", items[0].Price)
	}
}

func TestCartTotals_FreeShippingOverThreshold(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/cart/items", itemBody("art-1", "2400"))

	w := env.do(t, http.MethodGet, "/cart/totals", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var totals struct {
		ItemsPrice    string `json:"itemsPrice"`
		ShippingPrice string `json:"shippingPrice"`
		TaxPrice      string `json:"taxPrice"`
		TotalPrice    string `json:"totalPrice"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &totals); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if totals.ShippingPrice != "0" {
		t.Fatalf("shippingPrice=%s, expected free shipping", totals.ShippingPrice)
	}
	if totals.TotalPrice != "2568" {
		t.Fatalf("totalPrice=%s, expected 2568", totals.TotalPrice)
	}
}

func TestCheckout_HappyPath(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/cart/items", itemBody("art-1", "50"))

	w := env.do(t, http.MethodPost, "/checkout/shipping", shippingBody)
	if w.Code != http.StatusOK {
		t.Fatalf("shipping status=%d body=%s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodPost, "/checkout/pay", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("pay status=%d body=%s", w.Code, w.Body.String())
	}
	var order struct {
		ID      string `json:"id"`
		Status  string `json:"status"`
		Payment struct {
			Method string `json:"method"`
		} `json:"payment"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &order); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if order.ID != "PP-TEST-1" || order.Status != "COMPLETED" || order.Payment.Method != "PayPal" {
		t.Fatalf("unexpected order %+v", order)
	}

	// Order is in the history, cart is empty, next checkout starts fresh.
	if w := env.do(t, http.MethodGet, "/orders/PP-TEST-1", ""); w.Code != http.StatusOK {
		t.Fatalf("get order status=%d body=%s", w.Code, w.Body.String())
	}
	items, err := env.carts.Items(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Fatalf("cart not cleared, %d items left", len(items))
	}

	w = env.do(t, http.MethodGet, "/checkout/state", "")
	var state struct {
		State string `json:"state"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.State != string(checkout.StateCollectingShippingInfo) {
		t.Fatalf("state=%s, expected a fresh flow", state.State)
	}
}

func TestCheckoutShipping_Validation(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/checkout/shipping", `{"name":"Elena"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestCheckoutPay_BeforeShipping(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/cart/items", itemBody("art-1", "50"))

	w := env.do(t, http.MethodPost, "/checkout/pay", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestCheckoutPay_EmptyCart(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/checkout/shipping", shippingBody)

	w := env.do(t, http.MethodPost, "/checkout/pay", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestCheckoutPay_DeclinedIsRetryable(t *testing.T) {
	env := newTestEnv(t, nil)
	env.provider.status = "DECLINED"
	env.do(t, http.MethodPost, "/cart/items", itemBody("art-1", "50"))
	env.do(t, http.MethodPost, "/checkout/shipping", shippingBody)

	w := env.do(t, http.MethodPost, "/checkout/pay", "")
	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var res struct {
		State string `json:"state"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.State != string(checkout.StateAwaitingPayment) {
		t.Fatalf("state=%s, expected to stay retryable", res.State)
	}

	// The retry goes through once the provider recovers.
	env.provider.status = ""
	if w := env.do(t, http.MethodPost, "/checkout/pay", ""); w.Code != http.StatusCreated {
		t.Fatalf("retry status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestListOrders_EmptyIsOK(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/orders", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var res struct {
		Orders []json.RawMessage `json:"orders"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Orders == nil || len(res.Orders) != 0 {
		t.Fatalf("expected empty orders array, got %s", w.Body.String())
	}
}

func TestLatestOrder_NoneYet(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/orders/latest", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func placeOrder(t *testing.T, env *testEnv) {
	t.Helper()
	env.do(t, http.MethodPost, "/cart/items", itemBody("art-1", "50"))
	env.do(t, http.MethodPost, "/checkout/shipping", shippingBody)
	if w := env.do(t, http.MethodPost, "/checkout/pay", ""); w.Code != http.StatusCreated {
		t.Fatalf("pay status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestSubmitOrder(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer backend.Close()

	env := newTestEnv(t, orders.NewSubmitter(backend.URL, "good-token"))
	placeOrder(t, env)

	w := env.do(t, http.MethodPost, "/orders/PP-TEST-1/submit", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	o, err := env.history.Get(context.Background(), "PP-TEST-1")
	if err != nil {
		t.Fatal(err)
	}
	if !o.Submitted {
		t.Fatalf("order not flagged as submitted")
	}
}

func TestSubmitOrder_SessionExpired(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer backend.Close()

	env := newTestEnv(t, orders.NewSubmitter(backend.URL, "expired"))
	placeOrder(t, env)

	w := env.do(t, http.MethodPost, "/orders/PP-TEST-1/submit", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestSubmitOrder_NotConfigured(t *testing.T) {
	env := newTestEnv(t, nil)
	placeOrder(t, env)

	w := env.do(t, http.MethodPost, "/orders/PP-TEST-1/submit", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}
