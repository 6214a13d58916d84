package main

import (
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/artgallery/storefront/internal/cart"
	"github.com/artgallery/storefront/internal/catalog"
	"github.com/artgallery/storefront/internal/checkout"
	"github.com/artgallery/storefront/internal/domain"
	"github.com/artgallery/storefront/internal/orders"
	"github.com/artgallery/storefront/internal/pricing"
)

// flowManager hands out the current checkout attempt. Once a flow records an
// order it is terminal, and the next request starts a fresh one.
type flowManager struct {
	mu      sync.Mutex
	flow    *checkout.Flow
	newFlow func() *checkout.Flow
}

func newFlowManager(newFlow func() *checkout.Flow) *flowManager {
	return &flowManager{newFlow: newFlow}
}

func (m *flowManager) current() *checkout.Flow {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.flow == nil || m.flow.State().IsTerminal() {
		m.flow = m.newFlow()
	}
	return m.flow
}

type artworkView struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Date       string `json:"date,omitempty"`
	Medium     string `json:"medium,omitempty"`
	Dimensions string `json:"dimensions,omitempty"`
	Image      string `json:"image,omitempty"`
	Price      string `json:"price"`
}

func viewOf(cat *catalog.Client, a catalog.Artwork) artworkView {
	return artworkView{
		ID:         a.ID,
		Title:      a.Title,
		Artist:     a.ArtistDisplay,
		Date:       a.DateDisplay,
		Medium:     a.MediumDisplay,
		Dimensions: a.Dimensions,
		Image:      a.ImageURL(cat.ImageBaseURL, 400),
		Price:      catalog.Price(a).Amount.StringFixed(2),
	}
}

func searchArtworksHandler(cat *catalog.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		works, err := cat.Search(c.Request.Context(), c.Query("q"), limit)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "catalog unavailable"})
			return
		}
		out := make([]artworkView, 0, len(works))
		for _, a := range works {
			out = append(out, viewOf(cat, a))
		}
		c.JSON(http.StatusOK, gin.H{"items": out})
	}
}

func getArtworkHandler(cat *catalog.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid artwork id"})
			return
		}
		a, err := cat.Artwork(c.Request.Context(), id)
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "artwork not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "catalog unavailable"})
			return
		}

		// Related lookup is decoration; losing it is not an error.
		var related []artworkView
		if works, err := cat.Related(c.Request.Context(), *a); err == nil {
			for _, w := range works {
				related = append(related, viewOf(cat, w))
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"artwork":     viewOf(cat, *a),
			"description": a.Description,
			"related":     related,
		})
	}
}

// addArtworkToCartHandler builds the cart line server-side from the catalog
// record, so the listed price is the one that gets charged.
func addArtworkToCartHandler(cat *catalog.Client, carts *cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid artwork id"})
			return
		}
		a, err := cat.Artwork(c.Request.Context(), id)
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "artwork not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "catalog unavailable"})
			return
		}
		if err := carts.AddItem(c.Request.Context(), cat.CartItem(*a)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update cart"})
			return
		}
		c.Status(http.StatusCreated)
	}
}

func getCartHandler(carts *cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := carts.Items(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cart unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"items":  items,
			"totals": pricing.Calculate(items),
		})
	}
}

func cartTotalsHandler(carts *cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := carts.Items(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cart unavailable"})
			return
		}
		c.JSON(http.StatusOK, pricing.Calculate(items))
	}
}

func addCartItemHandler(carts *cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var item domain.CartItem
		if err := c.ShouldBindJSON(&item); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item payload"})
			return
		}
		if err := carts.AddItem(c.Request.Context(), item); err != nil {
			if errors.Is(err, domain.ErrEmptyID) || errors.Is(err, domain.ErrNegativePrice) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update cart"})
			return
		}
		c.Status(http.StatusCreated)
	}
}

func updateCartItemHandler(carts *cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Quantity int `json:"quantity"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quantity payload"})
			return
		}
		err := carts.UpdateQuantity(c.Request.Context(), c.Param("id"), body.Quantity)
		if errors.Is(err, cart.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not in cart"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update cart"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func removeCartItemHandler(carts *cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := carts.RemoveItem(c.Request.Context(), c.Param("id")); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update cart"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func clearCartHandler(carts *cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := carts.Clear(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not clear cart"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func checkoutStateHandler(flows *flowManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := flows.current()
		c.JSON(http.StatusOK, gin.H{
			"state":    f.State(),
			"customer": f.Customer(),
		})
	}
}

func checkoutShippingHandler(flows *flowManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cust domain.Customer
		if err := c.ShouldBindJSON(&cust); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer payload"})
			return
		}
		f := flows.current()
		err := f.SubmitShippingInfo(c.Request.Context(), cust)
		var verr *checkout.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"state": f.State()})
	}
}

func checkoutPayHandler(flows *flowManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := flows.current()
		order, err := f.Pay(c.Request.Context())

		var perr *checkout.PaymentError
		switch {
		case err == nil:
			c.JSON(http.StatusCreated, order)
		case errors.As(err, &perr):
			// Retryable: the flow is back in AWAITING_PAYMENT.
			c.JSON(http.StatusPaymentRequired, gin.H{"error": perr.Error(), "state": f.State()})
		case errors.Is(err, checkout.ErrEmptyCart),
			errors.Is(err, checkout.ErrInvalidTransition),
			errors.Is(err, checkout.ErrAlreadyRecorded):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "state": f.State()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
	}
}

func listOrdersHandler(history orders.History) gin.HandlerFunc {
	return func(c *gin.Context) {
		all, err := history.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "order history unavailable"})
			return
		}
		if all == nil {
			all = []domain.Order{}
		}
		c.JSON(http.StatusOK, gin.H{"orders": all})
	}
}

func latestOrderHandler(history orders.History) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := history.Latest(c.Request.Context())
		if errors.Is(err, orders.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no orders yet"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "order history unavailable"})
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

func getOrderHandler(history orders.History) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := history.Get(c.Request.Context(), c.Param("id"))
		if errors.Is(err, orders.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "order history unavailable"})
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

func submitOrderHandler(history orders.History, submitter *orders.Submitter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if submitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "order submission not configured"})
			return
		}
		o, err := history.Get(c.Request.Context(), c.Param("id"))
		if errors.Is(err, orders.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "order history unavailable"})
			return
		}

		if err := submitter.Submit(c.Request.Context(), o); err != nil {
			if errors.Is(err, orders.ErrUnauthorized) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired, please log in again"})
				return
			}
			c.JSON(http.StatusBadGateway, gin.H{"error": "order submission failed, retry later"})
			return
		}
		if err := history.MarkSubmitted(c.Request.Context(), o.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "submitted but not flagged locally"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}
