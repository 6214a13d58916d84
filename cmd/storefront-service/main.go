package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/artgallery/storefront/docs"
	"github.com/artgallery/storefront/internal/cart"
	"github.com/artgallery/storefront/internal/catalog"
	"github.com/artgallery/storefront/internal/checkout"
	"github.com/artgallery/storefront/internal/config"
	"github.com/artgallery/storefront/internal/httpx"
	"github.com/artgallery/storefront/internal/kvstore"
	"github.com/artgallery/storefront/internal/orders"
	"github.com/artgallery/storefront/internal/payment"
)

func newKV(cfg config.Config) kvstore.Store {
	if cfg.RedisAddr != "" {
		log.Printf("[storefront] using redis storage at %s", cfg.RedisAddr)
		return kvstore.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), "storefront")
	}
	if cfg.DataDir != "" {
		fs, err := kvstore.NewFile(cfg.DataDir)
		if err != nil {
			log.Fatalf("[storefront] file storage: %v", err)
		}
		log.Printf("[storefront] using file storage in %s", cfg.DataDir)
		return fs
	}
	log.Printf("[storefront] no DATA_DIR or REDIS_ADDR set, cart will not survive restarts")
	return kvstore.NewMemory()
}

func newHistory(cfg config.Config, kv kvstore.Store) orders.History {
	if cfg.PostgresDSN == "" {
		return orders.NewKVHistory(kv)
	}
	pool, err := pgxpool.New(context.Background(), cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("[storefront] postgres: %v", err)
	}
	log.Printf("[storefront] order history in postgres")
	return orders.NewPGHistory(pool)
}

func main() {
	cfg := config.Load()

	kv := newKV(cfg)
	carts := cart.New(kv, cart.DefaultKey)
	history := newHistory(cfg, kv)
	customers := checkout.NewCustomerStore(kv)
	cat := catalog.NewClient(cfg.CatalogBaseURL, cfg.CatalogImageBaseURL)
	provider := payment.NewPayPal(cfg.PayPalBaseURL, cfg.PayPalClientID, cfg.PayPalSecret)

	var submitter *orders.Submitter
	if cfg.BackendBaseURL != "" {
		submitter = orders.NewSubmitter(cfg.BackendBaseURL, cfg.BackendToken)
	}

	flows := newFlowManager(func() *checkout.Flow {
		return checkout.NewFlow(carts, history, provider, customers)
	})

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger())

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	r.GET("/artworks", searchArtworksHandler(cat))
	r.GET("/artworks/:id", getArtworkHandler(cat))

	r.GET("/cart", getCartHandler(carts))
	r.GET("/cart/totals", cartTotalsHandler(carts))
	r.POST("/cart/items", addCartItemHandler(carts))
	r.POST("/cart/artworks/:id", addArtworkToCartHandler(cat, carts))
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

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	log.Printf("storefront-service listening on %s", cfg.Addr)
	log.Fatal(r.Run(cfg.Addr))
}
