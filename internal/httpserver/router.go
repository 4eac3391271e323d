package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront-api/internal/domain"
	"storefront-api/internal/logging"
	authsvc "storefront-api/internal/service/auth"
	cartsvc "storefront-api/internal/service/cart"
	ordersvc "storefront-api/internal/service/order"
	productsvc "storefront-api/internal/service/product"
	profilesvc "storefront-api/internal/service/profile"
)

type AuthService interface {
	Register(ctx context.Context, in authsvc.Credentials) (*domain.User, error)
	Login(ctx context.Context, in authsvc.Credentials) (string, *domain.User, error)
	Verify(token string) (authsvc.Claims, error)
}

type ProductService interface {
	List(ctx context.Context, q productsvc.ListQuery) (*productsvc.ListPage, error)
	Get(ctx context.Context, id domain.ID) (*domain.Product, error)
	Favorites(ctx context.Context, limit int) ([]domain.Product, error)
	Create(ctx context.Context, in productsvc.CreateInput) (*domain.Product, error)
	Update(ctx context.Context, id domain.ID, in productsvc.UpdateInput) (*domain.Product, error)
	Delete(ctx context.Context, id domain.ID) error
}

type CategoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
}

type CartService interface {
	AddOrMerge(ctx context.Context, userID domain.ID, in cartsvc.AddInput) (*domain.CartLine, error)
	List(ctx context.Context, userID domain.ID) ([]domain.CartLine, error)
	GetDetail(ctx context.Context, userID, lineID domain.ID) (*domain.CartLine, error)
}

type OrderService interface {
	Checkout(ctx context.Context, userID domain.ID, in ordersvc.CheckoutInput) (*domain.Order, error)
	History(ctx context.Context, userID domain.ID, f ordersvc.HistoryFilter) (*ordersvc.HistoryPage, error)
	Detail(ctx context.Context, userID domain.ID, invoice string) (*domain.Order, error)
}

type ProfileService interface {
	Get(ctx context.Context, userID domain.ID) (*domain.User, error)
	Update(ctx context.Context, userID domain.ID, in profilesvc.UpdateInput) (*domain.User, error)
}

// Deps holds the services the router dispatches to.
type Deps struct {
	Auth       AuthService
	Products   ProductService
	Categories CategoryService
	Cart       CartService
	Orders     OrderService
	Profile    ProfileService
}

func (d Deps) validate() error {
	if d.Auth == nil || d.Products == nil || d.Categories == nil || d.Cart == nil || d.Orders == nil || d.Profile == nil {
		return errors.New("httpserver: all services are required")
	}
	return nil
}

// Pinger reports database reachability for the readiness check.
type Pinger interface {
	Ping(ctx context.Context) error
}

type handlers struct {
	deps   Deps
	logger *zap.Logger
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db Pinger, deps Deps, corsOrigins []string) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	logger = logging.OrNop(logger)
	useJSONFieldNames()

	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery(), cors.New(corsConfig(corsOrigins)))
	router.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "Route not found", c.Request.URL.Path)
	})

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{deps: deps, logger: logger}

	router.POST("/auth/register", h.register)
	router.POST("/auth/login", h.login)

	router.GET("/products", h.listProducts)
	router.GET("/products/favorites", h.favoriteProducts)
	router.GET("/products/:id", h.getProduct)
	router.GET("/categories", h.listCategories)

	authed := router.Group("/", authMiddleware(deps.Auth))

	admin := authed.Group("/admin", requireRole(domain.RoleAdmin))
	admin.GET("/products", h.listProducts)
	admin.POST("/products", h.createProduct)
	admin.PATCH("/products/:id", h.updateProduct)
	admin.DELETE("/products/:id", h.deleteProduct)

	authed.GET("/profile", h.getProfile)
	authed.PATCH("/profile", h.updateProfile)

	authed.POST("/cart", h.addToCart)
	authed.GET("/cart/list", h.listCart)
	authed.GET("/cart/:id", h.cartDetail)

	authed.POST("/transactions", h.checkout)
	authed.GET("/transactions/history", h.history)
	authed.GET("/transactions/history/:invoice", h.orderDetail)

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
