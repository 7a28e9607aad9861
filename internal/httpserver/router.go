package httpserver

import (
	"context"
	"errors"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/domain"
	anonymoussvc "storefront/internal/service/anonymous"
	cartsvc "storefront/internal/service/cart"
	customersvc "storefront/internal/service/customer"
	productsvc "storefront/internal/service/product"
)

type shopRepo interface {
	GetByKey(ctx context.Context, key string) (*domain.Shop, error)
}

type productService interface {
	List(ctx context.Context, shopID string, limit, offset int) (*productsvc.Page, error)
	GetByHandle(ctx context.Context, shopID, handle string) (*domain.Product, error)
}

type collectionService interface {
	List(ctx context.Context, shopID string) ([]domain.Collection, error)
	GetByHandle(ctx context.Context, shopID, handle string, limit, offset int) (*domain.Collection, error)
}

type contentService interface {
	Page(ctx context.Context, shopID, handle string) (*domain.Page, error)
	Policy(ctx context.Context, shopID, handle string) (*domain.Page, error)
	Policies(ctx context.Context, shopID string) ([]domain.Page, error)
	Blogs(ctx context.Context, shopID string) ([]domain.Blog, error)
	Blog(ctx context.Context, shopID, handle string) (*domain.Blog, error)
	Article(ctx context.Context, shopID, blogHandle, handle string) (*domain.Article, error)
}

type searchService interface {
	Predictive(ctx context.Context, shopID, term string, limit int) (domain.PredictiveResult, error)
	Search(ctx context.Context, shopID, term string, limit, offset int) (*domain.SearchResult, error)
}

type cartService interface {
	Create(ctx context.Context, shopID string, owner cartsvc.Owner, in cartsvc.CreateInput) (*domain.Cart, error)
	Get(ctx context.Context, shopID string, owner cartsvc.Owner, id string) (*domain.Cart, error)
	GetActive(ctx context.Context, shopID string, owner cartsvc.Owner) (*domain.Cart, error)
	AssignCustomerFromAnonymous(ctx context.Context, shopID, anonymousID, customerID string) (*domain.Cart, error)
	Mutate(ctx context.Context, shopID string, owner cartsvc.Owner, cartID string, action cartsvc.Action) (*cartsvc.Payload, error)
}

type customerService interface {
	Signup(ctx context.Context, shopID string, in customersvc.SignupInput) (*domain.Customer, error)
	Login(ctx context.Context, shopID, email, password string) (*domain.Customer, customersvc.Tokens, error)
	Refresh(ctx context.Context, shopID, refreshToken string) (*domain.Customer, customersvc.Tokens, error)
	LookupByToken(ctx context.Context, shopID, token string) (*domain.Customer, error)
	CreateAddress(ctx context.Context, shopID, customerID string, in customersvc.AddressInput, makeDefault bool) (*domain.Customer, *domain.CustomerAddress, error)
	UpdateAddress(ctx context.Context, shopID, customerID, addressID string, in customersvc.AddressInput, makeDefault bool) (*domain.Customer, *domain.CustomerAddress, error)
	DeleteAddress(ctx context.Context, shopID, customerID, addressID string) (*domain.Customer, error)
	Orders(ctx context.Context, shopID, customerID, status string, limit int) ([]domain.Order, error)
	Order(ctx context.Context, shopID, customerID, orderID string) (*domain.Order, error)
}

type anonymousService interface {
	Issue(ctx context.Context, shopID string) (anonymoussvc.Issued, error)
	LookupByToken(ctx context.Context, shopID, token string) (string, error)
	AccessTTLSeconds() int
}

// Deps carries the services behind the routes.
type Deps struct {
	ShopRepo      shopRepo
	ProductSvc    productService
	CollectionSvc collectionService
	ContentSvc    contentService
	SearchSvc     searchService
	CartSvc       cartService
	CustomerSvc   customerService
	AnonymousSvc  anonymousService

	// Cache, when set, is checked by /readyz.
	Cache Pinger
	// FileURLHost prefixes relative image URLs.
	FileURLHost    string
	AllowedOrigins []string
}

func (d Deps) validate() error {
	switch {
	case d.ShopRepo == nil:
		return errors.New("shop repository required")
	case d.ProductSvc == nil:
		return errors.New("product service required")
	case d.CollectionSvc == nil:
		return errors.New("collection service required")
	case d.ContentSvc == nil:
		return errors.New("content service required")
	case d.SearchSvc == nil:
		return errors.New("search service required")
	case d.CartSvc == nil:
		return errors.New("cart service required")
	case d.CustomerSvc == nil:
		return errors.New("customer service required")
	case d.AnonymousSvc == nil:
		return errors.New("anonymous service required")
	}
	return nil
}

type handlers struct {
	deps   Deps
	logger *zap.Logger
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	h := &handlers{deps: deps, logger: logger}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery(), cors.New(corsConfig(deps.AllowedOrigins)))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db, deps.Cache))

	oauth := router.Group("/oauth/:shopKey", shopMiddleware(deps.ShopRepo))
	oauth.POST("/anonymous/token", h.issueAnonymousToken)
	oauth.POST("/customers/token", h.issueCustomerToken)

	shop := router.Group("/:shopKey", shopMiddleware(deps.ShopRepo))
	shop.GET("/products", h.listProducts)
	shop.GET("/products/:handle", h.getProduct)
	shop.GET("/collections", h.listCollections)
	shop.GET("/collections/:handle", h.getCollection)
	shop.GET("/pages/:handle", h.getPage)
	shop.GET("/policies", h.listPolicies)
	shop.GET("/policies/:handle", h.getPolicy)
	shop.GET("/blogs", h.listBlogs)
	shop.GET("/blogs/:blogHandle", h.getBlog)
	shop.GET("/blogs/:blogHandle/:articleHandle", h.getArticle)
	shop.GET("/search", h.search)
	shop.GET("/search/predictive", h.predictiveSearch)

	shop.POST("/me/signup", h.signup)
	me := shop.Group("/me", h.requireCustomer)
	me.GET("", h.me)
	me.POST("/addresses", h.createAddress)
	me.PUT("/addresses/:addressId", h.updateAddress)
	me.DELETE("/addresses/:addressId", h.deleteAddress)
	me.GET("/orders", h.listOrders)
	me.GET("/orders/:orderId", h.getOrder)

	cart := shop.Group("/cart", h.requireOwner)
	cart.GET("", h.activeCart)
	cart.POST("", h.createCart)
	cart.GET("/:cartId", h.getCart)
	cart.POST("/:cartId", h.mutateCart)

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
	cfg.MaxAge = 12 * time.Hour
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
