package httpserver

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

func TestShopMiddleware_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &stubShopRepo{
		shop: &domain.Shop{ID: "123", Key: "shop", Name: "Test"},
	}
	router := gin.New()
	router.Use(shopMiddleware(repo))
	router.GET("/shops/:shopKey/test", func(c *gin.Context) {
		s := c.Request.Context().Value(shopCtxKey)
		if s == nil {
			t.Fatalf("expected shop in context")
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/shops/shop/test", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestShopMiddleware_NotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &stubShopRepo{err: domain.ErrNotFound}
	router := gin.New()
	router.Use(shopMiddleware(repo))
	router.GET("/shops/:shopKey/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/shops/missing/test", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestShopMiddleware_Error(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &stubShopRepo{err: errors.New("boom")}
	router := gin.New()
	router.Use(shopMiddleware(repo))
	router.GET("/shops/:shopKey/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/shops/shop/test", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
}

func TestShopMiddleware_MissingKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &stubShopRepo{}
	router := gin.New()
	router.Use(shopMiddleware(repo))
	router.GET("/shops/:shopKey/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/shops/%20/test", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestBuildRouter_RequiresServices(t *testing.T) {
	deps := testDeps()
	deps.SearchSvc = nil
	if _, err := buildRouter(logDiscard(), nil, deps); err == nil || !strings.Contains(err.Error(), "search") {
		t.Fatalf("expected missing search service error, got %v", err)
	}
}

func TestHealthAndReady(t *testing.T) {
	router, err := buildRouter(logDiscard(), nil, testDeps())
	if err != nil {
		t.Fatalf("build router: %v", err)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without db, got %d", rec.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	router, err := buildRouter(logDiscard(), nil, testDeps())
	if err != nil {
		t.Fatalf("build router: %v", err)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Header().Get(requestIDHeader) != "abc" {
		t.Fatalf("expected request id echoed, got %q", rec.Header().Get(requestIDHeader))
	}
}

func TestCORSPreflight(t *testing.T) {
	deps := testDeps()
	deps.AllowedOrigins = []string{"https://shop.test"}
	router, err := buildRouter(logDiscard(), nil, deps)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}

	req := httptest.NewRequest(http.MethodOptions, "/shop-key/cart", nil)
	req.Header.Set("Origin", "https://shop.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://shop.test" {
		t.Fatalf("unexpected allow origin %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		domain.ErrNotFound:        http.StatusNotFound,
		domain.ErrAlreadyExists:   http.StatusConflict,
		domain.ErrInvalidInput:    http.StatusBadRequest,
		domain.ErrUnauthorized:    http.StatusUnauthorized,
		errors.New("db exploded"): http.StatusInternalServerError,
	}
	for err, want := range cases {
		if got := statusFor(err); got != want {
			t.Fatalf("%v: expected %d, got %d", err, want, got)
		}
	}
}
