// Package storefrontapi is the HTTP client the terminal storefront uses to
// talk to the API server.
package storefrontapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
	"storefront/internal/optimistic"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("storefront api: status %d", e.Status)
	}
	return fmt.Sprintf("storefront api: status %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Token is an issued visitor or customer token.
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

// ProductPage is one page of the product listing.
type ProductPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}

// Product is the listing shape returned by the server.
type Product struct {
	ID               string       `json:"id"`
	Handle           string       `json:"handle"`
	Title            string       `json:"title"`
	Price            domain.Money `json:"price"`
	AvailableForSale bool         `json:"availableForSale"`
	FeaturedImage    string       `json:"featuredImage"`
}

// Merchandise is the client-side detail used to draw a provisional line.
func (p Product) Merchandise() *domain.Merchandise {
	return &domain.Merchandise{
		ID:            p.ID,
		Title:         p.Title,
		ProductHandle: p.Handle,
		Image:         p.FeaturedImage,
		Price:         p.Price,
	}
}

type mutationPayload struct {
	Cart       *domain.Cart       `json:"cart"`
	UserErrors []domain.UserError `json:"userErrors"`
}

// Client is safe for concurrent use once configured.
type Client struct {
	http   *resty.Client
	shop   string
	logger *zap.Logger

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

// WithHTTPClient replaces the underlying transport, e.g. for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = resty.NewWithClient(hc).SetBaseURL(c.http.BaseURL)
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logging.OrNop(logger)
	}
}

// New builds a client for one shop of the server at baseURL.
func New(baseURL, shopKey string, opts ...Option) *Client {
	c := &Client{
		http:   resty.New().SetBaseURL(strings.TrimRight(baseURL, "/")).SetTimeout(10 * time.Second),
		shop:   url.PathEscape(shopKey),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http.SetHeader("Accept", "application/json")
	return c
}

// SetToken sets the bearer used for cart requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx).SetError(&APIError{})
	if token := c.bearer(); token != "" {
		req.SetAuthToken(token)
	}
	return req
}

func (c *Client) do(req *resty.Request, method, path string) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr, _ := resp.Error().(*APIError)
		if apiErr == nil {
			apiErr = &APIError{}
		}
		apiErr.Status = resp.StatusCode()
		c.logger.Debug("storefront api error", zap.String("method", method), zap.String("path", path), zap.Int("status", apiErr.Status), zap.String("error", apiErr.Message))
		return apiErr
	}
	return nil
}

// IssueAnonymousToken obtains a visitor token and installs it on the client.
func (c *Client) IssueAnonymousToken(ctx context.Context) (Token, error) {
	var tok Token
	if err := c.do(c.http.R().SetContext(ctx).SetError(&APIError{}).SetResult(&tok), http.MethodPost, "/oauth/"+c.shop+"/anonymous/token"); err != nil {
		return Token{}, err
	}
	c.SetToken(tok.AccessToken)
	return tok, nil
}

// ActiveCart returns the bearer's active cart; IsNotFound reports when there
// is none.
func (c *Client) ActiveCart(ctx context.Context) (*domain.Cart, error) {
	var cart domain.Cart
	if err := c.do(c.request(ctx).SetResult(&cart), http.MethodGet, "/"+c.shop+"/cart"); err != nil {
		return nil, err
	}
	return &cart, nil
}

// CreateCart opens a cart in the shop currency.
func (c *Client) CreateCart(ctx context.Context) (*domain.Cart, error) {
	var cart domain.Cart
	if err := c.do(c.request(ctx).SetResult(&cart), http.MethodPost, "/"+c.shop+"/cart"); err != nil {
		return nil, err
	}
	return &cart, nil
}

// ActiveOrNewCart loads the active cart, creating one when none exists.
func (c *Client) ActiveOrNewCart(ctx context.Context) (*domain.Cart, error) {
	cart, err := c.ActiveCart(ctx)
	if IsNotFound(err) {
		return c.CreateCart(ctx)
	}
	return cart, err
}

// MutateCart sends one action. Every failure, including user errors and
// transport errors, is folded into the Result for the overlay to settle.
func (c *Client) MutateCart(ctx context.Context, cartID string, action optimistic.Action) optimistic.Result {
	var payload mutationPayload
	err := c.do(c.request(ctx).SetBody(action).SetResult(&payload), http.MethodPost, "/"+c.shop+"/cart/"+url.PathEscape(cartID))
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.logger.Warn("cart mutation failed", zap.String("cart_id", cartID), zap.String("action", string(action.Kind)), zap.Error(err))
		}
		return optimistic.Result{Err: err}
	}
	return optimistic.Result{Cart: payload.Cart, UserErrors: payload.UserErrors}
}

// PredictiveSearch runs one type-ahead lookup.
func (c *Client) PredictiveSearch(ctx context.Context, term string, limit int) (domain.PredictiveResult, error) {
	result := domain.EmptyPredictiveResult()
	req := c.request(ctx).SetQueryParam("q", term).SetResult(&result)
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
	if err := c.do(req, http.MethodGet, "/"+c.shop+"/search/predictive"); err != nil {
		return domain.EmptyPredictiveResult(), err
	}
	return result, nil
}

// Products lists the first page of the catalog.
func (c *Client) Products(ctx context.Context, limit int) (*ProductPage, error) {
	var page ProductPage
	req := c.request(ctx).SetResult(&page)
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
	if err := c.do(req, http.MethodGet, "/"+c.shop+"/products"); err != nil {
		return nil, err
	}
	return &page, nil
}
