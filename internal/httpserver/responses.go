package httpserver

import (
	"strings"
	"time"

	"storefront/internal/domain"
)

type productResponse struct {
	ID               string       `json:"id"`
	Handle           string       `json:"handle"`
	SKU              string       `json:"sku,omitempty"`
	Title            string       `json:"title"`
	Description      string       `json:"description,omitempty"`
	Vendor           string       `json:"vendor,omitempty"`
	Price            domain.Money `json:"price"`
	AvailableForSale bool         `json:"availableForSale"`
	FeaturedImage    string       `json:"featuredImage,omitempty"`
	Images           []string     `json:"images"`
	Tags             []string     `json:"tags"`
	CreatedAt        time.Time    `json:"createdAt"`
}

type productListResponse struct {
	Products []productResponse `json:"products"`
	Total    int               `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

type collectionResponse struct {
	ID          string            `json:"id"`
	Handle      string            `json:"handle"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Image       string            `json:"image,omitempty"`
	Products    []productResponse `json:"products,omitempty"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

type customerResponse struct {
	Customer domain.Customer `json:"customer"`
}

type addressResponse struct {
	Address  domain.CustomerAddress `json:"address"`
	Customer domain.Customer        `json:"customer"`
}

// imageURLs makes relative image paths absolute against the file host.
type imageURLs string

func (host imageURLs) abs(u string) string {
	if u == "" || host == "" || strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") || strings.HasPrefix(u, "//") {
		return u
	}
	return strings.TrimRight(string(host), "/") + "/" + strings.TrimLeft(u, "/")
}

func (host imageURLs) product(p domain.Product) productResponse {
	images := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, host.abs(img))
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return productResponse{
		ID:               p.ID,
		Handle:           p.Handle,
		SKU:              p.SKU,
		Title:            p.Title,
		Description:      p.Description,
		Vendor:           p.Vendor,
		Price:            p.Price(),
		AvailableForSale: p.AvailableForSale(),
		FeaturedImage:    host.abs(p.FeaturedImage()),
		Images:           images,
		Tags:             tags,
		CreatedAt:        p.CreatedAt,
	}
}

func (host imageURLs) products(list []domain.Product) []productResponse {
	out := make([]productResponse, 0, len(list))
	for _, p := range list {
		out = append(out, host.product(p))
	}
	return out
}

func (host imageURLs) collection(c domain.Collection) collectionResponse {
	resp := collectionResponse{
		ID:          c.ID,
		Handle:      c.Handle,
		Title:       c.Title,
		Description: c.Description,
		Image:       host.abs(c.Image),
	}
	if c.Products != nil {
		resp.Products = host.products(c.Products)
	}
	return resp
}

func (host imageURLs) cart(cart *domain.Cart) *domain.Cart {
	if cart == nil {
		return nil
	}
	for i := range cart.Lines {
		cart.Lines[i].Merchandise.Image = host.abs(cart.Lines[i].Merchandise.Image)
	}
	return cart
}

// predictive copies the buckets it rewrites; results may be shared between
// concurrent requests.
func (host imageURLs) predictive(r domain.PredictiveResult) domain.PredictiveResult {
	if host == "" {
		return r
	}
	r.Products = append(make([]domain.ProductSummary, 0, len(r.Products)), r.Products...)
	r.Collections = append(make([]domain.CollectionSummary, 0, len(r.Collections)), r.Collections...)
	r.Articles = append(make([]domain.ArticleSummary, 0, len(r.Articles)), r.Articles...)
	for i := range r.Products {
		r.Products[i].Image = host.abs(r.Products[i].Image)
	}
	for i := range r.Collections {
		r.Collections[i].Image = host.abs(r.Collections[i].Image)
	}
	for i := range r.Articles {
		r.Articles[i].Image = host.abs(r.Articles[i].Image)
	}
	return r
}
