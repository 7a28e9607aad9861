package domain

// PredictiveResult groups type-ahead matches by entity kind.
type PredictiveResult struct {
	Queries     []QuerySuggestion   `json:"queries"`
	Products    []ProductSummary    `json:"products"`
	Collections []CollectionSummary `json:"collections"`
	Pages       []PageSummary       `json:"pages"`
	Articles    []ArticleSummary    `json:"articles"`
}

type QuerySuggestion struct {
	Text string `json:"text"`
}

type ProductSummary struct {
	ID               string `json:"id"`
	Handle           string `json:"handle"`
	Title            string `json:"title"`
	Price            Money  `json:"price"`
	Image            string `json:"image,omitempty"`
	AvailableForSale bool   `json:"availableForSale"`
}

type CollectionSummary struct {
	ID     string `json:"id"`
	Handle string `json:"handle"`
	Title  string `json:"title"`
	Image  string `json:"image,omitempty"`
}

type PageSummary struct {
	ID     string `json:"id"`
	Handle string `json:"handle"`
	Title  string `json:"title"`
}

type ArticleSummary struct {
	ID         string `json:"id"`
	Handle     string `json:"handle"`
	BlogHandle string `json:"blogHandle"`
	Title      string `json:"title"`
	Image      string `json:"image,omitempty"`
}

// EmptyPredictiveResult has non-nil buckets so it renders as empty arrays.
func EmptyPredictiveResult() PredictiveResult {
	return PredictiveResult{
		Queries:     []QuerySuggestion{},
		Products:    []ProductSummary{},
		Collections: []CollectionSummary{},
		Pages:       []PageSummary{},
		Articles:    []ArticleSummary{},
	}
}

// Total counts entities across buckets, excluding query suggestions.
func (r PredictiveResult) Total() int {
	return len(r.Products) + len(r.Collections) + len(r.Pages) + len(r.Articles)
}

// SearchResult backs the full search page.
type SearchResult struct {
	Term     string           `json:"term"`
	Products []ProductSummary `json:"products"`
	Pages    []PageSummary    `json:"pages"`
	Articles []ArticleSummary `json:"articles"`
	Total    int              `json:"total"`
}

// Summary projects a product onto its search/listing shape.
func (p Product) Summary() ProductSummary {
	return ProductSummary{
		ID:               p.ID,
		Handle:           p.Handle,
		Title:            p.Title,
		Price:            p.Price(),
		Image:            p.FeaturedImage(),
		AvailableForSale: p.AvailableForSale(),
	}
}
