package domain

import "time"

const (
	PageKindPage   = "page"
	PageKindPolicy = "policy"
)

type Page struct {
	ID        string    `json:"id"`
	ShopID    string    `json:"-"`
	Handle    string    `json:"handle"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
}

type Blog struct {
	ID       string    `json:"id"`
	ShopID   string    `json:"-"`
	Handle   string    `json:"handle"`
	Title    string    `json:"title"`
	Articles []Article `json:"articles,omitempty"`
}

type Article struct {
	ID          string    `json:"id"`
	BlogID      string    `json:"-"`
	BlogHandle  string    `json:"blogHandle"`
	Handle      string    `json:"handle"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt,omitempty"`
	Body        string    `json:"body,omitempty"`
	Author      string    `json:"author,omitempty"`
	Image       string    `json:"image,omitempty"`
	PublishedAt time.Time `json:"publishedAt"`
}
