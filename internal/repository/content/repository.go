package content

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	GetPage(ctx context.Context, shopID, kind, handle string) (*domain.Page, error)
	ListPages(ctx context.Context, shopID, kind string) ([]domain.Page, error)
	SearchPages(ctx context.Context, shopID, term string, limit, offset int) ([]domain.Page, int, error)
	UpsertPage(ctx context.Context, p domain.Page) (*domain.Page, error)

	ListBlogs(ctx context.Context, shopID string) ([]domain.Blog, error)
	GetBlog(ctx context.Context, shopID, handle string) (*domain.Blog, error)
	ListArticles(ctx context.Context, blogID string, limit, offset int) ([]domain.Article, error)
	GetArticle(ctx context.Context, shopID, blogHandle, handle string) (*domain.Article, error)
	SearchArticles(ctx context.Context, shopID, term string, limit, offset int) ([]domain.Article, int, error)
	UpsertBlog(ctx context.Context, b domain.Blog) (*domain.Blog, error)
	UpsertArticle(ctx context.Context, a domain.Article) (*domain.Article, error)
}
