package content

import (
	"context"

	"storefront/internal/domain"
	"storefront/internal/repository/content"
)

// articlesPerBlog bounds the articles embedded in a blog response.
const articlesPerBlog = 50

type Service struct {
	repo content.Repository
}

func New(repo content.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Page(ctx context.Context, shopID, handle string) (*domain.Page, error) {
	return s.repo.GetPage(ctx, shopID, domain.PageKindPage, handle)
}

func (s *Service) Policy(ctx context.Context, shopID, handle string) (*domain.Page, error) {
	return s.repo.GetPage(ctx, shopID, domain.PageKindPolicy, handle)
}

func (s *Service) Policies(ctx context.Context, shopID string) ([]domain.Page, error) {
	pages, err := s.repo.ListPages(ctx, shopID, domain.PageKindPolicy)
	if err != nil {
		return nil, err
	}
	if pages == nil {
		pages = []domain.Page{}
	}
	return pages, nil
}

func (s *Service) Blogs(ctx context.Context, shopID string) ([]domain.Blog, error) {
	blogs, err := s.repo.ListBlogs(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if blogs == nil {
		blogs = []domain.Blog{}
	}
	return blogs, nil
}

// Blog returns the blog with its articles, newest first.
func (s *Service) Blog(ctx context.Context, shopID, handle string) (*domain.Blog, error) {
	blog, err := s.repo.GetBlog(ctx, shopID, handle)
	if err != nil {
		return nil, err
	}
	articles, err := s.repo.ListArticles(ctx, blog.ID, articlesPerBlog, 0)
	if err != nil {
		return nil, err
	}
	if articles == nil {
		articles = []domain.Article{}
	}
	blog.Articles = articles
	return blog, nil
}

func (s *Service) Article(ctx context.Context, shopID, blogHandle, handle string) (*domain.Article, error) {
	return s.repo.GetArticle(ctx, shopID, blogHandle, handle)
}
