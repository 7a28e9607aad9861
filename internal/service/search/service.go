// Package search backs the predictive type-ahead and the full search page.
package search

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"storefront/internal/cache"
	"storefront/internal/domain"
	"storefront/internal/logging"
)

const (
	DefaultPredictiveLimit = 10
	MaxPredictiveLimit     = 25
	DefaultPageLimit       = 20
	MaxPageLimit           = 100

	lookupTimeout = 5 * time.Second
)

type productRepo interface {
	Search(ctx context.Context, shopID, term string, limit, offset int) ([]domain.Product, int, error)
}

type collectionRepo interface {
	Search(ctx context.Context, shopID, term string, limit int) ([]domain.Collection, error)
}

type contentRepo interface {
	SearchPages(ctx context.Context, shopID, term string, limit, offset int) ([]domain.Page, int, error)
	SearchArticles(ctx context.Context, shopID, term string, limit, offset int) ([]domain.Article, int, error)
}

// ResultCache stores predictive results by key. A nil ResultCache disables caching.
type ResultCache interface {
	Get(ctx context.Context, key string) (domain.PredictiveResult, error)
	Set(ctx context.Context, key string, result domain.PredictiveResult) error
}

type Service struct {
	products     productRepo
	collections  collectionRepo
	content      contentRepo
	cache        ResultCache
	group        singleflight.Group
	defaultLimit int
	logger       *zap.Logger
}

func New(products productRepo, collections collectionRepo, content contentRepo, resultCache ResultCache, defaultLimit int, logger *zap.Logger) *Service {
	if defaultLimit <= 0 {
		defaultLimit = DefaultPredictiveLimit
	}
	return &Service{
		products:     products,
		collections:  collections,
		content:      content,
		cache:        resultCache,
		defaultLimit: defaultLimit,
		logger:       logging.OrNop(logger),
	}
}

// Predictive returns up to limit matches per bucket. Identical concurrent
// lookups share one round of queries; cache failures fall through to storage.
func (s *Service) Predictive(ctx context.Context, shopID, term string, limit int) (domain.PredictiveResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return domain.EmptyPredictiveResult(), nil
	}
	switch {
	case limit <= 0:
		limit = s.defaultLimit
	case limit > MaxPredictiveLimit:
		limit = MaxPredictiveLimit
	}
	key := cache.Key(shopID, limit, term)

	if s.cache != nil {
		result, err := s.cache.Get(ctx, key)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("predictive cache get failed", zap.String("key", key), zap.Error(err))
		}
	}

	// The shared lookup outlives any single caller: a type-ahead client that
	// abandons its request must not fail the others waiting on the same key.
	ch := s.group.DoChan(key, func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()
		result, err := s.lookup(lookupCtx, shopID, term, limit)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Set(lookupCtx, key, result); err != nil {
				s.logger.Warn("predictive cache set failed", zap.String("key", key), zap.Error(err))
			}
		}
		return result, nil
	})
	select {
	case <-ctx.Done():
		return domain.PredictiveResult{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.PredictiveResult{}, res.Err
		}
		if res.Shared {
			s.logger.Debug("predictive lookup shared", zap.String("key", key))
		}
		return res.Val.(domain.PredictiveResult), nil
	}
}

func (s *Service) lookup(ctx context.Context, shopID, term string, limit int) (domain.PredictiveResult, error) {
	var (
		products    []domain.Product
		collections []domain.Collection
		pages       []domain.Page
		articles    []domain.Article
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, _, err = s.products.Search(gctx, shopID, term, limit, 0)
		return err
	})
	g.Go(func() error {
		var err error
		collections, err = s.collections.Search(gctx, shopID, term, limit)
		return err
	})
	g.Go(func() error {
		var err error
		pages, _, err = s.content.SearchPages(gctx, shopID, term, limit, 0)
		return err
	})
	g.Go(func() error {
		var err error
		articles, _, err = s.content.SearchArticles(gctx, shopID, term, limit, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.PredictiveResult{}, err
	}

	result := domain.EmptyPredictiveResult()
	for _, p := range products {
		result.Products = append(result.Products, p.Summary())
	}
	for _, c := range collections {
		result.Collections = append(result.Collections, domain.CollectionSummary{ID: c.ID, Handle: c.Handle, Title: c.Title, Image: c.Image})
	}
	for _, p := range pages {
		result.Pages = append(result.Pages, pageSummary(p))
	}
	for _, a := range articles {
		result.Articles = append(result.Articles, articleSummary(a))
	}
	result.Queries = suggestions(term, limit, products, collections)
	return result, nil
}

// suggestions are distinct lower-cased product and collection titles that
// contain the term.
func suggestions(term string, limit int, products []domain.Product, collections []domain.Collection) []domain.QuerySuggestion {
	needle := strings.ToLower(term)
	out := []domain.QuerySuggestion{}
	seen := map[string]struct{}{}
	add := func(title string) {
		text := strings.ToLower(strings.TrimSpace(title))
		if len(out) >= limit || !strings.Contains(text, needle) {
			return
		}
		if _, ok := seen[text]; ok {
			return
		}
		seen[text] = struct{}{}
		out = append(out, domain.QuerySuggestion{Text: text})
	}
	for _, p := range products {
		add(p.Title)
	}
	for _, c := range collections {
		add(c.Title)
	}
	return out
}

// Search backs the full results page. Total counts every match, not just the
// returned window.
func (s *Service) Search(ctx context.Context, shopID, term string, limit, offset int) (*domain.SearchResult, error) {
	term = strings.TrimSpace(term)
	result := &domain.SearchResult{
		Term:     term,
		Products: []domain.ProductSummary{},
		Pages:    []domain.PageSummary{},
		Articles: []domain.ArticleSummary{},
	}
	if term == "" {
		return result, nil
	}
	switch {
	case limit <= 0:
		limit = DefaultPageLimit
	case limit > MaxPageLimit:
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	products, productTotal, err := s.products.Search(ctx, shopID, term, limit, offset)
	if err != nil {
		return nil, err
	}
	pages, pageTotal, err := s.content.SearchPages(ctx, shopID, term, limit, offset)
	if err != nil {
		return nil, err
	}
	articles, articleTotal, err := s.content.SearchArticles(ctx, shopID, term, limit, offset)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		result.Products = append(result.Products, p.Summary())
	}
	for _, p := range pages {
		result.Pages = append(result.Pages, pageSummary(p))
	}
	for _, a := range articles {
		result.Articles = append(result.Articles, articleSummary(a))
	}
	result.Total = productTotal + pageTotal + articleTotal
	return result, nil
}

func pageSummary(p domain.Page) domain.PageSummary {
	return domain.PageSummary{ID: p.ID, Handle: p.Handle, Title: p.Title}
}

func articleSummary(a domain.Article) domain.ArticleSummary {
	return domain.ArticleSummary{ID: a.ID, Handle: a.Handle, BlogHandle: a.BlogHandle, Title: a.Title, Image: a.Image}
}
