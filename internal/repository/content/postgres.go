package content

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
	"storefront/internal/repository/pgutil"
)

const articleColumns = `a.id::text, a.blog_id::text, b.handle, a.handle, a.title, a.excerpt, a.body, a.author, a.image, a.published_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

func (r *postgresRepo) GetPage(ctx context.Context, shopID, kind, handle string) (*domain.Page, error) {
	const q = `
SELECT id::text, shop_id::text, handle, title, body, kind, created_at
FROM pages
WHERE shop_id = $1 AND kind = $2 AND handle = $3
`
	var p domain.Page
	err := r.pool.QueryRow(ctx, q, shopID, kind, handle).Scan(&p.ID, &p.ShopID, &p.Handle, &p.Title, &p.Body, &p.Kind, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("get page", zap.String("handle", handle), zap.Error(err))
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) ListPages(ctx context.Context, shopID, kind string) ([]domain.Page, error) {
	const q = `
SELECT id::text, shop_id::text, handle, title, body, kind, created_at
FROM pages
WHERE shop_id = $1 AND kind = $2
ORDER BY title ASC
`
	rows, err := r.pool.Query(ctx, q, shopID, kind)
	if err != nil {
		return nil, err
	}
	return collectPages(rows)
}

func (r *postgresRepo) SearchPages(ctx context.Context, shopID, term string, limit, offset int) ([]domain.Page, int, error) {
	pattern := pgutil.Contains(term)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM pages WHERE shop_id = $1 AND kind = 'page' AND (title ILIKE $2 OR body ILIKE $2)`, shopID, pattern).Scan(&total); err != nil {
		r.logger.Error("count page search", zap.String("shop_id", shopID), zap.Error(err))
		return nil, 0, err
	}
	const q = `
SELECT id::text, shop_id::text, handle, title, body, kind, created_at
FROM pages
WHERE shop_id = $1 AND kind = 'page' AND (title ILIKE $2 OR body ILIKE $2)
ORDER BY (title ILIKE $2) DESC, title ASC
LIMIT $3 OFFSET $4
`
	rows, err := r.pool.Query(ctx, q, shopID, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	pages, err := collectPages(rows)
	return pages, total, err
}

func (r *postgresRepo) UpsertPage(ctx context.Context, p domain.Page) (*domain.Page, error) {
	if p.Kind == "" {
		p.Kind = domain.PageKindPage
	}
	const q = `
INSERT INTO pages (shop_id, handle, title, body, kind)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (shop_id, kind, handle) DO UPDATE
SET title = EXCLUDED.title,
    body = EXCLUDED.body
RETURNING id::text, created_at
`
	out := p
	if err := r.pool.QueryRow(ctx, q, p.ShopID, p.Handle, p.Title, p.Body, p.Kind).Scan(&out.ID, &out.CreatedAt); err != nil {
		r.logger.Error("upsert page", zap.String("handle", p.Handle), zap.Error(err))
		return nil, err
	}
	return &out, nil
}

func (r *postgresRepo) ListBlogs(ctx context.Context, shopID string) ([]domain.Blog, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id::text, shop_id::text, handle, title
FROM blogs
WHERE shop_id = $1
ORDER BY title ASC
`, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.Blog{}
	for rows.Next() {
		var b domain.Blog
		if err := rows.Scan(&b.ID, &b.ShopID, &b.Handle, &b.Title); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *postgresRepo) GetBlog(ctx context.Context, shopID, handle string) (*domain.Blog, error) {
	var b domain.Blog
	err := r.pool.QueryRow(ctx, `
SELECT id::text, shop_id::text, handle, title
FROM blogs
WHERE shop_id = $1 AND handle = $2
`, shopID, handle).Scan(&b.ID, &b.ShopID, &b.Handle, &b.Title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// ListArticles returns a blog's articles, newest first.
func (r *postgresRepo) ListArticles(ctx context.Context, blogID string, limit, offset int) ([]domain.Article, error) {
	q := `
SELECT ` + articleColumns + `
FROM articles a
JOIN blogs b ON b.id = a.blog_id
WHERE a.blog_id = $1
ORDER BY a.published_at DESC, a.handle ASC
LIMIT $2 OFFSET $3
`
	rows, err := r.pool.Query(ctx, q, blogID, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectArticles(rows)
}

func (r *postgresRepo) GetArticle(ctx context.Context, shopID, blogHandle, handle string) (*domain.Article, error) {
	q := `
SELECT ` + articleColumns + `
FROM articles a
JOIN blogs b ON b.id = a.blog_id
WHERE b.shop_id = $1 AND b.handle = $2 AND a.handle = $3
`
	var a domain.Article
	err := r.pool.QueryRow(ctx, q, shopID, blogHandle, handle).Scan(
		&a.ID, &a.BlogID, &a.BlogHandle, &a.Handle, &a.Title, &a.Excerpt, &a.Body, &a.Author, &a.Image, &a.PublishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *postgresRepo) SearchArticles(ctx context.Context, shopID, term string, limit, offset int) ([]domain.Article, int, error) {
	pattern := pgutil.Contains(term)
	const where = `b.shop_id = $1 AND (a.title ILIKE $2 OR a.excerpt ILIKE $2 OR a.body ILIKE $2)`
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM articles a JOIN blogs b ON b.id = a.blog_id WHERE `+where, shopID, pattern).Scan(&total); err != nil {
		r.logger.Error("count article search", zap.String("shop_id", shopID), zap.Error(err))
		return nil, 0, err
	}
	q := `
SELECT ` + articleColumns + `
FROM articles a
JOIN blogs b ON b.id = a.blog_id
WHERE ` + where + `
ORDER BY (a.title ILIKE $2) DESC, a.published_at DESC
LIMIT $3 OFFSET $4
`
	rows, err := r.pool.Query(ctx, q, shopID, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	articles, err := collectArticles(rows)
	return articles, total, err
}

func (r *postgresRepo) UpsertBlog(ctx context.Context, b domain.Blog) (*domain.Blog, error) {
	out := b
	err := r.pool.QueryRow(ctx, `
INSERT INTO blogs (shop_id, handle, title)
VALUES ($1, $2, $3)
ON CONFLICT (shop_id, handle) DO UPDATE SET title = EXCLUDED.title
RETURNING id::text
`, b.ShopID, b.Handle, b.Title).Scan(&out.ID)
	if err != nil {
		return nil, err
	}
	out.Articles = nil
	return &out, nil
}

func (r *postgresRepo) UpsertArticle(ctx context.Context, a domain.Article) (*domain.Article, error) {
	out := a
	err := r.pool.QueryRow(ctx, `
INSERT INTO articles (blog_id, handle, title, excerpt, body, author, image, published_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, now()))
ON CONFLICT (blog_id, handle) DO UPDATE
SET title = EXCLUDED.title,
    excerpt = EXCLUDED.excerpt,
    body = EXCLUDED.body,
    author = EXCLUDED.author,
    image = EXCLUDED.image,
    published_at = EXCLUDED.published_at
RETURNING id::text, published_at
`, a.BlogID, a.Handle, a.Title, a.Excerpt, a.Body, a.Author, a.Image, nullTime(a)).Scan(&out.ID, &out.PublishedAt)
	if err != nil {
		if pgutil.IsForeignKeyViolation(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func nullTime(a domain.Article) any {
	if a.PublishedAt.IsZero() {
		return nil
	}
	return a.PublishedAt
}

func collectPages(rows pgx.Rows) ([]domain.Page, error) {
	defer rows.Close()
	out := []domain.Page{}
	for rows.Next() {
		var p domain.Page
		if err := rows.Scan(&p.ID, &p.ShopID, &p.Handle, &p.Title, &p.Body, &p.Kind, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func collectArticles(rows pgx.Rows) ([]domain.Article, error) {
	defer rows.Close()
	out := []domain.Article{}
	for rows.Next() {
		var a domain.Article
		if err := rows.Scan(&a.ID, &a.BlogID, &a.BlogHandle, &a.Handle, &a.Title, &a.Excerpt, &a.Body, &a.Author, &a.Image, &a.PublishedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
