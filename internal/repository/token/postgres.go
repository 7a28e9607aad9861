package token

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
	"storefront/internal/repository/pgutil"
)

// Only the SHA-256 digest of a token is persisted; a leaked table cannot be
// replayed as bearer credentials.
type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (r *postgresRepo) Create(ctx context.Context, t Token) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO tokens (token_digest, shop_id, customer_id, anonymous_id, kind, expires_at)
VALUES ($1, $2, $3, $4, $5, $6)
`, digest(t.Token), t.ShopID, t.CustomerID, t.AnonymousID, t.Kind, t.ExpiresAt)
	switch {
	case err == nil:
		return nil
	case pgutil.IsUniqueViolation(err):
		return domain.ErrAlreadyExists
	default:
		r.logger.Error("store token", zap.String("shop_id", t.ShopID), zap.String("kind", t.Kind), zap.Error(err))
		return err
	}
}

func (r *postgresRepo) Get(ctx context.Context, token string) (*Token, error) {
	row := r.pool.QueryRow(ctx, `
SELECT shop_id::text, customer_id::text, anonymous_id, kind, expires_at, created_at
FROM tokens
WHERE token_digest = $1
`, digest(token))
	out := Token{Token: token}
	err := row.Scan(&out.ShopID, &out.CustomerID, &out.AnonymousID, &out.Kind, &out.ExpiresAt, &out.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *postgresRepo) Delete(ctx context.Context, token string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tokens WHERE token_digest = $1`, digest(token))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	n := tag.RowsAffected()
	if n > 0 {
		r.logger.Debug("expired tokens removed", zap.Int64("count", n))
	}
	return n, nil
}
