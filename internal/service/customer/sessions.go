package customer

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"storefront/internal/domain"
	tokenrepo "storefront/internal/repository/token"
)

const mintAttempts = 5

// sessions mints and resolves customer bearer tokens on top of the token store.
type sessions struct {
	store  tokenrepo.Repository
	clock  func() time.Time
	logger *zap.Logger
}

func (s *sessions) mint(ctx context.Context, shopID, customerID, kind string, ttl time.Duration) (string, error) {
	owner := customerID
	rec := tokenrepo.Token{
		ShopID:     shopID,
		CustomerID: &owner,
		Kind:       kind,
		ExpiresAt:  s.clock().Add(ttl),
	}
	for range mintAttempts {
		rec.Token = rand.Text()
		err := s.store.Create(ctx, rec)
		if errors.Is(err, domain.ErrAlreadyExists) {
			s.logger.Warn("token collision", zap.String("kind", kind))
			continue
		}
		if err != nil {
			return "", fmt.Errorf("store %s token: %w", kind, err)
		}
		return rec.Token, nil
	}
	return "", fmt.Errorf("mint %s token: %w", kind, domain.ErrAlreadyExists)
}

// resolve returns the customer behind an unexpired token of kind issued for
// shopID. Expired tokens are deleted on sight.
func (s *sessions) resolve(ctx context.Context, shopID, token, kind string) (string, error) {
	rec, err := s.store.Get(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return "", ErrInvalidToken
	}
	if err != nil {
		return "", err
	}
	if rec.Kind != kind || rec.CustomerID == nil || rec.ShopID != shopID {
		return "", ErrInvalidToken
	}
	if rec.Expired(s.clock()) {
		if err := s.store.Delete(ctx, token); err != nil && !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("drop expired token", zap.Error(err))
		}
		return "", ErrInvalidToken
	}
	return *rec.CustomerID, nil
}

func (s *sessions) revoke(ctx context.Context, token string) error {
	return s.store.Delete(ctx, token)
}

func (s *sessions) prune(ctx context.Context) (int64, error) {
	return s.store.DeleteExpired(ctx, s.clock())
}
