package anonymous

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Service issues visitor tokens. Tokens live in memory only, so a restart
// signs every visitor out; their carts stay in storage.
type Service struct {
	visitors   *visitors
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func New() *Service {
	return &Service{
		visitors:   newVisitors(time.Now),
		accessTTL:  3 * time.Hour,
		refreshTTL: 30 * 24 * time.Hour,
	}
}

// Issued is a freshly minted visitor identity.
type Issued struct {
	AccessToken  string
	RefreshToken string
	AnonymousID  string
}

func (s *Service) Issue(_ context.Context, shopID string) (Issued, error) {
	anonID := uuid.NewString()
	tokens := s.visitors.grant(shopID, anonID, s.accessTTL, s.refreshTTL)
	return Issued{AccessToken: tokens[0], RefreshToken: tokens[1], AnonymousID: anonID}, nil
}

// LookupByToken returns the visitor id bound to token within the shop.
func (s *Service) LookupByToken(_ context.Context, shopID, token string) (string, error) {
	anonID, ok := s.visitors.lookup(shopID, token)
	if !ok {
		return "", ErrInvalidToken
	}
	return anonID, nil
}

// Prune drops expired tokens and reports how many were removed.
func (s *Service) Prune() int {
	return s.visitors.sweep()
}

func (s *Service) AccessTTLSeconds() int {
	return int(s.accessTTL.Seconds())
}
