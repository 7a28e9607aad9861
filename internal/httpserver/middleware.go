package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/domain"
	cartsvc "storefront/internal/service/cart"
	customersvc "storefront/internal/service/customer"
)

type ctxKey string

const (
	shopCtxKey     ctxKey = "shop"
	customerCtxKey ctxKey = "customer"
	ownerCtxKey    ctxKey = "owner"
)

const requestIDHeader = "X-Request-ID"

// requestLogger writes one structured line per request.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		c.Next()

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Int("size", c.Writer.Size()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("http request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("http request", fields...)
		default:
			logger.Info("http request", fields...)
		}
	}
}

// shopMiddleware resolves :shopKey and stores the shop in the request context.
func shopMiddleware(repo shopRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.Param("shopKey"))
		if key == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "shop key required"})
			return
		}
		shop, err := repo.GetByKey(c.Request.Context(), key)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "shop not found"})
				return
			}
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load shop"})
			return
		}
		ctx := context.WithValue(c.Request.Context(), shopCtxKey, shop)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func shopFromContext(c *gin.Context) *domain.Shop {
	shop, _ := c.Request.Context().Value(shopCtxKey).(*domain.Shop)
	return shop
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// requireCustomer admits only requests carrying a customer access token.
func (h *handlers) requireCustomer(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	shop := shopFromContext(c)
	customer, err := h.deps.CustomerSvc.LookupByToken(c.Request.Context(), shop.ID, token)
	if err != nil {
		if errors.Is(err, customersvc.ErrInvalidToken) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		h.abortWithError(c, err)
		return
	}
	ctx := context.WithValue(c.Request.Context(), customerCtxKey, customer)
	c.Request = c.Request.WithContext(ctx)
	c.Next()
}

func customerFromContext(c *gin.Context) *domain.Customer {
	customer, _ := c.Request.Context().Value(customerCtxKey).(*domain.Customer)
	return customer
}

// requireOwner accepts a customer or a visitor token; carts belong to either.
func (h *handlers) requireOwner(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	owner, ok, err := h.resolveOwner(c.Request.Context(), shopFromContext(c).ID, token)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	ctx := context.WithValue(c.Request.Context(), ownerCtxKey, owner)
	c.Request = c.Request.WithContext(ctx)
	c.Next()
}

func (h *handlers) resolveOwner(ctx context.Context, shopID, token string) (cartsvc.Owner, bool, error) {
	customer, err := h.deps.CustomerSvc.LookupByToken(ctx, shopID, token)
	switch {
	case err == nil:
		return cartsvc.Owner{CustomerID: customer.ID}, true, nil
	case !errors.Is(err, customersvc.ErrInvalidToken):
		return cartsvc.Owner{}, false, err
	}
	anonID, err := h.deps.AnonymousSvc.LookupByToken(ctx, shopID, token)
	if err != nil {
		return cartsvc.Owner{}, false, nil
	}
	return cartsvc.Owner{AnonymousID: anonID}, true, nil
}

func ownerFromContext(c *gin.Context) cartsvc.Owner {
	owner, _ := c.Request.Context().Value(ownerCtxKey).(cartsvc.Owner)
	return owner
}
