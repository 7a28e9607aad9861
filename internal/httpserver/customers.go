package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/domain"
	customersvc "storefront/internal/service/customer"
)

type tokenRequest struct {
	GrantType    string `form:"grant_type" binding:"required"`
	Username     string `form:"username"`
	Password     string `form:"password"`
	RefreshToken string `form:"refresh_token"`
}

type addressRequest struct {
	Address        customersvc.AddressInput `json:"address"`
	DefaultAddress bool                     `json:"defaultAddress"`
}

func (h *handlers) issueAnonymousToken(c *gin.Context) {
	issued, err := h.deps.AnonymousSvc.Issue(c.Request.Context(), shopFromContext(c).ID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  issued.AccessToken,
		TokenType:    "Bearer",
		ExpiresIn:    h.deps.AnonymousSvc.AccessTTLSeconds(),
		RefreshToken: issued.RefreshToken,
		Scope:        "anonymous_id:" + issued.AnonymousID,
	})
}

// issueCustomerToken handles the password and refresh_token grants. A visitor
// token sent alongside a password grant hands the visitor's cart to the
// customer.
func (h *handlers) issueCustomerToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "grant_type required")
		return
	}
	shop := shopFromContext(c)
	ctx := c.Request.Context()

	var (
		customer *domain.Customer
		tokens   customersvc.Tokens
		err      error
	)
	switch req.GrantType {
	case "password":
		if strings.TrimSpace(req.Username) == "" || req.Password == "" {
			badRequest(c, "username and password required")
			return
		}
		customer, tokens, err = h.deps.CustomerSvc.Login(ctx, shop.ID, req.Username, req.Password)
	case "refresh_token":
		if req.RefreshToken == "" {
			badRequest(c, "refresh_token required")
			return
		}
		customer, tokens, err = h.deps.CustomerSvc.Refresh(ctx, shop.ID, req.RefreshToken)
	default:
		badRequest(c, "unsupported grant_type")
		return
	}
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	if req.GrantType == "password" {
		h.adoptVisitorCart(c, shop.ID, customer.ID)
	}
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  tokens.AccessToken,
		TokenType:    "Bearer",
		ExpiresIn:    tokens.ExpiresIn,
		RefreshToken: tokens.RefreshToken,
		Scope:        "customer_id:" + customer.ID,
	})
}

func (h *handlers) adoptVisitorCart(c *gin.Context, shopID, customerID string) {
	token := bearerToken(c)
	if token == "" {
		return
	}
	anonID, err := h.deps.AnonymousSvc.LookupByToken(c.Request.Context(), shopID, token)
	if err != nil {
		return
	}
	if _, err := h.deps.CartSvc.AssignCustomerFromAnonymous(c.Request.Context(), shopID, anonID, customerID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		h.logger.Warn("visitor cart not reassigned", zap.String("shop_id", shopID), zap.String("customer_id", customerID), zap.Error(err))
	}
}

func (h *handlers) signup(c *gin.Context) {
	var req customersvc.SignupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	customer, err := h.deps.CustomerSvc.Signup(c.Request.Context(), shopFromContext(c).ID, req)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customerResponse{Customer: *customer})
}

func (h *handlers) me(c *gin.Context) {
	c.JSON(http.StatusOK, customerResponse{Customer: *customerFromContext(c)})
}

func (h *handlers) createAddress(c *gin.Context) {
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	customer, addr, err := h.deps.CustomerSvc.CreateAddress(c.Request.Context(), shopFromContext(c).ID, customerFromContext(c).ID, req.Address, req.DefaultAddress)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, addressResponse{Address: *addr, Customer: *customer})
}

func (h *handlers) updateAddress(c *gin.Context) {
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	customer, addr, err := h.deps.CustomerSvc.UpdateAddress(c.Request.Context(), shopFromContext(c).ID, customerFromContext(c).ID, c.Param("addressId"), req.Address, req.DefaultAddress)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, addressResponse{Address: *addr, Customer: *customer})
}

func (h *handlers) deleteAddress(c *gin.Context) {
	addressID := c.Param("addressId")
	customer, err := h.deps.CustomerSvc.DeleteAddress(c.Request.Context(), shopFromContext(c).ID, customerFromContext(c).ID, addressID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deletedAddressId": addressID, "customer": customer})
}

func (h *handlers) listOrders(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	orders, err := h.deps.CustomerSvc.Orders(c.Request.Context(), shopFromContext(c).ID, customerFromContext(c).ID, c.Query("status"), limit)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *handlers) getOrder(c *gin.Context) {
	order, err := h.deps.CustomerSvc.Order(c.Request.Context(), shopFromContext(c).ID, customerFromContext(c).ID, c.Param("orderId"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
