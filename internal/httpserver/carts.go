package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	cartsvc "storefront/internal/service/cart"
)

func (h *handlers) activeCart(c *gin.Context) {
	cart, err := h.deps.CartSvc.GetActive(c.Request.Context(), shopFromContext(c).ID, ownerFromContext(c))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.images().cart(cart))
}

func (h *handlers) createCart(c *gin.Context) {
	shop := shopFromContext(c)
	in := cartsvc.CreateInput{Currency: shop.Currency}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		if in.Currency == "" {
			in.Currency = shop.Currency
		}
	}
	cart, err := h.deps.CartSvc.Create(c.Request.Context(), shop.ID, ownerFromContext(c), in)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.images().cart(cart))
}

func (h *handlers) getCart(c *gin.Context) {
	cart, err := h.deps.CartSvc.Get(c.Request.Context(), shopFromContext(c).ID, ownerFromContext(c), c.Param("cartId"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.images().cart(cart))
}

// mutateCart applies one action. Business rejections are reported in
// userErrors with a 200 so clients can keep the returned cart.
func (h *handlers) mutateCart(c *gin.Context) {
	var action cartsvc.Action
	if err := c.ShouldBindJSON(&action); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	payload, err := h.deps.CartSvc.Mutate(c.Request.Context(), shopFromContext(c).ID, ownerFromContext(c), c.Param("cartId"), action)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	payload.Cart = h.images().cart(payload.Cart)
	c.JSON(http.StatusOK, payload)
}
