package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-api/internal/domain"
	cartsvc "storefront-api/internal/service/cart"
	ordersvc "storefront-api/internal/service/order"
)

type addToCartRequest struct {
	ProductID domain.ID  `json:"productId" binding:"required"`
	SizeID    *domain.ID `json:"sizeId"`
	VariantID *domain.ID `json:"variantId"`
	Quantity  int        `json:"quantity"`
}

func (h *handlers) addToCart(c *gin.Context) {
	var req addToCartRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.logger, err)
		return
	}
	line, err := h.deps.Cart.AddOrMerge(c.Request.Context(), currentUser(c), cartsvc.AddInput{
		ProductID: req.ProductID,
		SizeID:    req.SizeID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Added to cart", line)
}

func (h *handlers) listCart(c *gin.Context) {
	lines, err := h.deps.Cart.List(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Cart", lines)
}

func (h *handlers) cartDetail(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	line, err := h.deps.Cart.GetDetail(c.Request.Context(), currentUser(c), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Cart line", line)
}

type checkoutRequest struct {
	Address         string    `json:"address" binding:"required"`
	Phone           string    `json:"phone" binding:"required"`
	Email           string    `json:"email" binding:"required,email"`
	PaymentMethodID domain.ID `json:"payment_method_id" binding:"required"`
	DeliveryID      domain.ID `json:"delivery_id" binding:"required"`
}

func (h *handlers) checkout(c *gin.Context) {
	var req checkoutRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.logger, err)
		return
	}
	order, err := h.deps.Orders.Checkout(c.Request.Context(), currentUser(c), ordersvc.CheckoutInput{
		Address:         req.Address,
		Phone:           req.Phone,
		Email:           req.Email,
		PaymentMethodID: req.PaymentMethodID,
		DeliveryID:      req.DeliveryID,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Checkout successful", order)
}

func (h *handlers) history(c *gin.Context) {
	var (
		f   ordersvc.HistoryFilter
		err error
	)
	if v := c.Query("status"); v != "" {
		if f.Status, err = domain.ParseID(v); err != nil {
			writeError(c, h.logger, domain.NewValidationError("status", "must be a number"))
			return
		}
	}
	params := []struct {
		name string
		dst  *int
	}{
		{"month", &f.Month},
		{"page", &f.Page},
		{"limit", &f.Limit},
	}
	for _, p := range params {
		if *p.dst, err = queryInt(c, p.name); err != nil {
			writeError(c, h.logger, err)
			return
		}
	}
	page, err := h.deps.Orders.History(c.Request.Context(), currentUser(c), f)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Order history", page)
}

func (h *handlers) orderDetail(c *gin.Context) {
	order, err := h.deps.Orders.Detail(c.Request.Context(), currentUser(c), c.Param("invoice"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Order detail", order)
}
