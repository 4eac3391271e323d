package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront-api/internal/domain"
	productsvc "storefront-api/internal/service/product"
)

func (h *handlers) listProducts(c *gin.Context) {
	q, err := parseListQuery(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	page, err := h.deps.Products.List(c.Request.Context(), q)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Products", page)
}

func parseListQuery(c *gin.Context) (productsvc.ListQuery, error) {
	q := productsvc.ListQuery{
		Search: strings.TrimSpace(c.Query("search")),
		SortBy: c.Query("sort_by"),
	}
	switch strings.ToLower(c.Query("order")) {
	case "", "asc":
	case "desc":
		q.Desc = true
	default:
		return q, domain.NewValidationError("order", "must be asc or desc")
	}

	var err error
	if v := c.Query("category_id"); v != "" {
		if q.CategoryID, err = domain.ParseID(v); err != nil {
			return q, domain.NewValidationError("category_id", "must be a number")
		}
	}
	if q.MinPrice, err = queryDecimal(c, "min_price"); err != nil {
		return q, err
	}
	if q.MaxPrice, err = queryDecimal(c, "max_price"); err != nil {
		return q, err
	}
	if q.Page, err = queryInt(c, "page"); err != nil {
		return q, err
	}
	if q.Limit, err = queryInt(c, "limit"); err != nil {
		return q, err
	}
	return q, nil
}

func (h *handlers) favoriteProducts(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	products, err := h.deps.Products.Favorites(c.Request.Context(), limit)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Favorite products", products)
}

func (h *handlers) getProduct(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	p, err := h.deps.Products.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Product", p)
}

func (h *handlers) listCategories(c *gin.Context) {
	categories, err := h.deps.Categories.List(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Categories", categories)
}

func (h *handlers) createProduct(c *gin.Context) {
	var req productsvc.CreateInput
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.logger, err)
		return
	}
	p, err := h.deps.Products.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, "Product created", p)
}

func (h *handlers) updateProduct(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	var req productsvc.UpdateInput
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.logger, err)
		return
	}
	p, err := h.deps.Products.Update(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Product updated", p)
}

func (h *handlers) deleteProduct(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if err := h.deps.Products.Delete(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Product deleted", nil)
}

func pathID(c *gin.Context, name string) (domain.ID, error) {
	id, err := domain.ParseID(c.Param(name))
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(name, "must be a positive number")
	}
	return id, nil
}

func queryInt(c *gin.Context, name string) (int, error) {
	v := c.Query(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, domain.NewValidationError(name, "must be a non-negative integer")
	}
	return n, nil
}

func queryDecimal(c *gin.Context, name string) (*decimal.Decimal, error) {
	v := c.Query(name)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		return nil, domain.NewValidationError(name, "must be a non-negative number")
	}
	return &d, nil
}
