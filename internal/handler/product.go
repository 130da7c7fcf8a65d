package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/prodev-shop/backend/internal/domain/product"
)

type productRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Price       float64  `json:"price" binding:"required,gt=0"`
	Quantity    int      `json:"quantity" binding:"gte=0"`
	Images      []string `json:"images"`
}

type productResponse struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Price       float64  `json:"price"`
	Quantity    int      `json:"quantity"`
	StockStatus string   `json:"stockStatus"`
	Images      []string `json:"images"`
}

func toProductResponse(p product.Product) productResponse {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price.InexactFloat64(),
		Quantity:    p.Quantity,
		StockStatus: p.StockStatus(),
		Images:      images,
	}
}

type productListResponse struct {
	Total int               `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
	Items []productResponse `json:"items"`
}

// ListProducts returns catalog products, optionally filtered by category
// and a name search query. With a limit query parameter the listing is
// paginated; without one the full catalog comes back in a single page.
func (h *Handler) ListProducts(c *gin.Context) {
	f := product.Filter{
		Category: c.Query("category"),
		Query:    c.Query("q"),
	}

	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			fail(c, http.StatusBadRequest, "invalid page")
			return
		}
		page = n
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			fail(c, http.StatusBadRequest, "invalid limit")
			return
		}
		f.Limit = n
		f.Offset = (page - 1) * n
	}

	total, err := h.products.Count(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	products, err := h.products.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]productResponse, len(products))
	for i, p := range products {
		items[i] = toProductResponse(p)
	}
	c.JSON(http.StatusOK, productListResponse{
		Total: total,
		Page:  page,
		Limit: f.Limit,
		Items: items,
	})
}

// GetProduct returns a single product by ID.
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	p, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(*p))
}

// CreateProduct adds a catalog product. Administrative.
func (h *Handler) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	p := &product.Product{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       decimal.NewFromFloat(req.Price),
		Quantity:    req.Quantity,
		Images:      req.Images,
	}
	if err := h.products.Create(c.Request.Context(), p); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProductResponse(*p))
}

// UpdateProduct rewrites a catalog product. Administrative.
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	p := &product.Product{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       decimal.NewFromFloat(req.Price),
		Quantity:    req.Quantity,
		Images:      req.Images,
	}
	if err := h.products.Update(c.Request.Context(), p); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(*p))
}

// DeleteProduct removes a catalog product. Administrative.
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.products.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Products at or below this quantity, but not sold out, count as low stock
// in the weekly report.
const lowStockThreshold = 5

type stockReportResponse struct {
	TotalProducts int               `json:"totalProducts"`
	OutOfStock    int               `json:"outOfStock"`
	LowStock      int               `json:"lowStock"`
	Products      []productResponse `json:"products"`
}

// StockReport summarizes catalog stock levels for the weekly report.
// Administrative.
func (h *Handler) StockReport(c *gin.Context) {
	products, err := h.products.List(c.Request.Context(), product.Filter{})
	if err != nil {
		respondError(c, err)
		return
	}

	report := stockReportResponse{
		TotalProducts: len(products),
		Products:      make([]productResponse, len(products)),
	}
	for i, p := range products {
		switch {
		case p.Quantity <= 0:
			report.OutOfStock++
		case p.Quantity <= lowStockThreshold:
			report.LowStock++
		}
		report.Products[i] = toProductResponse(p)
	}
	c.JSON(http.StatusOK, report)
}

// pathID parses an int64 path parameter, responding 400 on garbage.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}
