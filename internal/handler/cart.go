package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prodev-shop/backend/internal/domain/cart"
)

type addToCartRequest struct {
	ProductID int64 `json:"productId" binding:"required"`
	Quantity  int   `json:"qty" binding:"required"`
}

type updateCartRequest struct {
	Quantity int `json:"qty"`
}

type cartEntryResponse struct {
	ItemID      int64   `json:"itemId"`
	ProductID   int64   `json:"productId"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Quantity    int     `json:"qty"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	StockStatus string  `json:"stockStatus"`
}

type cartResponse struct {
	Items []cartEntryResponse `json:"items"`
	Total float64             `json:"total"`
}

func toCartResponse(s *cart.Snapshot) cartResponse {
	items := make([]cartEntryResponse, len(s.Entries))
	for i, e := range s.Entries {
		items[i] = cartEntryResponse{
			ItemID:      e.LineID,
			ProductID:   e.ProductID,
			Name:        e.Name,
			Category:    e.Category,
			Image:       e.Image,
			Quantity:    e.Quantity,
			Price:       e.UnitPrice.InexactFloat64(),
			Stock:       e.StockOnHand,
			StockStatus: e.StockStatus,
		}
	}
	return cartResponse{Items: items, Total: s.Total.InexactFloat64()}
}

// GetCart returns the caller's cart joined with live product data.
func (h *Handler) GetCart(c *gin.Context) {
	who := identity(c)
	snap, err := h.carts.Get(c.Request.Context(), who.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(snap))
}

// AddToCart puts a product into the caller's cart.
func (h *Handler) AddToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	who := identity(c)
	snap, err := h.carts.Add(c.Request.Context(), who.UserID, req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(snap))
}

// UpdateCartItem changes a line's quantity; zero or less removes the line.
func (h *Handler) UpdateCartItem(c *gin.Context) {
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return
	}

	var req updateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	who := identity(c)
	snap, err := h.carts.UpdateQuantity(c.Request.Context(), who.UserID, itemID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(snap))
}

// RemoveCartItem deletes a line from the caller's cart.
func (h *Handler) RemoveCartItem(c *gin.Context) {
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return
	}

	who := identity(c)
	snap, err := h.carts.Remove(c.Request.Context(), who.UserID, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(snap))
}
