package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type favoriteResponse struct {
	ProductID int64     `json:"productId"`
	SavedAt   time.Time `json:"savedAt"`
}

type toggleFavoriteResponse struct {
	ProductID int64 `json:"productId"`
	Saved     bool  `json:"saved"`
}

// ListFavorites returns the caller's saved products.
func (h *Handler) ListFavorites(c *gin.Context) {
	who := identity(c)
	favs, err := h.favorites.List(c.Request.Context(), who.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]favoriteResponse, len(favs))
	for i, f := range favs {
		out[i] = favoriteResponse{ProductID: f.ProductID, SavedAt: f.CreatedAt}
	}
	c.JSON(http.StatusOK, out)
}

// ToggleFavorite saves the product if it is not saved, removes it otherwise.
func (h *Handler) ToggleFavorite(c *gin.Context) {
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}

	who := identity(c)
	saved, err := h.favorites.Toggle(c.Request.Context(), who.UserID, productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toggleFavoriteResponse{ProductID: productID, Saved: saved})
}

// RemoveFavorite deletes the caller's favorite for the product.
func (h *Handler) RemoveFavorite(c *gin.Context) {
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}

	who := identity(c)
	if err := h.favorites.Remove(c.Request.Context(), who.UserID, productID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
