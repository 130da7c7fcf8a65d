package handler

import (
	"encoding/base64"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prodev-shop/backend/internal/domain/order"
)

type checkoutRequest struct {
	CouponCode string `json:"couponCode"`
}

type orderLineResponse struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"productId,omitempty"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Image     string    `json:"image"`
	Quantity  int       `json:"qty"`
	Price     float64   `json:"price"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type checkoutResponse struct {
	Orders          []orderLineResponse `json:"orders"`
	UpdatedProducts []productResponse   `json:"updatedProducts"`
	ReceiptDocument string              `json:"receiptDocument"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func toOrderLineResponse(l order.Line) orderLineResponse {
	return orderLineResponse{
		ID:        l.ID,
		ProductID: l.ProductID,
		Name:      l.Name,
		Category:  l.Category,
		Image:     l.Image,
		Quantity:  l.Quantity,
		Price:     l.Price.InexactFloat64(),
		Status:    string(l.Status),
		CreatedAt: l.CreatedAt,
	}
}

func toOrderLineResponses(lines []order.Line) []orderLineResponse {
	out := make([]orderLineResponse, len(lines))
	for i, l := range lines {
		out[i] = toOrderLineResponse(l)
	}
	return out
}

// Checkout converts the caller's cart into orders and returns the committed
// lines, the products with their decremented stock, and the receipt PDF
// encoded as base64.
func (h *Handler) Checkout(c *gin.Context) {
	var req checkoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	who := identity(c)
	res, err := h.orders.Checkout(c.Request.Context(), order.Identity{
		UserID:   who.UserID,
		Username: who.Username,
	}, req.CouponCode)
	if err != nil {
		respondError(c, err)
		return
	}

	updated := make([]productResponse, len(res.UpdatedProducts))
	for i := range res.UpdatedProducts {
		updated[i] = toProductResponse(res.UpdatedProducts[i])
	}
	c.JSON(http.StatusCreated, checkoutResponse{
		Orders:          toOrderLineResponses(res.OrderLines),
		UpdatedProducts: updated,
		ReceiptDocument: base64.StdEncoding.EncodeToString(res.ReceiptPDF),
	})
}

// MyOrders returns the caller's open orders, the lines still moving through
// the lifecycle.
func (h *Handler) MyOrders(c *gin.Context) {
	who := identity(c)
	lines, err := h.orders.History(c.Request.Context(), who.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	open := make([]order.Line, 0, len(lines))
	for _, l := range lines {
		if l.Status == order.StatusPending || l.Status == order.StatusFulfilled {
			open = append(open, l)
		}
	}
	c.JSON(http.StatusOK, toOrderLineResponses(open))
}

// OrderHistory returns every order line the caller has placed.
func (h *Handler) OrderHistory(c *gin.Context) {
	who := identity(c)
	lines, err := h.orders.History(c.Request.Context(), who.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderLineResponses(lines))
}

// Reorder puts a past order's product back into the caller's cart.
func (h *Handler) Reorder(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	who := identity(c)
	snap, err := h.orders.Reorder(c.Request.Context(), who.UserID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(snap))
}

// ReceiveOrder marks one of the caller's fulfilled orders as received.
func (h *Handler) ReceiveOrder(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	who := identity(c)
	line, err := h.orders.Receive(c.Request.Context(), who.UserID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderLineResponse(*line))
}

// ArchiveOrder deletes one of the caller's received orders.
func (h *Handler) ArchiveOrder(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	who := identity(c)
	if err := h.orders.Archive(c.Request.Context(), who.UserID, orderID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListAllOrders returns every order line in the system. Administrative.
func (h *Handler) ListAllOrders(c *gin.Context) {
	lines, err := h.orders.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderLineResponses(lines))
}

// UpdateOrderStatus performs the administrative fulfil or cancel transition.
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	status, err := order.ParseStatus(req.Status)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	line, err := h.orders.UpdateStatus(c.Request.Context(), orderID, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderLineResponse(*line))
}
