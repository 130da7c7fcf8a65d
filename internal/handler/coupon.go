package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/prodev-shop/backend/internal/domain/coupon"
)

type collectCouponRequest struct {
	Code        string  `json:"code" binding:"required"`
	Discount    float64 `json:"discount" binding:"required,gt=0,lte=100"`
	Description string  `json:"description"`
}

type selectCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

type couponResponse struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Discount    float64   `json:"discount"`
	Description string    `json:"description"`
	CollectedAt time.Time `json:"collectedAt"`
	Used        bool      `json:"used"`
	Selected    bool      `json:"selected"`
}

func toCouponResponse(g coupon.Grant) couponResponse {
	return couponResponse{
		ID:          g.ID,
		Code:        g.Code,
		Discount:    g.Discount.InexactFloat64(),
		Description: g.Description,
		CollectedAt: g.CollectedAt,
		Used:        g.Used,
		Selected:    g.Selected,
	}
}

// ListCoupons returns every coupon the caller has collected.
func (h *Handler) ListCoupons(c *gin.Context) {
	who := identity(c)
	grants, err := h.coupons.ListByUser(c.Request.Context(), who.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]couponResponse, len(grants))
	for i, g := range grants {
		out[i] = toCouponResponse(g)
	}
	c.JSON(http.StatusOK, out)
}

// CollectCoupon grants the caller the given coupon code.
func (h *Handler) CollectCoupon(c *gin.Context) {
	var req collectCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	who := identity(c)
	g := &coupon.Grant{
		UserID:      who.UserID,
		Code:        req.Code,
		Discount:    decimal.NewFromFloat(req.Discount),
		Description: req.Description,
	}
	if err := h.coupons.Collect(c.Request.Context(), g); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCouponResponse(*g))
}

// SelectCoupon marks one collected coupon as the caller's active choice.
func (h *Handler) SelectCoupon(c *gin.Context) {
	var req selectCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	who := identity(c)
	if err := h.coupons.Select(c.Request.Context(), who.UserID, req.Code); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
