// Package handler exposes the HTTP API. Handlers translate between JSON and
// the domain services and map domain errors onto status codes; they hold no
// business logic of their own.
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/prodev-shop/backend/internal/domain/auth"
	"github.com/prodev-shop/backend/internal/domain/cart"
	"github.com/prodev-shop/backend/internal/domain/coupon"
	"github.com/prodev-shop/backend/internal/domain/favorite"
	"github.com/prodev-shop/backend/internal/domain/order"
	"github.com/prodev-shop/backend/internal/domain/product"
	"github.com/prodev-shop/backend/internal/domain/user"
)

// AuthService is the slice of the auth service the handlers consume.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*auth.Session, error)
	Login(ctx context.Context, email, password string) (*auth.Session, error)
}

// CartService is the slice of the cart service the handlers consume.
type CartService interface {
	Get(ctx context.Context, userID int64) (*cart.Snapshot, error)
	Add(ctx context.Context, userID, productID int64, qty int) (*cart.Snapshot, error)
	UpdateQuantity(ctx context.Context, userID, lineID int64, qty int) (*cart.Snapshot, error)
	Remove(ctx context.Context, userID, lineID int64) (*cart.Snapshot, error)
}

// OrderService is the slice of the order service the handlers consume.
type OrderService interface {
	Checkout(ctx context.Context, who order.Identity, couponCode string) (*order.Result, error)
	Reorder(ctx context.Context, userID, orderID int64) (*cart.Snapshot, error)
	History(ctx context.Context, userID int64) ([]order.Line, error)
	ListAll(ctx context.Context) ([]order.Line, error)
	UpdateStatus(ctx context.Context, orderID int64, to order.Status) (*order.Line, error)
	Receive(ctx context.Context, userID, orderID int64) (*order.Line, error)
	Archive(ctx context.Context, userID, orderID int64) error
}

// FavoriteService is the slice of the favorite service the handlers consume.
type FavoriteService interface {
	List(ctx context.Context, userID int64) ([]favorite.Favorite, error)
	Toggle(ctx context.Context, userID, productID int64) (bool, error)
	Remove(ctx context.Context, userID, productID int64) error
}

// Handler wires the HTTP routes to the domain services.
type Handler struct {
	auth      AuthService
	tokens    *auth.TokenIssuer
	products  product.Repository
	carts     CartService
	coupons   coupon.Ledger
	orders    OrderService
	favorites FavoriteService
}

// New constructs a Handler with the required domain dependencies.
func New(
	authSvc AuthService,
	tokens *auth.TokenIssuer,
	products product.Repository,
	carts CartService,
	coupons coupon.Ledger,
	orders OrderService,
	favorites FavoriteService,
) *Handler {
	return &Handler{
		auth:      authSvc,
		tokens:    tokens,
		products:  products,
		carts:     carts,
		coupons:   coupons,
		orders:    orders,
		favorites: favorites,
	}
}

// Routes registers all API routes on the engine under /api.
func (h *Handler) Routes(r *gin.Engine) {
	api := r.Group("/api")

	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)

	api.GET("/products", h.ListProducts)
	api.GET("/products/:id", h.GetProduct)

	authed := api.Group("", h.Authenticate())
	{
		authed.GET("/cart", h.GetCart)
		authed.POST("/cart", h.AddToCart)
		authed.PUT("/cart/:itemId", h.UpdateCartItem)
		authed.DELETE("/cart/:itemId", h.RemoveCartItem)

		authed.GET("/coupons", h.ListCoupons)
		authed.POST("/coupons/collect", h.CollectCoupon)
		authed.POST("/coupons/select", h.SelectCoupon)

		authed.POST("/orders/checkout", h.Checkout)
		authed.GET("/orders/my", h.MyOrders)
		authed.GET("/orders/history", h.OrderHistory)
		authed.POST("/orders/:id/reorder", h.Reorder)
		authed.PATCH("/orders/:id/receive", h.ReceiveOrder)
		authed.DELETE("/orders/:id", h.ArchiveOrder)

		authed.GET("/favorites", h.ListFavorites)
		authed.POST("/favorites/:productId", h.ToggleFavorite)
		authed.DELETE("/favorites/:productId", h.RemoveFavorite)
	}

	admin := api.Group("", h.Authenticate(), h.RequireAdmin())
	{
		admin.POST("/products", h.CreateProduct)
		admin.PUT("/products/:id", h.UpdateProduct)
		admin.DELETE("/products/:id", h.DeleteProduct)
		// Lives outside /products: the router rejects a static segment
		// alongside the /products/:id wildcard.
		admin.GET("/reports/weekly-stock", h.StockReport)

		admin.GET("/orders", h.ListAllOrders)
		admin.PATCH("/orders/:id/status", h.UpdateOrderStatus)
	}
}

// errorBody is the uniform JSON error envelope.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorBody{Code: status, Message: msg})
}

// respondError maps domain errors onto the HTTP error taxonomy: validation
// errors read as 400, conflicts as 409, missing resources as 404, and
// anything else as an opaque 500.
func respondError(c *gin.Context, err error) {
	var stockErr *product.InsufficientStockError

	switch {
	case errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, user.ErrEmailTaken),
		errors.Is(err, user.ErrUsernameTaken):
		fail(c, http.StatusBadRequest, err.Error())

	case errors.As(err, &stockErr),
		errors.Is(err, cart.ErrStockCeiling),
		errors.Is(err, coupon.ErrAlreadyUsed),
		errors.Is(err, coupon.ErrAlreadyCollected):
		fail(c, http.StatusConflict, err.Error())

	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, cart.ErrLineNotFound),
		errors.Is(err, coupon.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, order.ErrProductUnavailable),
		errors.Is(err, favorite.ErrNotFound),
		errors.Is(err, user.ErrNotFound):
		fail(c, http.StatusNotFound, err.Error())

	case errors.Is(err, auth.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, err.Error())

	default:
		zctx.From(c.Request.Context()).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		fail(c, http.StatusInternalServerError, "internal error")
	}
}
