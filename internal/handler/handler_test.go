package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodev-shop/backend/internal/domain/auth"
	"github.com/prodev-shop/backend/internal/domain/cart"
	"github.com/prodev-shop/backend/internal/domain/coupon"
	"github.com/prodev-shop/backend/internal/domain/favorite"
	"github.com/prodev-shop/backend/internal/domain/order"
	"github.com/prodev-shop/backend/internal/domain/product"
	"github.com/prodev-shop/backend/internal/domain/user"
)

// --- Stub services ---

type stubAuth struct {
	sess *auth.Session
	err  error
}

func (s *stubAuth) Register(context.Context, string, string, string) (*auth.Session, error) {
	return s.sess, s.err
}

func (s *stubAuth) Login(context.Context, string, string) (*auth.Session, error) {
	return s.sess, s.err
}

type stubProducts struct {
	byID map[int64]*product.Product
	err  error
}

func (s *stubProducts) List(_ context.Context, f product.Filter) ([]product.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []product.Product
	for _, p := range s.byID {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			out = nil
		} else {
			out = out[f.Offset:]
		}
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *stubProducts) Count(context.Context, product.Filter) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return len(s.byID), nil
}

func (s *stubProducts) GetByID(_ context.Context, id int64) (*product.Product, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (s *stubProducts) Create(_ context.Context, p *product.Product) error {
	p.ID = 1
	return s.err
}

func (s *stubProducts) Update(context.Context, *product.Product) error { return s.err }
func (s *stubProducts) Delete(context.Context, int64) error            { return s.err }

func (s *stubProducts) ReserveStock(context.Context, int64, int) (*product.Product, error) {
	return nil, nil
}

type stubCarts struct {
	snap *cart.Snapshot
	err  error
}

func (s *stubCarts) Get(context.Context, int64) (*cart.Snapshot, error) { return s.snap, s.err }

func (s *stubCarts) Add(context.Context, int64, int64, int) (*cart.Snapshot, error) {
	return s.snap, s.err
}

func (s *stubCarts) UpdateQuantity(context.Context, int64, int64, int) (*cart.Snapshot, error) {
	return s.snap, s.err
}

func (s *stubCarts) Remove(context.Context, int64, int64) (*cart.Snapshot, error) {
	return s.snap, s.err
}

type stubCoupons struct {
	grants []coupon.Grant
	err    error
}

func (s *stubCoupons) Collect(_ context.Context, g *coupon.Grant) error {
	g.ID = 1
	return s.err
}

func (s *stubCoupons) ListByUser(context.Context, int64) ([]coupon.Grant, error) {
	return s.grants, s.err
}

func (s *stubCoupons) Select(context.Context, int64, string) error { return s.err }

func (s *stubCoupons) Selected(context.Context, int64) (*coupon.Grant, error) {
	return nil, s.err
}

func (s *stubCoupons) Consume(context.Context, int64, string) (decimal.Decimal, error) {
	return decimal.Zero, s.err
}

type stubOrders struct {
	result *order.Result
	lines  []order.Line
	snap   *cart.Snapshot
	err    error
}

func (s *stubOrders) Checkout(context.Context, order.Identity, string) (*order.Result, error) {
	return s.result, s.err
}

func (s *stubOrders) Reorder(context.Context, int64, int64) (*cart.Snapshot, error) {
	return s.snap, s.err
}

func (s *stubOrders) History(context.Context, int64) ([]order.Line, error) { return s.lines, s.err }
func (s *stubOrders) ListAll(context.Context) ([]order.Line, error)        { return s.lines, s.err }

func (s *stubOrders) UpdateStatus(context.Context, int64, order.Status) (*order.Line, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &s.lines[0], nil
}

func (s *stubOrders) Receive(context.Context, int64, int64) (*order.Line, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &s.lines[0], nil
}

func (s *stubOrders) Archive(context.Context, int64, int64) error { return s.err }

type stubFavorites struct {
	favs  []favorite.Favorite
	saved bool
	err   error
}

func (s *stubFavorites) List(context.Context, int64) ([]favorite.Favorite, error) {
	return s.favs, s.err
}

func (s *stubFavorites) Toggle(context.Context, int64, int64) (bool, error) {
	return s.saved, s.err
}

func (s *stubFavorites) Remove(context.Context, int64, int64) error { return s.err }

// --- Harness ---

type harness struct {
	engine    *gin.Engine
	tokens    *auth.TokenIssuer
	auth      *stubAuth
	products  *stubProducts
	carts     *stubCarts
	coupons   *stubCoupons
	orders    *stubOrders
	favorites *stubFavorites
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &harness{
		tokens:    auth.NewTokenIssuer([]byte("test-secret"), time.Hour),
		auth:      &stubAuth{},
		products:  &stubProducts{byID: make(map[int64]*product.Product)},
		carts:     &stubCarts{snap: &cart.Snapshot{Total: decimal.Zero}},
		coupons:   &stubCoupons{},
		orders:    &stubOrders{},
		favorites: &stubFavorites{},
	}

	handler := New(h.auth, h.tokens, h.products, h.carts, h.coupons, h.orders, h.favorites)
	h.engine = gin.New()
	handler.Routes(h.engine)
	return h
}

func (h *harness) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	return w
}

func (h *harness) token(t *testing.T, role string) string {
	t.Helper()
	token, err := h.tokens.Issue(7, "alice", role)
	require.NoError(t, err)
	return token
}

func decodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

// --- Auth endpoints ---

func TestRegister(t *testing.T) {
	h := newHarness(t)
	h.auth.sess = &auth.Session{
		UserID: 1, Username: "alice", Email: "alice@example.com",
		Role: user.RoleAdmin, Token: "signed",
	}

	w := h.do(t, http.MethodPost, "/api/auth/register", gin.H{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "longenough",
	}, "")

	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeJSON[sessionResponse](t, w)
	assert.Equal(t, "alice", body.Username)
	assert.Equal(t, user.RoleAdmin, body.Role)
	assert.Equal(t, "signed", body.Token)
}

func TestRegister_InvalidBody(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/api/auth/register", gin.H{
		"username": "alice",
		"email":    "not-an-email",
		"password": "longenough",
	}, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_EmailTaken(t *testing.T) {
	h := newHarness(t)
	h.auth.err = user.ErrEmailTaken

	w := h.do(t, http.MethodPost, "/api/auth/register", gin.H{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "longenough",
	}, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	h := newHarness(t)
	h.auth.err = auth.ErrInvalidCredentials

	w := h.do(t, http.MethodPost, "/api/auth/login", gin.H{
		"email":    "alice@example.com",
		"password": "wrong",
	}, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// --- Catalog ---

func TestGetProduct(t *testing.T) {
	h := newHarness(t)
	h.products.byID[5] = &product.Product{
		ID: 5, Name: "Keyboard", Price: decimal.RequireFromString("89.99"), Quantity: 3,
	}

	w := h.do(t, http.MethodGet, "/api/products/5", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON[productResponse](t, w)
	assert.Equal(t, "Keyboard", body.Name)
	assert.Equal(t, product.StatusInStock, body.StockStatus)
	assert.InDelta(t, 89.99, body.Price, 0.001)
	assert.NotNil(t, body.Images)
}

func TestListProducts(t *testing.T) {
	h := newHarness(t)
	for i := int64(1); i <= 3; i++ {
		h.products.byID[i] = &product.Product{
			ID: i, Name: "Keyboard", Price: decimal.RequireFromString("89.99"), Quantity: 3,
		}
	}

	w := h.do(t, http.MethodGet, "/api/products", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON[productListResponse](t, w)
	assert.Equal(t, 3, body.Total)
	assert.Equal(t, 1, body.Page)
	assert.Equal(t, 0, body.Limit)
	assert.Len(t, body.Items, 3)
}

func TestListProducts_Paginated(t *testing.T) {
	h := newHarness(t)
	for i := int64(1); i <= 5; i++ {
		h.products.byID[i] = &product.Product{
			ID: i, Name: "Keyboard", Price: decimal.RequireFromString("89.99"), Quantity: 3,
		}
	}

	w := h.do(t, http.MethodGet, "/api/products?page=2&limit=2", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON[productListResponse](t, w)
	assert.Equal(t, 5, body.Total)
	assert.Equal(t, 2, body.Page)
	assert.Equal(t, 2, body.Limit)
	require.Len(t, body.Items, 2)
	assert.Equal(t, int64(3), body.Items[0].ID)
	assert.Equal(t, int64(4), body.Items[1].ID)
}

func TestListProducts_BadPage(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/api/products?page=zero&limit=2", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetProduct_NotFound(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/api/products/5", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetProduct_BadID(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/api/products/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Authentication middleware ---

func TestAuthenticate_MissingToken(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/api/cart", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticate_BadToken(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/api/cart", nil, "tampered.token.value")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	h := newHarness(t)

	body := gin.H{"name": "Widget", "price": 9.99, "quantity": 1}

	w := h.do(t, http.MethodPost, "/api/products", body, h.token(t, user.RoleUser))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(t, http.MethodPost, "/api/products", body, h.token(t, user.RoleAdmin))
	assert.Equal(t, http.StatusCreated, w.Code)
}

// --- Cart ---

func TestStockReport(t *testing.T) {
	h := newHarness(t)
	h.products.byID[1] = &product.Product{ID: 1, Name: "Keyboard", Price: decimal.RequireFromString("89.99"), Quantity: 20}
	h.products.byID[2] = &product.Product{ID: 2, Name: "Mouse", Price: decimal.RequireFromString("34.90"), Quantity: 3}
	h.products.byID[3] = &product.Product{ID: 3, Name: "Webcam", Price: decimal.RequireFromString("59.00"), Quantity: 0}

	w := h.do(t, http.MethodGet, "/api/reports/weekly-stock", nil, h.token(t, user.RoleAdmin))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON[stockReportResponse](t, w)
	assert.Equal(t, 3, body.TotalProducts)
	assert.Equal(t, 1, body.OutOfStock)
	assert.Equal(t, 1, body.LowStock)
	assert.Len(t, body.Products, 3)
}

func TestStockReport_AdminOnly(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/api/reports/weekly-stock", nil, h.token(t, user.RoleUser))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAddToCart(t *testing.T) {
	h := newHarness(t)
	h.carts.snap = &cart.Snapshot{
		Entries: []cart.Entry{{
			LineID: 1, ProductID: 5, Name: "Keyboard", Quantity: 2,
			UnitPrice: decimal.RequireFromString("89.99"), StockOnHand: 3,
			StockStatus: product.StatusInStock,
		}},
		Total: decimal.RequireFromString("179.98"),
	}

	w := h.do(t, http.MethodPost, "/api/cart", gin.H{"productId": 5, "qty": 2},
		h.token(t, user.RoleUser))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON[cartResponse](t, w)
	require.Len(t, body.Items, 1)
	assert.Equal(t, 2, body.Items[0].Quantity)
	assert.InDelta(t, 179.98, body.Total, 0.001)
}

func TestAddToCart_StockCeiling(t *testing.T) {
	h := newHarness(t)
	h.carts.err = cart.ErrStockCeiling

	w := h.do(t, http.MethodPost, "/api/cart", gin.H{"productId": 5, "qty": 99},
		h.token(t, user.RoleUser))

	assert.Equal(t, http.StatusConflict, w.Code)
	body := decodeJSON[errorBody](t, w)
	assert.Equal(t, http.StatusConflict, body.Code)
}

// --- Coupons ---

func TestCollectCoupon_AlreadyCollected(t *testing.T) {
	h := newHarness(t)
	h.coupons.err = coupon.ErrAlreadyCollected

	w := h.do(t, http.MethodPost, "/api/coupons/collect",
		gin.H{"code": "WELCOME10", "discount": 10}, h.token(t, user.RoleUser))

	assert.Equal(t, http.StatusConflict, w.Code)
}

// --- Checkout ---

func TestCheckout(t *testing.T) {
	h := newHarness(t)
	h.orders.result = &order.Result{
		OrderLines: []order.Line{{
			ID: 100, UserID: 7, ProductID: 5, Name: "Keyboard", Quantity: 2,
			Price: decimal.RequireFromString("89.99"), Status: order.StatusPending,
		}},
		UpdatedProducts: []product.Product{{ID: 5, Name: "Keyboard", Quantity: 1}},
		ReceiptPDF:      []byte("%PDF-fake"),
	}

	w := h.do(t, http.MethodPost, "/api/orders/checkout",
		gin.H{"couponCode": "WELCOME10"}, h.token(t, user.RoleUser))

	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeJSON[checkoutResponse](t, w)

	require.Len(t, body.Orders, 1)
	assert.Equal(t, string(order.StatusPending), body.Orders[0].Status)
	require.Len(t, body.UpdatedProducts, 1)
	assert.Equal(t, 1, body.UpdatedProducts[0].Quantity)

	pdf, err := base64.StdEncoding.DecodeString(body.ReceiptDocument)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-fake"), pdf)
}

func TestCheckout_EmptyCart(t *testing.T) {
	h := newHarness(t)
	h.orders.err = order.ErrEmptyCart

	w := h.do(t, http.MethodPost, "/api/orders/checkout", gin.H{}, h.token(t, user.RoleUser))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckout_InsufficientStock(t *testing.T) {
	h := newHarness(t)
	h.orders.err = &product.InsufficientStockError{
		ProductName: "Keyboard", Requested: 5, Available: 2,
	}

	w := h.do(t, http.MethodPost, "/api/orders/checkout", gin.H{}, h.token(t, user.RoleUser))

	assert.Equal(t, http.StatusConflict, w.Code)
	body := decodeJSON[errorBody](t, w)
	assert.Contains(t, body.Message, "Keyboard")
}

func TestCheckout_UsedCoupon(t *testing.T) {
	h := newHarness(t)
	h.orders.err = coupon.ErrAlreadyUsed

	w := h.do(t, http.MethodPost, "/api/orders/checkout",
		gin.H{"couponCode": "ONCE"}, h.token(t, user.RoleUser))

	assert.Equal(t, http.StatusConflict, w.Code)
}

// --- Order lifecycle ---

func TestMyOrders_FiltersTerminalStates(t *testing.T) {
	h := newHarness(t)
	h.orders.lines = []order.Line{
		{ID: 1, Status: order.StatusPending},
		{ID: 2, Status: order.StatusFulfilled},
		{ID: 3, Status: order.StatusCancelled},
		{ID: 4, Status: order.StatusReceived},
	}

	w := h.do(t, http.MethodGet, "/api/orders/my", nil, h.token(t, user.RoleUser))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON[[]orderLineResponse](t, w)
	require.Len(t, body, 2)
	assert.Equal(t, int64(1), body[0].ID)
	assert.Equal(t, int64(2), body[1].ID)
}

func TestOrderHistory_ReturnsEverything(t *testing.T) {
	h := newHarness(t)
	h.orders.lines = []order.Line{
		{ID: 1, Status: order.StatusPending},
		{ID: 4, Status: order.StatusReceived},
	}

	w := h.do(t, http.MethodGet, "/api/orders/history", nil, h.token(t, user.RoleUser))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeJSON[[]orderLineResponse](t, w), 2)
}

func TestUpdateOrderStatus_UnknownStatus(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPatch, "/api/orders/1/status",
		gin.H{"status": "SHIPPED"}, h.token(t, user.RoleAdmin))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReceiveOrder_NotFulfilled(t *testing.T) {
	h := newHarness(t)
	h.orders.err = order.ErrNotFound

	w := h.do(t, http.MethodPatch, "/api/orders/1/receive", nil, h.token(t, user.RoleUser))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReorder_ProductUnavailable(t *testing.T) {
	h := newHarness(t)
	h.orders.err = order.ErrProductUnavailable

	w := h.do(t, http.MethodPost, "/api/orders/1/reorder", nil, h.token(t, user.RoleUser))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// --- Favorites ---

func TestToggleFavorite(t *testing.T) {
	h := newHarness(t)
	h.favorites.saved = true

	w := h.do(t, http.MethodPost, "/api/favorites/5", nil, h.token(t, user.RoleUser))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON[toggleFavoriteResponse](t, w)
	assert.True(t, body.Saved)
	assert.Equal(t, int64(5), body.ProductID)
}
