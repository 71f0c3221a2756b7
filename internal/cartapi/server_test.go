package cartapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"suvai/internal/auth"
	"suvai/internal/cache"
	"suvai/internal/cart"
	"suvai/internal/config"
	"suvai/internal/coupons"
	"suvai/internal/recipes"
)

type stubAuthClient struct {
	userID string
}

func (s stubAuthClient) GetUserEmail(_ context.Context, _ string) (string, error) {
	return "cook@example.com", nil
}

func (s stubAuthClient) GetUserIDFromRequest(_ *http.Request) (string, error) {
	if s.userID == "" {
		return "", auth.ErrNoSession
	}
	return s.userID, nil
}

func (s stubAuthClient) WithAuthHTTP(handler http.Handler) http.Handler { return handler }

func (s stubAuthClient) Register(_ *http.ServeMux) {}

type failingValidator struct{}

func (failingValidator) Validate(context.Context, string, decimal.Decimal) (coupons.Result, error) {
	return coupons.Result{}, errors.New("upstream unavailable")
}

type fixture struct {
	mux   *http.ServeMux
	carts *cart.Store
}

func newFixture(t *testing.T, authClient auth.AuthClient, v coupons.Validator) fixture {
	t.Helper()
	kv := cache.NewInMemoryCache()
	carts := cart.NewStore(kv)
	catalog := recipes.NewCatalog(config.CatalogConfig{}, kv)
	if v == nil {
		v = coupons.NewService(config.CouponsConfig{MinPurchase: 100, MaxDiscount: 500})
	}
	mux := http.NewServeMux()
	NewHandler(carts, catalog, v, authClient).Register(mux)
	return fixture{mux: mux, carts: carts}
}

func (f fixture) do(t *testing.T, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	f.mux.ServeHTTP(rr, req)
	return rr
}

func decodeView(t *testing.T, rr *httptest.ResponseRecorder) view {
	t.Helper()
	var v view
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestSignedInCartFlow(t *testing.T) {
	f := newFixture(t, stubAuthClient{userID: "user_1"}, nil)

	rr := f.do(t, http.MethodPost, "/api/cart/items", `{"recipeId":"recipe1","type":"readyMade"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rr = f.do(t, http.MethodPost, "/api/cart/items", `{"recipeId":"recipe1","type":"readyMade","quantity":2}`)
	require.Equal(t, http.StatusOK, rr.Code)
	v := decodeView(t, rr)
	require.Len(t, v.Items, 1)
	assert.Equal(t, 3, v.Items[0].Quantity)
	assert.Equal(t, 3, v.TotalItems)
	assert.True(t, v.TotalAmount.Equal(decimal.NewFromInt(360)))
	lineID := v.Items[0].ID

	rr = f.do(t, http.MethodPatch, "/api/cart/items/"+lineID, `{"quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = f.do(t, http.MethodPatch, "/api/cart/items/missing", `{"quantity":2}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = f.do(t, http.MethodPatch, "/api/cart/items/"+lineID, `{"quantity":1}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, decodeView(t, rr).TotalItems)

	rr = f.do(t, http.MethodPost, "/api/cart/coupon", `{"code":"SPICE15"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var res couponResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.True(t, res.Valid)
	assert.Equal(t, "Discount of ₹18.00 applied!", res.Message)
	require.NotNil(t, res.Cart)
	assert.True(t, res.Cart.FinalAmount.Equal(decimal.NewFromInt(102)))

	stored, err := f.carts.Load(context.Background(), "user_1")
	require.NoError(t, err)
	require.NotNil(t, stored.CouponCode())
	assert.Equal(t, "SPICE15", *stored.CouponCode())

	rr = f.do(t, http.MethodDelete, "/api/cart/coupon", "")
	require.Equal(t, http.StatusOK, rr.Code)
	v = decodeView(t, rr)
	assert.Nil(t, v.CouponCode)
	assert.True(t, v.DiscountAmount.IsZero())

	rr = f.do(t, http.MethodDelete, "/api/cart/items/"+lineID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decodeView(t, rr).Items)
}

func TestRejectedCouponLeavesCart(t *testing.T) {
	f := newFixture(t, stubAuthClient{userID: "user_1"}, nil)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/cart/items", `{"recipeId":"recipe6","type":"readyMade"}`).Code)

	rr := f.do(t, http.MethodPost, "/api/cart/coupon", `{"code":"CHEAP20"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var res couponResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.False(t, res.Valid)
	assert.Equal(t, "Minimum purchase of ₹100 required", res.Message)
	require.NotNil(t, res.Cart)
	assert.Nil(t, res.Cart.CouponCode)
}

func TestValidatorFailure(t *testing.T) {
	f := newFixture(t, stubAuthClient{userID: "user_1"}, failingValidator{})
	rr := f.do(t, http.MethodPost, "/api/cart/coupon", `{"code":"SPICE15"}`)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	var res couponResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, "Error validating coupon", res.Message)
}

func TestGuestCartCookie(t *testing.T) {
	f := newFixture(t, stubAuthClient{}, nil)

	rr := f.do(t, http.MethodPost, "/api/cart/items", `{"recipeId":"recipe2","type":"ingredients"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	guest := cookies[0]
	assert.Equal(t, CookieName, guest.Name)

	rr = f.do(t, http.MethodGet, "/api/cart", "", guest)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Result().Cookies(), "existing guest cookie is reused")
	assert.Equal(t, 1, decodeView(t, rr).TotalItems)

	rr = f.do(t, http.MethodGet, "/api/cart", "", &http.Cookie{Name: CookieName, Value: "../../etc"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, rr.Result().Cookies(), 1, "bad cookie is replaced")
	assert.Equal(t, 0, decodeView(t, rr).TotalItems)
}

func TestAddValidation(t *testing.T) {
	f := newFixture(t, stubAuthClient{userID: "user_1"}, nil)
	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "bad json", body: `{`, want: http.StatusBadRequest},
		{name: "bad type", body: `{"recipeId":"recipe1","type":"bulk"}`, want: http.StatusBadRequest},
		{name: "unknown recipe", body: `{"recipeId":"recipe404","type":"readyMade"}`, want: http.StatusNotFound},
		{name: "zero quantity", body: `{"recipeId":"recipe1","type":"readyMade","quantity":0}`, want: http.StatusBadRequest},
		{name: "negative quantity", body: `{"recipeId":"recipe1","type":"readyMade","quantity":-1}`, want: http.StatusBadRequest},
		{name: "quantity over max", body: `{"recipeId":"recipe1","type":"readyMade","quantity":100}`, want: http.StatusBadRequest},
		{name: "max int quantity", body: `{"recipeId":"recipe1","type":"readyMade","quantity":9223372036854775807}`, want: http.StatusBadRequest},
		{name: "quantity overflows int", body: `{"recipeId":"recipe1","type":"readyMade","quantity":1e30}`, want: http.StatusBadRequest},
		{name: "traversal recipe id", body: `{"recipeId":"generated-/../../suvai-chaalai-cart/user_1","type":"readyMade"}`, want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.do(t, http.MethodPost, "/api/cart/items", tt.body).Code)
		})
	}
}

func TestClear(t *testing.T) {
	f := newFixture(t, stubAuthClient{userID: "user_1"}, nil)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/cart/items", `{"recipeId":"recipe7","type":"readyMade"}`).Code)
	rr := f.do(t, http.MethodDelete, "/api/cart", "")
	require.Equal(t, http.StatusOK, rr.Code)
	v := decodeView(t, rr)
	assert.Empty(t, v.Items)
	assert.True(t, v.FinalAmount.IsZero())
}

func TestAddQuantityBounds(t *testing.T) {
	f := newFixture(t, stubAuthClient{userID: "user_1"}, nil)

	rr := f.do(t, http.MethodPost, "/api/cart/items", `{"recipeId":"recipe1","type":"readyMade"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, decodeView(t, rr).TotalItems, "omitted quantity is 1")

	for range 2 {
		rr = f.do(t, http.MethodPost, "/api/cart/items", `{"recipeId":"recipe1","type":"readyMade","quantity":60}`)
		require.Equal(t, http.StatusOK, rr.Code)
	}
	v := decodeView(t, rr)
	require.Len(t, v.Items, 1)
	assert.Equal(t, cart.MaxQuantity, v.Items[0].Quantity)
	assert.True(t, v.TotalAmount.Equal(decimal.NewFromInt(120*cart.MaxQuantity)))

	rr = f.do(t, http.MethodPatch, "/api/cart/items/"+v.Items[0].ID, `{"quantity":100}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = f.do(t, http.MethodPatch, "/api/cart/items/"+v.Items[0].ID, `{"quantity":99999999999999999999}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSignInAdoptsGuestCart(t *testing.T) {
	ctx := context.Background()
	authClient := &stubAuthClient{}
	f := newFixture(t, authClient, nil)

	rr := f.do(t, http.MethodPost, "/api/cart/items", `{"recipeId":"recipe1","type":"readyMade","quantity":2}`)
	require.Equal(t, http.StatusOK, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	guest := cookies[0]
	rr = f.do(t, http.MethodPost, "/api/cart/items", `{"recipeId":"recipe2","type":"ingredients"}`, guest)
	require.Equal(t, http.StatusOK, rr.Code)

	_, err := f.carts.Update(ctx, "user_1", func(c *cart.Cart) error {
		c.AddItem(cart.LineItem{RecipeID: "recipe1", RecipeName: "Masala Dosa", Type: cart.ReadyMade, Price: decimal.NewFromInt(120), Quantity: 1})
		return nil
	})
	require.NoError(t, err)

	authClient.userID = "user_1"
	rr = f.do(t, http.MethodGet, "/api/cart", "", guest)
	require.Equal(t, http.StatusOK, rr.Code)
	v := decodeView(t, rr)
	require.Len(t, v.Items, 2)
	assert.Equal(t, 4, v.TotalItems)
	assert.Equal(t, 3, v.Items[0].Quantity)

	cookies = rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)

	left, err := f.carts.Load(ctx, guest.Value)
	require.NoError(t, err)
	assert.True(t, left.Empty())

	// a stale cookie does not merge twice
	rr = f.do(t, http.MethodGet, "/api/cart", "", guest)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 4, decodeView(t, rr).TotalItems)
}
