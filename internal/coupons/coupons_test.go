package coupons

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"suvai/internal/cache"
	"suvai/internal/cart"
	"suvai/internal/config"
)

func newService() *Service {
	return NewService(config.CouponsConfig{MinPurchase: 100, MaxDiscount: 500})
}

func TestValidate(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name     string
		code     string
		subtotal int64
		valid    bool
		discount string
		message  string
	}{
		{"below minimum", "SAVE10", 50, false, "0", "Minimum purchase of ₹100 required"},
		{"trailing twenty", "SAVE20", 200, true, "40", "Discount of ₹40.00 applied!"},
		{"empty code", "", 200, false, "0", "No coupon code provided"},
		{"unparseable tail defaults to ten", "WELCOME", 300, true, "30", "Discount of ₹30.00 applied!"},
		{"zero tail defaults to ten", "DEAL00", 300, true, "30", "Discount of ₹30.00 applied!"},
		{"leading digit only", "X5A", 200, true, "10", "Discount of ₹10.00 applied!"},
		{"capped at max discount", "BIG90", 1000, true, "500", "Discount of ₹500.00 applied!"},
		{"exact minimum", "SAVE15", 100, true, "15", "Discount of ₹15.00 applied!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newService().Validate(ctx, tt.code, decimal.NewFromInt(tt.subtotal))
			require.NoError(t, err)
			assert.Equal(t, tt.valid, res.Valid)
			assert.Equal(t, tt.discount, res.DiscountAmount.String())
			assert.Equal(t, tt.message, res.Message)
		})
	}
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 20, Percentage("SAVE20"))
	assert.Equal(t, 10, Percentage("ABC"))
	assert.Equal(t, 7, Percentage("7"))
	assert.Equal(t, 10, Percentage("A-5"))
	assert.Equal(t, 5, Percentage("A 5"))
	assert.Equal(t, 10, Percentage(""))
}

func TestValidateHonoursCancellation(t *testing.T) {
	s := NewService(config.CouponsConfig{Latency: time.Hour, MinPurchase: 100, MaxDiscount: 500})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Validate(ctx, "SAVE20", decimal.NewFromInt(200))
	require.ErrorIs(t, err, context.Canceled)
}

func addDosa(store *cart.Store, owner string, price int64) error {
	_, err := store.Update(context.Background(), owner, func(c *cart.Cart) error {
		c.AddItem(cart.LineItem{RecipeID: "r1", Type: cart.Ingredients, Price: decimal.NewFromInt(price), Quantity: 1})
		return nil
	})
	return err
}

func TestApplyValidCoupon(t *testing.T) {
	ctx := context.Background()
	store := cart.NewStore(cache.NewInMemoryCache())
	require.NoError(t, addDosa(store, "u1", 200))

	res, c, err := Apply(ctx, newService(), store, "u1", " SAVE20 ")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, "40", c.DiscountAmount().String())
	assert.Equal(t, "160", c.FinalAmount().String())
	require.NotNil(t, c.CouponCode())
	assert.Equal(t, "SAVE20", *c.CouponCode())

	loaded, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "160", loaded.FinalAmount().String())
}

func TestApplyRejectedCouponLeavesCart(t *testing.T) {
	ctx := context.Background()
	store := cart.NewStore(cache.NewInMemoryCache())
	require.NoError(t, addDosa(store, "u1", 50))

	res, c, err := Apply(ctx, newService(), store, "u1", "SAVE10")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "Minimum purchase of ₹100 required", res.Message)
	assert.True(t, c.DiscountAmount().IsZero())
	assert.Nil(t, c.CouponCode())
}

// emptyingValidator clears the cart while validation is in flight.
type emptyingValidator struct {
	inner Validator
	store *cart.Store
	owner string
}

func (e emptyingValidator) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (Result, error) {
	if _, err := e.store.Update(ctx, e.owner, func(c *cart.Cart) error {
		for _, item := range c.Items() {
			c.RemoveItem(item.ID)
		}
		return nil
	}); err != nil {
		return Result{}, err
	}
	return e.inner.Validate(ctx, code, subtotal)
}

func TestApplyDuringConcurrentRemoval(t *testing.T) {
	ctx := context.Background()
	store := cart.NewStore(cache.NewInMemoryCache())
	require.NoError(t, addDosa(store, "u1", 200))

	v := emptyingValidator{inner: newService(), store: store, owner: "u1"}
	res, c, err := Apply(ctx, v, store, "u1", "SAVE20")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.True(t, c.Empty())
	assert.Equal(t, "40", c.DiscountAmount().String())
	assert.True(t, c.FinalAmount().IsZero())
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	store := cart.NewStore(cache.NewInMemoryCache())
	require.NoError(t, addDosa(store, "u1", 200))
	_, _, err := Apply(ctx, newService(), store, "u1", "SAVE20")
	require.NoError(t, err)

	c, err := Remove(ctx, store, "u1")
	require.NoError(t, err)
	assert.Nil(t, c.CouponCode())
	assert.True(t, c.DiscountAmount().IsZero())
	assert.Len(t, c.Items(), 1)
}

// repeatingList returns every listed key twice.
type repeatingList struct {
	*cache.InMemoryCache
}

func (r repeatingList) List(ctx context.Context, prefix, token string) ([]string, error) {
	keys, err := r.InMemoryCache.List(ctx, prefix, token)
	if err != nil {
		return nil, err
	}
	return append(keys, keys...), nil
}

func TestForUserSkipsRepeatedKeys(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(repeatingList{cache.NewInMemoryCache()})

	issued, err := r.Issue(ctx, "user_1", Coupon{DiscountPercentage: 10, ExpiryDate: time.Now()})
	require.NoError(t, err)

	list, err := r.ForUser(ctx, "user_1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, issued.Code, list[0].Code)
}

func TestRegistryIssueAndList(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(cache.NewFileCache(t.TempDir()))
	now := time.Now()

	first, err := r.Issue(ctx, "user_1", Coupon{DiscountPercentage: 10, ExpiryDate: now})
	require.NoError(t, err)
	second, err := r.Issue(ctx, "user_1", Coupon{DiscountPercentage: 15, ExpiryDate: now.Add(time.Hour)})
	require.NoError(t, err)
	_, err = r.Issue(ctx, "user_2", Coupon{DiscountPercentage: 5, ExpiryDate: now})
	require.NoError(t, err)

	assert.Len(t, first.Code, 8)
	assert.NotEqual(t, first.Code, second.Code)
	assert.NotEmpty(t, first.ID)

	list, err := r.ForUser(ctx, "user_1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.Code, list[0].Code)
	assert.Equal(t, first.Code, list[1].Code)

	got, err := r.ByCode(ctx, first.Code)
	require.NoError(t, err)
	assert.Equal(t, 10, got.DiscountPercentage)

	_, err = r.ByCode(ctx, "NOPE0000")
	require.ErrorIs(t, err, cache.ErrNotFound)
}

func TestNewCodeAlphabet(t *testing.T) {
	for range 20 {
		code, err := NewCode()
		require.NoError(t, err)
		assert.Regexp(t, `^[A-Z0-9]{8}$`, code)
	}
}
