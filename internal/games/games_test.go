package games

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"suvai/internal/auth"
	"suvai/internal/cache"
	"suvai/internal/config"
	"suvai/internal/coupons"
)

type stubAuthClient struct {
	userID string
}

func (s stubAuthClient) GetUserEmail(_ context.Context, _ string) (string, error) {
	return "player@example.com", nil
}

func (s stubAuthClient) GetUserIDFromRequest(_ *http.Request) (string, error) {
	if s.userID == "" {
		return "", auth.ErrNoSession
	}
	return s.userID, nil
}

func (s stubAuthClient) WithAuthHTTP(handler http.Handler) http.Handler { return handler }

func (s stubAuthClient) Register(_ *http.ServeMux) {}

func newTestService(t *testing.T) (*Service, *coupons.Registry) {
	t.Helper()
	registry := coupons.NewRegistry(cache.NewInMemoryCache())
	s := NewService(config.CatalogConfig{}, registry)
	s.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return s, registry
}

func TestRewardPercentage(t *testing.T) {
	g := Game{MaxReward: 15}
	tests := []struct {
		score int
		want  int
	}{
		{score: -20, want: 0},
		{score: 0, want: 0},
		{score: 50, want: 7},
		{score: 99, want: 14},
		{score: 100, want: 15},
		{score: 250, want: 15},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, g.RewardPercentage(tt.score), "score %d", tt.score)
	}
}

func TestIssueCoupon(t *testing.T) {
	ctx := context.Background()
	s, registry := newTestService(t)

	c, err := s.IssueCoupon(ctx, "user_1", "game2", 80)
	require.NoError(t, err)
	assert.Equal(t, 16, c.DiscountPercentage)
	assert.Len(t, c.Code, 8)
	assert.Equal(t, "game", c.CreatedBy)
	assert.Equal(t, 1, c.UsageLimit)
	assert.Equal(t, 0, c.UsageCount)
	assert.True(t, c.IsActive)
	assert.Equal(t, "500", c.MaxDiscount.String())
	assert.Equal(t, "100", c.MinPurchase.String())
	assert.Equal(t, time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC), c.ExpiryDate)

	stored, err := registry.ByCode(ctx, c.Code)
	require.NoError(t, err)
	assert.Equal(t, c.ID, stored.ID)

	_, err = s.IssueCoupon(ctx, "user_1", "game9", 80)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServer(t *testing.T) {
	s, registry := newTestService(t)
	mux := http.NewServeMux()
	NewHandler(s, registry, stubAuthClient{userID: "user_1"}).Register(mux)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/games", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var list []Game
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Len(t, list, 3)

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/games/game4", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/games/game3/play", strings.NewReader(`{"score":100}`)))
	require.Equal(t, http.StatusCreated, rr.Code)
	var won coupons.Coupon
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &won))
	assert.Equal(t, 10, won.DiscountPercentage)

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/coupons", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var mine []coupons.Coupon
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, won.Code, mine[0].Code)
}

func TestPlayRequiresSignIn(t *testing.T) {
	s, registry := newTestService(t)
	mux := http.NewServeMux()
	NewHandler(s, registry, stubAuthClient{}).Register(mux)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/games/game1/play", strings.NewReader(`{"score":10}`)))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
