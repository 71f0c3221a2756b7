// Package cartapi exposes the cart and coupon operations over HTTP. Signed-in
// users own the cart stored under their user id; guests get a random id kept
// in a cookie.
package cartapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"suvai/internal/auth"
	"suvai/internal/cart"
	"suvai/internal/coupons"
	"suvai/internal/recipes"
)

const (
	CookieName     = "suvai_cart"
	cookieLifetime = 30 * 24 * time.Hour
)

var errLineNotFound = errors.New("cart line not found")

type recipeLookup interface {
	ByID(ctx context.Context, id string) (recipes.Recipe, error)
}

type server struct {
	carts     *cart.Store
	catalog   recipeLookup
	validator coupons.Validator
	auth      auth.AuthClient
}

func NewHandler(carts *cart.Store, catalog recipeLookup, validator coupons.Validator, authClient auth.AuthClient) *server {
	return &server{carts: carts, catalog: catalog, validator: validator, auth: authClient}
}

func (s *server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/cart", s.handleGet)
	mux.HandleFunc("DELETE /api/cart", s.handleClear)
	mux.HandleFunc("POST /api/cart/items", s.handleAdd)
	mux.HandleFunc("PATCH /api/cart/items/{id}", s.handleQuantity)
	mux.HandleFunc("DELETE /api/cart/items/{id}", s.handleRemove)
	mux.HandleFunc("POST /api/cart/coupon", s.handleApplyCoupon)
	mux.HandleFunc("DELETE /api/cart/coupon", s.handleRemoveCoupon)
}

// owner picks the cart for this request, issuing a guest cookie if needed.
func (s *server) owner(w http.ResponseWriter, r *http.Request) (string, error) {
	id, err := s.auth.GetUserIDFromRequest(r)
	if err == nil {
		s.adoptGuestCart(w, r, id)
		return id, nil
	}
	if !errors.Is(err, auth.ErrNoSession) {
		return "", err
	}
	if ck, err := r.Cookie(CookieName); err == nil && cart.ValidOwner(ck.Value) {
		return ck.Value, nil
	}
	guest := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    guest,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(cookieLifetime / time.Second),
	})
	return guest, nil
}

// adoptGuestCart merges the lines of the guest cart named by the request's
// cookie into the user's cart and expires the cookie. The guest coupon is
// dropped. On failure the cookie is kept so the next request retries.
func (s *server) adoptGuestCart(w http.ResponseWriter, r *http.Request, userID string) {
	ck, err := r.Cookie(CookieName)
	if err != nil || !cart.ValidOwner(ck.Value) || ck.Value == userID {
		return
	}
	ctx := r.Context()
	guest := ck.Value
	moved := 0
	// lock order is always guest then user
	_, err = s.carts.Update(ctx, guest, func(g *cart.Cart) error {
		if g.Empty() {
			return nil
		}
		if _, err := s.carts.Update(ctx, userID, func(u *cart.Cart) error {
			for _, item := range g.Items() {
				u.AddItem(item)
			}
			return nil
		}); err != nil {
			return err
		}
		moved = len(g.Items())
		g.Clear()
		return nil
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to adopt guest cart", "guest", guest, "user", userID, "error", err)
		return
	}
	if moved > 0 {
		slog.InfoContext(ctx, "adopted guest cart", "guest", guest, "user", userID, "lines", moved)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

type view struct {
	Items          []cart.LineItem `json:"items"`
	CouponCode     *string         `json:"couponCode"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	TotalItems     int             `json:"totalItems"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	FinalAmount    decimal.Decimal `json:"finalAmount"`
}

func viewOf(c *cart.Cart) view {
	st := c.State()
	t := c.Totals()
	return view{
		Items:          st.Items,
		CouponCode:     st.CouponCode,
		DiscountAmount: st.DiscountAmount,
		TotalItems:     t.TotalItems,
		TotalAmount:    t.TotalAmount,
		FinalAmount:    t.FinalAmount,
	}
}

func (s *server) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, cart.ErrInvalidOwner):
		http.Error(w, "invalid cart owner", http.StatusBadRequest)
	case errors.Is(err, errLineNotFound), errors.Is(err, recipes.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		slog.ErrorContext(r.Context(), msg, "error", err)
		http.Error(w, msg, http.StatusInternalServerError)
	}
}

func (s *server) mutate(w http.ResponseWriter, r *http.Request, msg string, fn func(*cart.Cart) error) {
	owner, err := s.owner(w, r)
	if err != nil {
		s.fail(w, r, "failed to identify cart owner", err)
		return
	}
	c, err := s.carts.Update(r.Context(), owner, fn)
	if err != nil {
		s.fail(w, r, msg, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(c))
}

func (s *server) handleGet(w http.ResponseWriter, r *http.Request) {
	owner, err := s.owner(w, r)
	if err != nil {
		s.fail(w, r, "failed to identify cart owner", err)
		return
	}
	c, err := s.carts.Load(r.Context(), owner)
	if err != nil {
		s.fail(w, r, "failed to load cart", err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(c))
}

func (s *server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "failed to clear cart", func(c *cart.Cart) error {
		c.Clear()
		return nil
	})
}

// addRequest.Quantity defaults to 1 when omitted.
type addRequest struct {
	RecipeID string `json:"recipeId"`
	Type     string `json:"type"`
	Quantity *int   `json:"quantity"`
}

func (s *server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid cart item", http.StatusBadRequest)
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if !cart.ValidQuantity(quantity) {
		http.Error(w, cart.ErrInvalidQuantity.Error(), http.StatusBadRequest)
		return
	}
	pt, err := cart.ParsePurchaseType(req.Type)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	recipe, err := s.catalog.ByID(r.Context(), req.RecipeID)
	if err != nil {
		s.fail(w, r, "failed to load recipe", err)
		return
	}
	item, err := recipes.LineItemFor(recipe, pt)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	item.Quantity = quantity
	s.mutate(w, r, "failed to add to cart", func(c *cart.Cart) error {
		c.AddItem(item)
		return nil
	})
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (s *server) handleQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid quantity", http.StatusBadRequest)
		return
	}
	if !cart.ValidQuantity(req.Quantity) {
		http.Error(w, cart.ErrInvalidQuantity.Error(), http.StatusBadRequest)
		return
	}
	id := r.PathValue("id")
	s.mutate(w, r, "failed to update quantity", func(c *cart.Cart) error {
		if _, ok := c.Item(id); !ok {
			return errLineNotFound
		}
		return c.UpdateQuantity(id, req.Quantity)
	})
}

func (s *server) handleRemove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mutate(w, r, "failed to remove item", func(c *cart.Cart) error {
		c.RemoveItem(id)
		return nil
	})
}

type couponRequest struct {
	Code string `json:"code"`
}

type couponResponse struct {
	Valid          bool            `json:"valid"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Message        string          `json:"message,omitempty"`
	Cart           *view           `json:"cart,omitempty"`
}

// handleApplyCoupon answers 200 for both accepted and rejected codes; only a
// failure to reach the validator is an error.
func (s *server) handleApplyCoupon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req couponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid coupon request", http.StatusBadRequest)
		return
	}
	owner, err := s.owner(w, r)
	if err != nil {
		s.fail(w, r, "failed to identify cart owner", err)
		return
	}
	res, c, err := coupons.Apply(ctx, s.validator, s.carts, owner, req.Code)
	if err != nil {
		slog.ErrorContext(ctx, "coupon validation failed", "owner", owner, "error", err)
		writeJSON(w, http.StatusBadGateway, couponResponse{DiscountAmount: decimal.Zero, Message: "Error validating coupon"})
		return
	}
	out := couponResponse{Valid: res.Valid, DiscountAmount: res.DiscountAmount, Message: res.Message}
	if c != nil {
		v := viewOf(c)
		out.Cart = &v
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleRemoveCoupon(w http.ResponseWriter, r *http.Request) {
	owner, err := s.owner(w, r)
	if err != nil {
		s.fail(w, r, "failed to identify cart owner", err)
		return
	}
	c, err := coupons.Remove(r.Context(), s.carts, owner)
	if err != nil {
		s.fail(w, r, "failed to remove coupon", err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(c))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
