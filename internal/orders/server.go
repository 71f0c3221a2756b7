package orders

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"suvai/internal/auth"
	"suvai/internal/cart"
	"suvai/internal/users"
)

// Notifier tells a customer their order was placed.
type Notifier interface {
	OrderPlaced(ctx context.Context, to string, o Order) error
}

type CartStore interface {
	Update(ctx context.Context, owner string, fn func(*cart.Cart) error) (*cart.Cart, error)
}

type server struct {
	orders   *Store
	carts    CartStore
	users    *users.Storage
	auth     auth.AuthClient
	notifier Notifier
}

func NewHandler(orders *Store, carts CartStore, userStorage *users.Storage, authClient auth.AuthClient, notifier Notifier) *server {
	return &server{
		orders:   orders,
		carts:    carts,
		users:    userStorage,
		auth:     authClient,
		notifier: notifier,
	}
}

func (s *server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/checkout", s.handleCheckout)
	mux.HandleFunc("GET /api/orders", s.handleMine)
	mux.HandleFunc("GET /api/orders/{id}", s.handleSingle)
}

func (s *server) currentUser(w http.ResponseWriter, r *http.Request) *users.User {
	u, err := users.FromRequest(r, s.auth, s.users)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to load user", "error", err)
		http.Error(w, "unable to load account", http.StatusInternalServerError)
		return nil
	}
	if u == nil {
		http.Error(w, "sign in to place orders", http.StatusUnauthorized)
		return nil
	}
	return u
}

type checkoutRequest struct {
	DeliveryAddress string `json:"deliveryAddress"`
	PaymentMethod   string `json:"paymentMethod"`
}

// handleCheckout turns the signed-in user's cart into an order. Creating the
// order and clearing the cart happen inside one per-owner update.
func (s *server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u := s.currentUser(w, r)
	if u == nil {
		return
	}
	var req checkoutRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid checkout request", http.StatusBadRequest)
			return
		}
	}
	pm, err := ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	address := strings.TrimSpace(req.DeliveryAddress)
	if address == "" {
		address = u.DeliveryAddress
	}
	if address == "" {
		http.Error(w, "delivery address is required", http.StatusBadRequest)
		return
	}

	var placed Order
	_, err = s.carts.Update(ctx, u.ID, func(c *cart.Cart) error {
		if c.Empty() {
			return ErrEmptyCart
		}
		o, err := s.orders.Create(ctx, FromCart(u.ID, c, address, pm))
		if err != nil {
			return err
		}
		placed = o
		c.Clear()
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrEmptyCart) {
			http.Error(w, "cart is empty", http.StatusBadRequest)
			return
		}
		slog.ErrorContext(ctx, "checkout failed", "user_id", u.ID, "error", err)
		http.Error(w, "checkout failed", http.StatusInternalServerError)
		return
	}

	if email := u.PrimaryEmail(); email != "" && s.notifier != nil {
		if err := s.notifier.OrderPlaced(ctx, email, placed); err != nil {
			slog.ErrorContext(ctx, "failed to send order confirmation", "order_id", placed.ID, "error", err)
		}
	}
	writeJSON(w, http.StatusCreated, placed)
}

func (s *server) handleMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u := s.currentUser(w, r)
	if u == nil {
		return
	}
	list, err := s.orders.ForUser(ctx, u.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list orders", "user_id", u.ID, "error", err)
		http.Error(w, "failed to list orders", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) handleSingle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u := s.currentUser(w, r)
	if u == nil {
		return
	}
	o, err := s.orders.ByID(ctx, r.PathValue("id"))
	if err != nil && !errors.Is(err, ErrNotFound) {
		slog.ErrorContext(ctx, "failed to load order", "error", err)
		http.Error(w, "failed to load order", http.StatusInternalServerError)
		return
	}
	// other users' orders are indistinguishable from missing ones
	if err != nil || o.UserID != u.ID {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type adminServer struct {
	orders *Store
}

// NewAdminHandler serves order management. Mount it behind the admin gate.
func NewAdminHandler(orders *Store) *adminServer {
	return &adminServer{orders: orders}
}

func (s *adminServer) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/admin/orders", s.handleAll)
	mux.HandleFunc("POST /api/admin/orders/{id}/status", s.handleStatus)
}

func (s *adminServer) handleAll(w http.ResponseWriter, r *http.Request) {
	list, err := s.orders.All(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list all orders", "error", err)
		http.Error(w, "failed to list orders", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *adminServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid status request", http.StatusBadRequest)
		return
	}
	status, err := ParseStatus(req.Status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	o, err := s.orders.UpdateStatus(ctx, r.PathValue("id"), status)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "order not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(ctx, "failed to update order status", "error", err)
		http.Error(w, "failed to update order", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
