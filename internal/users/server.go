package users

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"suvai/internal/auth"
)

type server struct {
	storage *Storage
	auth    auth.AuthClient
}

// NewHandler serves the signed-in user's profile under /api/me.
func NewHandler(storage *Storage, authClient auth.AuthClient) *server {
	return &server{storage: storage, auth: authClient}
}

func (s *server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/me", s.handleGet)
	mux.HandleFunc("PUT /api/me", s.handleUpdate)
}

func (s *server) current(w http.ResponseWriter, r *http.Request) *User {
	u, err := FromRequest(r, s.auth, s.storage)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to load user", "error", err)
		http.Error(w, "unable to load account", http.StatusInternalServerError)
		return nil
	}
	if u == nil {
		http.Error(w, "sign in required", http.StatusUnauthorized)
		return nil
	}
	return u
}

func (s *server) handleGet(w http.ResponseWriter, r *http.Request) {
	u := s.current(w, r)
	if u == nil {
		return
	}
	writeJSON(w, u)
}

type profileUpdate struct {
	DeliveryAddress *string `json:"delivery_address"`
	Phone           *string `json:"phone"`
}

func (s *server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u := s.current(w, r)
	if u == nil {
		return
	}
	var req profileUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid profile update", http.StatusBadRequest)
		return
	}
	if req.DeliveryAddress != nil {
		u.DeliveryAddress = strings.TrimSpace(*req.DeliveryAddress)
	}
	if req.Phone != nil {
		u.Phone = strings.TrimSpace(*req.Phone)
	}
	if err := u.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.storage.Update(ctx, u); err != nil {
		slog.ErrorContext(ctx, "failed to update user", "error", err)
		http.Error(w, "unable to save profile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, u)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
