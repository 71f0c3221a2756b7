package games

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"suvai/internal/auth"
	"suvai/internal/coupons"
)

type couponLister interface {
	ForUser(ctx context.Context, userID string) ([]coupons.Coupon, error)
}

type server struct {
	games   *Service
	coupons couponLister
	auth    auth.AuthClient
}

func NewHandler(games *Service, registry couponLister, authClient auth.AuthClient) *server {
	return &server{games: games, coupons: registry, auth: authClient}
}

func (s *server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/games", s.handleList)
	mux.HandleFunc("GET /api/games/{id}", s.handleSingle)
	mux.HandleFunc("POST /api/games/{id}/play", s.handlePlay)
	mux.HandleFunc("GET /api/coupons", s.handleCoupons)
}

func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.games.All(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list games", "error", err)
		http.Error(w, "failed to list games", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) handleSingle(w http.ResponseWriter, r *http.Request) {
	g, err := s.games.ByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "failed to load game", "error", err)
		http.Error(w, "failed to load game", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *server) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := s.auth.GetUserIDFromRequest(r)
	if err != nil {
		if !errors.Is(err, auth.ErrNoSession) {
			slog.WarnContext(r.Context(), "auth lookup failed", "error", err)
		}
		http.Error(w, "sign in to play for coupons", http.StatusUnauthorized)
		return "", false
	}
	return id, true
}

type playRequest struct {
	Score int `json:"score"`
}

func (s *server) handlePlay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	var req playRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid score", http.StatusBadRequest)
		return
	}
	c, err := s.games.IssueCoupon(ctx, userID, r.PathValue("id"), req.Score)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(ctx, "failed to issue coupon", "error", err)
		http.Error(w, "failed to issue coupon", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *server) handleCoupons(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	list, err := s.coupons.ForUser(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list coupons", "user_id", userID, "error", err)
		http.Error(w, "failed to list coupons", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
