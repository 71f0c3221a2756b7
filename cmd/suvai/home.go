package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"suvai/internal/games"
	"suvai/internal/recipes"
)

type popularRecipes interface {
	Popular(ctx context.Context) ([]recipes.Recipe, error)
}

type gameLister interface {
	All(ctx context.Context) ([]games.Game, error)
}

type homeHandler struct {
	recipes popularRecipes
	games   gameLister
}

type homeView struct {
	Popular []recipes.Recipe `json:"popularRecipes"`
	Games   []games.Game     `json:"games"`
}

// ServeHTTP loads the landing page data. Both lookups carry the catalog
// latency so they run side by side.
func (h *homeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var view homeView
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		popular, err := h.recipes.Popular(ctx)
		view.Popular = popular
		return err
	})
	g.Go(func() error {
		all, err := h.games.All(ctx)
		view.Games = all
		return err
	})
	if err := g.Wait(); err != nil {
		slog.ErrorContext(r.Context(), "failed to load home", "error", err)
		http.Error(w, "failed to load home", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(view); err != nil {
		slog.ErrorContext(r.Context(), "failed to write home", "error", err)
	}
}
