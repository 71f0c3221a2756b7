package recipes

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
)

type server struct {
	catalog *Catalog
}

// NewHandler returns the recipe endpoints under /api/recipes.
func NewHandler(catalog *Catalog) *server {
	return &server{catalog: catalog}
}

func (s *server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/recipes", s.handleList)
	mux.HandleFunc("GET /api/recipes/{id}", s.handleSingle)
	mux.HandleFunc("POST /api/recipes/generate", s.handleGenerate)
}

func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var (
		list []Recipe
		err  error
	)
	switch {
	case q.Get("q") != "":
		list, err = s.catalog.Search(ctx, q.Get("q"))
	case q.Get("category") != "":
		list, err = s.catalog.ByCategory(ctx, q.Get("category"))
	case q.Get("popular") != "":
		popular, perr := strconv.ParseBool(q.Get("popular"))
		if perr != nil {
			http.Error(w, "invalid popular flag", http.StatusBadRequest)
			return
		}
		if popular {
			list, err = s.catalog.Popular(ctx)
		} else {
			list, err = s.catalog.All(ctx)
		}
	default:
		list, err = s.catalog.All(ctx)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		slog.ErrorContext(ctx, "failed to list recipes", "error", err)
		http.Error(w, "failed to list recipes", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) handleSingle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	recipe, err := s.catalog.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "recipe not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(ctx, "failed to load recipe", "id", id, "error", err)
		http.Error(w, "failed to load recipe", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in GenerationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid generation input", http.StatusBadRequest)
		return
	}
	switch in.Diet {
	case "":
		in.Diet = Both
	case Veg, NonVeg, Both:
	default:
		http.Error(w, "diet must be veg, non-veg or both", http.StatusBadRequest)
		return
	}

	recipe, err := s.catalog.Generate(ctx, in)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "no recipe fits that diet", http.StatusNotFound)
			return
		}
		slog.ErrorContext(ctx, "failed to generate recipe", "error", err)
		http.Error(w, "failed to generate recipe", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, recipe)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
