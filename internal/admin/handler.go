package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"suvai/internal/users"
)

type handler struct {
	userStorage *users.Storage
}

// NewHandler serves admin-only views. Mount it behind Enforce.
func NewHandler(userStorage *users.Storage) *handler {
	return &handler{userStorage: userStorage}
}

func (h *handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/admin/users", h.handleUsers)
}

func (h *handler) handleUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := h.userStorage.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list users", "error", err)
		http.Error(w, "unable to list users", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}
