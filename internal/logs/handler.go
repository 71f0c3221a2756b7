package logs

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

const maxHours = 168

type recentReader interface {
	Recent(ctx context.Context, window time.Duration, minLevel slog.Level) ([]Entry, error)
}

type handler struct {
	reader recentReader
}

// NewHandler serves recent logs to admins. A nil reader means the sink is not
// configured and the route answers 503.
func NewHandler(reader *Reader) *handler {
	h := &handler{}
	if reader != nil {
		h.reader = reader
	}
	return h
}

func (h *handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/admin/logs", h.handleLogs)
}

func (h *handler) handleLogs(w http.ResponseWriter, r *http.Request) {
	if h.reader == nil {
		http.Error(w, "log viewer is not configured", http.StatusServiceUnavailable)
		return
	}
	hours := 24
	if v := r.URL.Query().Get("hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxHours {
			http.Error(w, "hours must be between 1 and 168", http.StatusBadRequest)
			return
		}
		hours = n
	}
	minLevel := slog.LevelDebug
	if v := r.URL.Query().Get("level"); v != "" {
		if err := minLevel.UnmarshalText([]byte(v)); err != nil {
			http.Error(w, "invalid level", http.StatusBadRequest)
			return
		}
	}

	entries, err := h.reader.Recent(r.Context(), time.Duration(hours)*time.Hour, minLevel)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to read logs", "error", err)
		http.Error(w, "failed to read logs", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode logs", "error", err)
	}
}
