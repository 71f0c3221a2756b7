package admin

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/samber/lo"

	"suvai/internal/auth"
	"suvai/internal/config"
)

type middleware struct {
	auth   auth.AuthClient
	admins map[string]struct{}
}

// New builds the admin gate from ADMIN_EMAILS. With no admins configured
// every request is refused.
func New(cfg *config.Config, authClient auth.AuthClient) *middleware {
	emails := lo.Compact(lo.Map(cfg.Admin.Emails, func(e string, _ int) string {
		return normalizeEmail(e)
	}))
	return &middleware{
		auth:   authClient,
		admins: lo.Keyify(emails),
	}
}

// Enforce answers 404 to anyone who is not an admin, hiding the routes.
func (m *middleware) Enforce(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := m.auth.GetUserIDFromRequest(r)
		if err != nil {
			if !errors.Is(err, auth.ErrNoSession) {
				slog.WarnContext(r.Context(), "admin auth failed", "error", err)
			}
			http.NotFound(w, r)
			return
		}

		email, err := m.auth.GetUserEmail(r.Context(), userID)
		if err != nil {
			slog.WarnContext(r.Context(), "admin email lookup failed", "user_id", userID, "error", err)
			http.NotFound(w, r)
			return
		}

		if !m.isAdmin(email) {
			slog.InfoContext(r.Context(), "non admin refused", "user_id", userID, "path", r.URL.Path)
			http.NotFound(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *middleware) isAdmin(email string) bool {
	_, ok := m.admins[normalizeEmail(email)]
	return ok
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
