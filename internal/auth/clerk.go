package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/clerk/clerk-sdk-go/v2"
	clerkhttp "github.com/clerk/clerk-sdk-go/v2/http"
	"github.com/clerk/clerk-sdk-go/v2/user"
	"github.com/hashicorp/go-retryablehttp"
)

const sessionCookie = "__session"

var ErrNoSession = errors.New("no valid session found")

type AuthClient interface {
	GetUserEmail(ctx context.Context, userID string) (string, error)
	GetUserIDFromRequest(r *http.Request) (string, error)
	WithAuthHTTP(handler http.Handler) http.Handler
	Register(mux *http.ServeMux)
}

type clerkClient struct {
	secretKey string
}

var _ AuthClient = (*clerkClient)(nil)

// NewClient configures the global Clerk backend. Calls to the Clerk API are retried.
func NewClient(secretKey string) (*clerkClient, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("clerk secret key is required")
	}

	retrying := retryablehttp.NewClient()
	retrying.RetryMax = 3
	retrying.Logger = nil
	clerk.SetKey(secretKey)
	clerk.SetBackend(clerk.NewBackend(&clerk.BackendConfig{
		HTTPClient: retrying.StandardClient(),
		Key:        clerk.String(secretKey),
	}))

	return &clerkClient{secretKey: secretKey}, nil
}

func (c *clerkClient) GetUserEmail(ctx context.Context, userID string) (string, error) {
	clerkUser, err := user.Get(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch clerk user: %w", err)
	}

	for _, emailAddr := range clerkUser.EmailAddresses {
		if clerkUser.PrimaryEmailAddressID != nil && emailAddr.ID == *clerkUser.PrimaryEmailAddressID {
			return emailAddr.EmailAddress, nil
		}
	}
	return "", fmt.Errorf("no primary email found for clerk user %s", userID)
}

func (c *clerkClient) GetUserIDFromRequest(r *http.Request) (string, error) {
	sessionClaims, ok := clerk.SessionClaimsFromContext(r.Context())
	if !ok || sessionClaims == nil {
		return "", ErrNoSession
	}
	return sessionClaims.Subject, nil
}

// WithAuthHTTP verifies the session token from the Authorization header or
// the __session cookie. Requests without a valid session pass through
// anonymously so guest carts keep working.
func (c *clerkClient) WithAuthHTTP(handler http.Handler) http.Handler {
	clearAndContinue := clerkhttp.AuthorizationFailureHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.WarnContext(r.Context(), "invalid clerk session, continuing anonymously")
		clearSessionCookie(w)
		r.Header.Del("Authorization")
		handler.ServeHTTP(w, r)
	}))
	verify := clerkhttp.WithHeaderAuthorization(clearAndContinue)(handler)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			if ck, err := r.Cookie(sessionCookie); err == nil && ck.Value != "" {
				r.Header.Set("Authorization", "Bearer "+ck.Value)
			}
		}
		verify.ServeHTTP(w, r)
	})
}

func (c *clerkClient) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/logout", logout)
}

func logout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
