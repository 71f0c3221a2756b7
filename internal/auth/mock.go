package auth

import (
	"context"
	"net/http"

	"suvai/internal/config"
)

const MockUserID = "mock-user-id"

// anonymousHeader lets a mocked deployment exercise guest flows.
const anonymousHeader = "X-Suvai-Anonymous"

type mockClient struct {
	email string
}

var _ AuthClient = (*mockClient)(nil)

func Mock(cfg *config.Config) AuthClient {
	email := cfg.Mocks.Email
	if email == "" {
		return DefaultMock()
	}
	return &mockClient{email: email}
}

func DefaultMock() AuthClient {
	return &mockClient{email: "you@suvaichaalai.com"}
}

func (c *mockClient) GetUserEmail(ctx context.Context, userID string) (string, error) {
	return c.email, nil
}

func (c *mockClient) GetUserIDFromRequest(r *http.Request) (string, error) {
	if r.Header.Get(anonymousHeader) != "" {
		return "", ErrNoSession
	}
	return MockUserID, nil
}

func (c *mockClient) WithAuthHTTP(handler http.Handler) http.Handler {
	return handler
}

func (c *mockClient) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/logout", logout)
}
