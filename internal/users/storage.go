package users

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"suvai/internal/auth"
	"suvai/internal/cache"
)

const userPrefix = "users/"

var ErrNotFound = errors.New("user not found")

type User struct {
	ID              string    `json:"id"`
	Email           []string  `json:"email"`
	CreatedAt       time.Time `json:"created_at"`
	DeliveryAddress string    `json:"delivery_address,omitempty"`
	Phone           string    `json:"phone,omitempty"`
}

func (u User) Validate() error {
	if len(u.Email) == 0 {
		return errors.New("at least one email is required")
	}
	for _, e := range u.Email {
		if _, err := mail.ParseAddress(e); err != nil {
			return errors.New("invalid email address: " + e)
		}
	}
	if len(u.DeliveryAddress) > 500 {
		return errors.New("delivery address too long")
	}
	return nil
}

// PrimaryEmail is the first address on file, or empty.
func (u User) PrimaryEmail() string {
	return lo.FirstOr(u.Email, "")
}

type Storage struct {
	cache cache.ListCache
}

func NewStorage(c cache.ListCache) *Storage {
	return &Storage{cache: c}
}

func (s *Storage) GetByID(ctx context.Context, id string) (*User, error) {
	var u User
	if err := cache.GetJSON(ctx, s.cache, userPrefix+id, &u); err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user %s: %w", id, err)
	}
	return &u, nil
}

// FindOrCreateByID returns the stored user, creating it on first sight. A new
// email is appended to an existing user's addresses.
func (s *Storage) FindOrCreateByID(ctx context.Context, id, email string) (*User, error) {
	email = normalizeEmail(email)
	u, err := s.GetByID(ctx, id)
	if err == nil {
		if email == "" || slices.Contains(u.Email, email) {
			return u, nil
		}
		u.Email = append(u.Email, email)
		return u, s.Update(ctx, u)
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	newUser := &User{
		ID:        id,
		Email:     lo.Compact([]string{email}),
		CreatedAt: time.Now(),
	}
	// a concurrent first request may have created it already
	if err := cache.PutJSON(ctx, s.cache, userPrefix+id, newUser, cache.IfNoneMatch()); err != nil {
		if errors.Is(err, cache.ErrAlreadyExists) {
			return s.GetByID(ctx, id)
		}
		return nil, fmt.Errorf("failed to store new user: %w", err)
	}
	return newUser, nil
}

func (s *Storage) Update(ctx context.Context, u *User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	if err := cache.PutJSON(ctx, s.cache, userPrefix+u.ID, u, cache.Unconditional()); err != nil {
		return fmt.Errorf("failed to update user %s: %w", u.ID, err)
	}
	return nil
}

func (s *Storage) List(ctx context.Context) ([]User, error) {
	ids, err := s.cache.List(ctx, userPrefix, "")
	if err != nil {
		return nil, err
	}
	out := make([]User, 0, len(ids))
	for _, id := range ids {
		u, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, nil
}

// FromRequest resolves the signed-in user. Anonymous requests return nil, nil.
func FromRequest(r *http.Request, authClient auth.AuthClient, s *Storage) (*User, error) {
	ctx := r.Context()
	id, err := authClient.GetUserIDFromRequest(r)
	if err != nil {
		if errors.Is(err, auth.ErrNoSession) {
			return nil, nil
		}
		return nil, err
	}
	u, err := s.GetByID(ctx, id)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	email, err := authClient.GetUserEmail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up email for %s: %w", id, err)
	}
	return s.FindOrCreateByID(ctx, id, email)
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
