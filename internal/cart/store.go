package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"suvai/internal/cache"
)

// StorageKey names the persisted cart record. Each owner gets its own record
// under StorageKey + "/" + owner.
const StorageKey = "suvai-chaalai-cart"

const recordVersion = 0

var ErrInvalidOwner = errors.New("invalid cart owner")

var ownerPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

type record struct {
	State   State `json:"state"`
	Version int   `json:"version"`
}

// Store loads and commits carts through the key value collaborator. Update
// serializes read-modify-write cycles per owner.
type Store struct {
	cache cache.Cache
	now   func() time.Time
	locks keyedMutex
}

func NewStore(c cache.Cache) *Store {
	return &Store{cache: c, now: time.Now}
}

func key(owner string) string {
	return StorageKey + "/" + owner
}

func ValidOwner(owner string) bool {
	return ownerPattern.MatchString(owner)
}

// Load rehydrates the owner's cart. A missing record is an empty cart.
func (s *Store) Load(ctx context.Context, owner string) (*Cart, error) {
	if !ValidOwner(owner) {
		return nil, ErrInvalidOwner
	}
	var rec record
	if err := cache.GetJSON(ctx, s.cache, key(owner), &rec); err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return New(WithClock(s.now)), nil
		}
		return nil, fmt.Errorf("load cart %s: %w", owner, err)
	}
	return FromState(rec.State, WithClock(s.now)), nil
}

// Save commits the full cart state.
func (s *Store) Save(ctx context.Context, owner string, c *Cart) error {
	if !ValidOwner(owner) {
		return ErrInvalidOwner
	}
	rec := record{State: c.State(), Version: recordVersion}
	if err := cache.PutJSON(ctx, s.cache, key(owner), rec, cache.Unconditional()); err != nil {
		return fmt.Errorf("save cart %s: %w", owner, err)
	}
	return nil
}

// Update loads the owner's cart, applies fn and commits the result. Nothing is
// written when fn fails.
func (s *Store) Update(ctx context.Context, owner string, fn func(*Cart) error) (*Cart, error) {
	unlock := s.locks.lock(owner)
	defer unlock()

	c, err := s.Load(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := s.Save(ctx, owner, c); err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "cart committed", "owner", owner, "items", len(c.state.Items))
	return c, nil
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(name string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[name]
	if !ok {
		m = &refMutex{}
		k.locks[name] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, name)
		}
		k.mu.Unlock()
	}
}
