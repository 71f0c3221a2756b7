package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"suvai/internal/cache"
)

const (
	orderPrefix     = "orders/"
	userOrderPrefix = "user_orders/"
)

type Store struct {
	cache cache.ListCache
	now   func() time.Time
	newID func() string
	mu    sync.Mutex // serializes status updates
}

func NewStore(c cache.ListCache) *Store {
	return &Store{
		cache: c,
		now:   time.Now,
		newID: func() string { return "order-" + uuid.NewString() },
	}
}

// Create stores a pending order. FinalAmount never drops below zero.
func (s *Store) Create(ctx context.Context, n NewOrder) (Order, error) {
	if len(n.Items) == 0 {
		return Order{}, ErrEmptyCart
	}
	if strings.TrimSpace(n.DeliveryAddress) == "" {
		return Order{}, errors.New("delivery address is required")
	}
	total := decimal.Zero
	for _, li := range n.Items {
		total = total.Add(li.Subtotal())
	}
	o := Order{
		ID:              s.newID(),
		UserID:          n.UserID,
		Items:           slices.Clone(n.Items),
		TotalAmount:     total,
		DiscountAmount:  n.DiscountAmount,
		FinalAmount:     decimal.Max(total.Sub(n.DiscountAmount), decimal.Zero),
		CouponCode:      n.CouponCode,
		Status:          Pending,
		CreatedAt:       s.now().UTC(),
		DeliveryAddress: strings.TrimSpace(n.DeliveryAddress),
		PaymentMethod:   n.PaymentMethod,
	}
	if o.PaymentMethod == "" {
		o.PaymentMethod = CashOnDelivery
	}

	if err := cache.PutJSON(ctx, s.cache, orderPrefix+o.ID, o, cache.IfNoneMatch()); err != nil {
		return Order{}, fmt.Errorf("store order: %w", err)
	}
	if err := s.cache.Put(ctx, userOrderPrefix+o.UserID+"/"+o.ID, o.ID, cache.Unconditional()); err != nil {
		return Order{}, fmt.Errorf("index order for user: %w", err)
	}
	slog.InfoContext(ctx, "order created", "order_id", o.ID, "user_id", o.UserID, "final", o.FinalAmount.StringFixed(2))
	return o, nil
}

func (s *Store) ByID(ctx context.Context, id string) (Order, error) {
	var o Order
	if err := cache.GetJSON(ctx, s.cache, orderPrefix+id, &o); err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("load order %s: %w", id, err)
	}
	return o, nil
}

// ForUser lists a user's orders, newest first.
func (s *Store) ForUser(ctx context.Context, userID string) ([]Order, error) {
	ids, err := s.cache.List(ctx, userOrderPrefix+userID+"/", "")
	if err != nil {
		return nil, err
	}
	return s.load(ctx, ids)
}

// All lists every order, newest first.
func (s *Store) All(ctx context.Context) ([]Order, error) {
	ids, err := s.cache.List(ctx, orderPrefix, "")
	if err != nil {
		return nil, err
	}
	return s.load(ctx, ids)
}

func (s *Store) load(ctx context.Context, ids []string) ([]Order, error) {
	out := make([]Order, 0, len(ids))
	for _, id := range lo.Uniq(ids) {
		o, err := s.ByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	slices.SortStableFunc(out, func(a, b Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status Status) (Order, error) {
	if _, err := ParseStatus(string(status)); err != nil {
		return Order{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.ByID(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if o.Status == status {
		return o, nil
	}
	prev := o.Status
	o.Status = status
	if err := cache.PutJSON(ctx, s.cache, orderPrefix+o.ID, o, cache.Unconditional()); err != nil {
		return Order{}, fmt.Errorf("update order %s: %w", id, err)
	}
	slog.InfoContext(ctx, "order status changed", "order_id", id, "from", prev, "to", status)
	return o, nil
}
