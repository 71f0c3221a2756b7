package coupons

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"suvai/internal/cache"
)

const (
	couponPrefix     = "coupon/"
	userCouponPrefix = "user_coupons/"
	codeAlphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength       = 8
	maxCodeAttempts  = 5
)

// Coupon is a code issued to a user, typically as a game reward.
type Coupon struct {
	ID                 string          `json:"id"`
	Code               string          `json:"code"`
	DiscountPercentage int             `json:"discountPercentage"`
	MaxDiscount        decimal.Decimal `json:"maxDiscount"`
	MinPurchase        decimal.Decimal `json:"minPurchase"`
	ExpiryDate         time.Time       `json:"expiryDate"`
	IsActive           bool            `json:"isActive"`
	CreatedBy          string          `json:"createdBy"`
	UsageLimit         int             `json:"usageLimit"`
	UsageCount         int             `json:"usageCount"`
}

type Registry struct {
	cache cache.ListCache
}

func NewRegistry(c cache.ListCache) *Registry {
	return &Registry{cache: c}
}

// Issue stores c under a fresh random code and indexes it for userID. A code
// collision draws a new code.
func (r *Registry) Issue(ctx context.Context, userID string, c Coupon) (Coupon, error) {
	if c.ID == "" {
		c.ID = "coupon-" + uuid.NewString()
	}
	for range maxCodeAttempts {
		code, err := NewCode()
		if err != nil {
			return Coupon{}, err
		}
		c.Code = code
		err = cache.PutJSON(ctx, r.cache, couponPrefix+code, c, cache.IfNoneMatch())
		if errors.Is(err, cache.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return Coupon{}, fmt.Errorf("store coupon: %w", err)
		}
		if userID != "" {
			if err := r.cache.Put(ctx, userCouponPrefix+userID+"/"+code, code, cache.Unconditional()); err != nil {
				return Coupon{}, fmt.Errorf("index coupon for user: %w", err)
			}
		}
		return c, nil
	}
	return Coupon{}, errors.New("could not allocate a unique coupon code")
}

func (r *Registry) ByCode(ctx context.Context, code string) (*Coupon, error) {
	var c Coupon
	if err := cache.GetJSON(ctx, r.cache, couponPrefix+code, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ForUser lists the coupons issued to userID, newest expiry first.
func (r *Registry) ForUser(ctx context.Context, userID string) ([]Coupon, error) {
	codes, err := r.cache.List(ctx, userCouponPrefix+userID+"/", "")
	if err != nil {
		return nil, err
	}
	// paged listings may repeat a key
	codes = lo.Uniq(codes)
	out := make([]Coupon, 0, len(codes))
	for _, code := range codes {
		c, err := r.ByCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("load coupon %s: %w", code, err)
		}
		out = append(out, *c)
	}
	slices.SortFunc(out, func(a, b Coupon) int {
		return b.ExpiryDate.Compare(a.ExpiryDate)
	})
	return out, nil
}

func NewCode() (string, error) {
	b := make([]byte, codeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate coupon code: %w", err)
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return string(b), nil
}
