package coupons

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"suvai/internal/cart"
)

type CartStore interface {
	Load(ctx context.Context, owner string) (*cart.Cart, error)
	Update(ctx context.Context, owner string, fn func(*cart.Cart) error) (*cart.Cart, error)
}

// Apply validates code against the owner's current subtotal and, when valid,
// commits the code and discount to the cart. No lock is held while the
// validator runs, so the cart may change underneath it; the discount is stored
// as returned and FinalAmount clamps at zero.
func Apply(ctx context.Context, v Validator, store CartStore, owner, code string) (Result, *cart.Cart, error) {
	code = strings.TrimSpace(code)

	current, err := store.Load(ctx, owner)
	if err != nil {
		return Result{}, nil, err
	}
	subtotal := current.TotalAmount()

	res, err := v.Validate(ctx, code, subtotal)
	if err != nil {
		return Result{}, nil, fmt.Errorf("validate coupon: %w", err)
	}
	if !res.Valid {
		slog.InfoContext(ctx, "coupon rejected", "owner", owner, "code", code, "message", res.Message)
		return res, current, nil
	}

	updated, err := store.Update(ctx, owner, func(c *cart.Cart) error {
		c.SetCouponCode(&code)
		c.SetDiscountAmount(res.DiscountAmount)
		return nil
	})
	if err != nil {
		return Result{}, nil, err
	}
	slog.InfoContext(ctx, "coupon applied", "owner", owner, "code", code, "discount", res.DiscountAmount.String())
	return res, updated, nil
}

// Remove drops the coupon code and the discount together.
func Remove(ctx context.Context, store CartStore, owner string) (*cart.Cart, error) {
	return store.Update(ctx, owner, func(c *cart.Cart) error {
		c.SetCouponCode(nil)
		c.SetDiscountAmount(decimal.Zero)
		return nil
	})
}
