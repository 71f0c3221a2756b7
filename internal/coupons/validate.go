package coupons

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"suvai/internal/config"
)

const defaultPercentage = 10

type Result struct {
	Valid          bool            `json:"valid"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Message        string          `json:"message,omitempty"`
}

type Validator interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (Result, error)
}

// Service validates codes against the subtotal they would apply to. It does
// not look codes up anywhere: the percentage comes from the code itself.
type Service struct {
	latency     time.Duration
	minPurchase decimal.Decimal
	maxDiscount decimal.Decimal
}

var _ Validator = (*Service)(nil)

func NewService(cfg config.CouponsConfig) *Service {
	return &Service{
		latency:     cfg.Latency,
		minPurchase: decimal.NewFromInt(cfg.MinPurchase),
		maxDiscount: decimal.NewFromInt(cfg.MaxDiscount),
	}
}

func (s *Service) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (Result, error) {
	if err := sleep(ctx, s.latency); err != nil {
		return Result{}, err
	}

	if code == "" {
		return Result{DiscountAmount: decimal.Zero, Message: "No coupon code provided"}, nil
	}

	pct := Percentage(code)
	discount := decimal.Min(subtotal.Mul(decimal.NewFromInt(int64(pct))).Div(decimal.NewFromInt(100)), s.maxDiscount)

	if subtotal.LessThan(s.minPurchase) {
		return Result{
			DiscountAmount: decimal.Zero,
			Message:        fmt.Sprintf("Minimum purchase of ₹%s required", s.minPurchase.String()),
		}, nil
	}

	return Result{
		Valid:          true,
		DiscountAmount: discount,
		Message:        fmt.Sprintf("Discount of ₹%s applied!", discount.StringFixed(2)),
	}, nil
}

// Percentage reads the leading digits of the last two characters of code.
// Anything unparseable, or zero, falls back to 10.
func Percentage(code string) int {
	runes := []rune(code)
	if len(runes) > 2 {
		runes = runes[len(runes)-2:]
	}
	tail := strings.TrimLeftFunc(string(runes), unicode.IsSpace)
	n := 0
	for _, r := range tail {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	if n == 0 {
		return defaultPercentage
	}
	return n
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
