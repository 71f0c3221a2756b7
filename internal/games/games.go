// Package games holds the mini-games that reward players with coupons.
package games

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"suvai/internal/config"
	"suvai/internal/coupons"
)

var ErrNotFound = errors.New("game not found")

const (
	rewardMaxDiscount = 500
	rewardMinPurchase = 100
	rewardValidity    = 7 * 24 * time.Hour
)

type Game struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	MaxReward   int    `json:"maxReward"` // percent
}

var seed = []Game{
	{
		ID:          "game1",
		Name:        "Spice Matcher",
		Description: "Match pairs of spices to win discounts!",
		ImageURL:    "https://images.pexels.com/photos/4033326/pexels-photo-4033326.jpeg",
		MaxReward:   15,
	},
	{
		ID:          "game2",
		Name:        "Recipe Rush",
		Description: "Race against time to prepare virtual dishes!",
		ImageURL:    "https://images.pexels.com/photos/3184183/pexels-photo-3184183.jpeg",
		MaxReward:   20,
	},
	{
		ID:          "game3",
		Name:        "South Indian Trivia",
		Description: "Test your knowledge of South Indian cuisine!",
		ImageURL:    "https://images.pexels.com/photos/5946081/pexels-photo-5946081.jpeg",
		MaxReward:   10,
	},
}

type issuer interface {
	Issue(ctx context.Context, userID string, c coupons.Coupon) (coupons.Coupon, error)
}

type Service struct {
	games   []Game
	issuer  issuer
	latency time.Duration
	now     func() time.Time
}

func NewService(cfg config.CatalogConfig, registry *coupons.Registry) *Service {
	return &Service{
		games:   seed,
		issuer:  registry,
		latency: cfg.Latency,
		now:     time.Now,
	}
}

func (s *Service) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *Service) All(ctx context.Context) ([]Game, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	out := make([]Game, len(s.games))
	copy(out, s.games)
	return out, nil
}

func (s *Service) ByID(ctx context.Context, id string) (Game, error) {
	if err := s.wait(ctx); err != nil {
		return Game{}, err
	}
	for _, g := range s.games {
		if g.ID == id {
			return g, nil
		}
	}
	return Game{}, ErrNotFound
}

// RewardPercentage scales a 0-100 score to the game's reward, rounding down.
// Scores outside the range are clamped.
func (g Game) RewardPercentage(score int) int {
	score = min(max(score, 0), 100)
	return score * g.MaxReward / 100
}

// IssueCoupon rewards userID for a finished round of gameID.
func (s *Service) IssueCoupon(ctx context.Context, userID, gameID string, score int) (coupons.Coupon, error) {
	g, err := s.ByID(ctx, gameID)
	if err != nil {
		return coupons.Coupon{}, err
	}
	c := coupons.Coupon{
		DiscountPercentage: g.RewardPercentage(score),
		MaxDiscount:        decimal.NewFromInt(rewardMaxDiscount),
		MinPurchase:        decimal.NewFromInt(rewardMinPurchase),
		ExpiryDate:         s.now().Add(rewardValidity),
		IsActive:           true,
		CreatedBy:          "game",
		UsageLimit:         1,
	}
	issued, err := s.issuer.Issue(ctx, userID, c)
	if err != nil {
		return coupons.Coupon{}, fmt.Errorf("issue coupon for %s: %w", gameID, err)
	}
	slog.InfoContext(ctx, "issued game coupon", "game", gameID, "user_id", userID, "score", score, "percentage", issued.DiscountPercentage)
	return issued, nil
}
