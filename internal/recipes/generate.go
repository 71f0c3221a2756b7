package recipes

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/samber/lo"

	"suvai/internal/cache"
)

type Diet string

const (
	Veg    Diet = "veg"
	NonVeg Diet = "non-veg"
	Both   Diet = "both"
)

type GenerationInput struct {
	Diet        Diet     `json:"diet"`
	MealType    string   `json:"mealType"`
	Ingredients []string `json:"ingredients"`
	SpiceLevel  string   `json:"spiceLevel"`
	CookTime    int      `json:"cookTime"` // max minutes, 0 for any
}

func randomIndex(n int) int {
	return rand.IntN(n)
}

func (d Diet) allows(r Recipe) bool {
	switch d {
	case Veg:
		return r.IsVegetarian
	case NonVeg:
		return !r.IsVegetarian
	default:
		return true
	}
}

func (in GenerationInput) matches(r Recipe) bool {
	if !in.Diet.allows(r) {
		return false
	}
	if in.CookTime > 0 && r.CookTime > in.CookTime {
		return false
	}
	wanted := lo.FilterMap(in.Ingredients, func(s string, _ int) (string, bool) {
		s = strings.ToLower(strings.TrimSpace(s))
		return s, s != ""
	})
	if len(wanted) == 0 {
		return true
	}
	return lo.SomeBy(wanted, func(w string) bool {
		return lo.ContainsBy(r.Ingredients, func(i Ingredient) bool {
			return strings.Contains(strings.ToLower(i.Name), w)
		})
	})
}

// Generate picks a recipe fitting the input. When nothing fits every filter it
// falls back to anything matching the diet. The pick is stored so ByID can
// find it again.
func (c *Catalog) Generate(ctx context.Context, in GenerationInput) (Recipe, error) {
	if err := c.wait(ctx); err != nil {
		return Recipe{}, err
	}
	candidates := lo.Filter(c.recipes, func(r Recipe, _ int) bool { return in.matches(r) })
	if len(candidates) == 0 {
		candidates = lo.Filter(c.recipes, func(r Recipe, _ int) bool { return in.Diet.allows(r) })
	}
	if len(candidates) == 0 {
		return Recipe{}, ErrNotFound
	}

	r := candidates[c.pick(len(candidates))]
	r.ID = fmt.Sprintf("generated-%d", c.now().UnixMilli())
	r.IsPopular = false

	if c.cache != nil {
		if err := cache.PutJSON(ctx, c.cache, generatedPrefix+r.ID, r, cache.Unconditional()); err != nil {
			return Recipe{}, fmt.Errorf("store generated recipe: %w", err)
		}
	}
	slog.InfoContext(ctx, "generated recipe", "id", r.ID, "title", r.Title, "diet", in.Diet, "candidates", len(candidates))
	return r, nil
}
