package recipes

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/samber/lo"

	"suvai/internal/cache"
	"suvai/internal/config"
)

const generatedPrefix = "generated/"

var generatedID = regexp.MustCompile(`^generated-\d+$`)

// Catalog serves the seeded recipes plus anything Generate has produced.
// Every lookup waits for the configured latency first.
type Catalog struct {
	recipes []Recipe
	byID    map[string]int
	cache   cache.Cache
	latency time.Duration
	now     func() time.Time
	pick    func(n int) int
}

func NewCatalog(cfg config.CatalogConfig, c cache.Cache) *Catalog {
	return newCatalog(seedRecipes(), cfg.Latency, c)
}

func newCatalog(seed []Recipe, latency time.Duration, c cache.Cache) *Catalog {
	byID := make(map[string]int, len(seed))
	for i, r := range seed {
		byID[r.ID] = i
	}
	return &Catalog{
		recipes: seed,
		byID:    byID,
		cache:   c,
		latency: latency,
		now:     time.Now,
		pick:    randomIndex,
	}
}

func (c *Catalog) wait(ctx context.Context) error {
	if c.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(c.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Catalog) All(ctx context.Context) ([]Recipe, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return clone(c.recipes), nil
}

// ByID looks in the seed first and then in generated recipes.
func (c *Catalog) ByID(ctx context.Context, id string) (Recipe, error) {
	if err := c.wait(ctx); err != nil {
		return Recipe{}, err
	}
	if i, ok := c.byID[id]; ok {
		return c.recipes[i], nil
	}
	if !generatedID.MatchString(id) || c.cache == nil {
		return Recipe{}, ErrNotFound
	}
	var r Recipe
	if err := cache.GetJSON(ctx, c.cache, generatedPrefix+id, &r); err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return Recipe{}, ErrNotFound
		}
		return Recipe{}, fmt.Errorf("load generated recipe %s: %w", id, err)
	}
	return r, nil
}

func (c *Catalog) ByCategory(ctx context.Context, category string) ([]Recipe, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return lo.Filter(c.recipes, func(r Recipe, _ int) bool {
		return strings.EqualFold(r.Category, category)
	}), nil
}

func (c *Catalog) Popular(ctx context.Context) ([]Recipe, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return lo.Filter(c.recipes, func(r Recipe, _ int) bool {
		return r.IsPopular
	}), nil
}

// Search matches query case-insensitively against title, description and
// ingredient names. An empty query matches everything.
func (c *Catalog) Search(ctx context.Context, query string) ([]Recipe, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return clone(c.recipes), nil
	}
	return lo.Filter(c.recipes, func(r Recipe, _ int) bool {
		return r.matches(q)
	}), nil
}

func (r Recipe) matches(q string) bool {
	if strings.Contains(strings.ToLower(r.Title), q) || strings.Contains(strings.ToLower(r.Description), q) {
		return true
	}
	return lo.ContainsBy(r.Ingredients, func(i Ingredient) bool {
		return strings.Contains(strings.ToLower(i.Name), q)
	})
}

func clone(rs []Recipe) []Recipe {
	out := make([]Recipe, len(rs))
	copy(out, rs)
	return out
}
