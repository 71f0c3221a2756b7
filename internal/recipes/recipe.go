package recipes

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"suvai/internal/cart"
)

var ErrNotFound = errors.New("recipe not found")

type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

type Ingredient struct {
	Name     string          `json:"name"`
	Quantity string          `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type Recipe struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Category         string          `json:"category"`
	Ingredients      []Ingredient    `json:"ingredients"`
	Instructions     []string        `json:"instructions"`
	CookTime         int             `json:"cookTime"` // minutes
	Servings         int             `json:"servings"`
	Difficulty       Difficulty      `json:"difficulty"`
	ImageURL         string          `json:"imageUrl"`
	YoutubeID        string          `json:"youtubeId"`
	IngredientsPrice decimal.Decimal `json:"ingredientsPrice"`
	ReadyMadePrice   decimal.Decimal `json:"readyMadePrice"`
	IsVegetarian     bool            `json:"isVegetarian"`
	IsPopular        bool            `json:"isPopular,omitempty"`
}

// PriceFor returns what one unit of the recipe costs in the given purchase mode.
func (r Recipe) PriceFor(t cart.PurchaseType) (decimal.Decimal, error) {
	switch t {
	case cart.Ingredients:
		return r.IngredientsPrice, nil
	case cart.ReadyMade:
		return r.ReadyMadePrice, nil
	default:
		return decimal.Zero, fmt.Errorf("invalid purchase type %q", t)
	}
}

// LineItemFor builds the cart line for one unit of r. The cart assigns the id.
func LineItemFor(r Recipe, t cart.PurchaseType) (cart.LineItem, error) {
	price, err := r.PriceFor(t)
	if err != nil {
		return cart.LineItem{}, err
	}
	return cart.LineItem{
		RecipeID:   r.ID,
		RecipeName: r.Title,
		ImageURL:   r.ImageURL,
		Type:       t,
		Price:      price,
		Quantity:   1,
	}, nil
}
