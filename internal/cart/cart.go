// Package cart holds the shopping cart state container. A Cart owns its line
// items, the active coupon code and the discount amount; every total a caller
// shows is derived here.
package cart

import (
	"fmt"
	"slices"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// MaxQuantity bounds a single line. Merges past it saturate.
const MaxQuantity = 99

var ErrInvalidQuantity = fmt.Errorf("quantity must be between 1 and %d", MaxQuantity)

type PurchaseType string

const (
	Ingredients PurchaseType = "ingredients"
	ReadyMade   PurchaseType = "readyMade"
)

func (t PurchaseType) Valid() bool {
	return t == Ingredients || t == ReadyMade
}

func ParsePurchaseType(s string) (PurchaseType, error) {
	t := PurchaseType(s)
	if !t.Valid() {
		return "", fmt.Errorf("invalid purchase type %q", s)
	}
	return t, nil
}

type LineItem struct {
	ID         string          `json:"id"`
	RecipeID   string          `json:"recipeId"`
	RecipeName string          `json:"recipeName"`
	ImageURL   string          `json:"imageUrl"`
	Type       PurchaseType    `json:"type"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
}

func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// State is the persisted shape of a cart. CouponCode and DiscountAmount are
// set independently of each other.
type State struct {
	Items          []LineItem      `json:"items"`
	CouponCode     *string         `json:"couponCode"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
}

type lineKey struct {
	recipeID string
	kind     PurchaseType
}

type Cart struct {
	state State
	index map[lineKey]int
	now   func() time.Time
}

type Option func(*Cart)

// WithClock overrides the clock used to stamp new line item ids.
func WithClock(now func() time.Time) Option {
	return func(c *Cart) { c.now = now }
}

func New(opts ...Option) *Cart {
	return FromState(State{}, opts...)
}

// FromState rehydrates a cart from a stored state. The state is copied.
func FromState(s State, opts ...Option) *Cart {
	c := &Cart{
		state: copyState(s),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.reindex()
	return c
}

func (c *Cart) reindex() {
	c.index = make(map[lineKey]int, len(c.state.Items))
	for i, item := range c.state.Items {
		k := lineKey{item.RecipeID, item.Type}
		if _, ok := c.index[k]; !ok {
			c.index[k] = i
		}
	}
}

// AddItem merges item into the line with the same recipe and purchase type, or
// appends it under a freshly generated id. The added quantity is clamped to
// [1, MaxQuantity] and a merged line never exceeds MaxQuantity.
func (c *Cart) AddItem(item LineItem) {
	item.Quantity = clampQuantity(item.Quantity)
	k := lineKey{item.RecipeID, item.Type}
	if i, ok := c.index[k]; ok {
		line := &c.state.Items[i]
		line.Quantity = clampQuantity(line.Quantity)
		if item.Quantity > MaxQuantity-line.Quantity {
			line.Quantity = MaxQuantity
		} else {
			line.Quantity += item.Quantity
		}
		return
	}
	item.ID = fmt.Sprintf("%s-%s-%d", item.RecipeID, item.Type, c.now().UnixMilli())
	c.state.Items = append(c.state.Items, item)
	c.index[k] = len(c.state.Items) - 1
}

func ValidQuantity(q int) bool {
	return q >= 1 && q <= MaxQuantity
}

func clampQuantity(q int) int {
	return min(max(q, 1), MaxQuantity)
}

// RemoveItem drops the line with id. Unknown ids are ignored.
func (c *Cart) RemoveItem(id string) {
	before := len(c.state.Items)
	c.state.Items = slices.DeleteFunc(c.state.Items, func(item LineItem) bool {
		return item.ID == id
	})
	if len(c.state.Items) != before {
		c.reindex()
	}
}

// UpdateQuantity replaces the quantity of the line with id. Unknown ids are
// ignored; quantities outside [1, MaxQuantity] are rejected and leave the cart
// unchanged.
func (c *Cart) UpdateQuantity(id string, quantity int) error {
	if !ValidQuantity(quantity) {
		return ErrInvalidQuantity
	}
	_, i, ok := lo.FindIndexOf(c.state.Items, func(item LineItem) bool {
		return item.ID == id
	})
	if !ok {
		return nil
	}
	c.state.Items[i].Quantity = quantity
	return nil
}

func (c *Cart) Clear() {
	c.state = State{}
	c.reindex()
}

func (c *Cart) SetCouponCode(code *string) {
	if code == nil {
		c.state.CouponCode = nil
		return
	}
	v := *code
	c.state.CouponCode = &v
}

// SetDiscountAmount stores amount as is; negative amounts are stored as zero.
func (c *Cart) SetDiscountAmount(amount decimal.Decimal) {
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	c.state.DiscountAmount = amount
}

func (c *Cart) Items() []LineItem {
	return slices.Clone(c.state.Items)
}

func (c *Cart) Item(id string) (LineItem, bool) {
	return lo.Find(c.state.Items, func(item LineItem) bool {
		return item.ID == id
	})
}

func (c *Cart) CouponCode() *string {
	return c.State().CouponCode
}

func (c *Cart) DiscountAmount() decimal.Decimal {
	return c.state.DiscountAmount
}

func (c *Cart) Empty() bool {
	return len(c.state.Items) == 0
}

func (c *Cart) TotalItems() int {
	return lo.SumBy(c.state.Items, func(item LineItem) int {
		return item.Quantity
	})
}

func (c *Cart) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.state.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// FinalAmount never goes below zero, however large the discount.
func (c *Cart) FinalAmount() decimal.Decimal {
	return decimal.Max(c.TotalAmount().Sub(c.state.DiscountAmount), decimal.Zero)
}

// State returns a copy safe to serialize or hand to another goroutine.
func (c *Cart) State() State {
	return copyState(c.state)
}

type Totals struct {
	TotalItems     int             `json:"totalItems"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	FinalAmount    decimal.Decimal `json:"finalAmount"`
}

func (c *Cart) Totals() Totals {
	return Totals{
		TotalItems:     c.TotalItems(),
		TotalAmount:    c.TotalAmount(),
		DiscountAmount: c.state.DiscountAmount,
		FinalAmount:    c.FinalAmount(),
	}
}

func copyState(s State) State {
	out := State{
		Items:          slices.Clone(s.Items),
		DiscountAmount: s.DiscountAmount,
	}
	if out.Items == nil {
		out.Items = []LineItem{}
	}
	if s.CouponCode != nil {
		code := *s.CouponCode
		out.CouponCode = &code
	}
	return out
}
