// Package orders records checkouts. There is no payment or fulfilment
// processing: an order is a snapshot of the cart plus a status an admin moves
// along by hand.
package orders

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"suvai/internal/cart"
)

var (
	ErrNotFound      = errors.New("order not found")
	ErrEmptyCart     = errors.New("cart is empty")
	ErrInvalidStatus = errors.New("invalid order status")
)

type Status string

const (
	Pending   Status = "pending"
	Confirmed Status = "confirmed"
	Rejected  Status = "rejected"
	Delivered Status = "delivered"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case Pending, Confirmed, Rejected, Delivered:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

type PaymentMethod string

const (
	CashOnDelivery PaymentMethod = "cod"
	Online         PaymentMethod = "online"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch pm := PaymentMethod(s); pm {
	case "":
		return CashOnDelivery, nil
	case CashOnDelivery, Online:
		return pm, nil
	default:
		return "", fmt.Errorf("invalid payment method %q", s)
	}
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	Items           []cart.LineItem `json:"items"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	DiscountAmount  decimal.Decimal `json:"discountAmount"`
	FinalAmount     decimal.Decimal `json:"finalAmount"`
	CouponCode      *string         `json:"couponCode,omitempty"`
	Status          Status          `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	DeliveryAddress string          `json:"deliveryAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
}

// NewOrder is what checkout supplies. Amounts are derived from Items and
// DiscountAmount.
type NewOrder struct {
	UserID          string
	Items           []cart.LineItem
	DiscountAmount  decimal.Decimal
	CouponCode      *string
	DeliveryAddress string
	PaymentMethod   PaymentMethod
}

// FromCart snapshots c into a NewOrder.
func FromCart(userID string, c *cart.Cart, address string, pm PaymentMethod) NewOrder {
	return NewOrder{
		UserID:          userID,
		Items:           c.Items(),
		DiscountAmount:  c.DiscountAmount(),
		CouponCode:      c.CouponCode(),
		DeliveryAddress: address,
		PaymentMethod:   pm,
	}
}
