package domain

import (
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderAccepted  OrderStatus = "accepted"
	OrderRejected  OrderStatus = "rejected"
	OrderCompleted OrderStatus = "completed"
)

// CanTransition: pending -> accepted|rejected, accepted -> completed.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	switch s {
	case OrderPending:
		return to == OrderAccepted || to == OrderRejected
	case OrderAccepted:
		return to == OrderCompleted
	default:
		return false
	}
}

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentTransfer PaymentMethod = "transfer"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case PaymentCash, PaymentTransfer:
		return m, nil
	default:
		return "", ErrInvalidInput
	}
}

type Order struct {
	ID            int64         `db:"id"`
	BuyerID       int64         `db:"buyer_id"`
	ProductID     int64         `db:"product_id"`
	SellerID      int64         `db:"seller_id"`
	DeliveryID    *int64        `db:"delivery_id"`
	Faculty       string        `db:"faculty"`
	Building      string        `db:"building"`
	Classroom     *string       `db:"classroom"`
	PaymentMethod PaymentMethod `db:"payment_method"`
	Fee           float64       `db:"fee"`
	Status        OrderStatus   `db:"status"`
	CreatedAt     time.Time     `db:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at"`
}
