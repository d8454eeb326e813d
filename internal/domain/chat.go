package domain

import "time"

type ChatKind string

const (
	ChatKindSale     ChatKind = "sale"
	ChatKindDelivery ChatKind = "delivery"
)

// Chat is a two-party room about one product. For delivery rooms SellerID
// holds the delivery agent and OrderID the accepted order.
type Chat struct {
	ID               int64     `db:"id"`
	ProductID        int64     `db:"product_id"`
	BuyerID          int64     `db:"buyer_id"`
	SellerID         int64     `db:"seller_id"`
	Kind             ChatKind  `db:"kind"`
	OrderID          *int64    `db:"order_id"`
	PaymentConfirmed bool      `db:"payment_confirmed"`
	CreatedAt        time.Time `db:"created_at"`
}

func (c *Chat) HasParticipant(userID int64) bool {
	return userID == c.BuyerID || userID == c.SellerID
}

// ChatSummary is a chat joined with the data a chat list needs.
type ChatSummary struct {
	Chat
	ProductTitle string
	ProductImage *string
	BuyerName    string
	SellerName   string
	LastMessage  *string
}
