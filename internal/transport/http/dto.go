package http

import (
	"time"

	"github.com/polimarket/market-service/internal/domain"
)

type ErrorBody struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type IDResponse struct {
	ID int64 `json:"id"`
}

type BecomeDeliveryRequest struct {
	SecretCode string `json:"secret_code"`
}

type UserItem struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	ProfileImage *string   `json:"profile_image"`
	IsDelivery   bool      `json:"is_delivery"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserRef is the short form embedded in chat list items.
type UserRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type ProductItem struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	ImageURL    *string   `json:"image_url"`
	SellerID    int64     `json:"seller_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type ProductsListResponse struct {
	Items      []ProductItem `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

type ProductRef struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	ImageURL *string `json:"image_url"`
}

type ChatItem struct {
	ID               int64     `json:"id"`
	ProductID        int64     `json:"product_id"`
	BuyerID          int64     `json:"buyer_id"`
	SellerID         int64     `json:"seller_id"`
	Kind             string    `json:"kind"`
	OrderID          *int64    `json:"order_id,omitempty"`
	PaymentConfirmed bool      `json:"payment_confirmed"`
	CreatedAt        time.Time `json:"created_at"`
}

// StartChatResponse keeps the chat_id key older clients read alongside the
// full chat.
type StartChatResponse struct {
	ChatID int64 `json:"chat_id"`
	ChatItem
}

type ChatListItem struct {
	ChatItem
	Product     ProductRef `json:"product"`
	Buyer       UserRef    `json:"buyer"`
	Seller      UserRef    `json:"seller"`
	LastMessage *string    `json:"last_message"`
}

type SendMessageRequest struct {
	Text *string `json:"text"`
}

type MessageItem struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chat_id"`
	AuthorID  int64     `json:"author_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatHistoryResponse struct {
	Items      []MessageItem `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

type CreateOrderRequest struct {
	ProductID     int64   `json:"product_id"`
	Faculty       string  `json:"faculty"`
	Building      string  `json:"building"`
	Classroom     *string `json:"classroom"`
	PaymentMethod string  `json:"payment_method"`
}

type OrderItem struct {
	ID            int64     `json:"id"`
	BuyerID       int64     `json:"buyer_id"`
	ProductID     int64     `json:"product_id"`
	SellerID      int64     `json:"seller_id"`
	DeliveryID    *int64    `json:"delivery_id"`
	Faculty       string    `json:"faculty"`
	Building      string    `json:"building"`
	Classroom     *string   `json:"classroom"`
	PaymentMethod string    `json:"payment_method"`
	Fee           float64   `json:"fee"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type AcceptOrderResponse struct {
	Order OrderItem `json:"order"`
	Chat  ChatItem  `json:"chat"`
}

type FeeResponse struct {
	Faculty string  `json:"faculty"`
	Fee     float64 `json:"fee"`
}

func toUserItem(u *domain.User) UserItem {
	return UserItem{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		ProfileImage: u.ProfileImage,
		IsDelivery:   u.IsDelivery,
		CreatedAt:    u.CreatedAt,
	}
}

func toProductItem(p *domain.Product) ProductItem {
	return ProductItem{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Category:    string(p.Category),
		ImageURL:    p.ImageURL,
		SellerID:    p.SellerID,
		CreatedAt:   p.CreatedAt,
	}
}

func toProductItems(ps []domain.Product) []ProductItem {
	out := make([]ProductItem, 0, len(ps))
	for i := range ps {
		out = append(out, toProductItem(&ps[i]))
	}
	return out
}

func toChatItem(c *domain.Chat) ChatItem {
	return ChatItem{
		ID:               c.ID,
		ProductID:        c.ProductID,
		BuyerID:          c.BuyerID,
		SellerID:         c.SellerID,
		Kind:             string(c.Kind),
		OrderID:          c.OrderID,
		PaymentConfirmed: c.PaymentConfirmed,
		CreatedAt:        c.CreatedAt,
	}
}

func toChatListItem(s *domain.ChatSummary) ChatListItem {
	return ChatListItem{
		ChatItem:    toChatItem(&s.Chat),
		Product:     ProductRef{ID: s.ProductID, Title: s.ProductTitle, ImageURL: s.ProductImage},
		Buyer:       UserRef{ID: s.BuyerID, Name: s.BuyerName},
		Seller:      UserRef{ID: s.SellerID, Name: s.SellerName},
		LastMessage: s.LastMessage,
	}
}

func toMessageItem(m *domain.Message) MessageItem {
	return MessageItem{
		ID:        m.ID,
		ChatID:    m.ChatID,
		AuthorID:  m.AuthorID,
		Text:      m.Text,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

func toOrderItem(o *domain.Order) OrderItem {
	return OrderItem{
		ID:            o.ID,
		BuyerID:       o.BuyerID,
		ProductID:     o.ProductID,
		SellerID:      o.SellerID,
		DeliveryID:    o.DeliveryID,
		Faculty:       o.Faculty,
		Building:      o.Building,
		Classroom:     o.Classroom,
		PaymentMethod: string(o.PaymentMethod),
		Fee:           o.Fee,
		Status:        string(o.Status),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func toOrderItems(os []domain.Order) []OrderItem {
	out := make([]OrderItem, 0, len(os))
	for i := range os {
		out = append(out, toOrderItem(&os[i]))
	}
	return out
}
