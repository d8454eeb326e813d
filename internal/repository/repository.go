// Package repository declares the persistence contracts the services depend
// on. internal/postgres is the production implementation and
// internal/repository/memory the in-process one.
package repository

import (
	"context"
	"errors"

	"github.com/polimarket/market-service/internal/domain"
)

var (
	ErrNotFound      = errors.New("repository: not found")
	ErrAlreadyExists = errors.New("repository: already exists")
	ErrConflict      = errors.New("repository: conflict")
)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	SetDelivery(ctx context.Context, id int64, isDelivery bool) error
}

type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	// List pages newest first.
	List(ctx context.Context, limit int, cursor string) ([]domain.Product, string, error)
	ListBySeller(ctx context.Context, sellerID int64) ([]domain.Product, error)
}

type FavoriteRepository interface {
	// Add is idempotent.
	Add(ctx context.Context, userID, productID int64) error
	Remove(ctx context.Context, userID, productID int64) error
	ListProducts(ctx context.Context, userID int64) ([]domain.Product, error)
}

type ChatRepository interface {
	Create(ctx context.Context, c *domain.Chat) error
	GetByID(ctx context.Context, id int64) (*domain.Chat, error)
	FindSale(ctx context.Context, productID, buyerID int64) (*domain.Chat, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.ChatSummary, error)
	ConfirmPayment(ctx context.Context, id int64) error
}

type MessageRepository interface {
	Create(ctx context.Context, m *domain.Message) error
	// History pages oldest first, strictly after cursor.
	History(ctx context.Context, chatID int64, cursor string, limit int) ([]domain.Message, string, error)
}

type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	ListByBuyer(ctx context.Context, buyerID int64) ([]domain.Order, error)
	ListByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)
	// Transition moves the order from -> to, failing with ErrConflict if it is
	// no longer in from.
	Transition(ctx context.Context, id int64, from, to domain.OrderStatus) (*domain.Order, error)
	// Accept marks a pending order accepted by deliveryID and opens the
	// delivery chat in the same unit of work.
	Accept(ctx context.Context, id, deliveryID int64) (*domain.Order, *domain.Chat, error)
}
