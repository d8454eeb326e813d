package postgres

import (
	"context"
	"fmt"

	"github.com/polimarket/market-service/internal/domain"
	"github.com/polimarket/market-service/internal/postgres/queries"
	"github.com/polimarket/market-service/internal/repository"

	"github.com/jackc/pgx/v5"
)

type ChatRepo struct {
	q querier
}

func NewChatRepo(q querier) *ChatRepo {
	return &ChatRepo{q: q}
}

func NewChatRepoFromTx(tx pgx.Tx) *ChatRepo {
	return &ChatRepo{q: tx}
}

func (r *ChatRepo) Create(ctx context.Context, c *domain.Chat) error {
	if c.Kind == "" {
		c.Kind = domain.ChatKindSale
	}
	err := r.q.QueryRow(ctx, queries.QueryCreateChat,
		c.ProductID, c.BuyerID, c.SellerID, string(c.Kind), c.OrderID,
	).Scan(&c.ID, &c.CreatedAt)

	return mapPgError(err)
}

func (r *ChatRepo) GetByID(ctx context.Context, id int64) (*domain.Chat, error) {
	c, err := scanChat(r.q.QueryRow(ctx, queries.QueryGetChatByID, id))
	if err != nil {
		return nil, mapPgError(err)
	}

	return c, nil
}

func (r *ChatRepo) FindSale(ctx context.Context, productID, buyerID int64) (*domain.Chat, error) {
	c, err := scanChat(r.q.QueryRow(ctx, queries.QueryFindSaleChat, productID, buyerID))
	if err != nil {
		return nil, mapPgError(err)
	}

	return c, nil
}

func (r *ChatRepo) ListByUser(ctx context.Context, userID int64) ([]domain.ChatSummary, error) {
	rows, err := r.q.Query(ctx, queries.QueryListChatsByUser, userID)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	out := make([]domain.ChatSummary, 0, 8)
	for rows.Next() {
		var (
			s    domain.ChatSummary
			kind string
		)
		if err := rows.Scan(
			&s.ID, &s.ProductID, &s.BuyerID, &s.SellerID, &kind, &s.OrderID, &s.PaymentConfirmed, &s.CreatedAt,
			&s.ProductTitle, &s.ProductImage, &s.BuyerName, &s.SellerName,
			&s.LastMessage,
		); err != nil {
			return nil, err
		}
		s.Kind = domain.ChatKind(kind)
		out = append(out, s)
	}

	return out, rows.Err()
}

func (r *ChatRepo) ConfirmPayment(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, queries.QueryConfirmChatPayment, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func scanChat(row pgx.Row) (*domain.Chat, error) {
	var (
		c    domain.Chat
		kind string
	)
	if err := row.Scan(&c.ID, &c.ProductID, &c.BuyerID, &c.SellerID, &kind, &c.OrderID, &c.PaymentConfirmed, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Kind = domain.ChatKind(kind)

	return &c, nil
}

type MessageRepo struct {
	q querier
}

func NewMessageRepo(q querier) *MessageRepo {
	return &MessageRepo{q: q}
}

func (r *MessageRepo) Create(ctx context.Context, m *domain.Message) error {
	err := r.q.QueryRow(ctx, queries.QueryCreateMessage, m.ChatID, m.AuthorID, m.Text).
		Scan(&m.ID, &m.CreatedAt)

	return mapPgError(err)
}

// History returns messages oldest first with keyset pagination on (created_at, id).
func (r *MessageRepo) History(ctx context.Context, chatID int64, cursor string, limit int) ([]domain.Message, string, error) {
	cur, err := repository.DecodeCursor(cursor)
	if err != nil {
		return nil, "", fmt.Errorf("decode cursor: %w", err)
	}

	var createdAt, id any
	if cur != nil {
		createdAt, id = cur.CreatedAt, cur.ID
	}

	rows, err := r.q.Query(ctx, queries.QueryMessageHistory, chatID, createdAt, id, limit)
	if err != nil {
		return nil, "", mapPgError(err)
	}
	defer rows.Close()

	out := make([]domain.Message, 0, limit)
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.AuthorID, &m.Text, &m.CreatedAt); err != nil {
			return nil, "", err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	var next string
	if limit > 0 && len(out) == limit {
		last := out[len(out)-1]
		if c, e := repository.EncodeCursor(repository.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}); e == nil {
			next = c
		}
	}

	return out, next, nil
}
