package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/polimarket/market-service/internal/domain"
	"github.com/polimarket/market-service/internal/postgres/queries"
	"github.com/polimarket/market-service/internal/repository"

	"github.com/jackc/pgx/v5"
)

type OrderRepo struct {
	db txBeginner
}

func NewOrderRepo(db txBeginner) *OrderRepo {
	return &OrderRepo{db: db}
}

func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	if o.Status == "" {
		o.Status = domain.OrderPending
	}
	err := r.db.QueryRow(ctx, queries.QueryCreateOrder,
		o.BuyerID, o.ProductID, o.SellerID, o.Faculty, o.Building, nullIfBlank(o.Classroom),
		string(o.PaymentMethod), o.Fee, string(o.Status),
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)

	return mapPgError(err)
}

func (r *OrderRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, queries.QueryGetOrderByID, id))
	if err != nil {
		return nil, mapPgError(err)
	}

	return o, nil
}

func (r *OrderRepo) ListByBuyer(ctx context.Context, buyerID int64) ([]domain.Order, error) {
	return r.list(ctx, queries.QueryListOrdersByBuyer, buyerID)
}

func (r *OrderRepo) ListByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	return r.list(ctx, queries.QueryListOrdersByStatus, string(status))
}

func (r *OrderRepo) Transition(ctx context.Context, id int64, from, to domain.OrderStatus) (*domain.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, queries.QueryTransitionOrder, id, string(from), string(to)))
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, mapPgError(err)
	}

	return nil, r.missingOrConflict(ctx, r.db, id)
}

// Accept flips the order and creates the delivery chat atomically.
func (r *OrderRepo) Accept(ctx context.Context, id, deliveryID int64) (*domain.Order, *domain.Chat, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	o, err := scanOrder(tx.QueryRow(ctx, queries.QueryAcceptOrder, id, deliveryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, r.missingOrConflict(ctx, tx, id)
		}
		return nil, nil, mapPgError(err)
	}

	orderID := o.ID
	chat := &domain.Chat{
		ProductID: o.ProductID,
		BuyerID:   o.BuyerID,
		SellerID:  deliveryID,
		Kind:      domain.ChatKindDelivery,
		OrderID:   &orderID,
	}
	if err := NewChatRepoFromTx(tx).Create(ctx, chat); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}

	return o, chat, nil
}

func (r *OrderRepo) missingOrConflict(ctx context.Context, q querier, id int64) error {
	var one int
	err := q.QueryRow(ctx, queries.QueryOrderExists, id).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return mapPgError(err)
	}

	return repository.ErrConflict
}

func (r *OrderRepo) list(ctx context.Context, sql string, arg any) ([]domain.Order, error) {
	rows, err := r.db.Query(ctx, sql, arg)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	out := make([]domain.Order, 0, 8)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}

	return out, rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o             domain.Order
		paymentMethod string
		status        string
	)
	err := row.Scan(
		&o.ID,
		&o.BuyerID,
		&o.ProductID,
		&o.SellerID,
		&o.DeliveryID,
		&o.Faculty,
		&o.Building,
		&o.Classroom,
		&paymentMethod,
		&o.Fee,
		&status,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.PaymentMethod = domain.PaymentMethod(paymentMethod)
	o.Status = domain.OrderStatus(status)

	return &o, nil
}
