package postgres

import (
	"context"
	"fmt"

	"github.com/polimarket/market-service/internal/domain"
	"github.com/polimarket/market-service/internal/postgres/queries"
	"github.com/polimarket/market-service/internal/repository"

	"github.com/jackc/pgx/v5"
)

type ProductRepo struct {
	q querier
}

func NewProductRepo(q querier) *ProductRepo {
	return &ProductRepo{q: q}
}

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	err := r.q.QueryRow(ctx, queries.QueryCreateProduct,
		p.Title, p.Description, p.Price, string(p.Category), nullIfBlank(p.ImageURL), p.SellerID,
	).Scan(&p.ID, &p.CreatedAt)

	return mapPgError(err)
}

func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, queries.QueryGetProductByID, id))
	if err != nil {
		return nil, mapPgError(err)
	}

	return p, nil
}

func (r *ProductRepo) List(ctx context.Context, limit int, cursor string) ([]domain.Product, string, error) {
	cur, err := repository.DecodeCursor(cursor)
	if err != nil {
		return nil, "", fmt.Errorf("decode cursor: %w", err)
	}

	var createdAt, id any
	if cur != nil {
		createdAt, id = cur.CreatedAt, cur.ID
	}

	rows, err := r.q.Query(ctx, queries.QueryListProducts, createdAt, id, limit)
	if err != nil {
		return nil, "", mapPgError(err)
	}
	out, err := collectProducts(rows)
	if err != nil {
		return nil, "", err
	}

	var next string
	if limit > 0 && len(out) == limit {
		last := out[len(out)-1]
		next, _ = repository.EncodeCursor(repository.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return out, next, nil
}

func (r *ProductRepo) ListBySeller(ctx context.Context, sellerID int64) ([]domain.Product, error) {
	rows, err := r.q.Query(ctx, queries.QueryListProductsBySeller, sellerID)
	if err != nil {
		return nil, mapPgError(err)
	}

	return collectProducts(rows)
}

type FavoriteRepo struct {
	q querier
}

func NewFavoriteRepo(q querier) *FavoriteRepo {
	return &FavoriteRepo{q: q}
}

func (r *FavoriteRepo) Add(ctx context.Context, userID, productID int64) error {
	_, err := r.q.Exec(ctx, queries.QueryAddFavorite, userID, productID)
	return mapPgError(err)
}

func (r *FavoriteRepo) Remove(ctx context.Context, userID, productID int64) error {
	_, err := r.q.Exec(ctx, queries.QueryRemoveFavorite, userID, productID)
	return mapPgError(err)
}

func (r *FavoriteRepo) ListProducts(ctx context.Context, userID int64) ([]domain.Product, error) {
	rows, err := r.q.Query(ctx, queries.QueryListFavoriteProducts, userID)
	if err != nil {
		return nil, mapPgError(err)
	}

	return collectProducts(rows)
}

func collectProducts(rows pgx.Rows) ([]domain.Product, error) {
	defer rows.Close()

	out := make([]domain.Product, 0, 16)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}

	return out, rows.Err()
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p        domain.Product
		category string
	)
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Price,
		&category,
		&p.ImageURL,
		&p.SellerID,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Category = domain.Category(category)

	return &p, nil
}
