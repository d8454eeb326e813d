package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/polimarket/market-service/internal/domain"
	"github.com/polimarket/market-service/internal/logger"
	"github.com/polimarket/market-service/internal/repository"
	"github.com/polimarket/market-service/internal/storage"
)

type NewProduct struct {
	Title       string
	Description string
	Price       float64
	Category    string
	SellerID    int64
}

// Upload is an image attached to a new product.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type ProductService struct {
	products  repository.ProductRepository
	favorites repository.FavoriteRepository
	users     repository.UserRepository
	blobs     storage.Storage
}

func NewProductService(
	products repository.ProductRepository,
	favorites repository.FavoriteRepository,
	users repository.UserRepository,
	blobs storage.Storage,
) *ProductService {
	return &ProductService{
		products:  products,
		favorites: favorites,
		users:     users,
		blobs:     blobs,
	}
}

func (s *ProductService) Create(ctx context.Context, in NewProduct, img *Upload) (*domain.Product, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || in.Price < 0 || math.IsNaN(in.Price) || math.IsInf(in.Price, 0) {
		return nil, domain.ErrInvalidInput
	}
	category, err := domain.ParseCategory(in.Category)
	if err != nil {
		return nil, err
	}

	p := &domain.Product{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Category:    category,
		SellerID:    in.SellerID,
	}

	var imageKey string
	if img != nil && img.Body != nil {
		if s.blobs == nil {
			return nil, errors.New("image storage is not configured")
		}
		key := storage.ObjectKey("products", img.Filename)
		url, err := s.blobs.Put(ctx, key, img.Body, img.Size, img.ContentType)
		if err != nil {
			return nil, fmt.Errorf("store image: %w", err)
		}
		p.ImageURL = &url
		imageKey = key
	}

	if err := s.products.Create(ctx, p); err != nil {
		if imageKey != "" {
			if derr := s.blobs.Delete(ctx, imageKey); derr != nil {
				logger.FromContext(ctx).Warn("product image cleanup failed",
					slog.String("key", imageKey), slog.Any("err", derr))
			}
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	return p, nil
}

func (s *ProductService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}

	return p, nil
}

// List returns products newest first.
func (s *ProductService) List(ctx context.Context, limit int, cursor string) ([]domain.Product, string, error) {
	limit = repository.ClampLimit(limit, 50, 100)

	products, next, err := s.products.List(ctx, limit, cursor)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCursor) {
			return nil, "", domain.ErrInvalidInput
		}
		return nil, "", err
	}

	return products, next, nil
}

func (s *ProductService) BySeller(ctx context.Context, sellerID int64) ([]domain.Product, error) {
	if _, err := s.users.GetByID(ctx, sellerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	return s.products.ListBySeller(ctx, sellerID)
}

func (s *ProductService) AddFavorite(ctx context.Context, userID, productID int64) error {
	if _, err := s.Get(ctx, productID); err != nil {
		return err
	}

	return s.favorites.Add(ctx, userID, productID)
}

func (s *ProductService) RemoveFavorite(ctx context.Context, userID, productID int64) error {
	return s.favorites.Remove(ctx, userID, productID)
}

func (s *ProductService) Favorites(ctx context.Context, userID int64) ([]domain.Product, error) {
	return s.favorites.ListProducts(ctx, userID)
}
