package domain

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryFood        Category = "food"
	CategoryElectronics Category = "electronics"
	CategoryStudy       Category = "study"
	CategoryOther       Category = "other"
)

// ParseCategory falls back to "other" for empty input.
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return CategoryOther, nil
	case CategoryFood, CategoryElectronics, CategoryStudy, CategoryOther:
		return c, nil
	default:
		return "", ErrInvalidInput
	}
}

type Product struct {
	ID          int64     `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Price       float64   `db:"price"`
	Category    Category  `db:"category"`
	ImageURL    *string   `db:"image_url"`
	SellerID    int64     `db:"seller_id"`
	CreatedAt   time.Time `db:"created_at"`
}
