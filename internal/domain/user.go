package domain

import (
	"net/mail"
	"strings"
	"time"
)

type User struct {
	ID           int64     `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	ProfileImage *string   `db:"profile_image"`
	IsDelivery   bool      `db:"is_delivery"`
	CreatedAt    time.Time `db:"created_at"`
}

// Identity is the resolved caller of a request or a live connection.
type Identity struct {
	ID         int64
	Name       string
	Email      string
	IsDelivery bool
}

func (u *User) Identity() Identity {
	return Identity{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		IsDelivery: u.IsDelivery,
	}
}

// NewUser expects an already computed password hash.
func NewUser(name, email, passwordHash string, now time.Time) (*User, error) {
	email = NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidInput
	}

	return &User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}, nil
}

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// HasDomain reports whether email ends with the given "@domain" suffix.
func HasDomain(email, domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return true
	}
	if !strings.HasPrefix(domain, "@") {
		domain = "@" + domain
	}

	return strings.HasSuffix(NormalizeEmail(email), domain)
}
