package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/polimarket/market-service/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapPgError(t *testing.T) {
	assert.NoError(t, mapPgError(nil))
	assert.ErrorIs(t, mapPgError(pgx.ErrNoRows), repository.ErrNotFound)
	assert.ErrorIs(t, mapPgError(fmt.Errorf("scan: %w", pgx.ErrNoRows)), repository.ErrNotFound)
	assert.ErrorIs(t, mapPgError(&pgconn.PgError{Code: "23505"}), repository.ErrAlreadyExists)
	assert.ErrorIs(t, mapPgError(&pgconn.PgError{Code: "23503"}), repository.ErrNotFound)

	other := errors.New("boom")
	assert.Equal(t, other, mapPgError(other))
}

func TestNullIfBlank(t *testing.T) {
	assert.Nil(t, nullIfBlank(nil))
	blank := "   "
	assert.Nil(t, nullIfBlank(&blank))
	room := " A-101 "
	got := nullIfBlank(&room)
	if assert.NotNil(t, got) {
		assert.Equal(t, "A-101", *got)
	}
}
