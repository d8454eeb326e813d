package memory

import (
	"context"
	"testing"

	"github.com/polimarket/market-service/internal/domain"
	"github.com/polimarket/market-service/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, s *Store, email string) int64 {
	t.Helper()
	id, err := s.Users().Create(context.Background(), &domain.User{Name: email, Email: email})
	require.NoError(t, err)
	return id
}

func TestUsers_DuplicateEmail(t *testing.T) {
	s := New()
	seedUser(t, s, "a@espol.edu.ec")

	_, err := s.Users().Create(context.Background(), &domain.User{Name: "x", Email: "A@espol.edu.ec"})
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)
}

func TestProducts_ListPagesNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	seller := seedUser(t, s, "s@espol.edu.ec")
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Products().Create(ctx, &domain.Product{Title: "p", SellerID: seller}))
	}

	page1, next, err := s.Products().List(ctx, 2, "")
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, int64(5), page1[0].ID)
	assert.Equal(t, int64(4), page1[1].ID)
	require.NotEmpty(t, next)

	page2, next, err := s.Products().List(ctx, 2, next)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, int64(3), page2[0].ID)
	assert.Equal(t, int64(2), page2[1].ID)

	page3, next, err := s.Products().List(ctx, 2, next)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, int64(1), page3[0].ID)
	assert.Empty(t, next)
}

func TestChats_SaleUniquePerProductBuyer(t *testing.T) {
	ctx := context.Background()
	s := New()
	seller := seedUser(t, s, "s@espol.edu.ec")
	buyer := seedUser(t, s, "b@espol.edu.ec")
	p := &domain.Product{Title: "p", SellerID: seller}
	require.NoError(t, s.Products().Create(ctx, p))

	require.NoError(t, s.Chats().Create(ctx, &domain.Chat{ProductID: p.ID, BuyerID: buyer, SellerID: seller}))
	err := s.Chats().Create(ctx, &domain.Chat{ProductID: p.ID, BuyerID: buyer, SellerID: seller})
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)

	// delivery rooms are not bound by the sale uniqueness
	require.NoError(t, s.Chats().Create(ctx, &domain.Chat{ProductID: p.ID, BuyerID: buyer, SellerID: 99, Kind: domain.ChatKindDelivery}))
	require.NoError(t, s.Chats().Create(ctx, &domain.Chat{ProductID: p.ID, BuyerID: buyer, SellerID: 98, Kind: domain.ChatKindDelivery}))
}

func TestMessages_HistoryAscendingWithCursor(t *testing.T) {
	ctx := context.Background()
	s := New()
	seller := seedUser(t, s, "s@espol.edu.ec")
	buyer := seedUser(t, s, "b@espol.edu.ec")
	p := &domain.Product{Title: "p", SellerID: seller}
	require.NoError(t, s.Products().Create(ctx, p))
	c := &domain.Chat{ProductID: p.ID, BuyerID: buyer, SellerID: seller}
	require.NoError(t, s.Chats().Create(ctx, c))

	for _, txt := range []string{"a", "b", "c"} {
		require.NoError(t, s.Messages().Create(ctx, &domain.Message{ChatID: c.ID, AuthorID: buyer, Text: txt}))
	}

	first, next, err := s.Messages().History(ctx, c.ID, "", 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "a", first[0].Text)
	assert.Equal(t, "b", first[1].Text)

	rest, next, err := s.Messages().History(ctx, c.ID, next, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "c", rest[0].Text)
	assert.Empty(t, next)

	sums, err := s.Chats().ListByUser(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, sums, 1)
	require.NotNil(t, sums[0].LastMessage)
	assert.Equal(t, "c", *sums[0].LastMessage)
}

func TestOrders_AcceptOpensDeliveryChat(t *testing.T) {
	ctx := context.Background()
	s := New()
	seller := seedUser(t, s, "s@espol.edu.ec")
	buyer := seedUser(t, s, "b@espol.edu.ec")
	agent := seedUser(t, s, "d@espol.edu.ec")
	p := &domain.Product{Title: "p", SellerID: seller}
	require.NoError(t, s.Products().Create(ctx, p))

	o := &domain.Order{BuyerID: buyer, ProductID: p.ID, SellerID: seller}
	require.NoError(t, s.Orders().Create(ctx, o))

	got, chat, err := s.Orders().Accept(ctx, o.ID, agent)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderAccepted, got.Status)
	require.NotNil(t, got.DeliveryID)
	assert.Equal(t, agent, *got.DeliveryID)
	assert.Equal(t, domain.ChatKindDelivery, chat.Kind)
	assert.True(t, chat.HasParticipant(buyer))
	assert.True(t, chat.HasParticipant(agent))

	_, _, err = s.Orders().Accept(ctx, o.ID, agent)
	assert.ErrorIs(t, err, repository.ErrConflict)

	_, err = s.Orders().Transition(ctx, o.ID, domain.OrderPending, domain.OrderRejected)
	assert.ErrorIs(t, err, repository.ErrConflict)
}
