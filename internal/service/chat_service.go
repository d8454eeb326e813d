package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/polimarket/market-service/internal/domain"
	"github.com/polimarket/market-service/internal/repository"
)

const defaultMaxMessageLength = 4000

type ChatService struct {
	chats    repository.ChatRepository
	messages repository.MessageRepository
	products repository.ProductRepository

	maxMessageLength int
}

func NewChatService(
	chats repository.ChatRepository,
	messages repository.MessageRepository,
	products repository.ProductRepository,
) *ChatService {
	return &ChatService{
		chats:            chats,
		messages:         messages,
		products:         products,
		maxMessageLength: defaultMaxMessageLength,
	}
}

func (s *ChatService) SetMaxMessageLength(n int) {
	if n > 0 {
		s.maxMessageLength = n
	}
}

// Start returns the buyer's sale chat for the product, creating it on first use.
func (s *ChatService) Start(ctx context.Context, productID, buyerID int64) (*domain.Chat, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	if p.SellerID == buyerID {
		return nil, domain.ErrSelfChat
	}

	c, err := s.chats.FindSale(ctx, productID, buyerID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	c = &domain.Chat{
		ProductID: productID,
		BuyerID:   buyerID,
		SellerID:  p.SellerID,
		Kind:      domain.ChatKindSale,
	}
	if err := s.chats.Create(ctx, c); err != nil {
		// lost a race with a concurrent start for the same pair
		if errors.Is(err, repository.ErrAlreadyExists) {
			return s.chats.FindSale(ctx, productID, buyerID)
		}
		return nil, fmt.Errorf("create chat: %w", err)
	}

	return c, nil
}

func (s *ChatService) My(ctx context.Context, userID int64) ([]domain.ChatSummary, error) {
	return s.chats.ListByUser(ctx, userID)
}

// Authorize admits userID to chatID only if they are its buyer or seller.
func (s *ChatService) Authorize(ctx context.Context, chatID, userID int64) (*domain.Chat, error) {
	c, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrChatNotFound
		}
		return nil, fmt.Errorf("load chat %d: %w", chatID, err)
	}
	if !c.HasParticipant(userID) {
		return nil, domain.ErrForbidden
	}

	return c, nil
}

func (s *ChatService) History(ctx context.Context, chatID, userID int64, after string, limit int) ([]domain.Message, string, error) {
	if _, err := s.Authorize(ctx, chatID, userID); err != nil {
		return nil, "", err
	}

	msgs, next, err := s.messages.History(ctx, chatID, after, repository.ClampLimit(limit, 50, 200))
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCursor) {
			return nil, "", domain.ErrInvalidInput
		}
		return nil, "", err
	}

	return msgs, next, nil
}

// SaveMessage persists a message. Participation is checked by the caller.
func (s *ChatService) SaveMessage(ctx context.Context, chatID, authorID int64, text string) (*domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrMalformedMessage
	}
	if utf8.RuneCountInString(text) > s.maxMessageLength {
		return nil, domain.ErrMessageTooLong
	}

	m := &domain.Message{ChatID: chatID, AuthorID: authorID, Text: text}
	if err := s.messages.Create(ctx, m); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrChatNotFound
		}
		return nil, fmt.Errorf("save message: %w", err)
	}

	return m, nil
}

// ConfirmPayment is reserved to the seller of a sale chat.
func (s *ChatService) ConfirmPayment(ctx context.Context, chatID, userID int64) (*domain.Chat, error) {
	c, err := s.Authorize(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	// on delivery rooms SellerID is the agent, who never receives the payment
	if c.Kind != domain.ChatKindSale || c.SellerID != userID {
		return nil, domain.ErrForbidden
	}
	if c.PaymentConfirmed {
		return c, nil
	}

	if err := s.chats.ConfirmPayment(ctx, chatID); err != nil {
		return nil, fmt.Errorf("confirm payment: %w", err)
	}
	c.PaymentConfirmed = true

	return c, nil
}
