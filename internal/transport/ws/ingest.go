package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/polimarket/market-service/internal/domain"
	"github.com/polimarket/market-service/internal/metrics"
)

type MessageSaver interface {
	SaveMessage(ctx context.Context, chatID, authorID int64, text string) (*domain.Message, error)
}

// Sender is the author of an inbound unit and the room it was sent to.
type Sender struct {
	ChatID int64
	User   domain.Identity
}

// Ingest validates, persists and then fans out chat messages. It serves both
// the socket read loop and the REST endpoint.
type Ingest struct {
	saver MessageSaver
	hub   *Hub
}

func NewIngest(saver MessageSaver, hub *Hub) *Ingest {
	return &Ingest{saver: saver, hub: hub}
}

// Handle decodes a raw {"text": "..."} unit and posts it.
func (i *Ingest) Handle(ctx context.Context, from Sender, raw []byte) (*domain.Message, error) {
	var in InboundMessage
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedMessage, err)
	}
	if in.Text == nil {
		return nil, fmt.Errorf("%w: missing text", domain.ErrMalformedMessage)
	}

	return i.post(ctx, from, *in.Text, "ws")
}

// Post stores text and broadcasts it to the room.
func (i *Ingest) Post(ctx context.Context, from Sender, text string) (*domain.Message, error) {
	return i.post(ctx, from, text, "rest")
}

func (i *Ingest) post(ctx context.Context, from Sender, text, source string) (*domain.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text", domain.ErrMalformedMessage)
	}

	m, err := i.saver.SaveMessage(ctx, from.ChatID, from.User.ID, text)
	if err != nil {
		return nil, err
	}
	metrics.MessagesPersisted.WithLabelValues(source).Inc()

	payload, err := json.Marshal(newChatFrame(m, from.User))
	if err != nil {
		return m, fmt.Errorf("encode frame: %w", err)
	}
	i.hub.Broadcast(from.ChatID, payload)

	return m, nil
}
