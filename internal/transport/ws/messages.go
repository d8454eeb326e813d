package ws

import (
	"encoding/json"
	"time"

	"github.com/polimarket/market-service/internal/domain"
)

// InboundMessage is what clients send over the socket.
type InboundMessage struct {
	Text *string `json:"text"`
}

// ChatFrame is broadcast to every member of the room after a message is stored.
type ChatFrame struct {
	AuthorID   int64  `json:"author_id"`
	AuthorName string `json:"author_name"`
	Text       string `json:"text"`
	CreatedAt  string `json:"created_at"`
}

// ErrorFrame goes only to the connection whose inbound unit failed.
type ErrorFrame struct {
	Error string `json:"error"`
}

func newChatFrame(m *domain.Message, author domain.Identity) ChatFrame {
	return ChatFrame{
		AuthorID:   author.ID,
		AuthorName: author.Name,
		Text:       m.Text,
		CreatedAt:  m.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func encodeError(msg string) []byte {
	b, _ := json.Marshal(ErrorFrame{Error: msg})
	return b
}
