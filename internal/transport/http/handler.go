package http

import (
	"github.com/polimarket/market-service/internal/service"
	"github.com/polimarket/market-service/internal/transport/ws"
)

type Handler struct {
	auth     *service.AuthService
	products *service.ProductService
	chats    *service.ChatService
	orders   *service.OrderService
	ingest   *ws.Ingest

	maxUploadBytes int64
}

func NewHandler(
	auth *service.AuthService,
	products *service.ProductService,
	chats *service.ChatService,
	orders *service.OrderService,
	ingest *ws.Ingest,
	maxUploadBytes int64,
) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 5 << 20
	}

	return &Handler{
		auth:           auth,
		products:       products,
		chats:          chats,
		orders:         orders,
		ingest:         ingest,
		maxUploadBytes: maxUploadBytes,
	}
}
