package http

import (
	"net/http"
	"strconv"

	httpmw "github.com/polimarket/market-service/internal/transport/http/middleware"
	"github.com/polimarket/market-service/internal/transport/ws"
)

// POST /chats/start?product_id=
func (h *Handler) StartChat(w http.ResponseWriter, r *http.Request) {
	who, _ := httpmw.IdentityFromCtx(r.Context())
	productID, err := strconv.ParseInt(r.URL.Query().Get("product_id"), 10, 64)
	if err != nil || productID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid product_id")
		return
	}

	c, err := h.chats.Start(r.Context(), productID, who.ID)
	if err != nil {
		fail(w, r, "StartChat", err)
		return
	}

	writeJSON(w, http.StatusOK, StartChatResponse{ChatID: c.ID, ChatItem: toChatItem(c)})
}

// GET /chats/my
func (h *Handler) MyChats(w http.ResponseWriter, r *http.Request) {
	who, _ := httpmw.IdentityFromCtx(r.Context())

	items, err := h.chats.My(r.Context(), who.ID)
	if err != nil {
		fail(w, r, "MyChats", err)
		return
	}

	out := make([]ChatListItem, 0, len(items))
	for i := range items {
		out = append(out, toChatListItem(&items[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /chats/{id}/messages?after=&limit=
func (h *Handler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	who, _ := httpmw.IdentityFromCtx(r.Context())
	chatID, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid chat id")
		return
	}
	limit, ok := intQuery(r, "limit", 0)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	msgs, next, err := h.chats.History(r.Context(), chatID, who.ID, r.URL.Query().Get("after"), limit)
	if err != nil {
		fail(w, r, "ChatHistory", err)
		return
	}

	resp := ChatHistoryResponse{Items: make([]MessageItem, 0, len(msgs)), NextCursor: next}
	for i := range msgs {
		resp.Items = append(resp.Items, toMessageItem(&msgs[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /chats/{id}/messages
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	who, _ := httpmw.IdentityFromCtx(r.Context())
	chatID, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid chat id")
		return
	}

	var req SendMessageRequest
	if !decodeJSON(r, &req) || req.Text == nil {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	if _, err := h.chats.Authorize(r.Context(), chatID, who.ID); err != nil {
		fail(w, r, "SendMessage", err)
		return
	}

	m, err := h.ingest.Post(r.Context(), ws.Sender{ChatID: chatID, User: who}, *req.Text)
	if err != nil {
		fail(w, r, "SendMessage", err)
		return
	}

	writeJSON(w, http.StatusCreated, toMessageItem(m))
}

// POST /chats/{id}/confirm-payment
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	who, _ := httpmw.IdentityFromCtx(r.Context())
	chatID, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid chat id")
		return
	}

	c, err := h.chats.ConfirmPayment(r.Context(), chatID, who.ID)
	if err != nil {
		fail(w, r, "ConfirmPayment", err)
		return
	}

	writeJSON(w, http.StatusOK, toChatItem(c))
}
