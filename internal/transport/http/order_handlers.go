package http

import (
	"context"
	"net/http"

	"github.com/polimarket/market-service/internal/domain"
	"github.com/polimarket/market-service/internal/service"
	httpmw "github.com/polimarket/market-service/internal/transport/http/middleware"
)

// GET /orders/fee?faculty=
func (h *Handler) OrderFee(w http.ResponseWriter, r *http.Request) {
	faculty := r.URL.Query().Get("faculty")
	writeJSON(w, http.StatusOK, FeeResponse{Faculty: faculty, Fee: h.orders.Fee(faculty)})
}

// POST /orders
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	who, _ := httpmw.IdentityFromCtx(r.Context())

	var req CreateOrderRequest
	if !decodeJSON(r, &req) {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	in := service.NewOrder{
		ProductID:     req.ProductID,
		Faculty:       req.Faculty,
		Building:      req.Building,
		PaymentMethod: req.PaymentMethod,
	}
	if req.Classroom != nil {
		in.Classroom = *req.Classroom
	}

	o, err := h.orders.Create(r.Context(), who.ID, in)
	if err != nil {
		fail(w, r, "CreateOrder", err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderItem(o))
}

// GET /orders/my
func (h *Handler) MyOrders(w http.ResponseWriter, r *http.Request) {
	who, _ := httpmw.IdentityFromCtx(r.Context())

	orders, err := h.orders.My(r.Context(), who.ID)
	if err != nil {
		fail(w, r, "MyOrders", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderItems(orders))
}

// GET /orders/available
func (h *Handler) AvailableOrders(w http.ResponseWriter, r *http.Request) {
	who, _ := httpmw.IdentityFromCtx(r.Context())

	orders, err := h.orders.Available(r.Context(), who)
	if err != nil {
		fail(w, r, "AvailableOrders", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderItems(orders))
}

// POST /orders/{id}/accept
func (h *Handler) AcceptOrder(w http.ResponseWriter, r *http.Request) {
	who, _ := httpmw.IdentityFromCtx(r.Context())
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	o, c, err := h.orders.Accept(r.Context(), id, who)
	if err != nil {
		fail(w, r, "AcceptOrder", err)
		return
	}

	writeJSON(w, http.StatusOK, AcceptOrderResponse{Order: toOrderItem(o), Chat: toChatItem(c)})
}

// POST /orders/{id}/reject
func (h *Handler) RejectOrder(w http.ResponseWriter, r *http.Request) {
	h.orderTransition(w, r, "RejectOrder", h.orders.Reject)
}

// POST /orders/{id}/complete
func (h *Handler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	h.orderTransition(w, r, "CompleteOrder", h.orders.Complete)
}

type orderAction func(ctx context.Context, id int64, who domain.Identity) (*domain.Order, error)

func (h *Handler) orderTransition(w http.ResponseWriter, r *http.Request, op string, act orderAction) {
	who, _ := httpmw.IdentityFromCtx(r.Context())
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	o, err := act(r.Context(), id, who)
	if err != nil {
		fail(w, r, op, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderItem(o))
}
