package http

import (
	"net/http"

	httpmw "github.com/polimarket/market-service/internal/transport/http/middleware"
)

// GET /users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.auth.ListUsers(r.Context())
	if err != nil {
		fail(w, r, "ListUsers", err)
		return
	}

	out := make([]UserItem, 0, len(users))
	for i := range users {
		out = append(out, toUserItem(&users[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	u, err := h.auth.GetUser(r.Context(), id)
	if err != nil {
		fail(w, r, "GetUser", err)
		return
	}

	writeJSON(w, http.StatusOK, toUserItem(u))
}

// GET /users/{id}/products
func (h *Handler) UserProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	products, err := h.products.BySeller(r.Context(), id)
	if err != nil {
		fail(w, r, "UserProducts", err)
		return
	}

	writeJSON(w, http.StatusOK, toProductItems(products))
}

// POST /users/me/become-delivery
func (h *Handler) BecomeDelivery(w http.ResponseWriter, r *http.Request) {
	who, _ := httpmw.IdentityFromCtx(r.Context())

	var req BecomeDeliveryRequest
	if !decodeJSON(r, &req) {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	u, err := h.auth.BecomeDelivery(r.Context(), who.ID, req.SecretCode)
	if err != nil {
		fail(w, r, "BecomeDelivery", err)
		return
	}

	writeJSON(w, http.StatusOK, toUserItem(u))
}

// GET /users/me/favorites
func (h *Handler) MyFavorites(w http.ResponseWriter, r *http.Request) {
	who, _ := httpmw.IdentityFromCtx(r.Context())

	products, err := h.products.Favorites(r.Context(), who.ID)
	if err != nil {
		fail(w, r, "MyFavorites", err)
		return
	}

	writeJSON(w, http.StatusOK, toProductItems(products))
}
