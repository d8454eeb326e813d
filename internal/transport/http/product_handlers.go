package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/polimarket/market-service/internal/service"
	httpmw "github.com/polimarket/market-service/internal/transport/http/middleware"
)

// GET /products?limit=&cursor=
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	limit, ok := intQuery(r, "limit", 0)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	products, next, err := h.products.List(r.Context(), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		fail(w, r, "ListProducts", err)
		return
	}

	writeJSON(w, http.StatusOK, ProductsListResponse{Items: toProductItems(products), NextCursor: next})
}

// GET /products/{id}
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	p, err := h.products.Get(r.Context(), id)
	if err != nil {
		fail(w, r, "GetProduct", err)
		return
	}

	writeJSON(w, http.StatusOK, toProductItem(p))
}

// POST /products (multipart: title, description, price, category, file)
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	who, _ := httpmw.IdentityFromCtx(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	price, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("price")), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid price")
		return
	}

	in := service.NewProduct{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Price:       price,
		Category:    r.FormValue("category"),
		SellerID:    who.ID,
	}

	var img *service.Upload
	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		img = &service.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		}
	case errors.Is(err, http.ErrMissingFile):
	default:
		writeError(w, http.StatusBadRequest, "invalid file")
		return
	}

	p, err := h.products.Create(r.Context(), in, img)
	if err != nil {
		fail(w, r, "CreateProduct", err)
		return
	}

	writeJSON(w, http.StatusCreated, toProductItem(p))
}

// POST /products/{id}/favorite
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	who, _ := httpmw.IdentityFromCtx(r.Context())
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.products.AddFavorite(r.Context(), who.ID, id); err != nil {
		fail(w, r, "AddFavorite", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "added"})
}

// DELETE /products/{id}/favorite
func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	who, _ := httpmw.IdentityFromCtx(r.Context())
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.products.RemoveFavorite(r.Context(), who.ID, id); err != nil {
		fail(w, r, "RemoveFavorite", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
