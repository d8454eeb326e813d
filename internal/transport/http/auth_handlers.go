package http

import (
	"mime"
	"net/http"
	"strings"

	httpmw "github.com/polimarket/market-service/internal/transport/http/middleware"
)

// POST /auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(r, &req) {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	u, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		fail(w, r, "Register", err)
		return
	}

	writeJSON(w, http.StatusCreated, IDResponse{ID: u.ID})
}

// POST /auth/login accepts either an OAuth2 password form or JSON.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var email, password string

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		var err error
		if ct == "multipart/form-data" {
			err = r.ParseMultipartForm(1 << 20)
		} else {
			err = r.ParseForm()
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid form")
			return
		}
		email, password = r.PostFormValue("username"), r.PostFormValue("password")
	default:
		var req LoginRequest
		if !decodeJSON(r, &req) {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		email, password = req.Email, req.Password
	}

	if strings.TrimSpace(email) == "" || password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	token, err := h.auth.Login(r.Context(), email, password)
	if err != nil {
		fail(w, r, "Login", err)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// GET /auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	who, _ := httpmw.IdentityFromCtx(r.Context())

	u, err := h.auth.GetUser(r.Context(), who.ID)
	if err != nil {
		fail(w, r, "Me", err)
		return
	}

	writeJSON(w, http.StatusOK, toUserItem(u))
}
