package http

import (
	"net/http"

	"github.com/cwrk-planet/kcd-platform/pkg/httputil"
)

// POST /api/v1/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "auth.login.decode", err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, "auth.login", err)
		return
	}

	httputil.JSON(w, http.StatusOK, LoginResponse{
		AccessToken: res.AccessToken,
		TokenType:   "bearer",
		ExpiresIn:   int64(res.ExpiresIn.Seconds()),
		User:        toUserResponse(res.User),
	})
}
