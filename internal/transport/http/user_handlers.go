package http

import (
	"net/http"
	"strconv"

	"github.com/cwrk-planet/kcd-platform/internal/domain"
	"github.com/cwrk-planet/kcd-platform/internal/errs"
	"github.com/cwrk-planet/kcd-platform/internal/service"
	httpmw "github.com/cwrk-planet/kcd-platform/internal/transport/http/middleware"
	"github.com/cwrk-planet/kcd-platform/pkg/httputil"

	"github.com/go-chi/chi/v5"
)

// POST /api/v1/users
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "users.register.decode", err)
		return
	}

	u, err := h.users.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     req.Role,
	})
	if err != nil {
		if errs.ToHTTP(err) == http.StatusConflict {
			httputil.Error(r.Context(), w, http.StatusConflict, "email already registered", nil)
			return
		}
		writeError(w, r, "users.register", err)
		return
	}
	httputil.JSON(w, http.StatusCreated, toUserResponse(u))
}

// GET /api/v1/users/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, _ := httpmw.UserFromCtx(r.Context())
	httputil.JSON(w, http.StatusOK, toUserResponse(u))
}

// GET /api/v1/users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, "users.get", err)
		return
	}
	httputil.JSON(w, http.StatusOK, toUserResponse(u))
}

// GET /api/v1/users/{id}/workspace
func (h *Handler) GetUserWorkspace(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	ws, err := h.workspaces.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, "users.workspace", err)
		return
	}
	httputil.JSON(w, http.StatusOK, toWorkspaceResponse(ws))
}

func userIDParam(w http.ResponseWriter, r *http.Request) (domain.UserID, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.Error(r.Context(), w, http.StatusBadRequest, "invalid user id", nil)
		return 0, false
	}
	return domain.UserID(id), true
}
