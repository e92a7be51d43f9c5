package http

import (
	"net/http"

	httpmw "github.com/cwrk-planet/kcd-platform/internal/transport/http/middleware"
	"github.com/cwrk-planet/kcd-platform/pkg/httputil"
)

// GET /api/v1/workspaces/me
func (h *Handler) MyWorkspace(w http.ResponseWriter, r *http.Request) {
	u, _ := httpmw.UserFromCtx(r.Context())
	ws, err := h.workspaces.Get(r.Context(), u.ID)
	if err != nil {
		writeError(w, r, "workspaces.get", err)
		return
	}
	httputil.JSON(w, http.StatusOK, toWorkspaceResponse(ws))
}

// PUT /api/v1/workspaces/me
func (h *Handler) UpdateMyWorkspace(w http.ResponseWriter, r *http.Request) {
	u, _ := httpmw.UserFromCtx(r.Context())

	var req WorkspaceUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "workspaces.update.decode", err)
		return
	}

	ws, err := h.workspaces.Update(r.Context(), u.ID, req.toPatch())
	if err != nil {
		writeError(w, r, "workspaces.update", err)
		return
	}
	httputil.JSON(w, http.StatusOK, toWorkspaceResponse(ws))
}
