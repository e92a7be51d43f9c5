package http

import (
	"net/http"
	"strconv"

	"github.com/cwrk-planet/kcd-platform/internal/chat"
	httpmw "github.com/cwrk-planet/kcd-platform/internal/transport/http/middleware"
	"github.com/cwrk-planet/kcd-platform/pkg/httputil"
)

// GET /api/v1/chat/messages?channel=&limit=
// Токен необязателен, но переданный токен должен быть валиден.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	if cred := httpmw.Credential(r); cred != "" {
		if _, err := h.chat.Verify(r.Context(), cred); err != nil {
			writeError(w, r, "chat.list.verify", err)
			return
		}
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}

	msgs, err := h.chat.History(r.Context(), r.URL.Query().Get("channel"), limit)
	if err != nil {
		writeError(w, r, "chat.list", err)
		return
	}
	httputil.JSON(w, http.StatusOK, chat.NewMessageViews(msgs))
}

// POST /api/v1/chat/messages
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	cred := httpmw.Credential(r)

	var req PostMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "chat.post.decode", err)
		return
	}

	msg, err := h.chat.Post(r.Context(), cred, req.Channel, req.Content)
	if err != nil {
		writeError(w, r, "chat.post", err)
		return
	}
	httputil.JSON(w, http.StatusCreated, chat.NewMessageView(msg))
}
