package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/cwrk-planet/kcd-platform/internal/chat"
	"github.com/cwrk-planet/kcd-platform/internal/errs"
	"github.com/cwrk-planet/kcd-platform/internal/service"
	"github.com/cwrk-planet/kcd-platform/pkg/httputil"
	"github.com/cwrk-planet/kcd-platform/pkg/logger"
)

// максимальный размер JSON-тела
const maxJSONBody = 1 << 20

type Handler struct {
	chat       *chat.Service
	auth       *service.AuthService
	users      *service.UserService
	workspaces *service.WorkspaceService
	portfolio  *service.PortfolioService
	maxUpload  int64
}

type Deps struct {
	Chat       *chat.Service
	Auth       *service.AuthService
	Users      *service.UserService
	Workspaces *service.WorkspaceService
	Portfolio  *service.PortfolioService
	MaxUpload  int64
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		chat:       d.Chat,
		auth:       d.Auth,
		users:      d.Users,
		workspaces: d.Workspaces,
		portfolio:  d.Portfolio,
		maxUpload:  d.MaxUpload,
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.Join(errs.ErrValidation, errors.New("empty body"))
		}
		return errors.Join(errs.ErrValidation, err)
	}
	return nil
}

// writeError мапит ошибку сервиса в статус и тело {"error":{...}}
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := errs.ToHTTP(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error(op+" failed", slog.Any("err", err))
		msg = http.StatusText(status)
	}
	httputil.Error(r.Context(), w, status, msg, nil)
}
