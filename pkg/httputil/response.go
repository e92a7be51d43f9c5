package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cwrk-planet/kcd-platform/pkg/logger"
)

// ErrorBody: тело любого ответа об ошибке
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Message   string         `json:"message"`
	RequestID string         `json:"request_id,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// JSON пишет тело как есть, без обёртки
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write json response failed", slog.Any("err", err))
	}
}

// Error пишет {"error":{"message","request_id","meta"}}; 5xx дополнительно логируются
func Error(ctx context.Context, w http.ResponseWriter, status int, msg string, meta map[string]any) {
	body := ErrorBody{Error: ErrorDetail{Message: msg, Meta: meta}}
	if id, ok := RequestIDFromContext(ctx); ok {
		body.Error.RequestID = id
	}
	if status >= http.StatusInternalServerError {
		logger.FromContext(ctx).Error("http error response", slog.Int("status", status), slog.String("msg", msg))
	}
	JSON(w, status, body)
}
