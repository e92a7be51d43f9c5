package httputil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(context.Background(), rec, http.StatusConflict, "already exists", map[string]any{"field": "email"})

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	require.JSONEq(t, `{"error":{"message":"already exists","meta":{"field":"email"}}}`, rec.Body.String())
}

func TestError_NoMeta(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(context.Background(), rec, http.StatusUnauthorized, "unauthenticated", nil)

	var body map[string]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "unauthenticated", body["error"]["message"])
	require.NotContains(t, body["error"], "meta")
}

func TestRequestID_GeneratedAndPropagated(t *testing.T) {
	var seen string
	h := MiddlewareRequestID(MiddlewareLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = RequestIDFromContext(r.Context())
		JSON(w, http.StatusTeapot, map[string]string{"ok": "yes"})
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)
	require.NotEmpty(t, seen)
	require.Equal(t, seen, rec.Header().Get(HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "given")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "given", seen)
}

func TestRequestID_RejectsUnreasonableIncoming(t *testing.T) {
	h := MiddlewareRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for _, bad := range []string{strings.Repeat("a", 65), "has space", "тест"} {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set(HeaderRequestID, bad)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		got := rec.Header().Get(HeaderRequestID)
		require.NotEqual(t, bad, got)
		require.Len(t, got, 36)
	}
}

func TestError_CarriesRequestID(t *testing.T) {
	h := MiddlewareRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Error(r.Context(), w, http.StatusBadRequest, "bad", nil)
	}))
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.JSONEq(t, `{"error":{"message":"bad","request_id":"req-42"}}`, rec.Body.String())
}
