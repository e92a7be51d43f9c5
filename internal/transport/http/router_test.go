package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cwrk-planet/kcd-platform/internal/chat"
	"github.com/cwrk-planet/kcd-platform/internal/errs"
	"github.com/cwrk-planet/kcd-platform/internal/metrics"
	"github.com/cwrk-planet/kcd-platform/internal/repository/memory"
	"github.com/cwrk-planet/kcd-platform/internal/security"
	"github.com/cwrk-planet/kcd-platform/internal/service"
	"github.com/cwrk-planet/kcd-platform/internal/storage/blob"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// recorder: chat.Conn, запоминающий всё, что ему разослали
type recorder struct {
	mu     sync.Mutex
	frames [][]byte
}

func (r *recorder) ID() string   { return "recorder" }
func (r *recorder) Close() error { return nil }
func (r *recorder) Send(p []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, p)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

type app struct {
	srv    *httptest.Server
	store  *memory.Store
	live   *recorder
	signer *security.JWTSigner
}

func newApp(t *testing.T) *app {
	t.Helper()
	a := &app{
		store:  memory.New(nil),
		live:   &recorder{},
		signer: security.NewHS256Signer([]byte("test-secret"), "", "", time.Hour, 0),
	}

	verifier := service.NewIdentityVerifier(a.signer, a.store.Users)
	promReg := prometheus.NewRegistry()
	m := metrics.NewChat(promReg)
	reg := chat.NewRegistry()
	reg.Register(a.live)
	chatSvc := chat.NewService(verifier, a.store.Chat, chat.NewDispatcher(reg, m), m, chat.Options{})

	uploads := t.TempDir()
	blobs, err := blob.NewLocal(uploads, "/uploads")
	require.NoError(t, err)

	h := NewHandler(Deps{
		Chat:       chatSvc,
		Auth:       service.NewAuthService(a.store.Users, a.signer, time.Now),
		Users:      service.NewUserService(a.store.Users, a.store, security.BcryptConfig{Cost: bcrypt.MinCost}, time.Now),
		Workspaces: service.NewWorkspaceService(a.store.Workspaces, time.Now),
		Portfolio:  service.NewPortfolioService(a.store.Media, blobs, 1<<20, time.Now),
		MaxUpload:  1 << 20,
	})
	a.srv = httptest.NewServer(NewRouter(h, RouterOptions{
		Service:        "kcd-platform",
		Version:        "test",
		CORSOrigins:    []string{"*"},
		RequestTimeout: 5 * time.Second,
		UploadDir:      uploads,
		PublicPrefix:   "/uploads",
		Metrics:        promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}),
		Authn:          verifier,
	}))
	t.Cleanup(a.srv.Close)
	return a
}

func (a *app) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return send(t, req)
}

func send(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

// signup регистрирует пользователя и возвращает токен
func (a *app) signup(t *testing.T, email, name string) string {
	t.Helper()
	resp, _ := a.do(t, http.MethodPost, "/api/v1/users", "", RegisterRequest{Email: email, Password: "secret123", FullName: name})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, data := a.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: email, Password: "secret123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var lr LoginResponse
	require.NoError(t, json.Unmarshal(data, &lr))
	require.Equal(t, "bearer", lr.TokenType)
	require.Equal(t, int64(3600), lr.ExpiresIn)
	return lr.AccessToken
}

func errorMessage(t *testing.T, data []byte) string {
	t.Helper()
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(data, &body))
	return body.Error.Message
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	a := newApp(t)

	for _, path := range []string{"/api/v1/health", "/health"} {
		resp, data := a.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		var h HealthResponse
		require.NoError(t, json.Unmarshal(data, &h))
		require.Equal(t, HealthResponse{Status: "ok", Service: "kcd-platform", Version: "test"}, h)
		require.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	}

	resp, data := a.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(data), "chat_live_connections")
}

func TestRouter_RegisterLoginMe(t *testing.T) {
	a := newApp(t)
	token := a.signup(t, "Ann@Example.com", "Ann")

	resp, data := a.do(t, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me UserResponse
	require.NoError(t, json.Unmarshal(data, &me))
	require.Equal(t, "ann@example.com", me.Email)
	require.Equal(t, "user", me.Role)
	require.NotNil(t, me.LastLogin)

	resp, data = a.do(t, http.MethodPost, "/api/v1/users", "", RegisterRequest{Email: "ann@example.com", Password: "secret123"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "email already registered", errorMessage(t, data))

	resp, _ = a.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: "ann@example.com", Password: "wrong-pass"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = a.do(t, http.MethodGet, "/api/v1/users/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = a.do(t, http.MethodGet, "/api/v1/users/me", "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = a.do(t, http.MethodGet, "/api/v1/users/999", token, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = a.do(t, http.MethodGet, "/api/v1/users/abc", token, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_RegisterRejectsAdminRole(t *testing.T) {
	a := newApp(t)
	resp, _ := a.do(t, http.MethodPost, "/api/v1/users", "", RegisterRequest{Email: "x@example.com", Password: "secret123", Role: "admin"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_TokenForDeletedSubjectIsNotFound(t *testing.T) {
	a := newApp(t)
	token, err := a.signer.SignAccessToken("ghost@example.com", time.Now())
	require.NoError(t, err)

	resp, _ := a.do(t, http.MethodPost, "/api/v1/chat/messages", token, PostMessageRequest{Content: "boo"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, 0, a.live.count())
}

func TestRouter_ChatPostRequiresIdentity(t *testing.T) {
	a := newApp(t)

	resp, _ := a.do(t, http.MethodPost, "/api/v1/chat/messages", "", PostMessageRequest{Content: "anon"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, data := a.do(t, http.MethodGet, "/api/v1/chat/messages", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `[]`, string(data))
	require.Equal(t, 0, a.live.count())
}

func TestRouter_ChatPostBroadcastsAndAppearsInHistory(t *testing.T) {
	a := newApp(t)
	token := a.signup(t, "ann@example.com", "Ann")

	resp, data := a.do(t, http.MethodPost, "/api/v1/chat/messages", token, PostMessageRequest{Content: "  hello  "})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var posted chat.MessageView
	require.NoError(t, json.Unmarshal(data, &posted))
	require.Equal(t, "hello", posted.Content)
	require.Equal(t, "Ann", posted.UserName)
	require.Equal(t, "community", posted.Channel)
	require.Equal(t, 1, a.live.count())

	resp, _ = a.do(t, http.MethodPost, "/api/v1/chat/messages", token, PostMessageRequest{Content: "   "})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, 1, a.live.count())

	// токен в query работает так же, как заголовок
	resp, data = a.do(t, http.MethodGet, "/api/v1/chat/messages?limit=10&token="+token, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got []chat.MessageView
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 1)
	require.Equal(t, posted.ID, got[0].ID)

	resp, _ = a.do(t, http.MethodGet, "/api/v1/chat/messages", "bad-token", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouter_ChatStoreDownIs503(t *testing.T) {
	a := newApp(t)
	token := a.signup(t, "ann@example.com", "Ann")
	a.store.Chat.SetFailure(errs.ErrStoreUnavailable)

	resp, _ := a.do(t, http.MethodPost, "/api/v1/chat/messages", token, PostMessageRequest{Content: "lost"})
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	require.Equal(t, 0, a.live.count())
}

func TestRouter_Workspace(t *testing.T) {
	a := newApp(t)
	token := a.signup(t, "ann@example.com", "Ann")

	resp, data := a.do(t, http.MethodGet, "/api/v1/workspaces/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ws WorkspaceResponse
	require.NoError(t, json.Unmarshal(data, &ws))
	require.Equal(t, "Ann's workspace", ws.WorkspaceName)
	require.Equal(t, "dark", ws.Theme)
	require.Empty(t, ws.Widgets)

	theme := "light"
	resp, data = a.do(t, http.MethodPut, "/api/v1/workspaces/me", token, WorkspaceUpdateRequest{Theme: &theme, Widgets: &[]string{"chat"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &ws))
	require.Equal(t, "light", ws.Theme)
	require.Equal(t, []string{"chat"}, ws.Widgets)
	require.Equal(t, "Ann's workspace", ws.WorkspaceName)

	bad := "neon"
	resp, _ = a.do(t, http.MethodPut, "/api/v1/workspaces/me", token, WorkspaceUpdateRequest{Theme: &bad})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, data = a.do(t, http.MethodGet, "/api/v1/users/"+jsonNumber(ws.UserID)+"/workspace", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &ws))
	require.Equal(t, "light", ws.Theme)
}

func jsonNumber(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func multipartBody(t *testing.T, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (a *app) upload(t *testing.T, token, name string, content []byte) (*http.Response, []byte) {
	t.Helper()
	body, ct := multipartBody(t, name, content)
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, a.srv.URL+"/api/v1/portfolio/upload", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+token)
	return send(t, req)
}

func TestRouter_PortfolioUploadAndServe(t *testing.T) {
	a := newApp(t)
	token := a.signup(t, "ann@example.com", "Ann")
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

	resp, data := a.upload(t, token, "shot.png", png)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	var asset MediaAssetResponse
	require.NoError(t, json.Unmarshal(data, &asset))
	require.Equal(t, "image", asset.FileType)
	require.True(t, strings.HasPrefix(asset.FileURL, "/uploads/"), asset.FileURL)
	require.True(t, strings.HasSuffix(asset.FileURL, ".png"), asset.FileURL)

	resp, data = a.do(t, http.MethodGet, asset.FileURL, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, png, data)

	resp, data = a.do(t, http.MethodGet, "/api/v1/portfolio/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []MediaAssetResponse
	require.NoError(t, json.Unmarshal(data, &list))
	require.Len(t, list, 1)

	resp, _ = a.upload(t, token, "notes.png", []byte("just some text, not an image"))
	require.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	resp, _ = a.upload(t, "", "shot.png", png)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
