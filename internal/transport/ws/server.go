package ws

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/cwrk-planet/kcd-platform/internal/chat"
	"github.com/cwrk-planet/kcd-platform/internal/errs"
	httpmw "github.com/cwrk-planet/kcd-platform/internal/transport/http/middleware"
	"github.com/cwrk-planet/kcd-platform/pkg/httputil"
	"github.com/cwrk-planet/kcd-platform/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

type Options struct {
	PingEvery      time.Duration // 15s
	WriteWait      time.Duration // 5s
	ReadLimit      int64         // 64KiB
	AllowedOrigins []string      // "*": любой
}

func (o Options) withDefaults() Options {
	if o.PingEvery <= 0 {
		o.PingEvery = 15 * time.Second
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 5 * time.Second
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = 64 << 10
	}
	return o
}

type Server struct {
	upgrader websocket.Upgrader
	chat     *chat.Service
	opts     Options
}

func NewServer(svc *chat.Service, opts Options) *Server {
	opts = opts.withDefaults()
	return &Server{
		chat: svc,
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(opts.AllowedOrigins),
		},
	}
}

// originChecker: без Origin (не браузер) пропускаем, иначе сверяем host со списком
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || lo.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return lo.ContainsBy(allowed, func(a string) bool {
			a = strings.TrimRight(a, "/")
			return strings.EqualFold(a, origin) || strings.EqualFold(a, u.Host)
		})
	}
}

// HandleWS: GET /api/v1/chat/ws?token=...
// Личность проверяется до апгрейда, неверный токен получает обычный HTTP-ответ.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := s.chat.NewSession(httpmw.Credential(r))

	if _, err := sess.Verify(ctx); err != nil {
		status := errs.ToHTTP(err)
		msg := "could not validate credentials"
		if status >= http.StatusInternalServerError {
			msg = "service unavailable"
		}
		logger.FromContext(ctx).Info("ws handshake rejected", slog.Int("status", status), slog.Any("err", err))
		httputil.Error(ctx, w, status, msg, nil)
		return
	}

	raw, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader уже ответил клиенту
		logger.FromContext(ctx).Warn("ws upgrade failed", slog.Any("err", err))
		sess.Close("handshake")
		return
	}

	c := newWsConn(raw, s.chat.Options().SendBuffer)
	if err := sess.Attach(c); err != nil {
		_ = c.Close()
		sess.Close("error")
		return
	}

	// снятие с учёта обязано выполниться при любом выходе, включая панику в store
	defer func() {
		if p := recover(); p != nil {
			logger.FromContext(ctx).Error("ws session panic",
				slog.Any("panic", p), slog.String("stack", string(debug.Stack())))
			err = fmt.Errorf("ws session panic: %v", p)
		}
		if err != nil {
			c.closeWith(closeCode(err), closeText(err), s.opts.WriteWait)
		}
		sess.Close(chat.CloseReason(err))
		sess.LogClose(ctx, err)
	}()

	go c.writeLoop(s.opts.PingEvery, s.opts.WriteWait)

	err = s.readLoop(r, sess, c)
}

// readLoop возвращает nil, если клиент ушёл сам
func (s *Server) readLoop(r *http.Request, sess *chat.Session, c *wsConn) error {
	ctx := r.Context()

	c.conn.SetReadLimit(s.opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.opts.PingEvery))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * s.opts.PingEvery))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if errors.Is(err, websocket.ErrReadLimit) {
				return errors.Join(chat.ErrMalformedFrame, err)
			}
			return nil
		}
		if err := sess.Handle(ctx, data); err != nil {
			if errors.Is(err, chat.ErrSessionState) {
				// сессию закрыли снаружи (shutdown)
				return nil
			}
			return err
		}
	}
}

func closeCode(err error) int {
	switch chat.CloseReason(err) {
	case "malformed":
		return websocket.CloseUnsupportedData
	case "auth":
		return websocket.ClosePolicyViolation
	default:
		return websocket.CloseInternalServerErr
	}
}

func closeText(err error) string {
	switch chat.CloseReason(err) {
	case "malformed":
		return "malformed frame"
	case "auth":
		return "could not validate credentials"
	case "store":
		return "store unavailable"
	default:
		return "internal error"
	}
}
