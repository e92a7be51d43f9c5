package ws

import (
	"sync"
	"time"

	"github.com/cwrk-planet/kcd-platform/internal/errs"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// wsConn: chat.Conn поверх gorilla. Send не блокирует: кадр кладётся
// в буфер, пишет единственная горутина writeLoop.
type wsConn struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
	done   chan struct{}
	once   sync.Once
}

func newWsConn(c *websocket.Conn, buffer int) *wsConn {
	if buffer <= 0 {
		buffer = 64
	}
	return &wsConn{
		id:   uuid.NewString(),
		conn: c,
		send: make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

func (c *wsConn) ID() string { return c.id }

func (c *wsConn) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errs.ErrConnectionLost
	}
	select {
	case c.send <- payload:
		return nil
	default:
		// медленный клиент
		return errs.ErrConnectionLost
	}
}

func (c *wsConn) Close() error {
	var err error
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.done)
		c.mu.Unlock()
		err = c.conn.Close()
	})
	return err
}

// closeWith отправляет close-фрейм с кодом; WriteControl безопасен параллельно с writeLoop
func (c *wsConn) closeWith(code int, text string, wait time.Duration) {
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(wait))
}

func (c *wsConn) writeLoop(pingEvery, writeWait time.Duration) {
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()

	for {
		select {
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				_ = c.Close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				_ = c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}
