package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cwrk-planet/kcd-platform/internal/domain"
	"github.com/cwrk-planet/kcd-platform/internal/errs"
	"github.com/cwrk-planet/kcd-platform/internal/metrics"
	"github.com/cwrk-planet/kcd-platform/pkg/logger"
)

// Dispatcher рассылает сообщение всем соединениям реестра.
// Порядок для одного соединения задаёт его очередь отправки.
type Dispatcher struct {
	reg     *Registry
	metrics *metrics.Chat
}

func NewDispatcher(reg *Registry, m *metrics.Chat) *Dispatcher {
	return &Dispatcher{reg: reg, metrics: m}
}

func (d *Dispatcher) Registry() *Registry {
	return d.reg
}

// Broadcast сериализует сообщение один раз и ставит его в очередь каждому.
// Соединения с неудачной отправкой снимаются с реестра и закрываются.
func (d *Dispatcher) Broadcast(ctx context.Context, msg domain.ChatMessage) (delivered int, err error) {
	payload, err := json.Marshal(NewMessageView(msg))
	if err != nil {
		return 0, fmt.Errorf("chat.broadcast marshal: %w", err)
	}

	var failed []Conn
	for _, c := range d.reg.Snapshot() {
		ok, err := d.reg.deliver(c, payload)
		if !ok {
			continue
		}
		if err != nil {
			failed = append(failed, c)
			continue
		}
		delivered++
	}

	for _, c := range failed {
		if d.reg.Unregister(c) {
			d.metrics.ConnClosed()
		}
		_ = c.Close()
		logger.FromContext(ctx).Warn("chat.broadcast evicted connection",
			slog.String("conn", c.ID()),
			slog.Any("err", errs.ErrConnectionLost),
		)
	}
	d.metrics.Broadcast(delivered, len(failed))

	return delivered, nil
}
