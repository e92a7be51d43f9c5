package chat

import (
	"sync"
)

// Conn: живое соединение, получающее все каналы.
// Send не блокируется: заполненная очередь или закрытое соединение дают ошибку.
type Conn interface {
	ID() string
	Send(payload []byte) error
	Close() error
}

// Registry: множество живых соединений.
// Доставка идёт под RLock с проверкой членства, поэтому после возврата
// из Unregister соединение больше ничего не получит.
type Registry struct {
	mu    sync.RWMutex
	conns map[Conn]struct{}
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[Conn]struct{})}
}

// Register возвращает false, если соединение уже было зарегистрировано
func (r *Registry) Register(c Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[c]; ok {
		return false
	}
	r.conns[c] = struct{}{}
	return true
}

// Unregister возвращает false, если соединения уже не было
func (r *Registry) Unregister(c Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[c]; !ok {
		return false
	}
	delete(r.conns, c)
	return true
}

func (r *Registry) Snapshot() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Conn, 0, len(r.conns))
	for c := range r.conns {
		out = append(out, c)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}

// deliver отправляет payload, только если c всё ещё в реестре.
// ok=false: соединение уже снято и доставка пропущена.
func (r *Registry) deliver(c Conn, payload []byte) (ok bool, err error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, member := r.conns[c]; !member {
		return false, nil
	}
	return true, c.Send(payload)
}
