package grpcx

import (
	"context"
	"log/slog"
	"time"

	"github.com/cwrk-planet/kcd-platform/pkg/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Pinger: зависимость, без которой сервис не обслуживает запросы (postgres)
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Health публикует grpc.health.v1 для сервиса и для "" (весь сервер)
type Health struct {
	srv     *health.Server
	service string
	pinger  Pinger
}

func NewHealth(service string, p Pinger) *Health {
	h := &Health{srv: health.NewServer(), service: service, pinger: p}
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

func (h *Health) set(st healthpb.HealthCheckResponse_ServingStatus) {
	h.srv.SetServingStatus("", st)
	h.srv.SetServingStatus(h.service, st)
}

// Check пингует зависимость один раз и обновляет статус
func (h *Health) Check(ctx context.Context) bool {
	if err := h.pinger.Ping(ctx); err != nil {
		logger.FromContext(ctx).Warn("health: dependency down", slog.Any("err", err))
		h.set(healthpb.HealthCheckResponse_NOT_SERVING)
		return false
	}
	h.set(healthpb.HealthCheckResponse_SERVING)
	return true
}

// Watch проверяет зависимость каждые every до отмены ctx
func (h *Health) Watch(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = 10 * time.Second
	}
	h.Check(ctx)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			h.Check(ctx)
		}
	}
}

// Shutdown переводит всё в NOT_SERVING, клиенты перестают слать запросы
func (h *Health) Shutdown() {
	h.srv.Shutdown()
}

func NewServer(h *Health, callTimeout time.Duration) *grpc.Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(UnaryServerInterceptor(callTimeout)),
		grpc.ChainStreamInterceptor(StreamServerInterceptor()),
	)
	healthpb.RegisterHealthServer(s, h.srv)
	reflection.Register(s)
	return s
}
