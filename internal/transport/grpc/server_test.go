package grpcx

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func dialBuf(t *testing.T, s *grpc.Server) healthpb.HealthClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	cc, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cc.Close() })
	return healthpb.NewHealthClient(cc)
}

func TestHealth_FollowsDependency(t *testing.T) {
	var down atomic.Bool
	h := NewHealth("kcd-platform", PingFunc(func(context.Context) error {
		if down.Load() {
			return errors.New("db gone")
		}
		return nil
	}))
	client := dialBuf(t, NewServer(h, time.Second))
	ctx := context.Background()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: "kcd-platform"})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())

	require.True(t, h.Check(ctx))
	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	down.Store(true)
	require.False(t, h.Check(ctx))
	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: "kcd-platform"})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}

func TestHealth_UnknownService(t *testing.T) {
	h := NewHealth("kcd-platform", PingFunc(func(context.Context) error { return nil }))
	client := dialBuf(t, NewServer(h, time.Second))

	_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "nope"})
	require.Equal(t, codes.NotFound, status.Code(err))
}

func TestUnaryInterceptor_RecoversPanicAndSetsDeadline(t *testing.T) {
	icpt := UnaryServerInterceptor(time.Second)
	info := &grpc.UnaryServerInfo{FullMethod: "/test/Panic"}

	_, err := icpt(context.Background(), nil, info, func(ctx context.Context, _ any) (any, error) {
		_, ok := ctx.Deadline()
		require.True(t, ok)
		panic("boom")
	})
	require.Equal(t, codes.Internal, status.Code(err))
}
