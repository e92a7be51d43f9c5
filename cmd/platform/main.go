package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwrk-planet/kcd-platform/config"
	"github.com/cwrk-planet/kcd-platform/internal/chat"
	"github.com/cwrk-planet/kcd-platform/internal/metrics"
	"github.com/cwrk-planet/kcd-platform/internal/pg"
	"github.com/cwrk-planet/kcd-platform/internal/repository"
	"github.com/cwrk-planet/kcd-platform/internal/repository/memory"
	"github.com/cwrk-planet/kcd-platform/internal/repository/postgres"
	"github.com/cwrk-planet/kcd-platform/internal/security"
	"github.com/cwrk-planet/kcd-platform/internal/service"
	"github.com/cwrk-planet/kcd-platform/internal/storage/blob"
	grpcx "github.com/cwrk-planet/kcd-platform/internal/transport/grpc"
	httpx "github.com/cwrk-planet/kcd-platform/internal/transport/http"
	"github.com/cwrk-planet/kcd-platform/internal/transport/ws"
	"github.com/cwrk-planet/kcd-platform/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type stores struct {
	users      repository.UserRepository
	workspaces repository.WorkspaceRepository
	chat       repository.ChatRepository
	media      repository.MediaRepository
	tx         repository.TxManager
	ping       grpcx.PingFunc
	close      func()
}

func main() {
	storeKind := flag.String("store", "postgres", "postgres|memory")
	flag.Parse()

	// Config init
	cfg, err := config.LoadConfig()
	if err != nil {
		println("failed to load config:", err.Error())
		os.Exit(1)
	}

	// Logger init
	logger.Init(logger.Config{
		Env:       logger.ParseEnv(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		Level:     logger.ParseLevel(cfg.Logging.Level),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting kcd-platform",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version, "store", *storeKind)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, *storeKind)
	if err != nil {
		slog.Error("failed to init storage", slog.Any("err", err))
		os.Exit(1)
	}
	defer st.close()

	jwtSigner, err := newSigner(cfg.Security.JWT)
	if err != nil {
		slog.Error("failed to init jwt signer", slog.Any("err", err))
		os.Exit(1)
	}

	blobs, err := blob.NewLocal(cfg.Storage.UploadDir, cfg.Storage.PublicPrefix)
	if err != nil {
		slog.Error("failed to init upload dir", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	chatMetrics := metrics.NewChat(promReg)

	// Services init
	verifier := service.NewIdentityVerifier(jwtSigner, st.users)
	chatSvc := chat.NewService(verifier, st.chat, chat.NewDispatcher(chat.NewRegistry(), chatMetrics), chatMetrics, chat.Options{
		SendBuffer:    cfg.Chat.SendBuffer,
		FrameRate:     cfg.Chat.FrameRate,
		FrameBurst:    cfg.Chat.FrameBurst,
		CacheIdentity: cfg.Chat.CacheIdentity,
		HistoryLimit:  cfg.Chat.HistoryLimit,
	})
	passCfg := security.BcryptConfig{
		Cost:      cfg.Security.Password.BcryptCost,
		MinLength: cfg.Security.Password.MinLength,
	}

	h := httpx.NewHandler(httpx.Deps{
		Chat:       chatSvc,
		Auth:       service.NewAuthService(st.users, jwtSigner, time.Now),
		Users:      service.NewUserService(st.users, st.tx, passCfg, time.Now),
		Workspaces: service.NewWorkspaceService(st.workspaces, time.Now),
		Portfolio:  service.NewPortfolioService(st.media, blobs, cfg.Storage.MaxUploadBytes, time.Now),
		MaxUpload:  cfg.Storage.MaxUploadBytes,
	})
	wsServer := ws.NewServer(chatSvc, ws.Options{
		PingEvery:      cfg.Chat.PingEvery,
		WriteWait:      cfg.Chat.WriteWait,
		ReadLimit:      cfg.Chat.ReadLimit,
		AllowedOrigins: cfg.HTTP.CORSOrigins,
	})
	router := httpx.NewRouter(h, httpx.RouterOptions{
		Service:        cfg.Logging.Service,
		Version:        cfg.Logging.Version,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		UploadDir:      cfg.Storage.UploadDir,
		PublicPrefix:   cfg.Storage.PublicPrefix,
		Metrics:        promhttp.HandlerFor(promReg, promhttp.HandlerOpts{Registry: promReg}),
		WS:             wsServer.HandleWS,
		Authn:          verifier,
	})

	httpServer := httpx.NewServer(httpx.ServerConfig{
		Addr:            cfg.HTTP.Addr,
		ReadTimeout:     cfg.HTTP.ReadTimeout,
		WriteTimeout:    cfg.HTTP.WriteTimeout,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	}, router, chatSvc.CloseAll)

	errCh := make(chan error, 2)

	// gRPC health
	var health *grpcx.Health
	if cfg.GRPC.Addr != "" {
		health = grpcx.NewHealth(cfg.Logging.Service, st.ping)
		grpcServer := grpcx.NewServer(health, 10*time.Second)
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			slog.Error("failed to listen grpc", slog.Any("err", err))
			os.Exit(1)
		}
		go health.Watch(ctx, 10*time.Second)
		go func() {
			slog.Info("grpc listen", "addr", cfg.GRPC.Addr)
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- err
			}
		}()
		defer grpcServer.GracefulStop()
	}

	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		errCh <- httpServer.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			slog.Error("server error", slog.Any("err", err))
		}
		stop()
	}

	// Graceful shutdown
	if health != nil {
		health.Shutdown()
	}
	select {
	case err := <-errCh:
		if err != nil {
			slog.Warn("http shutdown", slog.Any("err", err))
		}
	case <-time.After(cfg.HTTP.ShutdownTimeout + time.Second):
		slog.Warn("http shutdown timed out")
	}
	chatSvc.CloseAll()
	slog.Info("stopped")
}

func openStores(ctx context.Context, cfg *config.Config, kind string) (*stores, error) {
	switch kind {
	case "memory":
		m := memory.New(time.Now)
		return &stores{
			users:      m.Users,
			workspaces: m.Workspaces,
			chat:       m.Chat,
			media:      m.Media,
			tx:         m,
			ping:       func(context.Context) error { return nil },
			close:      func() {},
		}, nil
	case "postgres":
	default:
		return nil, errors.New("unknown -store " + kind)
	}

	pool, err := pg.NewPool(ctx, cfg.Postgres.ToPGConfig())
	if err != nil {
		return nil, err
	}
	slog.Info("connected to postgres")

	if cfg.Postgres.Migrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}

	return &stores{
		users:      postgres.NewUserRepo(pool),
		workspaces: postgres.NewWorkspaceRepo(pool),
		chat:       postgres.NewChatRepo(pool),
		media:      postgres.NewMediaRepo(pool),
		tx:         postgres.NewTxManager(pool),
		ping:       func(ctx context.Context) error { return pg.Ping(ctx, pool) },
		close:      pool.Close,
	}, nil
}

func newSigner(c config.JWT) (*security.JWTSigner, error) {
	if c.Alg == "RS256" {
		private, err := security.LoadRSAPrivateKeyFromPEM(c.PrivateKeyPath)
		if err != nil {
			return nil, err
		}
		public, err := security.LoadRSAPublicKeyFromPEM(c.PublicKeyPath)
		if err != nil {
			return nil, err
		}
		return security.NewRS256Signer(private, public, c.Issuer, c.Audience, c.AccessTTL, c.ClockSkew), nil
	}
	return security.NewHS256Signer([]byte(c.Secret), c.Issuer, c.Audience, c.AccessTTL, c.ClockSkew), nil
}
