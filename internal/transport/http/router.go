package http

import (
	"net/http"
	"strings"
	"time"

	httpmw "github.com/cwrk-planet/kcd-platform/internal/transport/http/middleware"
	"github.com/cwrk-planet/kcd-platform/pkg/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterOptions struct {
	Service        string
	Version        string
	CORSOrigins    []string
	RequestTimeout time.Duration
	UploadDir      string
	PublicPrefix   string // /uploads
	Metrics        http.Handler
	WS             http.HandlerFunc
	Authn          httpmw.Authenticator
}

func NewRouter(h *Handler, o RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.MiddlewareRequestID)
	r.Use(httputil.MiddlewareLogging)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   o.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	health := func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, HealthResponse{Status: "ok", Service: o.Service, Version: o.Version})
	}
	// корневой алиас для балансировщиков
	r.Get("/health", health)
	if o.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", o.Metrics)
	}

	// загруженные файлы
	if o.UploadDir != "" {
		prefix := "/" + strings.Trim(o.PublicPrefix, "/")
		fs := http.StripPrefix(prefix+"/", http.FileServer(http.Dir(o.UploadDir)))
		r.Get(prefix+"/*", fs.ServeHTTP)
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/health", health)

		// WS живёт дольше любого таймаута запроса
		if o.WS != nil {
			api.Get("/chat/ws", o.WS)
		}

		api.Group(func(g chi.Router) {
			if o.RequestTimeout > 0 {
				g.Use(middleware.Timeout(o.RequestTimeout))
			}

			g.Get("/chat/messages", h.ListMessages)
			g.Post("/chat/messages", h.PostMessage)

			g.Post("/auth/login", h.Login)
			g.Post("/users", h.Register)

			// Все маршруты ниже требуют валидный токен
			g.Group(func(pr chi.Router) {
				pr.Use(httpmw.RequireUser(o.Authn))

				pr.Get("/users/me", h.Me)
				pr.Get("/users/{id}", h.GetUser)
				pr.Get("/users/{id}/workspace", h.GetUserWorkspace)

				pr.Get("/workspaces/me", h.MyWorkspace)
				pr.Put("/workspaces/me", h.UpdateMyWorkspace)

				pr.Get("/portfolio/me", h.MyAssets)
				pr.Post("/portfolio/upload", h.UploadAsset)
			})
		})
	})

	return r
}
