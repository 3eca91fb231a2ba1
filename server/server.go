package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"community-server/auth"
	"community-server/confs"
	"community-server/handlers"
	httpHandler "community-server/handlers/http"
	"community-server/logging"
	"community-server/media"
	"community-server/metrics"
	"community-server/middleware"
	"community-server/repositories"
	"community-server/usecases"
	"community-server/ws"
)

// Deps are the stores the server runs on.
type Deps struct {
	Users repositories.UserRepository
	Subs  repositories.SubRepository
	Media media.Store
	// MediaDir is served at /images when set.
	MediaDir string
	Registry *prometheus.Registry
}

type Server struct {
	app  *gin.Engine
	cfg  confs.Config
	log  logging.Logger
	http *http.Server
}

func NewServer(cfg confs.Config, log logging.Logger, deps Deps) (*Server, error) {
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}
	m := metrics.New(deps.Registry)

	sessions, err := auth.NewSessions([]byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		return nil, err
	}

	// Initialize use cases
	userUseCase, err := usecases.NewUserUseCase(deps.Users, auth.NewHasher(cfg.BcryptCost))
	if err != nil {
		return nil, err
	}
	manager := ws.NewManager()
	subUseCase := usecases.NewSubUseCase(deps.Subs, deps.Media, manager, m, log)

	// Initialize handlers
	authHandler := httpHandler.NewAuthHandler(userUseCase, sessions, httpHandler.CookieConfig{
		Name:   cfg.CookieName,
		Domain: cfg.CookieDomain,
		Secure: cfg.CookieSecure,
	}, log)
	subHandler := httpHandler.NewSubHandler(subUseCase, log)
	wsHandler := handlers.NewWSHandler(manager, subUseCase, cfg.CORSOrigins, log)

	s := &Server{app: gin.Default(), cfg: cfg, log: log}

	s.app.Use(m.Instrument())
	if len(cfg.CORSOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = cfg.CORSOrigins
		corsConfig.AllowCredentials = true
		corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
		s.app.Use(cors.New(corsConfig))
	}
	s.app.Use(middleware.ResolveIdentity(sessions, deps.Users, cfg.CookieName, log, m))

	s.app.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	s.app.GET("/metrics", gin.WrapH(m.Handler()))
	if deps.MediaDir != "" {
		s.app.Static("/images", deps.MediaDir)
	}

	requireAuth := middleware.RequireAuthenticated(log)
	ownsSub := middleware.RequireOwnership(middleware.SubByParam(subUseCase, "name"), log)
	upload := middleware.Upload(deps.Media, cfg.MaxUploadBytes, cfg.AllowedImageTypes, log)

	api := s.app.Group("/api")
	{
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/logout", authHandler.Logout)
			authRoutes.GET("/me", requireAuth, authHandler.Me)
		}

		subs := api.Group("/subs")
		{
			subs.POST("", requireAuth, subHandler.CreateSub)
			subs.GET("/:name", subHandler.GetSub)
			subs.POST("/:name/upload", requireAuth, ownsSub, upload, subHandler.UploadAsset)
			subs.GET("/:name/events", wsHandler.SubEvents)
		}
	}

	s.http = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.app,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.app }

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.log.Info(context.Background(), "server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
