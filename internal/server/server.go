package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/menta2k/plant-identifier/internal/config"
	"github.com/menta2k/plant-identifier/internal/handler"
	"github.com/menta2k/plant-identifier/pkg/identification"
)

// Server is the HTTP front end of the identifier
type Server struct {
	httpServer *http.Server
	cfg        *config.Config
	log        *zap.Logger
}

// New builds the gin router with its middleware and routes
func New(cfg *config.Config, identifier *identification.Identifier, log *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(handler.RequestLogger(log))
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:   []string{"Content-Length", handler.RequestIDKey},
		MaxAge:          12 * time.Hour,
	}))
	router.Use(handler.BodyLimit(cfg.Server.BodyLimit))

	h := handler.NewHandler(identifier, log)

	router.GET("/health", h.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/identify", h.Identify)
	}

	server := &Server{
		httpServer: &http.Server{
			Addr:              cfg.Address(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			MaxHeaderBytes:    1 << 20, // 1 MB
		},
		cfg: cfg,
		log: log,
	}

	log.Info("Server created successfully",
		zap.String("address", cfg.Address()),
		zap.String("backend", identifier.Backend()),
		zap.String("model", identifier.Model()))

	return server
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run listens on the configured address until Shutdown is called
func (s *Server) Run() error {
	s.log.Sugar().Infof("Server running on http://%s", s.cfg.Address())
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting requests and waits for running ones to finish
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down server")
	return s.httpServer.Shutdown(ctx)
}
