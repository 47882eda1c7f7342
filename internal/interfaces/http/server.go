// Package http exposes the claim, export and settings services over JSON/HTTP.
// Handlers only decode requests, resolve the acting user and map errors to status codes.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/expense-workflow/internal/application/service"
)

// Logger is the structured logger used by the server and handlers.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown; zero means 10s.
	ShutdownTimeout time.Duration
	// Mode is the gin mode: release, debug or test
	Mode            string
}

// DefaultServerConfig listens on :8080 in release mode.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Mode:         gin.ReleaseMode,
	}
}

// Services groups the application services behind the routes.
type Services struct {
	Claims   service.ClaimService
	Export   service.ExportService
	Settings service.SettingsService
}

// HealthFunc reports whether the backing components are healthy.
// details is rendered as is.
type HealthFunc func(ctx context.Context) (healthy bool, details interface{})

// Server owns the gin router and the underlying http.Server.
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	services   Services
	health     HealthFunc
	logger     Logger
}

// NewServer creates a new HTTP server with the given services.
// health may be nil.
func NewServer(config ServerConfig, services Services, health HealthFunc, logger Logger) *Server {
	mode := config.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	router := gin.New()

	server := &Server{
		config:   config,
		router:   router,
		services: services,
		health:   health,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// Request ids are assigned before the access log so every line carries one.
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery(), requestIDMiddleware(), s.accessLog())
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		began := time.Now()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		c.Next()

		fields := []interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", c.Writer.Status(),
			"elapsed", time.Since(began).String(),
			"request_id", c.GetString(requestIDKey),
		}
		if v, ok := c.Get(viewerKey); ok {
			fields = append(fields, "user_id", v.(viewer).id)
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			s.logger.Error("request failed", fields...)
			return
		}
		s.logger.Info("request served", fields...)
	}
}

func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.services, s.health, s.logger)

	s.router.GET("/health", handlers.HealthCheck)

	api := s.router.Group("/api", identityMiddleware())
	{
		claims := api.Group("/claims")
		claims.GET("", handlers.LoadClaim)
		claims.GET("/:id", handlers.LoadClaimByID)
		claims.POST("/quote", handlers.QuoteClaim)
		claims.PUT("/draft", handlers.SaveDraft)
		claims.POST("/save", handlers.SaveClaim)
		claims.POST("/submit", handlers.SubmitClaim)
		claims.POST("/rows/delete", handlers.DeleteRow)
		claims.POST("/rows/confirm", handlers.ConfirmRow)
		claims.POST("/rows/import", handlers.ImportRows)
		claims.POST("/:id/approve", handlers.ApproveClaim)
		claims.POST("/:id/reject", handlers.RejectClaim)
		claims.POST("/:id/complete", handlers.CompleteClaim)
		claims.POST("/:id/reopen", handlers.ReopenClaim)
		claims.POST("/:id/not-submitted", handlers.MarkNotSubmitted)
		claims.POST("/:id/check", handlers.CheckClaim)
		claims.GET("/:id/history", handlers.ClaimHistory)
		claims.GET("/:id/export.xlsx", handlers.ExportClaim)

		periods := api.Group("/periods/:period")
		periods.GET("/claims", handlers.ListPeriod)
		periods.GET("/export.xlsx", handlers.ExportPeriod)
		periods.GET("/fuel-settings", handlers.GetFuelSettings)
		periods.PUT("/fuel-settings", handlers.UpdateFuelSettings)
		periods.GET("/fuel-quote", handlers.QuoteFuel)

		api.GET("/cards", handlers.ListCorporateCards)
		api.PUT("/cards/:cardID", handlers.SaveCorporateCard)
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
// A listen failure is returned immediately.
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("expense API listening", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("expense API stopped unexpectedly", "error", err)
		return err
	}
}

// Stop drains in-flight requests. It is a no-op before Start.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("expense API shutdown incomplete", "error", err)
		return err
	}

	s.logger.Info("expense API stopped")
	return nil
}

// Router exposes the gin engine to tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address is host:port as passed to the listener.
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
