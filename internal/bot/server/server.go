package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"NetPulse/internal/bot/dependencies"
	"NetPulse/internal/bot/handlers"
	"NetPulse/pkg/uuidutil"

	"github.com/gin-gonic/gin"
)

type Server struct {
	router     *gin.Engine
	config     *Config
	container  *dependencies.Container
	handlers   *handlers.Handlers
	httpServer *http.Server
}

type Config struct {
	Port int
	Mode string
}

// New builds the HTTP server around the dependency container.
func New(config *Config, container *dependencies.Container) *Server {
	if config.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &Server{
		router:    gin.New(),
		config:    config,
		container: container,
		handlers: handlers.NewHandlers(
			container.Webex,
			container.TestService,
			container.Config.Webex.BotEmail,
			container.Logger.With("component", "handlers"),
		),
	}

	server.setupMiddlewares()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddlewares() {
	// Recovery middleware
	s.router.Use(gin.Recovery())

	// Logger middleware
	s.router.Use(s.loggerMiddleware())

	// Request ID middleware
	s.router.Use(s.requestIDMiddleware())
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.healthCheck)

	// Webex webhook endpoints
	s.router.POST("/", s.handlers.MessageWebhook)
	s.router.POST("/card", s.handlers.CardWebhook)

	// 404 handler
	s.router.NoRoute(s.notFoundHandler)
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "netpulse-bot",
		"version":   "1.0.0",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) notFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"error":   "not_found",
		"message": "Endpoint not found",
		"path":    c.Request.URL.Path,
	})
}

func (s *Server) loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		clientIP := c.ClientIP()
		method := c.Request.Method
		statusCode := c.Writer.Status()
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		if query != "" {
			path = path + "?" + query
		}

		logger := slog.Info
		if statusCode >= 400 {
			logger = slog.Warn
		}
		if statusCode >= 500 {
			logger = slog.Error
		}

		logger("HTTP request",
			"status", statusCode,
			"method", method,
			"path", path,
			"ip", clientIP,
			"latency", latency,
			"error", errorMessage,
		)
	}
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = "req-" + uuidutil.Short()
		}

		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("Starting HTTP server",
		"port", s.config.Port,
		"mode", s.config.Mode,
		"address", addr,
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown performs a graceful shutdown of the server and its dependencies.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server...")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
	}

	if s.container != nil {
		if err := s.container.Close(); err != nil {
			slog.Error("Failed to close dependencies", "error", err)
		}
	}

	slog.Info("Server shutdown completed")
	return nil
}

// GetRouter exposes the router for tests.
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
