// Package http exposes the service API: a pull request webhook that
// generates documentation and a question answering endpoint backed by
// the documentation index.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docweaver/internal/logging"
	"github.com/fyrsmithlabs/docweaver/internal/scm"
)

// DocumentationPipeline generates, indexes, and publishes
// documentation for a pull request.
type DocumentationPipeline interface {
	Run(ctx context.Context, ref scm.PullRequestRef) (string, error)
}

// QAPipeline answers questions against the documentation index.
type QAPipeline interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// TargetBranch is the base branch pull requests must target to
	// qualify for documentation generation.
	TargetBranch string

	// RateLimit is the sustained per-IP request rate per second.
	// Zero disables rate limiting.
	RateLimit float64

	// RateBurst is the per-IP burst allowance.
	RateBurst int
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 5000
	}
	if c.TargetBranch == "" {
		c.TargetBranch = "main"
	}
	if c.RateBurst == 0 {
		c.RateBurst = 10
	}
}

// Server serves the documentation API.
type Server struct {
	echo      *echo.Echo
	docs      DocumentationPipeline
	assistant QAPipeline
	logger    *logging.Logger
	config    Config
}

// NewServer creates the server with its middleware and routes.
func NewServer(docs DocumentationPipeline, assistant QAPipeline, logger *logging.Logger, cfg Config) (*Server, error) {
	if docs == nil {
		return nil, fmt.Errorf("documentation pipeline is required")
	}
	if assistant == nil {
		return nil, fmt.Errorf("qa pipeline is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	cfg.ApplyDefaults()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit("1M"))
	if cfg.RateLimit > 0 {
		e.Use(newRateLimiter(cfg.RateLimit, cfg.RateBurst, logger).middleware())
	}

	e.Use(newHTTPMetrics().middleware())

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := logging.ContextWithRequestID(c.Request().Context(),
				c.Response().Header().Get(echo.HeaderXRequestID))
			c.SetRequest(c.Request().WithContext(ctx))

			start := time.Now()
			err := next(c)

			logger.Info(ctx, "http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
			)
			return err
		}
	})

	s := &Server{
		echo:      e,
		docs:      docs,
		assistant: assistant,
		logger:    logger,
		config:    cfg,
	}
	s.registerRoutes()

	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.POST("/webhook", s.handleWebhook)
	s.echo.POST("/doc-assistant", s.handleAssistant)
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the error body for all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
