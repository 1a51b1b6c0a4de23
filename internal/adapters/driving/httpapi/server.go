package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/Januuus/chatbot/internal/core/ports/driving"
	"github.com/Januuus/chatbot/internal/logger"
)

// Defaults applied by New.
const (
	DefaultAddr            = ":10000"
	DefaultRateLimitWindow = 15 * time.Minute
	DefaultRateLimitMax    = 100
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxFileSize     = 10 << 20

	// multipartOverhead is added to the file limit to size the body limit.
	multipartOverhead = 1 << 20
)

// Config configures the HTTP server.
type Config struct {
	Addr            string
	PublicDir       string
	CORSOrigin      string
	APIKey          string
	RateLimitWindow time.Duration
	RateLimitMax    int
	MaxFileSize     int64
	ShutdownTimeout time.Duration
	TrainingDir     string
}

// RequestRecorder receives one observation per HTTP request.
type RequestRecorder interface {
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
}

// Services are the core services the handlers call.
type Services struct {
	Documents driving.DocumentService
	Chat      driving.ChatService
	Training  driving.TrainingService

	// Recorder and MetricsHandler are optional.
	Recorder       RequestRecorder
	MetricsHandler http.Handler
}

// Server is the HTTP front end.
type Server struct {
	app *fiber.App
	cfg Config
}

// New builds the Fiber application with middleware and routes.
func New(cfg Config, svcs Services) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = DefaultRateLimitWindow
	}
	if cfg.RateLimitMax <= 0 {
		cfg.RateLimitMax = DefaultRateLimitMax
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = "*"
	}

	app := fiber.New(fiber.Config{
		AppName:               "chatbot",
		BodyLimit:             int(cfg.MaxFileSize) + multipartOverhead,
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})

	app.Use(fiberrecover.New())
	app.Use(requestLogger(svcs.Recorder))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigin,
		AllowHeaders: "Origin, Content-Type, Accept, " + apiKeyHeader,
		AllowMethods: "GET,POST,DELETE,OPTIONS",
	}))
	app.Use(compress.New())

	if svcs.MetricsHandler != nil {
		app.Get("/metrics", adaptor.HTTPHandler(svcs.MetricsHandler))
	}

	h := &handlers{
		documents:   svcs.Documents,
		chat:        svcs.Chat,
		training:    svcs.Training,
		trainingDir: cfg.TrainingDir,
	}

	limiter := newIPRateLimiter(cfg.RateLimitWindow, cfg.RateLimitMax)
	api := app.Group("/api", limiter.handler(), apiKeyAuth(cfg.APIKey, "/api/health"))

	api.Get("/health", h.health)
	api.Post("/chat", h.chatQuery)
	api.Post("/documents", h.uploadDocument)
	api.Get("/documents/search", h.searchDocuments)
	api.Get("/documents/:id", h.getDocument)
	api.Delete("/documents/:id", h.deleteDocument)
	api.Get("/conversations", h.conversations)
	api.Post("/process-training-docs", h.processTraining)

	if cfg.PublicDir != "" {
		app.Static("/", cfg.PublicDir)
	}

	if cfg.APIKey == "" {
		logger.Warn("No API key configured, /api routes are unauthenticated")
	}

	return &Server{app: app, cfg: cfg}
}

// App returns the underlying Fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening on %s", s.cfg.Addr)
		errCh <- s.app.Listen(s.cfg.Addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		logger.Info("Shutting down server")
		if err := s.app.ShutdownWithTimeout(s.cfg.ShutdownTimeout); err != nil {
			return err
		}
		return <-errCh
	}
}
