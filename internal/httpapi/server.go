package httpapi

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"pointsmarket/internal/config"
	"pointsmarket/internal/engine"
	"pointsmarket/internal/metrics"
)

// Server wraps the Fiber app serving the public API.
type Server struct {
	app    *fiber.App
	addr   string
	engine *engine.Engine
	logger *slog.Logger
}

// New builds the API server. The body limit bounds request memory; no
// other fasthttp tuning is needed at this scale.
func New(cfg config.ServerConfig, eng *engine.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	app := fiber.New(fiber.Config{
		BodyLimit:             cfg.BodyLimit,
		ReadTimeout:           cfg.ReadTimeout,
		DisableStartupMessage: true,
	})

	s := &Server{
		app:    app,
		addr:   cfg.Addr,
		engine: eng,
		logger: logger,
	}
	s.registerRoutes()
	return s
}

// App exposes the underlying Fiber app for tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves until Shutdown is called.
func (s *Server) Listen() error { return s.app.Listen(s.addr) }

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown() error { return s.app.Shutdown() }

// countRequests records per-route request counters. The route pattern,
// not the raw URL, keeps label cardinality bounded.
func countRequests() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		metrics.HTTPRequests.WithLabelValues(
			c.Method(),
			c.Route().Path,
			strconv.Itoa(c.Response().StatusCode()),
		).Inc()
		return err
	}
}

// respondError maps an engine error kind to an HTTP status. Storage
// failures are logged in full but surface only a generic message.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	var e *engine.Error
	if !errors.As(err, &e) {
		s.logger.Error("unclassified error", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"kind":  "internal",
			"error": "internal error",
		})
	}

	status := fiber.StatusInternalServerError
	message := e.Message
	switch e.Kind {
	case engine.KindAuthentication:
		status = fiber.StatusUnauthorized
	case engine.KindAuthorization:
		status = fiber.StatusForbidden
	case engine.KindValidation:
		status = fiber.StatusBadRequest
	case engine.KindConflict:
		status = fiber.StatusConflict
	case engine.KindNotFound:
		status = fiber.StatusNotFound
	case engine.KindStorage:
		s.logger.Error("storage failure", "path", c.Path(), "error", err)
		message = "storage failure"
	}

	return c.Status(status).JSON(fiber.Map{
		"kind":  string(e.Kind),
		"error": message,
	})
}
