package httpapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"pointsmarket/internal/engine"
	"pointsmarket/internal/model"
)

const actorKey = "actor"

// bearerToken extracts the token from the Authorization header, or ""
// when absent or malformed.
func bearerToken(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(auth, "Bearer ")
}

// requireSession resolves the bearer principal before any handler runs
// and stashes the live account in request locals.
func (s *Server) requireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return s.respondError(c, &engine.Error{
				Kind:    engine.KindAuthentication,
				Message: "missing bearer token",
			})
		}
		actor, err := s.engine.ResolveSession(token)
		if err != nil {
			return s.respondError(c, err)
		}
		c.Locals(actorKey, actor)
		return c.Next()
	}
}

func actorFrom(c *fiber.Ctx) model.Account {
	actor, _ := c.Locals(actorKey).(model.Account)
	return actor
}
