package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"pointsmarket/internal/engine"
)

func (s *Server) registerRoutes() {
	s.app.Use(countRequests())

	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	s.app.Post("/api/login", s.handleLogin)
	s.app.Post("/api/logout", s.handleLogout)

	api := s.app.Group("/api", s.requireSession())
	api.Get("/me", s.handleMe)
	api.Get("/events", s.handleListEvents)
	api.Post("/events", s.handleCreateEvent)
	api.Post("/events/:id/bet", s.handlePlaceBet)
	api.Post("/events/:id/close", s.handleCloseEvent)
	api.Post("/events/:id/resolve", s.handleResolveEvent)
	api.Post("/password", s.handleChangePassword)
	api.Post("/admin/users", s.handleUpsertUser)
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return s.respondError(c, &engine.Error{Kind: engine.KindValidation, Message: "invalid request body"})
	}

	token, acct, err := s.engine.Login(body.Username, body.Password)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"token": token,
		"user":  engine.NewPrincipalView(acct),
	})
}

func (s *Server) handleLogout(c *fiber.Ctx) error {
	// Best effort: an absent or bogus token still logs out cleanly.
	if token := bearerToken(c); token != "" {
		s.engine.Logout(token)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (s *Server) handleMe(c *fiber.Ctx) error {
	return c.JSON(engine.NewPrincipalView(actorFrom(c)))
}

func (s *Server) handleListEvents(c *fiber.Ctx) error {
	list, err := s.engine.ListEvents(actorFrom(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(list)
}

func (s *Server) handleCreateEvent(c *fiber.Ctx) error {
	var body struct {
		Description  string `json:"description"`
		InitialPrice int    `json:"initial_price"`
	}
	if err := c.BodyParser(&body); err != nil {
		return s.respondError(c, &engine.Error{Kind: engine.KindValidation, Message: "invalid request body"})
	}

	ev, err := s.engine.CreateEvent(actorFrom(c), body.Description, body.InitialPrice)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"event": engine.NewEventView(ev, nil),
	})
}

func (s *Server) handlePlaceBet(c *fiber.Ctx) error {
	var body struct {
		Direction string `json:"direction"`
	}
	if err := c.BodyParser(&body); err != nil {
		return s.respondError(c, &engine.Error{Kind: engine.KindValidation, Message: "invalid request body"})
	}

	wager, err := s.engine.PlaceBet(actorFrom(c), c.Params("id"), body.Direction)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"bet":   engine.NewWagerView(wager),
		"price": wager.Price,
	})
}

func (s *Server) handleCloseEvent(c *fiber.Ctx) error {
	if err := s.engine.CloseEvent(actorFrom(c), c.Params("id")); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (s *Server) handleResolveEvent(c *fiber.Ctx) error {
	var body struct {
		Outcome string `json:"outcome"`
	}
	if err := c.BodyParser(&body); err != nil {
		return s.respondError(c, &engine.Error{Kind: engine.KindValidation, Message: "invalid request body"})
	}

	if err := s.engine.ResolveEvent(actorFrom(c), c.Params("id"), body.Outcome); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (s *Server) handleChangePassword(c *fiber.Ctx) error {
	var body struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return s.respondError(c, &engine.Error{Kind: engine.KindValidation, Message: "invalid request body"})
	}

	if err := s.engine.ChangePassword(actorFrom(c), body.CurrentPassword, body.NewPassword); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (s *Server) handleUpsertUser(c *fiber.Ctx) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		IsAdmin  *bool  `json:"is_admin"`
	}
	if err := c.BodyParser(&body); err != nil {
		return s.respondError(c, &engine.Error{Kind: engine.KindValidation, Message: "invalid request body"})
	}

	if err := s.engine.UpsertUser(actorFrom(c), body.Username, body.Password, body.IsAdmin); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}
