package server

import (
	"projectarium/internal/models"

	"github.com/gofiber/fiber/v2"
)

type messageRequest struct {
	Text string `json:"text" validate:"required"`
}

// OpenChannel handles POST /api/chats/open/:userId. Both users must follow
// each other; an existing thread is returned unchanged.
func (s *Server) OpenChannel(c *fiber.Ctx) error {
	me, err := currentUser(c)
	if err != nil {
		return nil
	}
	peer, err := parseID(c, "userId")
	if err != nil {
		return nil
	}
	res, err := s.chats.OpenChannel(c.UserContext(), me, peer)
	if err != nil {
		return models.Respond(c, err)
	}
	status := fiber.StatusOK
	if res.Created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(res)
}

// GetThreads handles GET /api/chats
func (s *Server) GetThreads(c *fiber.Ctx) error {
	me, err := currentUser(c)
	if err != nil {
		return nil
	}
	threads, err := s.chats.ListThreads(c.UserContext(), me)
	return respond(c, fiber.StatusOK, threads, err)
}

// GetThread handles GET /api/chats/:id
func (s *Server) GetThread(c *fiber.Ctx) error {
	me, err := currentUser(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	thread, err := s.chats.GetThread(c.UserContext(), id, me)
	return respond(c, fiber.StatusOK, thread, err)
}

// SendMessage handles POST /api/chats/:id/messages
func (s *Server) SendMessage(c *fiber.Ctx) error {
	me, err := currentUser(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req messageRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	msg, err := s.chats.SendMessage(c.UserContext(), id, me, req.Text)
	return respond(c, fiber.StatusCreated, msg, err)
}

// MarkThreadRead handles POST /api/chats/:id/read
func (s *Server) MarkThreadRead(c *fiber.Ctx) error {
	me, err := currentUser(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.chats.MarkRead(c.UserContext(), id, me); err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"state": models.ThreadStateRead})
}
