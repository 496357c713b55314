package server

import (
	"projectarium/internal/models"

	"github.com/gofiber/fiber/v2"
)

type commentRequest struct {
	Text     string `json:"text" validate:"required"`
	ParentID *uint  `json:"parent_id,omitempty" validate:"omitempty,gt=0"`
}

// GetComments handles GET /api/projects/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	comments, err := s.comments.List(c.UserContext(), id)
	return respond(c, fiber.StatusOK, comments, err)
}

// CreateComment handles POST /api/projects/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	me, err := currentUser(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req commentRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	comment, err := s.comments.Create(c.UserContext(), id, me, req.Text, req.ParentID)
	return respond(c, fiber.StatusCreated, comment, err)
}

// LikeComment handles POST /api/comments/:id/like
func (s *Server) LikeComment(c *fiber.Ctx) error {
	me, err := currentUser(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.comments.Like(c.UserContext(), id, me); err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Comment liked"})
}

// UnlikeComment handles DELETE /api/comments/:id/like
func (s *Server) UnlikeComment(c *fiber.Ctx) error {
	me, err := currentUser(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.comments.Unlike(c.UserContext(), id, me); err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Comment unliked"})
}

// DeleteComment handles DELETE /api/comments/:id
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	me, err := currentUser(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.comments.Delete(c.UserContext(), id, me); err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Comment deleted"})
}
