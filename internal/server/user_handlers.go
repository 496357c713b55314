package server

import (
	"projectarium/internal/models"

	"github.com/gofiber/fiber/v2"
)

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,max=128"`
}

type textRequest struct {
	Value string `json:"value"`
}

type usernameRequest struct {
	Username string `json:"username" validate:"required"`
}

type creditsRequest struct {
	Amount int `json:"amount" validate:"gt=0"`
}

// GetUserProfile handles GET /api/users/:username
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	user, err := s.users.GetByUsername(c.UserContext(), c.Params("username"))
	return respond(c, fiber.StatusOK, user, err)
}

// GetUserDetails handles GET /api/users/details/:id
func (s *Server) GetUserDetails(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	user, err := s.users.GetDetails(c.UserContext(), id)
	return respond(c, fiber.StatusOK, user, err)
}

// FollowUser handles POST /api/users/:id/follow
func (s *Server) FollowUser(c *fiber.Ctx) error {
	me, err := currentUser(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	res, err := s.graph.Follow(c.UserContext(), me, id)
	return respond(c, fiber.StatusOK, res, err)
}

// UnfollowUser handles DELETE /api/users/:id/follow
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	me, err := currentUser(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.graph.Unfollow(c.UserContext(), me, id); err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "User unfollowed"})
}

// GetFollowers handles GET /api/users/:id/followers
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	users, err := s.graph.Followers(c.UserContext(), id)
	return respond(c, fiber.StatusOK, users, err)
}

// GetFollowing handles GET /api/users/:id/following
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	users, err := s.graph.Following(c.UserContext(), id)
	return respond(c, fiber.StatusOK, users, err)
}

// IsFollowing handles GET /api/users/:id/following/:otherId
func (s *Server) IsFollowing(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	other, err := parseID(c, "otherId")
	if err != nil {
		return nil
	}
	following, err := s.graph.IsFollowing(c.UserContext(), id, other)
	return respond(c, fiber.StatusOK, fiber.Map{"following": following}, err)
}

// ChangePassword handles PUT /api/users/me/password
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	me, err := currentUser(c)
	if err != nil {
		return nil
	}
	var req changePasswordRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	if err := s.users.ChangePassword(c.UserContext(), me, req.CurrentPassword, req.NewPassword); err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password updated"})
}

// EditDisplayName handles PUT /api/users/me/display-name
func (s *Server) EditDisplayName(c *fiber.Ctx) error {
	me, err := currentUser(c)
	if err != nil {
		return nil
	}
	var req textRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	user, err := s.users.EditDisplayName(c.UserContext(), me, req.Value)
	return respond(c, fiber.StatusOK, user, err)
}

// EditDescription handles PUT /api/users/me/description
func (s *Server) EditDescription(c *fiber.Ctx) error {
	me, err := currentUser(c)
	if err != nil {
		return nil
	}
	var req textRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	user, err := s.users.EditDescription(c.UserContext(), me, req.Value)
	return respond(c, fiber.StatusOK, user, err)
}

// EditUsername handles PUT /api/users/me/username
func (s *Server) EditUsername(c *fiber.Ctx) error {
	me, err := currentUser(c)
	if err != nil {
		return nil
	}
	var req usernameRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	user, err := s.users.EditUsername(c.UserContext(), me, req.Username)
	return respond(c, fiber.StatusOK, user, err)
}

// AddCredits handles POST /api/users/:id/credits
func (s *Server) AddCredits(c *fiber.Ctx) error {
	me, err := currentUser(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req creditsRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	user, err := s.users.AddCredits(c.UserContext(), me, id, req.Amount)
	return respond(c, fiber.StatusOK, user, err)
}

// DeleteUser handles DELETE /api/users/:id
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	me, err := currentUser(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	summary, err := s.cascade.DeleteUser(c.UserContext(), id, me)
	return respond(c, fiber.StatusOK, summary, err)
}
