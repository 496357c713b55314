package server

import (
	"time"

	"projectarium/internal/middleware"
	"projectarium/internal/models"
	"projectarium/internal/service"

	"github.com/gofiber/fiber/v2"
)

const defaultTokenTTL = 72 * time.Hour

type signupRequest struct {
	Username    string `json:"username" validate:"max=30"`
	Password    string `json:"password" validate:"max=128"`
	DisplayName string `json:"display_name" validate:"max=50"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Signup handles POST /api/auth/signup
func (s *Server) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	user, err := s.users.Signup(c.UserContext(), service.SignupInput{
		Username:    req.Username,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return s.issueSession(c, fiber.StatusCreated, user)
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	user, err := s.users.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return models.Respond(c, err)
	}
	return s.issueSession(c, fiber.StatusOK, user)
}

func (s *Server) issueSession(c *fiber.Ctx, status int, user *models.User) error {
	ttl := defaultTokenTTL
	if s.config.JWTExpiryHours > 0 {
		ttl = time.Duration(s.config.JWTExpiryHours) * time.Hour
	}
	token, err := middleware.IssueToken(user.ID, ttl)
	if err != nil {
		return models.Respond(c, models.NewInternalError(err))
	}
	return c.Status(status).JSON(authResponse{Token: token, User: user})
}
