package server

import (
	"projectarium/internal/models"
	"projectarium/internal/service"

	"github.com/gofiber/fiber/v2"
)

type projectRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Link        string `json:"link"`
}

func (r projectRequest) input() service.ProjectInput {
	return service.ProjectInput{Name: r.Name, Description: r.Description, Link: r.Link}
}

// CreateProject handles POST /api/projects
func (s *Server) CreateProject(c *fiber.Ctx) error {
	me, err := currentUser(c)
	if err != nil {
		return nil
	}
	var req projectRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	project, err := s.projects.Create(c.UserContext(), me, req.input())
	return respond(c, fiber.StatusCreated, project, err)
}

// UpdateProject handles PUT /api/projects/:id
func (s *Server) UpdateProject(c *fiber.Ctx) error {
	me, err := currentUser(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req projectRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	project, err := s.projects.Update(c.UserContext(), id, me, req.input())
	return respond(c, fiber.StatusOK, project, err)
}

// DeleteProject handles DELETE /api/projects/:id
func (s *Server) DeleteProject(c *fiber.Ctx) error {
	me, err := currentUser(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	summary, err := s.cascade.DeleteProject(c.UserContext(), id, me)
	return respond(c, fiber.StatusOK, summary, err)
}

// SponsorProject handles POST /api/projects/:id/sponsor
func (s *Server) SponsorProject(c *fiber.Ctx) error {
	me, err := currentUser(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	project, err := s.projects.Sponsor(c.UserContext(), id, me)
	return respond(c, fiber.StatusOK, project, err)
}

// LikeProject handles POST /api/projects/:id/like
func (s *Server) LikeProject(c *fiber.Ctx) error {
	me, err := currentUser(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	res, err := s.graph.LikeProject(c.UserContext(), me, id)
	return respond(c, fiber.StatusOK, res, err)
}

// UnlikeProject handles DELETE /api/projects/:id/like
func (s *Server) UnlikeProject(c *fiber.Ctx) error {
	me, err := currentUser(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.graph.UnlikeProject(c.UserContext(), me, id); err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Project unliked"})
}

// IsProjectLiked handles GET /api/projects/:id/liked
func (s *Server) IsProjectLiked(c *fiber.Ctx) error {
	me, err := currentUser(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	liked, err := s.graph.IsProjectLiked(c.UserContext(), id, me)
	return respond(c, fiber.StatusOK, fiber.Map{"liked": liked}, err)
}

// GetProject handles GET /api/projects/:id
func (s *Server) GetProject(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	project, err := s.projects.Get(c.UserContext(), id)
	return respond(c, fiber.StatusOK, project, err)
}

// GetProjectByOwner handles GET /api/projects/:username/:name
func (s *Server) GetProjectByOwner(c *fiber.Ctx) error {
	project, err := s.projects.GetByOwner(c.UserContext(), c.Params("username"), c.Params("name"))
	return respond(c, fiber.StatusOK, project, err)
}

// GetUserProjects handles GET /api/projects/user/:username
func (s *Server) GetUserProjects(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	projects, err := s.projects.ListByOwner(c.UserContext(), c.Params("username"), page.Limit)
	return respond(c, fiber.StatusOK, projects, err)
}

// GetRandomProjects handles GET /api/projects/random
func (s *Server) GetRandomProjects(c *fiber.Ctx) error {
	page := parsePagination(c, 10)
	projects, err := s.projects.Random(c.UserContext(), page.Limit)
	return respond(c, fiber.StatusOK, projects, err)
}

// GetPopularProjects handles GET /api/projects/popular. Without a limit the
// cached default page is served.
func (s *Server) GetPopularProjects(c *fiber.Ctx) error {
	projects, err := s.projects.Popular(c.UserContext(), c.QueryInt("limit", 0))
	return respond(c, fiber.StatusOK, projects, err)
}

// GetSponsoredProjects handles GET /api/projects/sponsored
func (s *Server) GetSponsoredProjects(c *fiber.Ctx) error {
	page := parsePagination(c, 10)
	projects, err := s.projects.Sponsored(c.UserContext(), page.Limit)
	return respond(c, fiber.StatusOK, projects, err)
}

// SearchProjects handles GET /api/projects/search?q=
func (s *Server) SearchProjects(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	projects, err := s.projects.Search(c.UserContext(), c.Query("q"), page.Limit)
	return respond(c, fiber.StatusOK, projects, err)
}
