package server

import (
	"projectarium/internal/models"
	"projectarium/internal/service"

	"github.com/gofiber/fiber/v2"
)

type reportRequest struct {
	Reason      string `json:"reason" validate:"required"`
	Description string `json:"description" validate:"required"`
}

func (r reportRequest) input() service.ReportInput {
	return service.ReportInput{Reason: r.Reason, Description: r.Description}
}

type resolveRequest struct {
	State models.ReportState `json:"state" validate:"required,oneof=accepted rejected"`
}

// ReportUser handles POST /api/reports/users/:id
func (s *Server) ReportUser(c *fiber.Ctx) error {
	me, err := currentUser(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req reportRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	report, err := s.reports.ReportUser(c.UserContext(), me, id, req.input())
	return respond(c, fiber.StatusCreated, report, err)
}

// ReportProject handles POST /api/reports/projects/:id
func (s *Server) ReportProject(c *fiber.Ctx) error {
	me, err := currentUser(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req reportRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	report, err := s.reports.ReportProject(c.UserContext(), me, id, req.input())
	return respond(c, fiber.StatusCreated, report, err)
}

// GetPendingReports handles GET /api/admin/reports
func (s *Server) GetPendingReports(c *fiber.Ctx) error {
	me, err := currentUser(c)
	if err != nil {
		return nil
	}
	page := parsePagination(c, 50)
	pending, err := s.reports.ListPending(c.UserContext(), me, page.Limit)
	return respond(c, fiber.StatusOK, pending, err)
}

// ResolveReport handles POST /api/admin/reports/:kind/:id/resolve
func (s *Server) ResolveReport(c *fiber.Ctx) error {
	me, err := currentUser(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req resolveRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	kind := models.ReportKind(c.Params("kind"))
	if err := s.reports.Resolve(c.UserContext(), me, kind, id, req.State); err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"id": id, "kind": kind, "state": req.State})
}
