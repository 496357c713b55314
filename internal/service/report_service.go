package service

import (
	"context"

	"projectarium/internal/models"
	"projectarium/internal/repository"
)

const (
	maxReportReason      = 100
	maxReportDescription = 2000
)

// ReportService files reports and lets admins review them.
type ReportService struct {
	store *repository.Store
}

func NewReportService(store *repository.Store) *ReportService {
	return &ReportService{store: store}
}

// ReportInput carries the free-text part of a report.
type ReportInput struct {
	Reason      string
	Description string
}

func (in ReportInput) normalize() (ReportInput, error) {
	var err error
	if in.Reason, err = requiredText("Reason", in.Reason, maxReportReason); err != nil {
		return in, err
	}
	if in.Description, err = requiredText("Description", in.Description, maxReportDescription); err != nil {
		return in, err
	}
	return in, nil
}

func (s *ReportService) ReportUser(ctx context.Context, reporterID, userID uint, in ReportInput) (*models.ReportUser, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	report := &models.ReportUser{
		UserID:      userID,
		ReporterID:  reporterID,
		Reason:      in.Reason,
		Description: in.Description,
		State:       models.ReportStatePending,
	}
	if err := s.store.Reports.CreateUserReport(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *ReportService) ReportProject(ctx context.Context, reporterID, projectID uint, in ReportInput) (*models.ReportProject, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	report := &models.ReportProject{
		ProjectID:   projectID,
		ReporterID:  reporterID,
		Reason:      in.Reason,
		Description: in.Description,
		State:       models.ReportStatePending,
	}
	if err := s.store.Reports.CreateProjectReport(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// PendingReports is the admin review queue.
type PendingReports struct {
	Users    []models.ReportUser    `json:"users"`
	Projects []models.ReportProject `json:"projects"`
}

// ListPending returns every pending report, oldest first.
func (s *ReportService) ListPending(ctx context.Context, adminID uint, limit int) (*PendingReports, error) {
	if _, err := requireAdmin(ctx, s.store.Users, adminID); err != nil {
		return nil, err
	}
	users, err := s.store.Reports.PendingUserReports(ctx, limit)
	if err != nil {
		return nil, err
	}
	projects, err := s.store.Reports.PendingProjectReports(ctx, limit)
	if err != nil {
		return nil, err
	}
	return &PendingReports{Users: users, Projects: projects}, nil
}

// Resolve accepts or rejects a pending report. Resolving twice is a soft error.
func (s *ReportService) Resolve(ctx context.Context, adminID uint, kind models.ReportKind, reportID uint, state models.ReportState) error {
	if _, err := requireAdmin(ctx, s.store.Users, adminID); err != nil {
		return err
	}
	if state != models.ReportStateAccepted && state != models.ReportStateRejected {
		return models.NewValidationError("State must be accepted or rejected")
	}
	var (
		resolved, exists bool
		err              error
	)
	switch kind {
	case models.ReportKindUser:
		if resolved, err = s.store.Reports.ResolveUserReport(ctx, reportID, state); err == nil && !resolved {
			exists, err = s.store.Reports.UserReportExists(ctx, reportID)
		}
	case models.ReportKindProject:
		if resolved, err = s.store.Reports.ResolveProjectReport(ctx, reportID, state); err == nil && !resolved {
			exists, err = s.store.Reports.ProjectReportExists(ctx, reportID)
		}
	default:
		return models.NewValidationError("Unknown report kind " + string(kind))
	}
	switch {
	case err != nil:
		return err
	case resolved:
		return nil
	case !exists:
		return models.NewNotFoundError("Report", reportID)
	default:
		return models.NewConflictError("Report has already been resolved")
	}
}
