package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"projectarium/internal/cache"
	"projectarium/internal/models"
	"projectarium/internal/repository"
	"projectarium/internal/validation"
)

const (
	// SponsorCost is debited from the user who sponsors a project.
	SponsorCost       = 1200
	maxProjectDetails = 2000
)

// ProjectService covers project creation, edits, sponsoring and listings.
type ProjectService struct {
	store *repository.Store
	graph *GraphService
}

func NewProjectService(store *repository.Store, graph *GraphService) *ProjectService {
	return &ProjectService{store: store, graph: graph}
}

// ProjectInput carries the editable fields of a project.
type ProjectInput struct {
	Name        string
	Description string
	Link        string
}

func (in ProjectInput) normalize() (ProjectInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Link = strings.TrimSpace(in.Link)
	if err := validation.ValidateProjectName(in.Name); err != nil {
		return in, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateLink(in.Link); err != nil {
		return in, models.NewValidationError(err.Error())
	}
	if utf8.RuneCountInString(in.Description) > maxProjectDetails {
		return in, models.NewValidationError("Description is too long")
	}
	return in, nil
}

// Create adds a project owned by ownerID. Reusing one of the owner's project
// names is a soft error.
func (s *ProjectService) Create(ctx context.Context, ownerID uint, in ProjectInput) (*models.Project, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	project := &models.Project{
		Name:        in.Name,
		Description: in.Description,
		Link:        in.Link,
		OwnerID:     ownerID,
		Status:      models.ProjectStatusPublic,
	}
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Users.Lock(ctx, ownerID, repository.LockShare); err != nil {
			return err
		}
		return tx.Projects.Create(ctx, project)
	})
	if err != nil {
		return nil, err
	}
	cache.InvalidateUser(ctx, ownerID)
	return project, s.graph.HydrateProject(ctx, project)
}

// Update edits a project. Only its owner may do so.
func (s *ProjectService) Update(ctx context.Context, projectID, requesterID uint, in ProjectInput) (*models.Project, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	project, err := s.store.Projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != requesterID {
		return nil, models.NewForbiddenError("You are not the owner of this project")
	}
	if err := s.store.Projects.Update(ctx, projectID, map[string]interface{}{
		"name":        in.Name,
		"description": in.Description,
		"link":        in.Link,
	}); err != nil {
		return nil, err
	}
	cache.InvalidateProject(ctx, projectID)
	return s.Get(ctx, projectID)
}

// Sponsor promotes a project for SponsorCost credits paid by sponsorID.
func (s *ProjectService) Sponsor(ctx context.Context, projectID, sponsorID uint) (*models.Project, error) {
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Users.Lock(ctx, sponsorID, repository.LockUpdate); err != nil {
			return err
		}
		project, err := tx.Projects.Lock(ctx, projectID, repository.LockUpdate)
		if err != nil {
			return err
		}
		if project.Status == models.ProjectStatusSponsored {
			return models.NewConflictError("Project is already sponsored")
		}
		ok, err := tx.Users.DebitCredits(ctx, sponsorID, SponsorCost)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewConflictError("Not enough credits")
		}
		return tx.Projects.SetStatus(ctx, projectID, models.ProjectStatusSponsored)
	})
	if err != nil {
		return nil, err
	}
	cache.InvalidateUser(ctx, sponsorID)
	cache.InvalidateProject(ctx, projectID)
	return s.Get(ctx, projectID)
}

// Get returns a hydrated project by id.
func (s *ProjectService) Get(ctx context.Context, projectID uint) (*models.Project, error) {
	project, err := s.store.Projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return project, s.graph.HydrateProject(ctx, project)
}

// GetByOwner returns username's project called name.
func (s *ProjectService) GetByOwner(ctx context.Context, username, name string) (*models.Project, error) {
	owner, err := s.store.Users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	project, err := s.store.Projects.GetByOwnerAndName(ctx, owner.ID, name)
	if err != nil {
		return nil, err
	}
	return project, s.graph.HydrateProject(ctx, project)
}

// ListByOwner returns the most recent projects of username.
func (s *ProjectService) ListByOwner(ctx context.Context, username string, limit int) ([]models.Project, error) {
	owner, err := s.store.Users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	projects, err := s.store.Projects.ListByOwner(ctx, owner.ID, limit)
	if err != nil {
		return nil, err
	}
	return s.attachOwners(ctx, projects)
}

func (s *ProjectService) Random(ctx context.Context, limit int) ([]models.Project, error) {
	projects, err := s.store.Projects.Random(ctx, limit)
	if err != nil {
		return nil, err
	}
	return s.attachOwners(ctx, projects)
}

// Popular returns the most liked projects. The default page is cached briefly.
func (s *ProjectService) Popular(ctx context.Context, limit int) ([]models.Project, error) {
	load := func() ([]models.Project, error) {
		projects, err := s.store.Projects.Popular(ctx, limit)
		if err != nil {
			return nil, err
		}
		return s.attachOwners(ctx, projects)
	}
	if limit > 0 {
		return load()
	}
	var projects []models.Project
	err := cache.Aside(ctx, cache.PopularProjectKey, &projects, cache.PopularTTL, func() error {
		var err error
		projects, err = load()
		return err
	})
	return projects, err
}

func (s *ProjectService) Sponsored(ctx context.Context, limit int) ([]models.Project, error) {
	projects, err := s.store.Projects.Sponsored(ctx, limit)
	if err != nil {
		return nil, err
	}
	return s.attachOwners(ctx, projects)
}

// Search matches project names case-insensitively.
func (s *ProjectService) Search(ctx context.Context, query string, limit int) ([]models.Project, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	projects, err := s.store.Projects.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return s.attachOwners(ctx, projects)
}

func (s *ProjectService) attachOwners(ctx context.Context, projects []models.Project) ([]models.Project, error) {
	owners := models.NewIDSet()
	for _, p := range projects {
		owners.Add(p.OwnerID)
	}
	summaries, err := s.store.Users.Summaries(ctx, owners.Sorted())
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.UserSummary, len(summaries))
	for _, u := range summaries {
		byID[u.ID] = u
	}
	for i := range projects {
		if owner, ok := byID[projects[i].OwnerID]; ok {
			projects[i].Owner = &owner
		}
	}
	return projects, nil
}
