package service

import (
	"context"

	"projectarium/internal/cache"
	"projectarium/internal/database"
	"projectarium/internal/models"
	"projectarium/internal/observability"
	"projectarium/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// Step names of the user deletion unit, in execution order.
const (
	StepLockUser              = "lock_user"
	StepRemoveFollows         = "remove_follows"
	StepDeleteAuthoredComment = "delete_authored_comments"
	StepRemoveCommentLikes    = "remove_comment_likes"
	StepRemovePrivateChats    = "remove_private_chats"
	StepDeleteProjectComments = "delete_project_comments"
	StepDeleteChatThreads     = "delete_chat_threads"
	StepDeleteProjects        = "delete_projects"
	StepRemoveProjectLikes    = "remove_project_likes"
	StepPruneMilestones       = "prune_milestones"
	StepDeleteUser            = "delete_user"
)

// Step names of the project deletion unit, in execution order.
const (
	StepLockProject    = "lock_project"
	StepDeleteComments = "delete_comments"
	StepDeleteProject  = "delete_project"
)

// DeletionSummary counts the rows removed by each step.
type DeletionSummary struct {
	Entity  string           `json:"entity"`
	ID      uint             `json:"id"`
	Removed map[string]int64 `json:"removed"`
}

func (d *DeletionSummary) add(step string, n int64) {
	d.Removed[step] += n
}

// CascadeService removes users and projects together with every record that
// references them.
type CascadeService struct {
	store *repository.Store
	hook  database.StepHook
}

func NewCascadeService(store *repository.Store) *CascadeService {
	return &CascadeService{store: store}
}

// WithStepHook installs a hook run before every step of every deletion.
// Returning an error from it aborts and rolls back the deletion.
func (s *CascadeService) WithStepHook(hook database.StepHook) *CascadeService {
	s.hook = hook
	return s
}

// DeleteUser removes userID and everything that would otherwise point at it.
// The requester must be the user or an admin.
func (s *CascadeService) DeleteUser(ctx context.Context, userID, requesterID uint) (*DeletionSummary, error) {
	if requesterID != userID {
		if _, err := requireAdmin(ctx, s.store.Users, requesterID); err != nil {
			return nil, err
		}
	}
	ctx, span := observability.StartSpan(ctx, "CascadeService.DeleteUser", attribute.Int64("user.id", int64(userID)))

	summary := &DeletionSummary{Entity: "user", ID: userID, Removed: map[string]int64{}}
	var projectIDs []uint
	tx := func(db *gorm.DB) *repository.Store { return s.store.WithTx(db) }

	uow := database.NewUnitOfWork(s.store.DB(), "delete_user").
		WithHook(s.hook).
		// Locking the user and its projects first makes concurrent edge and
		// comment writers referencing them wait for this unit or fail with
		// NOT_FOUND after it commits.
		Step(StepLockUser, func(ctx context.Context, db *gorm.DB) error {
			st := tx(db)
			if _, err := st.Users.Lock(ctx, userID, repository.LockUpdate); err != nil {
				return err
			}
			_, err := st.Projects.LockByOwner(ctx, userID)
			return err
		}).
		Step(StepRemoveFollows, func(ctx context.Context, db *gorm.DB) error {
			n, err := tx(db).Follows.DeleteAllFor(ctx, userID)
			summary.add(StepRemoveFollows, n)
			return err
		}).
		Step(StepDeleteAuthoredComment, func(ctx context.Context, db *gorm.DB) error {
			st := tx(db)
			ids, err := st.Comments.IDsByAuthor(ctx, userID)
			if err != nil {
				return err
			}
			n, err := deleteComments(ctx, st, ids)
			summary.add(StepDeleteAuthoredComment, n)
			return err
		}).
		Step(StepRemoveCommentLikes, func(ctx context.Context, db *gorm.DB) error {
			n, err := tx(db).Likes.DeleteCommentLikesByUser(ctx, userID)
			summary.add(StepRemoveCommentLikes, n)
			return err
		}).
		Step(StepRemovePrivateChats, func(ctx context.Context, db *gorm.DB) error {
			n, err := tx(db).Chats.DeletePrivateChatsFor(ctx, userID)
			summary.add(StepRemovePrivateChats, n)
			return err
		}).
		Step(StepDeleteProjectComments, func(ctx context.Context, db *gorm.DB) error {
			st := tx(db)
			var err error
			if projectIDs, err = st.Projects.IDsByOwner(ctx, userID); err != nil {
				return err
			}
			ids, err := st.Comments.IDsByProjects(ctx, projectIDs)
			if err != nil {
				return err
			}
			n, err := deleteComments(ctx, st, ids)
			summary.add(StepDeleteProjectComments, n)
			return err
		}).
		Step(StepDeleteChatThreads, func(ctx context.Context, db *gorm.DB) error {
			st := tx(db)
			ids, err := st.Chats.ThreadIDsForUser(ctx, userID)
			if err != nil {
				return err
			}
			n, err := st.Chats.DeleteThreads(ctx, ids)
			summary.add(StepDeleteChatThreads, n)
			return err
		}).
		Step(StepDeleteProjects, func(ctx context.Context, db *gorm.DB) error {
			n, err := deleteProjects(ctx, tx(db), projectIDs)
			summary.add(StepDeleteProjects, n)
			return err
		}).
		Step(StepRemoveProjectLikes, func(ctx context.Context, db *gorm.DB) error {
			n, err := tx(db).Likes.DeleteProjectLikesByUser(ctx, userID)
			summary.add(StepRemoveProjectLikes, n)
			return err
		}).
		Step(StepPruneMilestones, func(ctx context.Context, db *gorm.DB) error {
			n, err := tx(db).Milestones.DeleteForUser(ctx, userID)
			summary.add(StepPruneMilestones, n)
			return err
		}).
		Step(StepDeleteUser, func(ctx context.Context, db *gorm.DB) error {
			n, err := tx(db).Users.Delete(ctx, userID)
			if err == nil && n == 0 {
				return models.NewNotFoundError("User", userID)
			}
			summary.add(StepDeleteUser, n)
			return err
		})

	err := uow.Execute(ctx)
	span.End(err)
	if err != nil {
		observability.CascadeDeletions.WithLabelValues("user", "rolled_back").Inc()
		return nil, err
	}
	observability.CascadeDeletions.WithLabelValues("user", "ok").Inc()
	cache.InvalidateUser(ctx, userID)
	if len(projectIDs) > 0 {
		cache.InvalidateProject(ctx, projectIDs...)
	}
	return summary, nil
}

// DeleteProject removes a project with its likes, comments and milestones.
// Only the owner or an admin may delete it.
func (s *CascadeService) DeleteProject(ctx context.Context, projectID, requesterID uint) (*DeletionSummary, error) {
	project, err := s.store.Projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != requesterID {
		if _, err := requireAdmin(ctx, s.store.Users, requesterID); err != nil {
			if models.ErrorCode(err) == models.CodeForbidden {
				return nil, models.NewForbiddenError("Only the owner or an admin can delete this project")
			}
			return nil, err
		}
	}
	ctx, span := observability.StartSpan(ctx, "CascadeService.DeleteProject", attribute.Int64("project.id", int64(projectID)))

	summary := &DeletionSummary{Entity: "project", ID: projectID, Removed: map[string]int64{}}
	ids := []uint{projectID}
	err = database.NewUnitOfWork(s.store.DB(), "delete_project").
		WithHook(s.hook).
		Step(StepLockProject, func(ctx context.Context, db *gorm.DB) error {
			_, err := s.store.WithTx(db).Projects.Lock(ctx, projectID, repository.LockUpdate)
			return err
		}).
		Step(StepDeleteComments, func(ctx context.Context, db *gorm.DB) error {
			st := s.store.WithTx(db)
			commentIDs, err := st.Comments.IDsByProject(ctx, projectID)
			if err != nil {
				return err
			}
			n, err := deleteComments(ctx, st, commentIDs)
			summary.add(StepDeleteComments, n)
			return err
		}).
		Step(StepDeleteProject, func(ctx context.Context, db *gorm.DB) error {
			n, err := deleteProjects(ctx, s.store.WithTx(db), ids)
			if err == nil && n == 0 {
				return models.NewNotFoundError("Project", projectID)
			}
			summary.add(StepDeleteProject, n)
			return err
		}).
		Execute(ctx)
	span.End(err)
	if err != nil {
		observability.CascadeDeletions.WithLabelValues("project", "rolled_back").Inc()
		return nil, err
	}
	observability.CascadeDeletions.WithLabelValues("project", "ok").Inc()
	cache.InvalidateProject(ctx, projectID)
	cache.InvalidateUser(ctx, project.OwnerID)
	return summary, nil
}

// deleteComments removes comments and their like edges, detaching replies.
func deleteComments(ctx context.Context, st *repository.Store, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if err := st.Comments.LockIDs(ctx, ids); err != nil {
		return 0, err
	}
	if _, err := st.Likes.DeleteCommentLikesByComments(ctx, ids); err != nil {
		return 0, err
	}
	if err := st.Comments.DetachReplies(ctx, ids); err != nil {
		return 0, err
	}
	return st.Comments.DeleteByIDs(ctx, ids)
}

// deleteProjects removes projects with their like edges and milestones.
// Comments must already be gone.
func deleteProjects(ctx context.Context, st *repository.Store, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if err := st.Projects.LockIDs(ctx, ids); err != nil {
		return 0, err
	}
	if _, err := st.Likes.DeleteProjectLikesByProjects(ctx, ids); err != nil {
		return 0, err
	}
	if _, err := st.Milestones.DeleteForProjects(ctx, ids); err != nil {
		return 0, err
	}
	return st.Projects.DeleteByIDs(ctx, ids)
}
