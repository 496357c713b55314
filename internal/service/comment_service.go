package service

import (
	"context"

	"projectarium/internal/database"
	"projectarium/internal/models"
	"projectarium/internal/notifications"
	"projectarium/internal/repository"

	"gorm.io/gorm"
)

// MaxCommentLength bounds a comment, in runes.
const MaxCommentLength = 1000

// CommentService manages comments on projects.
type CommentService struct {
	store    *repository.Store
	notifier Notifier
}

func NewCommentService(store *repository.Store, notifier Notifier) *CommentService {
	return &CommentService{store: store, notifier: notifierOrNoop(notifier)}
}

// Create adds a comment by authorID on projectID. The author is the first
// member of the comment's likes.
func (s *CommentService) Create(ctx context.Context, projectID, authorID uint, text string, parentID *uint) (*models.Comment, error) {
	text, err := requiredText("Comment text", text, MaxCommentLength)
	if err != nil {
		return nil, err
	}
	var (
		comment *models.Comment
		ownerID uint
	)
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		author, err := tx.Users.Lock(ctx, authorID, repository.LockShare)
		if err != nil {
			return err
		}
		project, err := tx.Projects.Lock(ctx, projectID, repository.LockShare)
		if err != nil {
			return err
		}
		ownerID = project.OwnerID
		if parentID != nil {
			parent, err := tx.Comments.Lock(ctx, *parentID, repository.LockShare)
			if err != nil {
				return err
			}
			if parent.ProjectID != projectID {
				return models.NewValidationError("Parent comment belongs to another project")
			}
		}
		comment = &models.Comment{ProjectID: projectID, UserID: authorID, Text: text, ParentCommentID: parentID}
		if err := tx.Comments.Create(ctx, comment); err != nil {
			return err
		}
		if _, err := tx.Likes.AddCommentLike(ctx, authorID, comment.ID); err != nil {
			return err
		}
		comment.Likes = models.NewIDSet(authorID)
		comment.User = &models.UserSummary{
			ID:            author.ID,
			Username:      author.Username,
			DisplayName:   author.DisplayName,
			ProfileColour: author.ProfileColour,
			IsVerified:    author.IsVerified,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if ownerID != authorID {
		s.notifier.Notify(ctx, ownerID, notifications.EventCommentOnProject, map[string]any{
			"project_id": projectID,
			"comment_id": comment.ID,
			"user_id":    authorID,
		})
	}
	return comment, nil
}

// Like adds userID to the comment's likes.
func (s *CommentService) Like(ctx context.Context, commentID, userID uint) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := s.resolve(ctx, tx, commentID, userID); err != nil {
			return err
		}
		added, err := tx.Likes.AddCommentLike(ctx, userID, commentID)
		if err != nil {
			return err
		}
		if !added {
			return models.NewConflictError("Comment already liked")
		}
		return nil
	})
}

// Unlike removes userID from the comment's likes.
func (s *CommentService) Unlike(ctx context.Context, commentID, userID uint) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := s.resolve(ctx, tx, commentID, userID); err != nil {
			return err
		}
		removed, err := tx.Likes.RemoveCommentLike(ctx, userID, commentID)
		if err != nil {
			return err
		}
		if !removed {
			return models.NewConflictError("Comment not liked")
		}
		return nil
	})
}

func (s *CommentService) resolve(ctx context.Context, tx *repository.Store, commentID, userID uint) error {
	if _, err := tx.Users.Lock(ctx, userID, repository.LockShare); err != nil {
		return err
	}
	_, err := tx.Comments.Lock(ctx, commentID, repository.LockShare)
	return err
}

// Delete removes a comment. Only its author or an admin may do so; replies
// survive as top-level comments.
func (s *CommentService) Delete(ctx context.Context, commentID, requesterID uint) error {
	comment, err := s.store.Comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != requesterID {
		if _, err := requireAdmin(ctx, s.store.Users, requesterID); err != nil {
			if models.ErrorCode(err) == models.CodeForbidden {
				return models.NewForbiddenError("Only the author or an admin can delete this comment")
			}
			return err
		}
	}
	ids := []uint{commentID}
	return database.NewUnitOfWork(s.store.DB(), "delete_comment").
		Step("lock_comment", func(ctx context.Context, tx *gorm.DB) error {
			_, err := s.store.WithTx(tx).Comments.Lock(ctx, commentID, repository.LockUpdate)
			return err
		}).
		Step("delete_comment_likes", func(ctx context.Context, tx *gorm.DB) error {
			_, err := s.store.WithTx(tx).Likes.DeleteCommentLikesByComments(ctx, ids)
			return err
		}).
		Step("detach_replies", func(ctx context.Context, tx *gorm.DB) error {
			return s.store.WithTx(tx).Comments.DetachReplies(ctx, ids)
		}).
		Step("delete_comment", func(ctx context.Context, tx *gorm.DB) error {
			n, err := s.store.WithTx(tx).Comments.DeleteByIDs(ctx, ids)
			if err == nil && n == 0 {
				return models.NewNotFoundError("Comment", commentID)
			}
			return err
		}).
		Execute(ctx)
}

// List returns the project's comments in creation order with likes and authors.
func (s *CommentService) List(ctx context.Context, projectID uint) ([]models.Comment, error) {
	if _, err := s.store.Projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	comments, err := s.store.Comments.ListByProject(ctx, projectID)
	if err != nil || len(comments) == 0 {
		return comments, err
	}
	ids := make([]uint, len(comments))
	authorSet := models.NewIDSet()
	for i, c := range comments {
		ids[i] = c.ID
		authorSet.Add(c.UserID)
	}
	likes, err := s.store.Likes.CommentLikerIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	authors, err := s.store.Users.Summaries(ctx, authorSet.Sorted())
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*models.UserSummary, len(authors))
	for i := range authors {
		byID[authors[i].ID] = &authors[i]
	}
	for i := range comments {
		comments[i].Likes = models.NewIDSet(likes[comments[i].ID]...)
		comments[i].User = byID[comments[i].UserID]
	}
	return comments, nil
}
