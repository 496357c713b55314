package service

import (
	"context"

	"projectarium/internal/cache"
	"projectarium/internal/models"
	"projectarium/internal/notifications"
	"projectarium/internal/observability"
	"projectarium/internal/repository"

	"golang.org/x/sync/errgroup"
)

// GraphService is the only writer of follow and like edges.
type GraphService struct {
	store    *repository.Store
	notifier Notifier
}

// NewGraphService returns a GraphService. A nil notifier disables events.
func NewGraphService(store *repository.Store, notifier Notifier) *GraphService {
	return &GraphService{store: store, notifier: notifierOrNoop(notifier)}
}

// FollowResult reports the outcome of a follow.
type FollowResult struct {
	FollowerID uint            `json:"follower_id"`
	FolloweeID uint            `json:"followee_id"`
	Followers  int64           `json:"followers"`
	Milestone  *MilestoneGrant `json:"milestone,omitempty"`
}

// LikeResult reports the outcome of a project like.
type LikeResult struct {
	ProjectID uint            `json:"project_id"`
	UserID    uint            `json:"user_id"`
	Likes     int64           `json:"likes"`
	Milestone *MilestoneGrant `json:"milestone,omitempty"`
}

// Follow makes a follow b and runs the followers policy on b.
func (s *GraphService) Follow(ctx context.Context, a, b uint) (*FollowResult, error) {
	ctx, span := observability.StartSpan(ctx, "GraphService.Follow")
	var result *FollowResult
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		result, err = s.follow(ctx, tx, a, b)
		return err
	})
	span.End(err)
	if err != nil {
		observability.RelationshipMutations.WithLabelValues("follow", outcome(err)).Inc()
		return nil, err
	}
	observability.RelationshipMutations.WithLabelValues("follow", "ok").Inc()
	cache.InvalidateUser(ctx, a, b)
	s.notifier.Notify(ctx, b, notifications.EventFollowed, map[string]any{"follower_id": a})
	if result.Milestone != nil {
		recordGrant(result.Milestone)
		s.notifier.Notify(ctx, b, notifications.EventMilestoneReached, result.Milestone)
	}
	return result, nil
}

// follow runs inside tx. The welcome bot reuses it so that its follow counts
// towards milestones like any other.
func (s *GraphService) follow(ctx context.Context, tx *repository.Store, a, b uint) (*FollowResult, error) {
	if a == b {
		return nil, models.NewValidationError("Users cannot follow themselves")
	}
	// b is locked exclusively so follows of the same user count one at a time.
	if _, err := lockUsers(ctx, tx, []uint{a, b}, b); err != nil {
		return nil, err
	}
	added, err := tx.Follows.Add(ctx, a, b)
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, models.NewConflictError("User already followed")
	}
	followers, err := tx.Follows.CountFollowers(ctx, b)
	if err != nil {
		return nil, err
	}
	grant, err := grantFollowerMilestone(ctx, tx, b, followers)
	if err != nil {
		return nil, err
	}
	return &FollowResult{FollowerID: a, FolloweeID: b, Followers: followers, Milestone: grant}, nil
}

// Unfollow removes the follow edge from a to b. Milestones are kept.
func (s *GraphService) Unfollow(ctx context.Context, a, b uint) error {
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if a == b {
			return models.NewValidationError("Users cannot unfollow themselves")
		}
		if _, err := lockUsers(ctx, tx, []uint{a, b}); err != nil {
			return err
		}
		removed, err := tx.Follows.Remove(ctx, a, b)
		if err != nil {
			return err
		}
		if !removed {
			return models.NewConflictError("User not followed")
		}
		return nil
	})
	if err != nil {
		observability.RelationshipMutations.WithLabelValues("unfollow", outcome(err)).Inc()
		return err
	}
	observability.RelationshipMutations.WithLabelValues("unfollow", "ok").Inc()
	cache.InvalidateUser(ctx, a, b)
	return nil
}

// LikeProject adds userID to the project's likes and pays the owner when a
// likes milestone is reached.
func (s *GraphService) LikeProject(ctx context.Context, userID, projectID uint) (*LikeResult, error) {
	ctx, span := observability.StartSpan(ctx, "GraphService.LikeProject")
	var (
		result  *LikeResult
		ownerID uint
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		project, err := tx.Projects.GetByID(ctx, projectID)
		if err != nil {
			return err
		}
		ownerID = project.OwnerID
		// The owner is locked exclusively: likes on the owner's projects are
		// counted one at a time and the milestone credit needs the row anyway.
		if _, err := lockUsers(ctx, tx, []uint{userID, ownerID}, ownerID); err != nil {
			return err
		}
		if _, err := tx.Projects.Lock(ctx, projectID, repository.LockShare); err != nil {
			return err
		}
		added, err := tx.Likes.AddProjectLike(ctx, userID, projectID)
		if err != nil {
			return err
		}
		if !added {
			return models.NewConflictError("Project already liked")
		}
		likes, err := tx.Likes.CountProjectLikes(ctx, projectID)
		if err != nil {
			return err
		}
		grant, err := grantProjectLikeMilestone(ctx, tx, projectID, project.OwnerID, likes)
		if err != nil {
			return err
		}
		result = &LikeResult{ProjectID: projectID, UserID: userID, Likes: likes, Milestone: grant}
		return nil
	})
	span.End(err)
	if err != nil {
		observability.RelationshipMutations.WithLabelValues("like_project", outcome(err)).Inc()
		return nil, err
	}
	observability.RelationshipMutations.WithLabelValues("like_project", "ok").Inc()
	cache.InvalidateProject(ctx, projectID)
	cache.InvalidateUser(ctx, userID, ownerID)
	if ownerID != userID {
		s.notifier.Notify(ctx, ownerID, notifications.EventProjectLiked, map[string]any{"project_id": projectID, "user_id": userID})
	}
	if result.Milestone != nil {
		recordGrant(result.Milestone)
		s.notifier.Notify(ctx, ownerID, notifications.EventMilestoneReached, result.Milestone)
	}
	return result, nil
}

// UnlikeProject removes userID from the project's likes.
func (s *GraphService) UnlikeProject(ctx context.Context, userID, projectID uint) error {
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Users.GetByID(ctx, userID); err != nil {
			return err
		}
		if _, err := tx.Projects.GetByID(ctx, projectID); err != nil {
			return err
		}
		removed, err := tx.Likes.RemoveProjectLike(ctx, userID, projectID)
		if err != nil {
			return err
		}
		if !removed {
			return models.NewConflictError("Project not liked")
		}
		return nil
	})
	if err != nil {
		observability.RelationshipMutations.WithLabelValues("unlike_project", outcome(err)).Inc()
		return err
	}
	observability.RelationshipMutations.WithLabelValues("unlike_project", "ok").Inc()
	cache.InvalidateProject(ctx, projectID)
	cache.InvalidateUser(ctx, userID)
	return nil
}

// Followers lists the users following userID.
func (s *GraphService) Followers(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	if _, err := s.store.Users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	ids, err := s.store.Follows.FollowerIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.store.Users.Summaries(ctx, ids)
}

// Following lists the users userID follows.
func (s *GraphService) Following(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	if _, err := s.store.Users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	ids, err := s.store.Follows.FollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.store.Users.Summaries(ctx, ids)
}

func (s *GraphService) IsFollowing(ctx context.Context, a, b uint) (bool, error) {
	return s.store.Follows.Exists(ctx, a, b)
}

func (s *GraphService) IsProjectLiked(ctx context.Context, projectID, userID uint) (bool, error) {
	if _, err := s.store.Projects.GetByID(ctx, projectID); err != nil {
		return false, err
	}
	return s.store.Likes.IsProjectLiked(ctx, userID, projectID)
}

// CanOpenChannel reports whether a and b follow each other.
func (s *GraphService) CanOpenChannel(ctx context.Context, a, b uint) (bool, error) {
	return mutualFollow(ctx, s.store, a, b)
}

// Hydrate fills every relationship set of user.
func (s *GraphService) Hydrate(ctx context.Context, user *models.User) error {
	var (
		followers, following, created, liked, chats []uint
		milestones                                  []int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { followers, err = s.store.Follows.FollowerIDs(gctx, user.ID); return })
	g.Go(func() (err error) { following, err = s.store.Follows.FollowingIDs(gctx, user.ID); return })
	g.Go(func() (err error) { created, err = s.store.Projects.IDsByOwner(gctx, user.ID); return })
	g.Go(func() (err error) { liked, err = s.store.Likes.LikedProjectIDs(gctx, user.ID); return })
	g.Go(func() (err error) { chats, err = s.store.Chats.PrivateChatPeers(gctx, user.ID); return })
	g.Go(func() (err error) { milestones, err = s.store.Milestones.FollowerThresholds(gctx, user.ID); return })
	if err := g.Wait(); err != nil {
		return err
	}
	user.Followers = models.NewIDSet(followers...)
	user.Following = models.NewIDSet(following...)
	user.ProjectsCreated = models.NewIDSet(created...)
	user.ProjectsLiked = models.NewIDSet(liked...)
	user.PrivateChats = chats
	user.FollowersMilestones = milestones
	return nil
}

// HydrateProject fills the project's likes, comments, milestones and owner.
func (s *GraphService) HydrateProject(ctx context.Context, project *models.Project) error {
	likers, err := s.store.Likes.ProjectLikerIDs(ctx, project.ID)
	if err != nil {
		return err
	}
	comments, err := s.store.Comments.IDsByProject(ctx, project.ID)
	if err != nil {
		return err
	}
	milestones, err := s.store.Milestones.ProjectLikeThresholds(ctx, project.ID)
	if err != nil {
		return err
	}
	owners, err := s.store.Users.Summaries(ctx, []uint{project.OwnerID})
	if err != nil {
		return err
	}
	project.Likes = models.NewIDSet(likers...)
	project.LikesCount = len(likers)
	project.Comments = comments
	project.LikesMilestones = milestones
	if len(owners) == 1 {
		project.Owner = &owners[0]
	}
	return nil
}

func mutualFollow(ctx context.Context, store *repository.Store, a, b uint) (bool, error) {
	ab, err := store.Follows.Exists(ctx, a, b)
	if err != nil || !ab {
		return false, err
	}
	return store.Follows.Exists(ctx, b, a)
}
