package service

import (
	"context"
	"slices"

	"projectarium/internal/observability"
	"projectarium/internal/repository"
)

// MilestonePolicy rewards Reward credits every time a count reaches a
// positive multiple of Step for the first time.
type MilestonePolicy struct {
	Name   string
	Step   int
	Reward int
}

var (
	// ProjectLikesPolicy pays the project owner for every 15 likes.
	ProjectLikesPolicy = MilestonePolicy{Name: "project_likes", Step: 15, Reward: 5}
	// FollowersPolicy pays a user for every 30 followers.
	FollowersPolicy = MilestonePolicy{Name: "followers", Step: 30, Reward: 100}
)

// Evaluate decides whether the highest threshold of policy at or below count
// is still missing from rewarded. A count that moved past a threshold without
// being evaluated on it still earns that threshold. It has no side effects.
func Evaluate(policy MilestonePolicy, count int, rewarded []int) (threshold, delta int, granted bool) {
	if policy.Step <= 0 || count < policy.Step {
		return 0, 0, false
	}
	threshold = count / policy.Step * policy.Step
	if slices.Contains(rewarded, threshold) {
		return 0, 0, false
	}
	return threshold, policy.Reward, true
}

// MilestoneGrant describes a reward that was credited.
type MilestoneGrant struct {
	Policy      string `json:"policy"`
	EntityID    uint   `json:"entity_id"`
	RecipientID uint   `json:"recipient_id"`
	Threshold   int    `json:"threshold"`
	Credits     int    `json:"credits"`
}

// grantFollowerMilestone runs the followers policy for userID inside tx.
func grantFollowerMilestone(ctx context.Context, tx *repository.Store, userID uint, followers int64) (*MilestoneGrant, error) {
	rewarded, err := tx.Milestones.FollowerThresholds(ctx, userID)
	if err != nil {
		return nil, err
	}
	threshold, delta, ok := Evaluate(FollowersPolicy, int(followers), rewarded)
	if !ok {
		return nil, nil
	}
	// The insert is the idempotency guard: a concurrent or repeated grant finds the row.
	inserted, err := tx.Milestones.RecordFollowerThreshold(ctx, userID, threshold)
	if err != nil || !inserted {
		return nil, err
	}
	if err := tx.Users.AddCredits(ctx, userID, delta); err != nil {
		return nil, err
	}
	return &MilestoneGrant{
		Policy:      FollowersPolicy.Name,
		EntityID:    userID,
		RecipientID: userID,
		Threshold:   threshold,
		Credits:     delta,
	}, nil
}

// grantProjectLikeMilestone runs the project likes policy inside tx, paying ownerID.
func grantProjectLikeMilestone(ctx context.Context, tx *repository.Store, projectID, ownerID uint, likes int64) (*MilestoneGrant, error) {
	rewarded, err := tx.Milestones.ProjectLikeThresholds(ctx, projectID)
	if err != nil {
		return nil, err
	}
	threshold, delta, ok := Evaluate(ProjectLikesPolicy, int(likes), rewarded)
	if !ok {
		return nil, nil
	}
	inserted, err := tx.Milestones.RecordProjectLikeThreshold(ctx, projectID, threshold)
	if err != nil || !inserted {
		return nil, err
	}
	if err := tx.Users.AddCredits(ctx, ownerID, delta); err != nil {
		return nil, err
	}
	return &MilestoneGrant{
		Policy:      ProjectLikesPolicy.Name,
		EntityID:    projectID,
		RecipientID: ownerID,
		Threshold:   threshold,
		Credits:     delta,
	}, nil
}

func recordGrant(g *MilestoneGrant) {
	if g == nil {
		return
	}
	observability.MilestonesGranted.WithLabelValues(g.Policy).Inc()
	observability.CreditsGranted.WithLabelValues("milestone_" + g.Policy).Add(float64(g.Credits))
}
