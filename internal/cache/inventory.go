package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix     = "user:%d"
	ProjectKeyPrefix  = "project:%d"
	PopularProjectKey = "projects:popular"
)

const (
	UserTTL    = 5 * time.Minute
	ProjectTTL = 10 * time.Minute
	PopularTTL = 1 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func ProjectKey(projectID uint) string {
	return fmt.Sprintf(ProjectKeyPrefix, projectID)
}

// Invalidate drops key. It is a no-op when caching is disabled.
func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidateUser(ctx context.Context, userIDs ...uint) {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, UserKey(id))
	}
	Invalidate(ctx, keys...)
}

func InvalidateProject(ctx context.Context, projectIDs ...uint) {
	keys := make([]string, 0, len(projectIDs)+1)
	for _, id := range projectIDs {
		keys = append(keys, ProjectKey(id))
	}
	keys = append(keys, PopularProjectKey)
	Invalidate(ctx, keys...)
}
