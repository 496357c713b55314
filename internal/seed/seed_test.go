package seed

import (
	"context"
	"testing"

	"projectarium/internal/models"
	"projectarium/internal/service"
	"projectarium/internal/testutil"
	"projectarium/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBotProjectsCatalog(t *testing.T) {
	projects, err := BotProjects()
	require.NoError(t, err)
	assert.Equal(t, service.DefaultBotProjects, projects)

	_, err = parseBotProjects([]byte("- description: nameless\n"))
	assert.Error(t, err)

	_, err = parseBotProjects([]byte("not: [a list"))
	assert.Error(t, err)
}

func TestFactoryIsReproducible(t *testing.T) {
	a := NewFactory(nil, 7, bcrypt.MinCost)
	b := NewFactory(nil, 7, bcrypt.MinCost)
	for range 5 {
		ua, err := a.BuildUser()
		require.NoError(t, err)
		ub, err := b.BuildUser()
		require.NoError(t, err)
		assert.Equal(t, ua.Username, ub.Username)
		assert.Equal(t, ua.DisplayName, ub.DisplayName)
		assert.NoError(t, validation.ValidateUsername(ua.Username), ua.Username)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(ua.Password), []byte(DefaultPassword)))
	}
}

func TestFactoryProjectNamesAreUniquePerOwner(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	f := NewFactory(db, 3, bcrypt.MinCost)
	owner, err := f.CreateUser()
	require.NoError(t, err)

	seen := map[string]bool{}
	for range 20 {
		p, err := f.CreateProject(owner)
		require.NoError(t, err)
		assert.False(t, seen[p.Name], "duplicate name %q", p.Name)
		seen[p.Name] = true
		assert.NoError(t, validation.ValidateProjectName(p.Name))
		assert.NoError(t, validation.ValidateLink(p.Link))
	}
}

func TestSeederRun(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	s := NewSeeder(db, "ProjectariumBot")
	ctx := context.Background()

	sum, err := s.Run(ctx, Options{
		Users:           5,
		ProjectsPerUser: 2,
		FollowDensity:   1,
		LikeDensity:     1,
		CommentsPerUser: 2,
		Seed:            42,
		BcryptCost:      bcrypt.MinCost,
		WithBot:         true,
	})
	require.NoError(t, err)

	assert.Equal(t, &Summary{Users: 5, Projects: 10, Follows: 20, Likes: 50, Comments: 10}, sum)
	assert.Equal(t, int64(6), testutil.Count(t, db, &models.User{}, ""))
	assert.Equal(t, int64(13), testutil.Count(t, db, &models.Project{}, ""))
	assert.Equal(t, int64(20), testutil.Count(t, db, &models.Follow{}, ""))
	assert.Equal(t, int64(50), testutil.Count(t, db, &models.ProjectLike{}, ""))
	assert.Equal(t, int64(10), testutil.Count(t, db, &models.Comment{}, ""))

	t.Run("bot is provisioned once", func(t *testing.T) {
		_, err := s.Run(ctx, Options{Seed: 43, BcryptCost: bcrypt.MinCost, WithBot: true})
		require.NoError(t, err)
		assert.Equal(t, int64(1), testutil.Count(t, db, &models.User{}, "username = ?", "ProjectariumBot"))
	})

	t.Run("clear all", func(t *testing.T) {
		require.NoError(t, s.ClearAll(ctx))
		assert.Equal(t, int64(0), testutil.Count(t, db, &models.User{}, ""))
		assert.Equal(t, int64(0), testutil.Count(t, db, &models.Follow{}, ""))
		assert.Equal(t, int64(0), testutil.Count(t, db, &models.Comment{}, ""))
	})
}
