package service

import (
	"context"
	"errors"
	"testing"

	"projectarium/internal/database"
	"projectarium/internal/models"
	"projectarium/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cascadeScene struct {
	u, v             *models.User
	projects         []*models.Project
	vProject         *models.Project
	authored         *models.Comment
	liked            []*models.Comment
	onUProject       *models.Comment
	threadID         uint
	initialRowCounts map[string]int64
}

// buildCascadeScene gives u two projects, one authored comment, two liked
// comments, a mutual follow with v and a chat thread with v.
func buildCascadeScene(t *testing.T, f *fixture) *cascadeScene {
	t.Helper()
	ctx := context.Background()
	s := &cascadeScene{
		u: testutil.CreateUser(t, f.db, "doomed", 0),
		v: testutil.CreateUser(t, f.db, "survivor", 0),
	}
	s.projects = []*models.Project{
		testutil.CreateProject(t, f.db, s.u.ID, "first"),
		testutil.CreateProject(t, f.db, s.u.ID, "second"),
	}
	s.vProject = testutil.CreateProject(t, f.db, s.v.ID, "keeper")

	var err error
	s.authored, err = f.comments.Create(ctx, s.vProject.ID, s.u.ID, "mine", nil)
	require.NoError(t, err)
	for _, text := range []string{"one", "two"} {
		c, err := f.comments.Create(ctx, s.vProject.ID, s.v.ID, text, nil)
		require.NoError(t, err)
		require.NoError(t, f.comments.Like(ctx, c.ID, s.u.ID))
		s.liked = append(s.liked, c)
	}
	s.onUProject, err = f.comments.Create(ctx, s.projects[0].ID, s.v.ID, "nice", nil)
	require.NoError(t, err)

	_, err = f.graph.LikeProject(ctx, s.u.ID, s.vProject.ID)
	require.NoError(t, err)
	_, err = f.graph.LikeProject(ctx, s.v.ID, s.projects[1].ID)
	require.NoError(t, err)

	f.mustFollow(t, s.u.ID, s.v.ID)
	f.mustFollow(t, s.v.ID, s.u.ID)
	ch, err := f.chats.OpenChannel(ctx, s.v.ID, s.u.ID)
	require.NoError(t, err)
	s.threadID = ch.Thread.ID
	_, err = f.chats.SendMessage(ctx, s.threadID, s.u.ID, "bye")
	require.NoError(t, err)

	s.initialRowCounts = rowCounts(t, f)
	return s
}

func rowCounts(t *testing.T, f *fixture) map[string]int64 {
	t.Helper()
	return map[string]int64{
		"users":         testutil.Count(t, f.db, &models.User{}, ""),
		"projects":      testutil.Count(t, f.db, &models.Project{}, ""),
		"comments":      testutil.Count(t, f.db, &models.Comment{}, ""),
		"comment_likes": testutil.Count(t, f.db, &models.CommentLike{}, ""),
		"project_likes": testutil.Count(t, f.db, &models.ProjectLike{}, ""),
		"follows":       testutil.Count(t, f.db, &models.Follow{}, ""),
		"private_chats": testutil.Count(t, f.db, &models.PrivateChat{}, ""),
		"chat_threads":  testutil.Count(t, f.db, &models.ChatThread{}, ""),
		"chat_messages": testutil.Count(t, f.db, &models.ChatMessage{}, ""),
	}
}

func TestDeleteUser_Cascade(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	s := buildCascadeScene(t, f)

	summary, err := f.cascade.DeleteUser(ctx, s.u.ID, s.u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.Removed[StepDeleteUser])
	assert.EqualValues(t, 2, summary.Removed[StepRemoveFollows])

	v, err := f.users.GetByUsername(ctx, "survivor")
	require.NoError(t, err)
	assert.False(t, v.Followers.Has(s.u.ID))
	assert.False(t, v.Following.Has(s.u.ID))
	assert.NotContains(t, v.PrivateChats, s.u.ID)

	_, err = f.store.Comments.GetByID(ctx, s.authored.ID)
	requireCode(t, err, models.CodeNotFound)

	comments, err := f.comments.List(ctx, s.vProject.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	for _, c := range comments {
		assert.False(t, c.Likes.Has(s.u.ID))
		assert.True(t, c.Likes.Has(s.v.ID))
	}

	for _, p := range s.projects {
		_, err := f.store.Projects.GetByID(ctx, p.ID)
		requireCode(t, err, models.CodeNotFound)
	}
	_, err = f.store.Comments.GetByID(ctx, s.onUProject.ID)
	requireCode(t, err, models.CodeNotFound)

	keeper, err := f.projects.Get(ctx, s.vProject.ID)
	require.NoError(t, err)
	assert.False(t, keeper.Likes.Has(s.u.ID))
	assert.Equal(t, 0, keeper.LikesCount)

	assert.Zero(t, testutil.Count(t, f.db, &models.ChatThread{}, ""))
	assert.Zero(t, testutil.Count(t, f.db, &models.ChatMessage{}, ""))
	assert.Zero(t, testutil.Count(t, f.db, &models.ProjectLike{}, ""))
	assert.Zero(t, testutil.Count(t, f.db, &models.Follow{}, ""))

	_, err = f.users.GetDetails(ctx, s.u.ID)
	requireCode(t, err, models.CodeNotFound)
}

func TestDeleteUser_RollsBackOnStepFailure(t *testing.T) {
	injected := errors.New("disk on fire")
	steps := []string{
		StepRemoveFollows,
		StepDeleteChatThreads,
		StepDeleteProjects,
		StepDeleteUser,
	}
	for _, failAt := range steps {
		t.Run(failAt, func(t *testing.T) {
			f := newFixture(t, nil)
			s := buildCascadeScene(t, f)
			f.cascade.WithStepHook(func(name string) error {
				if name == failAt {
					return injected
				}
				return nil
			})

			_, err := f.cascade.DeleteUser(context.Background(), s.u.ID, s.u.ID)
			require.ErrorIs(t, err, injected)
			var stepErr *database.StepError
			require.ErrorAs(t, err, &stepErr)
			assert.Equal(t, failAt, stepErr.Step)

			assert.Equal(t, s.initialRowCounts, rowCounts(t, f))
		})
	}
}

func TestDeleteUser_Authorization(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	target := testutil.CreateUser(t, f.db, "target", 0)
	other := testutil.CreateUser(t, f.db, "other", 0)
	admin := testutil.CreateAdmin(t, f.db, "root")

	_, err := f.cascade.DeleteUser(ctx, target.ID, other.ID)
	requireCode(t, err, models.CodeForbidden)

	_, err = f.cascade.DeleteUser(ctx, 4040, admin.ID)
	requireCode(t, err, models.CodeNotFound)

	_, err = f.cascade.DeleteUser(ctx, target.ID, admin.ID)
	require.NoError(t, err)
	assert.Zero(t, testutil.Count(t, f.db, &models.User{}, "id = ?", target.ID))
}

func TestDeleteProject(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, "owner", 0)
	fan := testutil.CreateUser(t, f.db, "fan", 0)
	admin := testutil.CreateAdmin(t, f.db, "root")
	p := testutil.CreateProject(t, f.db, owner.ID, "tool")
	other := testutil.CreateProject(t, f.db, owner.ID, "other")

	_, err := f.graph.LikeProject(ctx, fan.ID, p.ID)
	require.NoError(t, err)
	_, err = f.graph.LikeProject(ctx, fan.ID, other.ID)
	require.NoError(t, err)
	c, err := f.comments.Create(ctx, p.ID, fan.ID, "great", nil)
	require.NoError(t, err)

	_, err = f.cascade.DeleteProject(ctx, p.ID, fan.ID)
	requireCode(t, err, models.CodeForbidden)
	assert.EqualValues(t, 1, testutil.Count(t, f.db, &models.Project{}, "id = ?", p.ID))

	_, err = f.cascade.DeleteProject(ctx, p.ID, owner.ID)
	require.NoError(t, err)

	assert.Zero(t, testutil.Count(t, f.db, &models.Project{}, "id = ?", p.ID))
	assert.Zero(t, testutil.Count(t, f.db, &models.Comment{}, "id = ?", c.ID))
	assert.Zero(t, testutil.Count(t, f.db, &models.CommentLike{}, "comment_id = ?", c.ID))

	fanProfile, err := f.users.GetByUsername(ctx, "fan")
	require.NoError(t, err)
	assert.Equal(t, []uint{other.ID}, fanProfile.ProjectsLiked.Sorted())
	ownerProfile, err := f.users.GetByUsername(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, []uint{other.ID}, ownerProfile.ProjectsCreated.Sorted())

	_, err = f.cascade.DeleteProject(ctx, other.ID, admin.ID)
	require.NoError(t, err)
	_, err = f.cascade.DeleteProject(ctx, other.ID, admin.ID)
	requireCode(t, err, models.CodeNotFound)
}

func TestDeleteProject_RollsBackOnStepFailure(t *testing.T) {
	injected := errors.New("disk on fire")
	for _, failAt := range []string{StepDeleteComments, StepDeleteProject} {
		t.Run(failAt, func(t *testing.T) {
			f := newFixture(t, nil)
			s := buildCascadeScene(t, f)
			f.cascade.WithStepHook(func(name string) error {
				if name == failAt {
					return injected
				}
				return nil
			})

			_, err := f.cascade.DeleteProject(context.Background(), s.vProject.ID, s.v.ID)
			require.ErrorIs(t, err, injected)
			var stepErr *database.StepError
			require.ErrorAs(t, err, &stepErr)
			assert.Equal(t, failAt, stepErr.Step)

			assert.Equal(t, s.initialRowCounts, rowCounts(t, f))
			assert.EqualValues(t, 3, testutil.Count(t, f.db, &models.Comment{}, "project_id = ?", s.vProject.ID))
		})
	}
}
