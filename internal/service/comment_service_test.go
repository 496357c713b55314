package service

import (
	"context"
	"strings"
	"testing"

	"projectarium/internal/models"
	"projectarium/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateComment(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, "owner", 0)
	author := testutil.CreateUser(t, f.db, "author", 0)
	p := testutil.CreateProject(t, f.db, owner.ID, "tool")
	elsewhere := testutil.CreateProject(t, f.db, owner.ID, "elsewhere")

	c, err := f.comments.Create(ctx, p.ID, author.ID, "  first!  ", nil)
	require.NoError(t, err)
	assert.Equal(t, "first!", c.Text)
	assert.True(t, c.Likes.Has(author.ID))
	require.NotNil(t, c.User)
	assert.Equal(t, "author", c.User.Username)

	reply, err := f.comments.Create(ctx, p.ID, owner.ID, "thanks", &c.ID)
	require.NoError(t, err)
	require.NotNil(t, reply.ParentCommentID)
	assert.Equal(t, c.ID, *reply.ParentCommentID)

	_, err = f.comments.Create(ctx, elsewhere.ID, owner.ID, "wrong thread", &c.ID)
	requireCode(t, err, models.CodeValidation)

	missing := uint(999)
	_, err = f.comments.Create(ctx, p.ID, owner.ID, "orphan", &missing)
	requireCode(t, err, models.CodeNotFound)

	_, err = f.comments.Create(ctx, 999, owner.ID, "nowhere", nil)
	requireCode(t, err, models.CodeNotFound)

	_, err = f.comments.Create(ctx, p.ID, owner.ID, "", nil)
	requireCode(t, err, models.CodeValidation)
	_, err = f.comments.Create(ctx, p.ID, owner.ID, strings.Repeat("c", MaxCommentLength+1), nil)
	requireCode(t, err, models.CodeValidation)

	project, err := f.projects.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{c.ID, reply.ID}, project.Comments)
}

func TestCommentLikes(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, "owner", 0)
	fan := testutil.CreateUser(t, f.db, "fan", 0)
	p := testutil.CreateProject(t, f.db, owner.ID, "tool")
	c, err := f.comments.Create(ctx, p.ID, owner.ID, "hello", nil)
	require.NoError(t, err)

	err = f.comments.Like(ctx, c.ID, owner.ID)
	requireCode(t, err, models.CodeConflict)
	assert.Equal(t, "Comment already liked", err.Error())

	require.NoError(t, f.comments.Like(ctx, c.ID, fan.ID))
	require.NoError(t, f.comments.Unlike(ctx, c.ID, fan.ID))
	err = f.comments.Unlike(ctx, c.ID, fan.ID)
	requireCode(t, err, models.CodeConflict)
	assert.Equal(t, "Comment not liked", err.Error())

	requireCode(t, f.comments.Like(ctx, 12345, fan.ID), models.CodeNotFound)

	comments, err := f.comments.List(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, []uint{owner.ID}, comments[0].Likes.Sorted())
}

func TestDeleteComment_ForbiddenLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, "owner", 0)
	author := testutil.CreateUser(t, f.db, "author", 0)
	stranger := testutil.CreateUser(t, f.db, "stranger", 0)
	p := testutil.CreateProject(t, f.db, owner.ID, "tool")
	c, err := f.comments.Create(ctx, p.ID, author.ID, "keep me", nil)
	require.NoError(t, err)
	require.NoError(t, f.comments.Like(ctx, c.ID, stranger.ID))

	// Owning the project does not grant rights over other people's comments.
	for _, requester := range []uint{stranger.ID, owner.ID} {
		err := f.comments.Delete(ctx, c.ID, requester)
		requireCode(t, err, models.CodeForbidden)
	}

	got, err := f.store.Comments.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "keep me", got.Text)
	assert.EqualValues(t, 2, testutil.Count(t, f.db, &models.CommentLike{}, "comment_id = ?", c.ID))
	project, err := f.projects.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{c.ID}, project.Comments)
}

func TestDeleteComment_AuthorAndAdmin(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, "owner", 0)
	admin := testutil.CreateAdmin(t, f.db, "root")
	p := testutil.CreateProject(t, f.db, owner.ID, "tool")

	parent, err := f.comments.Create(ctx, p.ID, owner.ID, "parent", nil)
	require.NoError(t, err)
	reply, err := f.comments.Create(ctx, p.ID, owner.ID, "reply", &parent.ID)
	require.NoError(t, err)

	require.NoError(t, f.comments.Delete(ctx, parent.ID, admin.ID))
	got, err := f.store.Comments.GetByID(ctx, reply.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ParentCommentID)
	assert.Zero(t, testutil.Count(t, f.db, &models.CommentLike{}, "comment_id = ?", parent.ID))

	require.NoError(t, f.comments.Delete(ctx, reply.ID, owner.ID))
	requireCode(t, f.comments.Delete(ctx, reply.ID, owner.ID), models.CodeNotFound)
}
