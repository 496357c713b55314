package service

import (
	"context"
	"testing"

	"projectarium/internal/models"
	"projectarium/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectCreateAndUpdate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, "maker", 0)
	other := testutil.CreateUser(t, f.db, "other", 0)

	p, err := f.projects.Create(ctx, owner.ID, ProjectInput{Name: "Widget", Description: "does things", Link: "https://example.com/widget"})
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusPublic, p.Status)
	require.NotNil(t, p.Owner)
	assert.Equal(t, "maker", p.Owner.Username)

	_, err = f.projects.Create(ctx, owner.ID, ProjectInput{Name: "Widget"})
	requireCode(t, err, models.CodeConflict)
	assert.Equal(t, "You have already created a project with this name.", err.Error())

	// Names are unique per owner only.
	_, err = f.projects.Create(ctx, other.ID, ProjectInput{Name: "Widget"})
	require.NoError(t, err)

	_, err = f.projects.Create(ctx, owner.ID, ProjectInput{Name: "Gadget", Link: "javascript:alert(1)"})
	requireCode(t, err, models.CodeValidation)

	// Names that collide with /api/projects/:id/<segment> routes are refused.
	for _, name := range []string{"comments", "Liked"} {
		_, err = f.projects.Create(ctx, owner.ID, ProjectInput{Name: name})
		requireCode(t, err, models.CodeValidation)
		_, err = f.projects.Update(ctx, p.ID, owner.ID, ProjectInput{Name: name})
		requireCode(t, err, models.CodeValidation)
	}

	_, err = f.projects.Update(ctx, p.ID, other.ID, ProjectInput{Name: "Stolen"})
	requireCode(t, err, models.CodeForbidden)

	updated, err := f.projects.Update(ctx, p.ID, owner.ID, ProjectInput{Name: "Widget 2", Description: "better"})
	require.NoError(t, err)
	assert.Equal(t, "Widget 2", updated.Name)
	assert.Equal(t, owner.ID, updated.OwnerID)

	got, err := f.projects.GetByOwner(ctx, "maker", "Widget 2")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	list, err := f.projects.ListByOwner(ctx, "maker", 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSponsor(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, "maker", 0)
	patron := testutil.CreateUser(t, f.db, "patron", 1500)
	p := testutil.CreateProject(t, f.db, owner.ID, "tool")

	_, err := f.projects.Sponsor(ctx, p.ID, owner.ID)
	requireCode(t, err, models.CodeConflict)
	assert.Equal(t, "Not enough credits", err.Error())

	sponsored, err := f.projects.Sponsor(ctx, p.ID, patron.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusSponsored, sponsored.Status)
	assert.Equal(t, 300, credits(t, f.db, patron.ID))

	_, err = f.projects.Sponsor(ctx, p.ID, patron.ID)
	requireCode(t, err, models.CodeConflict)
	assert.Equal(t, 300, credits(t, f.db, patron.ID))

	_, err = f.projects.Sponsor(ctx, 9090, patron.ID)
	requireCode(t, err, models.CodeNotFound)
}

func TestProjectListings(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, "maker", 0)
	fans := testutil.CreateUsers(t, f.db, "fan", 2)
	quiet := testutil.CreateProject(t, f.db, owner.ID, "Quiet Tool")
	loud := testutil.CreateProject(t, f.db, owner.ID, "Loud Tool")
	testutil.CreateProject(t, f.db, owner.ID, "Other")
	for _, fan := range fans {
		_, err := f.graph.LikeProject(ctx, fan.ID, loud.ID)
		require.NoError(t, err)
	}

	popular, err := f.projects.Popular(ctx, 0)
	require.NoError(t, err)
	require.Len(t, popular, 3)
	assert.Equal(t, loud.ID, popular[0].ID)
	assert.Equal(t, 2, popular[0].LikesCount)
	require.NotNil(t, popular[0].Owner)

	found, err := f.projects.Search(ctx, "tOOl", 0)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.ElementsMatch(t, []uint{quiet.ID, loud.ID}, []uint{found[0].ID, found[1].ID})

	_, err = f.projects.Search(ctx, "  ", 0)
	requireCode(t, err, models.CodeValidation)

	random, err := f.projects.Random(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, random, 2)
}
