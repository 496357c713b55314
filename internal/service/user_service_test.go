package service

import (
	"context"
	"testing"

	"projectarium/internal/featureflags"
	"projectarium/internal/models"
	"projectarium/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.users.Signup(ctx, SignupInput{Username: "newbie", Password: "secret123"})
	requireCode(t, err, models.CodeValidation)
	_, err = f.users.Signup(ctx, SignupInput{Username: "newbie", Password: "short", DisplayName: "New"})
	requireCode(t, err, models.CodeValidation)

	user, err := f.users.Signup(ctx, SignupInput{Username: "newbie", Password: "secret123", DisplayName: "New"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, models.DefaultDescription, user.Description)
	assert.GreaterOrEqual(t, user.ProfileColour, 1)
	assert.LessOrEqual(t, user.ProfileColour, 7)
	assert.NotEqual(t, "secret123", user.Password)

	_, err = f.users.Signup(ctx, SignupInput{Username: "newbie", Password: "secret123", DisplayName: "Again"})
	requireCode(t, err, models.CodeConflict)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Username is already taken", appErr.Message)
	assert.Equal(t, true, appErr.Extra["usernameAlreadyExists"])
}

func TestSignup_WelcomeBot(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	bot, err := f.bot.EnsureBot(ctx, DefaultBotProjects)
	require.NoError(t, err)
	assert.True(t, bot.IsAdmin())
	again, err := f.bot.EnsureBot(ctx, DefaultBotProjects)
	require.NoError(t, err)
	assert.Equal(t, bot.ID, again.ID)

	sponsored, err := f.projects.Sponsored(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, sponsored, len(DefaultBotProjects))

	user, err := f.users.Signup(ctx, SignupInput{Username: "newbie", Password: "secret123", DisplayName: "New"})
	require.NoError(t, err)

	profile, err := f.users.GetByUsername(ctx, "newbie")
	require.NoError(t, err)
	assert.True(t, profile.Followers.Has(bot.ID))
	assert.Equal(t, []uint{bot.ID}, profile.PrivateChats)

	threads, err := f.chats.ListThreads(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	thread, err := f.chats.GetThread(ctx, threads[0].ID, user.ID)
	require.NoError(t, err)
	require.Len(t, thread.Messages, 1)
	assert.Equal(t, WelcomeMessage, thread.Messages[0].Text)
	assert.Equal(t, bot.ID, thread.Messages[0].SenderID)
}

func TestSignup_WelcomeBotDisabled(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.users.flags = featureflags.NewManager("welcome_bot=off")
	_, err := f.bot.EnsureBot(ctx, nil)
	require.NoError(t, err)

	_, err = f.users.Signup(ctx, SignupInput{Username: "quiet", Password: "secret123", DisplayName: "Quiet"})
	require.NoError(t, err)
	assert.Zero(t, testutil.Count(t, f.db, &models.Follow{}, ""))
	assert.Zero(t, testutil.Count(t, f.db, &models.ChatThread{}, ""))
}

func TestSignup_WithoutBotAccount(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.users.Signup(context.Background(), SignupInput{Username: "early", Password: "secret123", DisplayName: "Early"})
	require.NoError(t, err)
	assert.Zero(t, testutil.Count(t, f.db, &models.ChatThread{}, ""))
}

func TestLoginAndChangePassword(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	u, err := f.users.Signup(ctx, SignupInput{Username: "walker", Password: "secret123", DisplayName: "Walker"})
	require.NoError(t, err)

	got, err := f.users.Login(ctx, "walker", "secret123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = f.users.Login(ctx, "walker", "wrong-pass1")
	requireCode(t, err, models.CodeUnauthorized)
	_, err = f.users.Login(ctx, "nobody", "secret123")
	requireCode(t, err, models.CodeUnauthorized)

	err = f.users.ChangePassword(ctx, u.ID, "not-it-123", "another456")
	requireCode(t, err, models.CodeConflict)

	require.NoError(t, f.users.ChangePassword(ctx, u.ID, "secret123", "another456"))
	_, err = f.users.Login(ctx, "walker", "another456")
	require.NoError(t, err)
}

func TestProfileEdits(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	u := testutil.CreateUser(t, f.db, "editor", 0)

	updated, err := f.users.EditDisplayName(ctx, u.ID, "  The Editor ")
	require.NoError(t, err)
	assert.Equal(t, "The Editor", updated.DisplayName)

	_, err = f.users.EditDisplayName(ctx, u.ID, " ")
	requireCode(t, err, models.CodeValidation)

	updated, err = f.users.EditDescription(ctx, u.ID, "I edit things")
	require.NoError(t, err)
	assert.Equal(t, "I edit things", updated.Description)

	updated, err = f.users.EditDescription(ctx, u.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultDescription, updated.Description)
}

func TestEditUsername(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	poor := testutil.CreateUser(t, f.db, "poor", 99)
	rich := testutil.CreateUser(t, f.db, "rich", 250)

	_, err := f.users.EditUsername(ctx, poor.ID, "wealthy")
	requireCode(t, err, models.CodeConflict)
	assert.Equal(t, "Not enough credits", err.Error())
	assert.Equal(t, 99, credits(t, f.db, poor.ID))

	_, err = f.users.EditUsername(ctx, rich.ID, "poor")
	requireCode(t, err, models.CodeConflict)
	assert.Equal(t, 250, credits(t, f.db, rich.ID))

	updated, err := f.users.EditUsername(ctx, rich.ID, "richer")
	require.NoError(t, err)
	assert.Equal(t, "richer", updated.Username)
	assert.Equal(t, 150, updated.Credits)

	_, err = f.users.EditUsername(ctx, rich.ID, "bad name")
	requireCode(t, err, models.CodeValidation)
}

func TestAddCredits(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	u := testutil.CreateUser(t, f.db, "saver", 0)
	other := testutil.CreateUser(t, f.db, "other", 0)
	admin := testutil.CreateAdmin(t, f.db, "root")

	updated, err := f.users.AddCredits(ctx, u.ID, u.ID, 40)
	require.NoError(t, err)
	assert.Equal(t, 40, updated.Credits)

	_, err = f.users.AddCredits(ctx, u.ID, u.ID, 0)
	requireCode(t, err, models.CodeValidation)

	_, err = f.users.AddCredits(ctx, other.ID, u.ID, 10)
	requireCode(t, err, models.CodeForbidden)

	updated, err = f.users.AddCredits(ctx, admin.ID, u.ID, 60)
	require.NoError(t, err)
	assert.Equal(t, 100, updated.Credits)
}

func TestSetRole(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	testutil.CreateUser(t, f.db, "promoted", 0)

	u, err := f.users.SetRole(ctx, "promoted", models.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())

	_, err = f.users.SetRole(ctx, "promoted", models.Role("owner"))
	requireCode(t, err, models.CodeValidation)
	_, err = f.users.SetRole(ctx, "ghost", models.RoleUser)
	requireCode(t, err, models.CodeNotFound)
}
