package main

import (
	"bytes"
	"errors"
	"testing"

	"projectarium/internal/models"
	"projectarium/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func runAdmin(t *testing.T, db *gorm.DB, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(func() (*gorm.DB, error) { return db, nil }, &out)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestPromoteAndDemote(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	alice := testutil.CreateUser(t, db, "alice", 0)

	out, err := runAdmin(t, db, "promote", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "alice (ID: ")
	assert.Contains(t, out, "is now admin")

	out, err = runAdmin(t, db, "list-admins")
	require.NoError(t, err)
	assert.Contains(t, out, "alice")

	_, err = runAdmin(t, db, "demote", "alice")
	require.NoError(t, err)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, alice.ID).Error)
	assert.Equal(t, models.RoleUser, reloaded.Role)

	out, err = runAdmin(t, db, "list-admins")
	require.NoError(t, err)
	assert.Contains(t, out, "No admins found")
}

func TestPromoteUnknownUser(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	_, err := runAdmin(t, db, "promote", "ghost")
	require.Error(t, err)
	assert.True(t, models.IsNotFound(err))
}

func TestGrantCredits(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	testutil.CreateUser(t, db, "bob", 100)

	out, err := runAdmin(t, db, "grant-credits", "bob", "250")
	require.NoError(t, err)
	assert.Contains(t, out, "bob now has 350 credits")

	_, err = runAdmin(t, db, "grant-credits", "bob", "-5")
	require.Error(t, err)

	_, err = runAdmin(t, db, "grant-credits", "bob")
	require.Error(t, err)
}

func TestDeleteUser(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	carol := testutil.CreateUser(t, db, "carol", 0)
	testutil.CreateProject(t, db, carol.ID, "carols-app")

	out, err := runAdmin(t, db, "delete-user", "carol")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted carol")

	assert.Equal(t, int64(0), testutil.Count(t, db, &models.User{}, "id = ?", carol.ID))
	assert.Equal(t, int64(0), testutil.Count(t, db, &models.Project{}, "owner_id = ?", carol.ID))
}

func TestConnectFailure(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(func() (*gorm.DB, error) { return nil, errors.New("no database") }, &out)
	cmd.SetArgs([]string{"list-admins"})
	cmd.SetErr(&out)
	require.EqualError(t, cmd.Execute(), "no database")
}
