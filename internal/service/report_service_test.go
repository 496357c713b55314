package service

import (
	"context"
	"testing"

	"projectarium/internal/models"
	"projectarium/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReports(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	reporter := testutil.CreateUser(t, f.db, "reporter", 0)
	target := testutil.CreateUser(t, f.db, "target", 0)
	admin := testutil.CreateAdmin(t, f.db, "root")
	p := testutil.CreateProject(t, f.db, target.ID, "spam")

	in := ReportInput{Reason: "spam", Description: "posts ads everywhere"}
	ru, err := f.reports.ReportUser(ctx, reporter.ID, target.ID, in)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatePending, ru.State)

	rp, err := f.reports.ReportProject(ctx, reporter.ID, p.ID, in)
	require.NoError(t, err)

	_, err = f.reports.ReportUser(ctx, reporter.ID, 5555, in)
	requireCode(t, err, models.CodeNotFound)
	_, err = f.reports.ReportProject(ctx, reporter.ID, p.ID, ReportInput{Reason: "spam"})
	requireCode(t, err, models.CodeValidation)

	_, err = f.reports.ListPending(ctx, reporter.ID, 0)
	requireCode(t, err, models.CodeForbidden)

	pending, err := f.reports.ListPending(ctx, admin.ID, 0)
	require.NoError(t, err)
	assert.Len(t, pending.Users, 1)
	assert.Len(t, pending.Projects, 1)

	require.NoError(t, f.reports.Resolve(ctx, admin.ID, models.ReportKindUser, ru.ID, models.ReportStateAccepted))
	err = f.reports.Resolve(ctx, admin.ID, models.ReportKindUser, ru.ID, models.ReportStateRejected)
	requireCode(t, err, models.CodeConflict)

	err = f.reports.Resolve(ctx, admin.ID, models.ReportKindProject, rp.ID, models.ReportStatePending)
	requireCode(t, err, models.CodeValidation)
	require.NoError(t, f.reports.Resolve(ctx, admin.ID, models.ReportKindProject, rp.ID, models.ReportStateRejected))

	err = f.reports.Resolve(ctx, admin.ID, models.ReportKindProject, 8080, models.ReportStateRejected)
	requireCode(t, err, models.CodeNotFound)
	err = f.reports.Resolve(ctx, admin.ID, models.ReportKind("comment"), rp.ID, models.ReportStateRejected)
	requireCode(t, err, models.CodeValidation)

	pending, err = f.reports.ListPending(ctx, admin.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, pending.Users)
	assert.Empty(t, pending.Projects)
}
