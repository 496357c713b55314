package bootstrap

import (
	"context"
	"testing"

	"projectarium/internal/config"
	"projectarium/internal/models"
	"projectarium/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvisionBotIsIdempotent(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	cfg := &config.Config{BotUsername: "ProjectariumBot"}
	ctx := context.Background()

	require.NoError(t, provisionBot(ctx, cfg, db))
	require.NoError(t, provisionBot(ctx, cfg, db))

	var bot models.User
	require.NoError(t, db.Where("username = ?", "ProjectariumBot").First(&bot).Error)
	assert.True(t, bot.IsAdmin())
	assert.Equal(t, int64(3), testutil.Count(t, db, &models.Project{}, "owner_id = ? AND status = ?", bot.ID, models.ProjectStatusSponsored))
}

func TestProvisionBotDisabled(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	require.NoError(t, provisionBot(context.Background(), &config.Config{}, db))
	assert.Equal(t, int64(0), testutil.Count(t, db, &models.User{}, ""))
}

func TestTracingConfig(t *testing.T) {
	tc := tracingConfig(&config.Config{Env: "development"})
	assert.False(t, tc.Enabled)

	tc = tracingConfig(&config.Config{Env: "production", OTLPEndpoint: "collector:4318"})
	assert.True(t, tc.Enabled)
	assert.Equal(t, "otlp", tc.Exporter)
	assert.Equal(t, "collector:4318", tc.OTLPEndpoint)
	assert.InDelta(t, 0.1, tc.SamplerRatio, 1e-9)

	tc = tracingConfig(&config.Config{Env: "debug"})
	assert.True(t, tc.Enabled)
	assert.Equal(t, "stdout", tc.Exporter)
}
