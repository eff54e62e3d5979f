package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultimatefaloe/59Minutes-Backend/internal/config"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/logger"
)

func brokenCasbinConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		DBDriver:        "sqlite",
		DSN:             filepath.Join(dir, "auth.db"),
		CasbinModelPath: filepath.Join(dir, "missing-model.conf"),
	}
}

func TestNewContainer_DatabaseSetupFailure(t *testing.T) {
	c, err := NewContainer(context.Background(), brokenCasbinConfig(t), logger.Discard())
	assert.Nil(t, c)
	assert.Error(t, err)
}

func TestContainer_CloseReleasesPoolAfterFailedSetup(t *testing.T) {
	c := &Container{Config: brokenCasbinConfig(t), Log: logger.Discard()}

	require.Error(t, c.initDatabase())
	require.NotNil(t, c.DB, "an opened pool must be owned by the container")

	sqlDB, err := c.DB.DB()
	require.NoError(t, err)
	require.NoError(t, c.Close())
	assert.ErrorContains(t, sqlDB.Ping(), "database is closed")
}
