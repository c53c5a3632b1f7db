package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/buildware/kbase/internal/app"
	"github.com/buildware/kbase/internal/config"
	"github.com/buildware/kbase/internal/testutils"
)

func TestBootstrap_Resilience_DBDown(t *testing.T) {
	cfg := &config.Config{
		DBHost:                     "localhost",
		DBPort:                     54322, // Random port likely closed
		DBUser:                     "test",
		DBPass:                     "test",
		DBName:                     "test",
		BootstrapRetryAttempts:     1,
		BootstrapRetryDelaySeconds: 0,
	}

	start := time.Now()
	deps, err := app.Bootstrap(context.Background(), cfg)
	duration := time.Since(start)

	assert.Error(t, err)
	assert.Nil(t, deps)
	assert.Contains(t, err.Error(), "failed to ping db")
	// sql.Open is lazy, so the failure surfaces on the first Ping.
	// attempts=1, delay=0 keeps the loop short.
	assert.Less(t, duration, 2*time.Second)
}

func TestBootstrap_Resilience_WeaviateDown(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	// Start DB via suite
	suite := testutils.NewIntegrationSuite(t)
	suite.Setup()
	defer suite.Teardown()

	goodCfg := suite.GetAppConfig()

	// Config: Good DB, Bad Weaviate
	cfg := &config.Config{
		DBHost: goodCfg.DBHost,
		DBPort: goodCfg.DBPort,
		DBUser: goodCfg.DBUser,
		DBPass: goodCfg.DBPass,
		DBName: goodCfg.DBName,

		WeaviateHost:   "localhost:54322", // Bad host
		WeaviateScheme: "http",

		NSQDHost: goodCfg.NSQDHost, // Keep good NSQ to isolate Weaviate failure
		NSQDHTTP: goodCfg.NSQDHTTP,

		BootstrapRetryAttempts:     2,
		BootstrapRetryDelaySeconds: 1,
		MigrationPath:              goodCfg.MigrationPath,
	}

	start := time.Now()
	deps, err := app.Bootstrap(context.Background(), cfg)
	duration := time.Since(start)

	assert.Error(t, err)
	assert.Nil(t, deps)
	assert.Contains(t, err.Error(), "weaviate schema error")
	assert.Greater(t, duration, 1*time.Second) // At least 1 delay
}
