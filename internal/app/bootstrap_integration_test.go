package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildware/kbase/internal/app"
	"github.com/buildware/kbase/internal/testutils"
	"github.com/buildware/kbase/internal/vector"
)

func TestBootstrap_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	suite := testutils.NewIntegrationSuite(t)
	suite.Setup()
	defer suite.Teardown()

	cfg := suite.GetAppConfig()
	cfg.GeminiAPIKey = "test-key" // client construction only, no calls made

	deps, err := app.Bootstrap(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, deps)
	assert.NotNil(t, deps.DB)
	assert.NotNil(t, deps.Index)

	// Verify migration: Check if 'projects' table exists
	var exists bool
	err = deps.DB.QueryRow("SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = 'projects')").Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists, "projects table should exist")

	// Verify Weaviate connectivity. EnsureSchema doubles as the check;
	// GraphQL aggregates can be flaky immediately after bootstrap.
	err = vector.EnsureSchema(context.Background(), vector.NewWeaviateClientAdapter(suite.Weaviate))
	assert.NoError(t, err, "Weaviate connectivity check failed")

	// Verify NSQ
	err = deps.NSQProducer.Ping()
	assert.NoError(t, err)
}
