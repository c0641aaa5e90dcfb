package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propertymap/server/internal/geo"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "5250", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.Map.ClusteringEnabled)
	assert.Equal(t, 50.0, cfg.Map.ClusterRadius)
	assert.True(t, cfg.Map.DrawingEnabled)
	assert.Equal(t, 0.01, cfg.Map.BoundsPadding)
	assert.Equal(t, 500, cfg.Map.IndexThreshold)
	assert.Equal(t, 800.0, cfg.Map.ViewportWidth)
	assert.Equal(t, 600.0, cfg.Map.ViewportHeight)
	assert.Equal(t, 1000, cfg.Map.MaxSessions)
	assert.Equal(t, 30*time.Minute, cfg.Map.SessionTTL)
	assert.Equal(t, 3, cfg.BatchProcessing.MaxRetries)
	assert.Equal(t, geo.DefaultBounds, cfg.DefaultBounds())
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("MAP_CLUSTERING_ENABLED", "false")
	t.Setenv("MAP_CLUSTER_RADIUS", "75.5")
	t.Setenv("MAP_DEFAULT_REGION", "amsterdam")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,https://example.com")
	t.Setenv("MAP_SESSION_TTL", "90s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.False(t, cfg.Map.ClusteringEnabled)
	assert.Equal(t, 75.5, cfg.Map.ClusterRadius)
	assert.Equal(t, []string{"http://localhost:3000", "https://example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, GetRegionByName("amsterdam").Bounds, cfg.DefaultBounds())
	assert.Equal(t, 90*time.Second, cfg.Map.SessionTTL)
}

func TestLoadConfig_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SERVER_PORT=9090\nMAP_SPREAD_RADIUS=64\n"), 0644))
	t.Cleanup(func() {
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("MAP_SPREAD_RADIUS")
	})

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 64.0, cfg.Map.SpreadRadius)
}

func TestLoadConfig_MissingEnvFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoadConfig_InvalidValue(t *testing.T) {
	t.Setenv("MAP_CLUSTER_RADIUS", "wide")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestRegions(t *testing.T) {
	tests := []struct {
		name     string
		region   string
		expected bool
	}{
		{"Known region", "los-angeles", true},
		{"Second region", "amsterdam", true},
		{"Unknown region", "atlantis", false},
		{"Empty name", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			region := GetRegionByName(tt.region)
			if !tt.expected {
				assert.Nil(t, region)
				return
			}
			require.NotNil(t, region)
			assert.Equal(t, tt.region, region.Name)
			assert.GreaterOrEqual(t, region.Bounds.North, region.Bounds.South)
			assert.GreaterOrEqual(t, region.Bounds.East, region.Bounds.West)
		})
	}

	assert.Equal(t, []string{"los-angeles", "amsterdam"}, GetRegionNames())

	cfg := &Config{}
	cfg.Map.DefaultRegion = "atlantis"
	assert.Equal(t, geo.DefaultBounds, cfg.DefaultBounds())
}
