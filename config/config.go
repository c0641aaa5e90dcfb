package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"propertymap/server/internal/geo"
)

type Config struct {
	// Log level understood by logrus (debug, info, warn, error)
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Server struct {
		Port string `env:"SERVER_PORT" envDefault:"5250"`

		// Origins allowed to call the API, comma separated
		AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	}

	Database struct {
		Path string `env:"DATABASE_PATH" envDefault:"database/properties.db"`
	}

	// Map holds the defaults every new map session starts with
	Map struct {
		ClusteringEnabled bool    `env:"MAP_CLUSTERING_ENABLED" envDefault:"true"`
		ClusterRadius     float64 `env:"MAP_CLUSTER_RADIUS" envDefault:"50"`
		DrawingEnabled    bool    `env:"MAP_DRAWING_ENABLED" envDefault:"true"`

		// Margin in degrees added around the fitted bounds
		BoundsPadding float64 `env:"MAP_BOUNDS_PADDING" envDefault:"0.01"`

		// Region shown when there are no properties to fit
		DefaultRegion string `env:"MAP_DEFAULT_REGION" envDefault:"los-angeles"`

		// Property count from which clustering uses a quadtree instead of a pairwise scan
		IndexThreshold int `env:"MAP_CLUSTER_INDEX_THRESHOLD" envDefault:"500"`

		// Distance in pixels between an expanded cluster and its members
		SpreadRadius float64 `env:"MAP_SPREAD_RADIUS" envDefault:"40"`

		ViewportWidth  float64 `env:"MAP_VIEWPORT_WIDTH" envDefault:"800"`
		ViewportHeight float64 `env:"MAP_VIEWPORT_HEIGHT" envDefault:"600"`

		// Live sessions kept in memory, 0 for no limit
		MaxSessions int `env:"MAP_MAX_SESSIONS" envDefault:"1000"`

		// Idle time after which a session is evicted, 0 to keep sessions
		SessionTTL time.Duration `env:"MAP_SESSION_TTL" envDefault:"30m"`
	}

	// BatchProcessing configuration
	BatchProcessing struct {
		// Number of property batches the import queue holds
		QueueSize int `env:"BATCH_QUEUE_SIZE" envDefault:"100"`

		// Maximum number of properties accepted in one import request
		MaxBatchSize int `env:"BATCH_MAX_SIZE" envDefault:"1000"`

		// Maximum number of retries for failed batches
		MaxRetries int `env:"BATCH_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"BATCH_RETRY_DELAY" envDefault:"5"`
	}
}

// LoadConfig reads the configuration from the environment. Variables from
// the given env files (or ./.env when present and none are given) are loaded
// first without overriding variables that are already set.
func LoadConfig(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		if _, err := os.Stat(".env"); err == nil {
			envFiles = []string{".env"}
		}
	}
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// DefaultBounds resolves the configured default region, falling back to the
// built-in sentinel region for unknown names.
func (c *Config) DefaultBounds() geo.Bounds {
	if region := GetRegionByName(c.Map.DefaultRegion); region != nil {
		return region.Bounds
	}
	return geo.DefaultBounds
}
