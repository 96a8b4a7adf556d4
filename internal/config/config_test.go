package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, DriverSupabase, cfg.Store.Driver)
	assert.Equal(t, "atomic", cfg.Store.LikeMode)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 100, cfg.Notifications.Max)
	assert.Equal(t, "profile-events", cfg.Kafka.Topic)
	assert.Empty(t, cfg.JWT.Secret)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", DriverPostgres)
	t.Setenv("LIKE_MODE", "sequential")
	t.Setenv("CACHE_TTL", "5")
	t.Setenv("BCRYPT_COST", "not-a-number")
	t.Setenv("DATABASE_AUTO_SCHEMA", "false")
	t.Setenv("GO_ENV", "production")

	cfg := LoadConfig()

	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "sequential", cfg.Store.LikeMode)
	assert.Equal(t, 5*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 10, cfg.Bcrypt.Cost, "unparsable values fall back to the default")
	assert.False(t, cfg.Database.AutoSchema)
	assert.True(t, cfg.IsProduction())
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "memory store",
			mutate: func(c *Config) { c.Store.Driver = DriverMemory },
		},
		{
			name:    "supabase without key",
			mutate:  func(c *Config) { c.Supabase.URL = "https://x.supabase.co" },
			wantErr: "SUPABASE_SERVICE_KEY",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Store.Driver = "mysql" },
			wantErr: `unknown STORE_DRIVER "mysql"`,
		},
		{
			name: "unknown like mode",
			mutate: func(c *Config) {
				c.Store.Driver = DriverMemory
				c.Store.LikeMode = "optimistic"
			},
			wantErr: "LIKE_MODE",
		},
		{
			name: "jwt without expiration",
			mutate: func(c *Config) {
				c.Store.Driver = DriverMemory
				c.JWT.Secret = "s"
				c.JWT.Expiration = 0
			},
			wantErr: "JWT_EXPIRATION",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
