package queen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.TickRate)
	assert.Equal(t, 0, cfg.Workers)
	assert.Equal(t, 1024, cfg.QueueCapacity)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.RedisAddress)
	assert.Zero(t, cfg.SnapshotInterval)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("QUEEN_TICK_RATE", "60")
	t.Setenv("QUEEN_WORKERS", "8")
	t.Setenv("QUEEN_LOG_LEVEL", "debug")
	t.Setenv("QUEEN_REDIS_ADDRESS", "localhost:6379")
	t.Setenv("QUEEN_SNAPSHOT_INTERVAL", "100")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.TickRate)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "localhost:6379", cfg.RedisAddress)
	assert.Equal(t, 100, cfg.SnapshotInterval)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults valid", mutate: func(*Config) {}},
		{name: "zero tick rate", mutate: func(c *Config) { c.TickRate = 0 }, wantErr: true},
		{name: "negative tick rate", mutate: func(c *Config) { c.TickRate = -1 }, wantErr: true},
		{name: "zero queue capacity", mutate: func(c *Config) { c.QueueCapacity = 0 }, wantErr: true},
		{name: "negative snapshot interval", mutate: func(c *Config) { c.SnapshotInterval = -1 }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "verbose" }, wantErr: true},
		{name: "negative workers disable pool", mutate: func(c *Config) { c.Workers = -1 }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Config{
				TickRate:      20,
				QueueCapacity: 1024,
				LogLevel:      "info",
			}
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
