package queen

import (
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Config is the runtime configuration, loaded from the environment.
type Config struct {
	// TickRate is the target number of ticks per second.
	TickRate int `env:"QUEEN_TICK_RATE" envDefault:"20"`
	// Workers is the worker pool size for parallel systems. 0 means GOMAXPROCS; negative
	// disables the pool entirely, running every system on the tick goroutine.
	Workers int `env:"QUEEN_WORKERS" envDefault:"0"`
	// QueueCapacity is the worker pool's task queue capacity, rounded up to a power of two.
	QueueCapacity int `env:"QUEEN_QUEUE_CAPACITY" envDefault:"1024"`
	// CommandSlots overrides the number of worker command-buffer slots. 0 means GOMAXPROCS.
	CommandSlots int `env:"QUEEN_COMMAND_SLOTS" envDefault:"0"`

	LogLevel  string `env:"QUEEN_LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"QUEEN_LOG_PRETTY" envDefault:"false"`

	// StatsdAddress enables metric emission when set.
	StatsdAddress string `env:"QUEEN_STATSD_ADDRESS"`

	// RedisAddress enables snapshot persistence when set.
	RedisAddress  string `env:"QUEEN_REDIS_ADDRESS"`
	RedisPassword string `env:"QUEEN_REDIS_PASSWORD"`
	// SnapshotInterval is the number of ticks between snapshots. 0 disables snapshotting even
	// when Redis is configured.
	SnapshotInterval int `env:"QUEEN_SNAPSHOT_INTERVAL" envDefault:"0"`
}

// LoadConfig reads the configuration from the environment and validates it.
func LoadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, eris.Wrap(err, "failed to parse config from environment")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the runtime cannot operate with.
func (c Config) Validate() error {
	if c.TickRate <= 0 {
		return eris.Errorf("tick rate must be positive, got %d", c.TickRate)
	}
	if c.QueueCapacity <= 0 {
		return eris.Errorf("queue capacity must be positive, got %d", c.QueueCapacity)
	}
	if c.SnapshotInterval < 0 {
		return eris.Errorf("snapshot interval must not be negative, got %d", c.SnapshotInterval)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return eris.Wrapf(err, "invalid log level %q", c.LogLevel)
	}
	return nil
}

// logger builds the process logger the config describes.
func (c Config) logger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if c.LogPretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}
