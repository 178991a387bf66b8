package config

import (
	"fmt"
	"time"

	"github.com/udisondev/monbattle/internal/data"
)

// Battle holds battle engine settings.
type Battle struct {
	// primary: only the defender's first type counts; all: multiply across types
	DefenderTypePolicy string `yaml:"defender_type_policy" env:"DEFENDER_TYPE_POLICY"`
	// 0 picks a random seed at startup
	Seed uint64 `yaml:"seed" env:"SEED"`
}

// Archive holds match archive outbox settings.
type Archive struct {
	QueueSize       int           `yaml:"queue_size" env:"QUEUE_SIZE"`
	InitialInterval time.Duration `yaml:"initial_interval" env:"INITIAL_INTERVAL"`
	MaxInterval     time.Duration `yaml:"max_interval" env:"MAX_INTERVAL"`
}

// BattleServer holds all configuration for the battle server.
type BattleServer struct {
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`

	Database DatabaseConfig `yaml:"database" envPrefix:"DB_"`

	// Static data; empty means the embedded copy
	CatalogPath   string `yaml:"catalog_path" env:"CATALOG_PATH"`
	TypeChartPath string `yaml:"type_chart_path" env:"TYPE_CHART_PATH"`

	// Coins granted to trainers created by the simulator and seeders
	StartingCoins int64 `yaml:"starting_coins" env:"STARTING_COINS"`

	Battle  Battle  `yaml:"battle" envPrefix:"BATTLE_"`
	Archive Archive `yaml:"archive" envPrefix:"ARCHIVE_"`
}

// DefaultBattleServer returns BattleServer config with sensible defaults.
func DefaultBattleServer() BattleServer {
	return BattleServer{
		LogLevel:      "info",
		StartingCoins: 500,
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "monbattle",
			Password: "monbattle",
			DBName:   "monbattle",
			SSLMode:  "disable",
		},
		Battle: Battle{
			DefenderTypePolicy: string(data.PolicyPrimary),
		},
		Archive: Archive{
			QueueSize:       256,
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     10 * time.Second,
		},
	}
}

// LoadBattleServer loads battle server config from a YAML file and
// MONBATTLE_* environment variables. If the file doesn't exist, defaults are used.
func LoadBattleServer(path string) (BattleServer, error) {
	cfg := DefaultBattleServer()
	if err := load(path, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that cannot be fixed by defaults.
func (c BattleServer) Validate() error {
	if _, err := data.ParseDefenderPolicy(c.Battle.DefenderTypePolicy); err != nil {
		return err
	}
	if c.Archive.QueueSize < 0 {
		return fmt.Errorf("archive.queue_size must be >= 0, got %d", c.Archive.QueueSize)
	}
	if c.Archive.InitialInterval < 0 || c.Archive.MaxInterval < 0 {
		return fmt.Errorf("archive intervals must be >= 0")
	}
	if c.StartingCoins < 0 {
		return fmt.Errorf("starting_coins must be >= 0, got %d", c.StartingCoins)
	}
	return nil
}

// DefenderPolicy returns the parsed defender type policy.
func (c BattleServer) DefenderPolicy() data.DefenderPolicy {
	p, err := data.ParseDefenderPolicy(c.Battle.DefenderTypePolicy)
	if err != nil {
		return data.PolicyPrimary
	}
	return p
}
