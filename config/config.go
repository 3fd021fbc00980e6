package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// PostgresConfig configures the optional relational mirror.
type PostgresConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// DSN returns the Postgres connection string.
func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf("postgresql://%s:%s@%s/%s", c.User, c.Password, c.Host, c.Database)
}

// Config is the process configuration, read from an optional TOML file with
// TRACELEDGER_* environment overrides.
type Config struct {
	HTTPPort string `mapstructure:"http_port"`
	DataDir  string `mapstructure:"data_dir"`
	// NoSync disables fsync on ledger commits; acknowledged writes can then
	// be lost on a machine crash.
	NoSync   bool           `mapstructure:"no_sync"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// Load reads configuration from path (when non-empty) and the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("http_port", "5000")
	v.SetDefault("data_dir", "./data")
	v.SetDefault("no_sync", false)
	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.host", "localhost:5432")
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "postgrespassword")
	v.SetDefault("postgres.database", "postgres")

	v.SetEnvPrefix("TRACELEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.HTTPPort == "" {
		return nil, fmt.Errorf("http_port must not be empty")
	}
	return &cfg, nil
}
