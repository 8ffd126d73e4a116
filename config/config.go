package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the server's runtime configuration, read from environment
// variables with sane defaults for local play.
type Config struct {
	ListenAddr     string        `mapstructure:"listen_addr"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	PostgresURL    string        `mapstructure:"postgres_url"` // empty = in-memory store
	NightDuration  time.Duration `mapstructure:"night_duration"`
	DayDuration    time.Duration `mapstructure:"day_duration"`
	ResetGrace     time.Duration `mapstructure:"reset_grace"`
	OperatorToken  string        `mapstructure:"operator_token"`
	LogLevel       string        `mapstructure:"log_level"`
}

// Load reads MAFIA_-prefixed environment variables (MAFIA_LISTEN_ADDR,
// MAFIA_POSTGRES_URL, ...).
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("mafia")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("listen_addr", ":5000")
	v.SetDefault("allowed_origins", "http://localhost:5173")
	v.SetDefault("postgres_url", "")
	v.SetDefault("night_duration", 30*time.Second)
	v.SetDefault("day_duration", 120*time.Second)
	v.SetDefault("reset_grace", time.Second)
	v.SetDefault("operator_token", "")
	v.SetDefault("log_level", "info")

	// viper's default decode hooks split comma-separated origins and
	// parse duration strings.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
